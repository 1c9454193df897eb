package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/models"
	"github.com/keeper-books/keeper_backend/utils"
)

// Nginx convention for a request the client abandoned.
const statusClientClosedRequest = 499

// writeError maps domain errors onto HTTP statuses. Validation problems are
// 400, missing records 404, state conflicts (cycles, unbalanced postings,
// out-of-order transitions, delete-while-referenced) 409.
func writeError(c *gin.Context, err error) {

	var validationErr *models.ValidationError
	var unbalancedErr *models.UnbalancedTransactionError
	var transitionErr *models.InvalidTransitionError
	var conflictErr *models.ReferentialConflictError
	var noValueErr *models.NoValueError
	var bindingErrs validator.ValidationErrors

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		c.JSON(statusClientClosedRequest, gin.H{"error": "request cancelled"})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.As(err, &bindingErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
	case errors.Is(err, models.ErrHierarchyCycle):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &unbalancedErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":       unbalancedErr.Error(),
			"debits":      unbalancedErr.Debits,
			"credits":     unbalancedErr.Credits,
			"discrepancy": unbalancedErr.Discrepancy(),
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error(), "from": transitionErr.From, "to": transitionErr.To})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &noValueErr):
		c.JSON(http.StatusNotFound, gin.H{
			"error":        noValueErr.Error(),
			"item_type_id": noValueErr.ItemTypeId,
			"as_of":        noValueErr.AsOf.Format("2006-01-02"),
		})
	default:
		logger := config.GetLogger()
		config.LogError(logger, "rest", c.FullPath(), "unhandled error", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &value, true
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &value, true
}

func queryString(c *gin.Context, name string) *string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
