package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/models"
)

/* item types */

func createBalanceSheetItemTypeHandler(c *gin.Context) {
	var input models.NewBalanceSheetItemType
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	itemType, err := models.CreateBalanceSheetItemType(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, itemType)
}

func updateBalanceSheetItemTypeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewBalanceSheetItemType
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	itemType, err := models.UpdateBalanceSheetItemType(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemType)
}

func reparentBalanceSheetItemTypeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req reparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	itemType, err := models.ReparentBalanceSheetItemType(c.Request.Context(), id, req.ParentId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemType)
}

func deleteBalanceSheetItemTypeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	itemType, err := models.DeleteBalanceSheetItemType(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemType)
}

func getBalanceSheetItemTypeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	itemType, err := models.GetBalanceSheetItemType(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemType)
}

func listChildItemTypesHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	children, err := models.FindChildItemTypes(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

func listBalanceSheetItemTypesHandler(c *gin.Context) {
	itemTypes, err := models.GetBalanceSheetItemTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemTypes)
}

/* item values */

func createBalanceSheetItemValueHandler(c *gin.Context) {
	var input models.NewBalanceSheetItemValue
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	value, err := models.CreateBalanceSheetItemValue(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, value)
}

func updateBalanceSheetItemValueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewBalanceSheetItemValue
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	value, err := models.UpdateBalanceSheetItemValue(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

func deleteBalanceSheetItemValueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	value, err := models.DeleteBalanceSheetItemValue(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

func listBalanceSheetItemValuesHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	values, err := models.GetBalanceSheetItemValues(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// latestBalanceSheetItemValueHandler returns the most recent recorded value
// of one item on or before as_of, without touching the ledger or the tree.
func latestBalanceSheetItemValueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	asOf, ok := reportDate(c)
	if !ok {
		return
	}
	value, err := models.LatestItemValueAsOf(c.Request.Context(), id, asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	if value == nil {
		writeError(c, &models.NoValueError{ItemTypeId: id, AsOf: asOf})
		return
	}
	c.JSON(http.StatusOK, value)
}

/* aggregation */

func reportDate(c *gin.Context) (time.Time, bool) {
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return time.Time{}, false
	}
	if asOf == nil {
		now := time.Now().UTC()
		return now, true
	}
	return *asOf, true
}

func computeItemValueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	asOf, ok := reportDate(c)
	if !ok {
		return
	}
	value, err := models.ComputeItemValue(c.Request.Context(), id, asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_type_id": id, "as_of": asOf.Format("2006-01-02"), "value": value})
}

func balanceSheetReportHandler(c *gin.Context) {
	asOf, ok := reportDate(c)
	if !ok {
		return
	}
	ctx, span := tracer.Start(c.Request.Context(), "balance-sheet-report")
	defer span.End()
	report, err := models.BuildBalanceSheetReport(ctx, asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func balanceSheetReportXLSXHandler(c *gin.Context) {
	asOf, ok := reportDate(c)
	if !ok {
		return
	}
	report, err := models.BuildBalanceSheetReport(c.Request.Context(), asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	file, err := models.ExportBalanceSheetXLSX(report)
	if err != nil {
		writeError(c, err)
		return
	}
	filename := fmt.Sprintf("balance-sheet-%s.xlsx", report.AsOf.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		writeError(c, err)
	}
}
