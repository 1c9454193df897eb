package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/models"
)

// referenceRoutes wires the uniform CRUD surface of one reference-data
// entity under a base path.
type referenceRoutes[T any] struct {
	create func(ctx context.Context, input *T) (*T, error)
	update func(ctx context.Context, id int, input *T) (*T, error)
	delete func(ctx context.Context, id int) (*T, error)
	get    func(ctx context.Context, id int) (*T, error)
	list   func(ctx context.Context) ([]*T, error)
}

func (routes referenceRoutes[T]) register(group *gin.RouterGroup) {
	group.POST("", func(c *gin.Context) {
		var input T
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, err)
			return
		}
		record, err := routes.create(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	})
	group.PUT("/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input T
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, err)
			return
		}
		record, err := routes.update(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})
	group.DELETE("/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := routes.delete(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})
	group.GET("/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := routes.get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})
	group.GET("", func(c *gin.Context) {
		records, err := routes.list(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	})
}

func registerReferenceDataRoutes(api *gin.RouterGroup) {
	referenceRoutes[models.TransactionAccountType]{
		create: models.CreateTransactionAccountType,
		update: models.UpdateTransactionAccountType,
		delete: models.DeleteTransactionAccountType,
		get:    models.GetTransactionAccountType,
		list:   models.GetTransactionAccountTypes,
	}.register(api.Group("/transaction-account-types"))

	referenceRoutes[models.TransactionCurrency]{
		create: models.CreateTransactionCurrency,
		update: models.UpdateTransactionCurrency,
		delete: models.DeleteTransactionCurrency,
		get:    models.GetTransactionCurrency,
		list:   models.GetTransactionCurrencies,
	}.register(api.Group("/transaction-currencies"))

	referenceRoutes[models.DealerType]{
		create: models.CreateDealerType,
		update: models.UpdateDealerType,
		delete: models.DeleteDealerType,
		get:    models.GetDealerType,
		list:   models.GetDealerTypes,
	}.register(api.Group("/dealer-types"))

	referenceRoutes[models.Dealer]{
		create: models.CreateDealer,
		update: models.UpdateDealer,
		delete: models.DeleteDealer,
		get:    models.GetDealer,
		list:   models.GetDealers,
	}.register(api.Group("/dealers"))

	referenceRoutes[models.EventType]{
		create: models.CreateEventType,
		update: models.UpdateEventType,
		delete: models.DeleteEventType,
		get:    models.GetEventType,
		list:   models.GetEventTypes,
	}.register(api.Group("/event-types"))
}
