package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/models"
)

func recordAccountingEventHandler(c *gin.Context) {
	var input models.NewAccountingEvent
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	event, err := models.RecordAccountingEvent(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func deleteAccountingEventHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	event, err := models.DeleteAccountingEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func getAccountingEventHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	event, err := models.GetAccountingEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func accountingEventFilter(c *gin.Context) (*models.AccountingEventFilter, bool) {
	filter := &models.AccountingEventFilter{}
	eventTypeId, ok := queryInt(c, "event_type_id")
	if !ok {
		return nil, false
	}
	filter.EventTypeId = eventTypeId
	dealerId, ok := queryInt(c, "dealer_id")
	if !ok {
		return nil, false
	}
	filter.DealerId = dealerId
	fromDate, ok := queryDate(c, "from_date")
	if !ok {
		return nil, false
	}
	filter.FromDate = fromDate
	toDate, ok := queryDate(c, "to_date")
	if !ok {
		return nil, false
	}
	filter.ToDate = toDate
	return filter, true
}

func listAccountingEventsHandler(c *gin.Context) {
	filter, ok := accountingEventFilter(c)
	if !ok {
		return
	}
	if c.Query("limit") != "" || c.Query("after") != "" {
		connection, err := models.PaginateAccountingEvents(
			c.Request.Context(), queryLimit(c), queryString(c, "after"), filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
		return
	}
	events, err := models.GetAccountingEvents(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
