package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/models"
)

func createAccountTransactionHandler(c *gin.Context) {
	var input models.NewAccountTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	transaction, err := models.CreateAccountTransaction(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func updateAccountTransactionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewAccountTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	transaction, err := models.UpdateAccountTransaction(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func lifecycleHandler(op func(c *gin.Context, id int) (*models.AccountTransaction, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		transaction, err := op(c, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func proposeAccountTransactionHandler() gin.HandlerFunc {
	return lifecycleHandler(func(c *gin.Context, id int) (*models.AccountTransaction, error) {
		return models.ProposeAccountTransaction(c.Request.Context(), id)
	})
}

func postAccountTransactionHandler() gin.HandlerFunc {
	return lifecycleHandler(func(c *gin.Context, id int) (*models.AccountTransaction, error) {
		return models.PostAccountTransaction(c.Request.Context(), id)
	})
}

func approveAccountTransactionHandler() gin.HandlerFunc {
	return lifecycleHandler(func(c *gin.Context, id int) (*models.AccountTransaction, error) {
		return models.ApproveAccountTransaction(c.Request.Context(), id)
	})
}

func deleteAccountTransactionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.DeleteAccountTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func getAccountTransactionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.GetAccountTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func accountTransactionFilter(c *gin.Context) (*models.AccountTransactionFilter, bool) {
	filter := &models.AccountTransactionFilter{}
	if raw := c.Query("status"); raw != "" {
		status := models.TransactionStatus(raw)
		if status.Rank() < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return nil, false
		}
		filter.Status = &status
	}
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
	filter.IncludeDeleted = c.Query("include_deleted") == "true"
	return filter, true
}

func listAccountTransactionsHandler(c *gin.Context) {
	filter, ok := accountTransactionFilter(c)
	if !ok {
		return
	}
	if c.Query("limit") != "" || c.Query("after") != "" {
		connection, err := models.PaginateAccountTransactions(
			c.Request.Context(), queryLimit(c), queryString(c, "after"), filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
		return
	}
	transactions, err := models.GetAccountTransactions(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

/* entries */

func addTransactionEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewTransactionEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	entry, err := models.AddTransactionEntry(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func listTransactionEntriesHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entries, err := models.FindEntriesByTransaction(
		c.Request.Context(), id, c.Query("include_deleted") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func updateTransactionEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewTransactionEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	entry, err := models.UpdateTransactionEntry(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func removeTransactionEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entry, err := models.RemoveTransactionEntry(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
