package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/models"
)

func createTransactionAccountHandler(c *gin.Context) {
	var input models.NewTransactionAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	account, err := models.CreateTransactionAccount(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func updateTransactionAccountHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewTransactionAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	account, err := models.UpdateTransactionAccount(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type reparentRequest struct {
	ParentId int `json:"parent_id"`
}

func reparentTransactionAccountHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req reparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	account, err := models.ReparentTransactionAccount(c.Request.Context(), id, req.ParentId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func deleteTransactionAccountHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.DeleteTransactionAccount(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func getTransactionAccountHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.GetTransactionAccount(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func listTransactionAccountsHandler(c *gin.Context) {
	if c.Query("limit") != "" || c.Query("after") != "" {
		connection, err := models.PaginateTransactionAccounts(
			c.Request.Context(), queryLimit(c), queryString(c, "after"), queryString(c, "name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
		return
	}
	accounts, err := models.GetTransactionAccounts(
		c.Request.Context(), queryString(c, "name"), queryString(c, "number"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func listChildAccountsHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	children, err := models.FindChildAccounts(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

func getAccountBalanceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}
	if asOf == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "as_of is required"})
		return
	}
	balance, err := models.AccountLedgerBalance(c.Request.Context(), id, *asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": id, "as_of": asOf.Format("2006-01-02"), "balance": balance})
}
