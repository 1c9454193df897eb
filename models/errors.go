package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrHierarchyCycle is returned when reparenting an account or a
	// balance-sheet item would make its parent chain loop.
	ErrHierarchyCycle = errors.New("reparenting would create a cycle")
)

// ValidationError reports a rejected input before any mutation happened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func newValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnbalancedTransactionError is returned when a transaction is posted while
// its debit and credit totals differ. The transaction keeps its prior state.
type UnbalancedTransactionError struct {
	TransactionId int
	Debits        decimal.Decimal
	Credits       decimal.Decimal
}

// Discrepancy is the absolute difference between debit and credit totals.
func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction %d is unbalanced: debits %s != credits %s (discrepancy %s)",
		e.TransactionId, e.Debits.String(), e.Credits.String(), e.Discrepancy().String())
}

func (e *UnbalancedTransactionError) Discrepancy() decimal.Decimal {
	return e.Debits.Sub(e.Credits).Abs()
}

// InvalidTransitionError reports a lifecycle transition attempted out of order.
type InvalidTransitionError struct {
	From TransactionStatus
	To   TransactionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ReferentialConflictError is returned when deleting a record that other
// records still reference.
type ReferentialConflictError struct {
	Resource     string
	Id           int
	ReferencedBy string
}

func (e *ReferentialConflictError) Error() string {
	return fmt.Sprintf("%s %d is still referenced by %s", e.Resource, e.Id, e.ReferencedBy)
}

// NoValueError is returned when a leaf balance-sheet item has no recorded
// value on or before the requested date. A typed "no data" result, not a
// failure of the aggregation itself.
type NoValueError struct {
	ItemTypeId int
	AsOf       time.Time
}

func (e *NoValueError) Error() string {
	return fmt.Sprintf("balance sheet item type %d has no value as of %s", e.ItemTypeId, e.AsOf.Format("2006-01-02"))
}
