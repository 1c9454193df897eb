package models

import (
	"github.com/keeper-books/keeper_backend/config"
)

// MigrateModels creates or updates the schema for every entity. Called once
// after the database connection is established.
func MigrateModels() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&TransactionAccountType{},
		&TransactionCurrency{},
		&DealerType{},
		&Dealer{},
		&EventType{},
		&TransactionAccount{},
		&AccountTransaction{},
		&TransactionEntry{},
		&BalanceSheetItemType{},
		&BalanceSheetItemValue{},
		&AccountingEvent{},
	)
}
