package models

import (
	"context"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
)

var defaultAccountTypes = []TransactionAccountType{
	{Name: "Asset", Description: "Resources owned by the business"},
	{Name: "Liability", Description: "Obligations owed to others"},
	{Name: "Equity", Description: "Owner claims on the business"},
	{Name: "Revenue", Description: "Income earned from operations"},
	{Name: "Expense", Description: "Costs incurred in operations"},
}

var defaultEventTypes = []EventType{
	{Name: "Invoice Issued"},
	{Name: "Payment Received"},
	{Name: "Payment Made"},
	{Name: "Adjustment"},
}

// SeedDefaultData installs the reference data and balance sheet layout a
// fresh installation starts from. Safe to call repeatedly: it does nothing
// once any account types exist.
func SeedDefaultData(ctx context.Context) error {

	count, err := utils.ResourceCountWhere[TransactionAccountType](ctx, "1 = 1")
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	logger := config.GetLogger()

	for i := range defaultAccountTypes {
		if _, err := CreateTransactionAccountType(ctx, &defaultAccountTypes[i]); err != nil {
			return err
		}
	}

	if _, err := CreateTransactionCurrency(ctx, &TransactionCurrency{Name: "US Dollar", Code: "USD"}); err != nil {
		return err
	}

	for i := range defaultEventTypes {
		if _, err := CreateEventType(ctx, &defaultEventTypes[i]); err != nil {
			return err
		}
	}

	layout := []struct {
		sequence int
		number   string
		name     string
		parent   string
	}{
		{10, "1", "Assets", ""},
		{11, "1.1", "Current Assets", "1"},
		{12, "1.2", "Fixed Assets", "1"},
		{20, "2", "Liabilities", ""},
		{21, "2.1", "Current Liabilities", "2"},
		{22, "2.2", "Long Term Liabilities", "2"},
		{30, "3", "Equity", ""},
	}
	createdByNumber := make(map[string]*BalanceSheetItemType, len(layout))
	for _, line := range layout {
		parentId := 0
		if line.parent != "" {
			parentId = createdByNumber[line.parent].ID
		}
		itemType, err := CreateBalanceSheetItemType(ctx, &NewBalanceSheetItemType{
			ItemSequence:     line.sequence,
			ItemNumber:       line.number,
			ShortDescription: line.name,
			ParentItemTypeId: parentId,
		})
		if err != nil {
			return err
		}
		createdByNumber[line.number] = itemType
	}

	logger.Info("seeded default reference data and balance sheet layout")
	return nil
}
