package models

import (
	"context"
	"fmt"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// balanceSheetSnapshot is everything the aggregation walks over, captured
// once per report so every row reflects the same point in time.
type balanceSheetSnapshot struct {
	asOf           time.Time
	itemsById      map[int]*BalanceSheetItemType
	childrenOf     map[int][]*BalanceSheetItemType
	latestValueOf  map[int]decimal.Decimal
	accountBalance func(accountId int) (decimal.Decimal, error)
}

// latestValuesByItem reduces recorded values to the most recent one per item
// on or before asOf. Ties on the effective date go to the latest recorded row.
func latestValuesByItem(values []*BalanceSheetItemValue, asOf time.Time) map[int]decimal.Decimal {
	type pick struct {
		date time.Time
		id   int
	}
	latest := make(map[int]decimal.Decimal)
	picked := make(map[int]pick)
	for _, v := range values {
		if v.EffectiveDate.After(asOf) {
			continue
		}
		prev, seen := picked[v.ItemTypeId]
		if seen && (v.EffectiveDate.Before(prev.date) ||
			(v.EffectiveDate.Equal(prev.date) && v.ID < prev.id)) {
			continue
		}
		picked[v.ItemTypeId] = pick{date: v.EffectiveDate, id: v.ID}
		latest[v.ItemTypeId] = utils.NormalizeDecimal(v.ItemAmount)
	}
	return latest
}

func buildSnapshot(ctx context.Context, asOf time.Time) (*balanceSheetSnapshot, error) {
	asOf = utils.ConvertToDate(asOf)

	itemTypes, err := GetBalanceSheetItemTypes(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var values []*BalanceSheetItemValue
	err = db.WithContext(ctx).Where("effective_date <= ?", asOf).Find(&values).Error
	if err != nil {
		return nil, err
	}

	snapshot := &balanceSheetSnapshot{
		asOf:          asOf,
		itemsById:     make(map[int]*BalanceSheetItemType, len(itemTypes)),
		childrenOf:    make(map[int][]*BalanceSheetItemType),
		latestValueOf: latestValuesByItem(values, asOf),
		accountBalance: func(accountId int) (decimal.Decimal, error) {
			return AccountLedgerBalance(ctx, accountId, asOf)
		},
	}
	for _, item := range itemTypes {
		snapshot.itemsById[item.ID] = item
		snapshot.childrenOf[item.ParentItemTypeId] = append(snapshot.childrenOf[item.ParentItemTypeId], item)
	}
	return snapshot, nil
}

// AccountLedgerBalance is the ledger-derived balance of one account as of a
// date: opening balance plus the signed sum (debits minus credits) of its
// posted and approved entries. Deleted entries and entries of deleted
// transactions never count, nor do transactions dated after asOf.
func AccountLedgerBalance(ctx context.Context, accountId int, asOf time.Time) (decimal.Decimal, error) {

	account, err := utils.FetchModel[TransactionAccount](ctx, accountId)
	if err != nil {
		return decimal.Zero, err
	}

	db := config.GetDB()
	var entries []TransactionEntry
	err = db.WithContext(ctx).Model(&TransactionEntry{}).
		Joins("JOIN account_transactions ON account_transactions.id = transaction_entries.account_transaction_id").
		Where("transaction_entries.transaction_account_id = ?", accountId).
		Where("transaction_entries.deleted = ? AND account_transactions.deleted = ?", false, false).
		Where("transaction_entries.status IN ?", []TransactionStatus{StatusPosted, StatusApproved}).
		Where("account_transactions.transaction_date <= ?", utils.ConvertToDate(asOf)).
		Find(&entries).Error
	if err != nil {
		return decimal.Zero, err
	}

	balance := account.OpeningBalance
	for _, entry := range entries {
		switch entry.EntryType {
		case EntryDebit:
			balance = balance.Add(entry.EntryAmount)
		case EntryCredit:
			balance = balance.Sub(entry.EntryAmount)
		}
	}
	return utils.NormalizeDecimal(balance), nil
}

// computeItemValue resolves one item against the snapshot. Composite items
// are the sum of their children, account-bound leaves read the ledger, plain
// leaves take their latest recorded value. A leaf without any source yields
// NoValueError; the walk honors context cancellation at every node.
func computeItemValue(ctx context.Context, snapshot *balanceSheetSnapshot, itemTypeId int) (decimal.Decimal, error) {

	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	item, ok := snapshot.itemsById[itemTypeId]
	if !ok {
		return decimal.Zero, utils.ErrorRecordNotFound
	}

	children := snapshot.childrenOf[item.ID]
	if len(children) > 0 {
		total := decimal.Zero
		for _, child := range children {
			value, err := computeItemValue(ctx, snapshot, child.ID)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(value)
		}
		return utils.NormalizeDecimal(total), nil
	}

	if item.TransactionAccountId > 0 {
		return snapshot.accountBalance(item.TransactionAccountId)
	}

	if value, found := snapshot.latestValueOf[item.ID]; found {
		return value, nil
	}
	return decimal.Zero, &NoValueError{ItemTypeId: item.ID, AsOf: snapshot.asOf}
}

// ComputeItemValue resolves a single balance sheet item as of a date.
func ComputeItemValue(ctx context.Context, itemTypeId int, asOf time.Time) (decimal.Decimal, error) {
	snapshot, err := buildSnapshot(ctx, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return computeItemValue(ctx, snapshot, itemTypeId)
}

// BalanceSheetRow is one rendered line of the report. Value is nil when the
// item had no resolvable value as of the report date.
type BalanceSheetRow struct {
	ItemTypeId       int              `json:"item_type_id"`
	ItemNumber       string           `json:"item_number"`
	ShortDescription string           `json:"short_description"`
	Depth            int              `json:"depth"`
	Value            *decimal.Decimal `json:"value"`
}

type BalanceSheetReport struct {
	AsOf time.Time         `json:"as_of"`
	Rows []BalanceSheetRow `json:"rows"`
}

// BuildBalanceSheetReport renders the full layout in depth-first sibling
// order against a single snapshot. A row whose leaf has no value is kept in
// the layout with a nil value; any other failure aborts the report.
func BuildBalanceSheetReport(ctx context.Context, asOf time.Time) (*BalanceSheetReport, error) {

	snapshot, err := buildSnapshot(ctx, asOf)
	if err != nil {
		return nil, err
	}

	report := &BalanceSheetReport{AsOf: snapshot.asOf}

	var walk func(parentId int, depth int) error
	walk = func(parentId int, depth int) error {
		for _, item := range snapshot.childrenOf[parentId] {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := BalanceSheetRow{
				ItemTypeId:       item.ID,
				ItemNumber:       item.ItemNumber,
				ShortDescription: item.ShortDescription,
				Depth:            depth,
			}
			value, err := computeItemValue(ctx, snapshot, item.ID)
			if err == nil {
				row.Value = &value
			} else if _, noValue := err.(*NoValueError); !noValue {
				return err
			}
			report.Rows = append(report.Rows, row)
			if err := walk(item.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 0); err != nil {
		return nil, err
	}
	return report, nil
}

// ExportBalanceSheetXLSX renders a report as a spreadsheet.
func ExportBalanceSheetXLSX(report *BalanceSheetReport) (*excelize.File, error) {

	file := excelize.NewFile()
	sheet := "Balance Sheet"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := file.SetCellValue(sheet, "A1", "Balance Sheet"); err != nil {
		return nil, err
	}
	if err := file.SetCellValue(sheet, "B1", report.AsOf.Format("2006-01-02")); err != nil {
		return nil, err
	}
	headers := []string{"Item Number", "Description", "Value"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range report.Rows {
		rowNum := i + 3
		indent := ""
		for d := 0; d < row.Depth; d++ {
			indent += "  "
		}
		if err := file.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), row.ItemNumber); err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), indent+row.ShortDescription); err != nil {
			return nil, err
		}
		if row.Value != nil {
			// Written as the decimal's string form; a float cell would round
			// decimal(21,10) amounts.
			if err := file.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), row.Value.String()); err != nil {
				return nil, err
			}
		}
	}
	return file, nil
}
