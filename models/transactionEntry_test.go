package models

import (
	"testing"

	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", raw, err)
	}
	return d
}

func TestSumEntryTotals_BalancedAcrossPrecision(t *testing.T) {
	entries := []TransactionEntry{
		{EntryType: EntryDebit, EntryAmount: mustDecimal(t, "1.50"), Deleted: utils.NewFalse()},
		{EntryType: EntryDebit, EntryAmount: mustDecimal(t, "98.5"), Deleted: utils.NewFalse()},
		{EntryType: EntryCredit, EntryAmount: mustDecimal(t, "100.00"), Deleted: utils.NewFalse()},
	}
	debits, credits := SumEntryTotals(entries)
	if !debits.Equal(credits) {
		t.Fatalf("expected balance, got debits %s credits %s", debits.String(), credits.String())
	}
	if debits.String() != "100" {
		t.Fatalf("normalized debit total should be 100, got %s", debits.String())
	}
}

func TestSumEntryTotals_DiscrepancyReported(t *testing.T) {
	entries := []TransactionEntry{
		{EntryType: EntryDebit, EntryAmount: mustDecimal(t, "100.00"), Deleted: utils.NewFalse()},
		{EntryType: EntryCredit, EntryAmount: mustDecimal(t, "90.00"), Deleted: utils.NewFalse()},
	}
	debits, credits := SumEntryTotals(entries)
	if debits.Equal(credits) {
		t.Fatal("expected an unbalanced result")
	}
	err := &UnbalancedTransactionError{TransactionId: 1, Debits: debits, Credits: credits}
	if err.Discrepancy().String() != "10" {
		t.Fatalf("discrepancy should be 10, got %s", err.Discrepancy().String())
	}
}

func TestSumEntryTotals_DeletedEntriesExcluded(t *testing.T) {
	entries := []TransactionEntry{
		{EntryType: EntryDebit, EntryAmount: mustDecimal(t, "500"), Deleted: utils.NewFalse()},
		{EntryType: EntryCredit, EntryAmount: mustDecimal(t, "500"), Deleted: utils.NewFalse()},
		{EntryType: EntryDebit, EntryAmount: mustDecimal(t, "9999"), Deleted: utils.NewTrue()},
	}
	debits, credits := SumEntryTotals(entries)
	if !debits.Equal(credits) || debits.String() != "500" {
		t.Fatalf("deleted entry leaked into totals: debits %s credits %s", debits.String(), credits.String())
	}
}

func TestUnbalancedTransactionError_DiscrepancyIsAbsolute(t *testing.T) {
	err := &UnbalancedTransactionError{
		TransactionId: 7,
		Debits:        mustDecimal(t, "90"),
		Credits:       mustDecimal(t, "100"),
	}
	if err.Discrepancy().String() != "10" {
		t.Fatalf("discrepancy should be absolute, got %s", err.Discrepancy().String())
	}
}

func TestEntryDirection_Valid(t *testing.T) {
	if !EntryDebit.Valid() || !EntryCredit.Valid() {
		t.Fatal("DEBIT and CREDIT must be valid directions")
	}
	if EntryDirection("debit").Valid() || EntryDirection("").Valid() {
		t.Fatal("lowercase or blank directions must be rejected")
	}
}
