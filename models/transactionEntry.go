package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
)

// EntryDirection marks which side of the ledger an entry sits on.
type EntryDirection string

const (
	EntryDebit  EntryDirection = "DEBIT"
	EntryCredit EntryDirection = "CREDIT"
)

func (d EntryDirection) Valid() bool {
	return d == EntryDebit || d == EntryCredit
}

// TransactionEntry is a single debit or credit line. Entries always belong to
// exactly one AccountTransaction and mirror its lifecycle status; deletion is
// per entry and soft, so a removed line stays visible in history.
type TransactionEntry struct {
	ID                   int               `gorm:"primary_key" json:"id"`
	AccountTransactionId int               `gorm:"index;not null" json:"account_transaction_id"`
	TransactionAccountId int               `gorm:"index;not null" json:"transaction_account_id" binding:"required"`
	EntryType            EntryDirection    `gorm:"size:10;not null" json:"entry_type" binding:"required"`
	EntryAmount          decimal.Decimal   `gorm:"type:decimal(21,10);not null" json:"entry_amount"`
	Description          string            `gorm:"size:255" json:"description"`
	Status               TransactionStatus `gorm:"size:20;not null;default:Draft" json:"status"`
	Deleted              *bool             `gorm:"not null;default:false" json:"-"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e TransactionEntry) IsDeleted() bool {
	return e.Deleted != nil && *e.Deleted
}

// MarshalJSON adds the legacy lifecycle flags next to the status so existing
// consumers of the record layer keep working.
func (e TransactionEntry) MarshalJSON() ([]byte, error) {
	type alias TransactionEntry
	return json.Marshal(struct {
		alias
		LifecycleFlags
	}{
		alias:          alias(e),
		LifecycleFlags: DeriveFlags(e.Status, e.IsDeleted()),
	})
}

type NewTransactionEntry struct {
	TransactionAccountId int             `json:"transaction_account_id" binding:"required"`
	EntryType            EntryDirection  `json:"entry_type" binding:"required"`
	EntryAmount          decimal.Decimal `json:"entry_amount"`
	Description          string          `json:"description"`
}

func (input *NewTransactionEntry) validate(ctx context.Context) error {
	if !input.EntryType.Valid() {
		return newValidationError("entry_type", "must be DEBIT or CREDIT")
	}
	if !input.EntryAmount.IsPositive() {
		return newValidationError("entry_amount", "must be positive")
	}
	if err := utils.ValidateResourceId[TransactionAccount](ctx, input.TransactionAccountId); err != nil {
		return newValidationError("transaction_account_id", "transaction account not found")
	}
	return nil
}

// SumEntryTotals adds up the debit and credit sides of a set of entries.
// Deleted entries never count toward either side.
func SumEntryTotals(entries []TransactionEntry) (debits decimal.Decimal, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, entry := range entries {
		if entry.IsDeleted() {
			continue
		}
		switch entry.EntryType {
		case EntryDebit:
			debits = debits.Add(entry.EntryAmount)
		case EntryCredit:
			credits = credits.Add(entry.EntryAmount)
		}
	}
	return utils.NormalizeDecimal(debits), utils.NormalizeDecimal(credits)
}

// AddTransactionEntry appends a line to a transaction that has not been
// posted yet. Entry writes hold the owner's aggregate lock so they cannot
// interleave with a lifecycle transition reading the entry set.
func AddTransactionEntry(ctx context.Context, transactionId int, input *NewTransactionEntry) (*TransactionEntry, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	release, err := utils.AggregateLock(ctx, transactionLockType, transactionId, "transactionEntry", "AddTransactionEntry")
	if err != nil {
		return nil, err
	}
	defer release()

	transaction, err := utils.FetchModel[AccountTransaction](ctx, transactionId)
	if err != nil {
		return nil, err
	}
	if err := transaction.ensureMutable(); err != nil {
		return nil, err
	}

	entry := TransactionEntry{
		AccountTransactionId: transaction.ID,
		TransactionAccountId: input.TransactionAccountId,
		EntryType:            input.EntryType,
		EntryAmount:          utils.NormalizeDecimal(input.EntryAmount),
		Description:          input.Description,
		Status:               transaction.Status,
		Deleted:              utils.NewFalse(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func UpdateTransactionEntry(ctx context.Context, id int, input *NewTransactionEntry) (*TransactionEntry, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	entry, err := utils.FetchModel[TransactionEntry](ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsDeleted() {
		return nil, utils.ErrorRecordNotFound
	}

	release, err := utils.AggregateLock(ctx, transactionLockType, entry.AccountTransactionId, "transactionEntry", "UpdateTransactionEntry")
	if err != nil {
		return nil, err
	}
	defer release()

	transaction, err := utils.FetchModel[AccountTransaction](ctx, entry.AccountTransactionId)
	if err != nil {
		return nil, err
	}
	if err := transaction.ensureMutable(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&entry).Updates(map[string]interface{}{
		"TransactionAccountId": input.TransactionAccountId,
		"EntryType":            input.EntryType,
		"EntryAmount":          utils.NormalizeDecimal(input.EntryAmount),
		"Description":          input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveTransactionEntry soft-deletes one line. The entry keeps the last
// status it reached and its owning transaction link. Removing an already
// removed entry changes nothing.
func RemoveTransactionEntry(ctx context.Context, id int) (*TransactionEntry, error) {

	entry, err := utils.FetchModel[TransactionEntry](ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsDeleted() {
		return entry, nil
	}

	release, err := utils.AggregateLock(ctx, transactionLockType, entry.AccountTransactionId, "transactionEntry", "RemoveTransactionEntry")
	if err != nil {
		return nil, err
	}
	defer release()

	transaction, err := utils.FetchModel[AccountTransaction](ctx, entry.AccountTransactionId)
	if err != nil {
		return nil, err
	}
	if err := transaction.ensureMutable(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&entry).Updates(map[string]interface{}{
		"Deleted": true,
	}).Error
	if err != nil {
		return nil, err
	}
	entry.Deleted = utils.NewTrue()
	return entry, nil
}

func GetTransactionEntry(ctx context.Context, id int) (*TransactionEntry, error) {
	return utils.FetchModel[TransactionEntry](ctx, id)
}

// FindEntriesByTransaction lists the lines of one transaction. Deleted lines
// are included only when requested.
func FindEntriesByTransaction(ctx context.Context, transactionId int, includeDeleted bool) ([]TransactionEntry, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("account_transaction_id = ?", transactionId)
	if !includeDeleted {
		dbCtx = dbCtx.Where("deleted = ?", false)
	}
	var entries []TransactionEntry
	if err := dbCtx.Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindEntriesByAccount lists the non-deleted lines booked against an account.
func FindEntriesByAccount(ctx context.Context, accountId int) ([]TransactionEntry, error) {
	db := config.GetDB()
	var entries []TransactionEntry
	err := db.WithContext(ctx).
		Where("transaction_account_id = ? AND deleted = ?", accountId, false).
		Order("id").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
