package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"gorm.io/gorm"
)

const transactionLockType = "ledger-tx"

// AccountTransaction is the ledger aggregate. Its entries move through the
// lifecycle with it; the balance invariant (debit total == credit total over
// non-deleted entries) is enforced once, at the moment of posting.
type AccountTransaction struct {
	ID              int                `gorm:"primary_key" json:"id"`
	TransactionDate time.Time          `gorm:"index;not null" json:"transaction_date"`
	ReferenceNumber string             `gorm:"size:100;index" json:"reference_number"`
	Description     string             `gorm:"size:255" json:"description"`
	Notes           string             `gorm:"type:text" json:"notes"`
	Status          TransactionStatus  `gorm:"size:20;not null;default:Draft;index" json:"status"`
	Deleted         *bool              `gorm:"not null;default:false;index" json:"-"`
	Entries         []TransactionEntry `gorm:"foreignKey:AccountTransactionId" json:"entries,omitempty"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t AccountTransaction) GetCursor() string {
	return fmt.Sprintf("%012d", t.ID)
}

func (t AccountTransaction) IsDeleted() bool {
	return t.Deleted != nil && *t.Deleted
}

// MarshalJSON adds the legacy lifecycle flags next to the status so existing
// consumers of the record layer keep working.
func (t AccountTransaction) MarshalJSON() ([]byte, error) {
	type alias AccountTransaction
	return json.Marshal(struct {
		alias
		LifecycleFlags
	}{
		alias:          alias(t),
		LifecycleFlags: DeriveFlags(t.Status, t.IsDeleted()),
	})
}

// ensureMutable rejects structural edits once a transaction has been posted
// or soft-deleted.
func (t *AccountTransaction) ensureMutable() error {
	if t.IsDeleted() {
		return utils.ErrorRecordNotFound
	}
	if t.Status.Rank() >= StatusPosted.Rank() {
		return newValidationError("status", "transaction is posted and can no longer be edited")
	}
	return nil
}

type NewAccountTransaction struct {
	TransactionDate time.Time             `json:"transaction_date" binding:"required"`
	ReferenceNumber string                `json:"reference_number"`
	Description     string                `json:"description"`
	Notes           string                `json:"notes"`
	Entries         []NewTransactionEntry `json:"entries"`
}

func (input *NewAccountTransaction) validate(ctx context.Context) error {
	if input.TransactionDate.IsZero() {
		return newValidationError("transaction_date", "must not be blank")
	}
	for _, entry := range input.Entries {
		if err := entry.validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CreateAccountTransaction opens a new draft, optionally with its initial
// lines. Drafts may be unbalanced; balance is only checked when posting.
func CreateAccountTransaction(ctx context.Context, input *NewAccountTransaction) (*AccountTransaction, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	referenceNumber := input.ReferenceNumber
	if referenceNumber == "" {
		// Blank reference numbers are assigned from a redis sequence; when
		// Redis is absent the counter yields 0 and the field stays blank.
		seq, err := config.GetRedisCounter(ctx, "seq:account-transaction")
		if err != nil {
			return nil, err
		}
		if seq > 0 {
			referenceNumber = fmt.Sprintf("TXN-%06d", seq)
		}
	}

	transaction := AccountTransaction{
		TransactionDate: utils.ConvertToDate(input.TransactionDate),
		ReferenceNumber: referenceNumber,
		Description:     input.Description,
		Notes:           input.Notes,
		Status:          StatusDraft,
		Deleted:         utils.NewFalse(),
	}
	for _, line := range input.Entries {
		transaction.Entries = append(transaction.Entries, TransactionEntry{
			TransactionAccountId: line.TransactionAccountId,
			EntryType:            line.EntryType,
			EntryAmount:          utils.NormalizeDecimal(line.EntryAmount),
			Description:          line.Description,
			Status:               StatusDraft,
			Deleted:              utils.NewFalse(),
		})
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateAccountTransaction rewrites the header and, when input.Entries is
// non-nil, replaces the line set. Allowed until the transaction is posted.
func UpdateAccountTransaction(ctx context.Context, id int, input *NewAccountTransaction) (*AccountTransaction, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	release, err := utils.AggregateLock(ctx, transactionLockType, id, "accountTransaction", "UpdateAccountTransaction")
	if err != nil {
		return nil, err
	}
	defer release()

	transaction, err := utils.FetchModel[AccountTransaction](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transaction.ensureMutable(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(transaction).Updates(map[string]interface{}{
			"TransactionDate": utils.ConvertToDate(input.TransactionDate),
			"ReferenceNumber": input.ReferenceNumber,
			"Description":     input.Description,
			"Notes":           input.Notes,
		}).Error; err != nil {
			return err
		}
		if input.Entries == nil {
			return nil
		}
		if err := tx.Where("account_transaction_id = ?", transaction.ID).
			Delete(&TransactionEntry{}).Error; err != nil {
			return err
		}
		for _, line := range input.Entries {
			entry := TransactionEntry{
				AccountTransactionId: transaction.ID,
				TransactionAccountId: line.TransactionAccountId,
				EntryType:            line.EntryType,
				EntryAmount:          utils.NormalizeDecimal(line.EntryAmount),
				Description:          line.Description,
				Status:               transaction.Status,
				Deleted:              utils.NewFalse(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return utils.FetchModel[AccountTransaction](ctx, id, "Entries")
}

// transition moves the aggregate to the target status under the per-aggregate
// lock, runs the optional guard inside the DB transaction and mirrors the new
// status onto every non-deleted entry.
func transition(ctx context.Context, id int, target TransactionStatus, functionName string,
	guard func(tx *gorm.DB, transaction *AccountTransaction) error) (*AccountTransaction, error) {

	release, err := utils.AggregateLock(ctx, transactionLockType, id, "accountTransaction", functionName)
	if err != nil {
		return nil, err
	}
	defer release()

	transaction, err := utils.FetchModel[AccountTransaction](ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction.IsDeleted() {
		return nil, utils.ErrorRecordNotFound
	}
	if !transaction.Status.CanTransition(target) {
		return nil, &InvalidTransitionError{From: transaction.Status, To: target}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if guard != nil {
			if err := guard(tx, transaction); err != nil {
				return err
			}
		}
		if err := tx.Model(transaction).Updates(map[string]interface{}{
			"Status": target,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&TransactionEntry{}).
			Where("account_transaction_id = ? AND deleted = ?", transaction.ID, false).
			Updates(map[string]interface{}{"Status": target}).Error
	})
	if err != nil {
		return nil, err
	}

	return utils.FetchModel[AccountTransaction](ctx, id, "Entries")
}

// ProposeAccountTransaction submits a draft for review.
func ProposeAccountTransaction(ctx context.Context, id int) (*AccountTransaction, error) {
	return transition(ctx, id, StatusProposed, "ProposeAccountTransaction", nil)
}

// PostAccountTransaction books a proposed transaction into the ledger. The
// debit and credit totals over its non-deleted entries must match exactly;
// on a mismatch nothing is written and the discrepancy is reported.
func PostAccountTransaction(ctx context.Context, id int) (*AccountTransaction, error) {
	return transition(ctx, id, StatusPosted, "PostAccountTransaction",
		func(tx *gorm.DB, transaction *AccountTransaction) error {
			var entries []TransactionEntry
			if err := tx.Where("account_transaction_id = ?", transaction.ID).
				Find(&entries).Error; err != nil {
				return err
			}
			debits, credits := SumEntryTotals(entries)
			if !debits.Equal(credits) {
				return &UnbalancedTransactionError{
					TransactionId: transaction.ID,
					Debits:        debits,
					Credits:       credits,
				}
			}
			return nil
		})
}

// ApproveAccountTransaction finalizes a posted transaction.
func ApproveAccountTransaction(ctx context.Context, id int) (*AccountTransaction, error) {
	return transition(ctx, id, StatusApproved, "ApproveAccountTransaction", nil)
}

// DeleteAccountTransaction soft-deletes the aggregate and all of its entries.
// The records keep the last status they reached; deleting an already deleted
// transaction changes nothing.
func DeleteAccountTransaction(ctx context.Context, id int) (*AccountTransaction, error) {

	release, err := utils.AggregateLock(ctx, transactionLockType, id, "accountTransaction", "DeleteAccountTransaction")
	if err != nil {
		return nil, err
	}
	defer release()

	transaction, err := utils.FetchModel[AccountTransaction](ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction.IsDeleted() {
		return transaction, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(transaction).Updates(map[string]interface{}{
			"Deleted": true,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&TransactionEntry{}).
			Where("account_transaction_id = ?", transaction.ID).
			Updates(map[string]interface{}{"Deleted": true}).Error
	})
	if err != nil {
		return nil, err
	}
	transaction.Deleted = utils.NewTrue()
	return transaction, nil
}

func GetAccountTransaction(ctx context.Context, id int) (*AccountTransaction, error) {
	transaction, err := utils.FetchModel[AccountTransaction](ctx, id, "Entries")
	if err != nil {
		return nil, err
	}
	if transaction.IsDeleted() {
		return nil, utils.ErrorRecordNotFound
	}
	return transaction, nil
}

type AccountTransactionFilter struct {
	Status         *TransactionStatus
	FromDate       *time.Time
	ToDate         *time.Time
	IncludeDeleted bool
}

func (f *AccountTransactionFilter) apply(dbCtx *gorm.DB) *gorm.DB {
	if f == nil {
		return dbCtx.Where("deleted = ?", false)
	}
	if !f.IncludeDeleted {
		dbCtx = dbCtx.Where("deleted = ?", false)
	}
	if f.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *f.Status)
	}
	if f.FromDate != nil {
		dbCtx = dbCtx.Where("transaction_date >= ?", utils.ConvertToDate(*f.FromDate))
	}
	if f.ToDate != nil {
		dbCtx = dbCtx.Where("transaction_date <= ?", utils.ConvertToDate(*f.ToDate))
	}
	return dbCtx
}

func GetAccountTransactions(ctx context.Context, filter *AccountTransactionFilter) ([]*AccountTransaction, error) {
	db := config.GetDB()
	dbCtx := filter.apply(db.WithContext(ctx).Preload("Entries"))
	var results []*AccountTransaction
	err := dbCtx.Order("transaction_date DESC, id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateAccountTransactions(ctx context.Context, limit int, after *string, filter *AccountTransactionFilter) (*Connection[AccountTransaction], error) {
	db := config.GetDB()
	dbCtx := filter.apply(db.WithContext(ctx).Model(&AccountTransaction{}).Preload("Entries"))
	return FetchPage[AccountTransaction](dbCtx, limit, after, "id", "<")
}
