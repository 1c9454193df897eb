package models

import (
	"context"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
)

// TransactionAccount is one node of the chart of accounts. Parent links are
// ids, not live pointers; the tree is traversed by repeated lookup and kept
// acyclic by walking up from a candidate parent before any reparent commits.
type TransactionAccount struct {
	ID              int             `gorm:"primary_key" json:"id"`
	AccountName     string          `gorm:"size:150;not null;index" json:"account_name" binding:"required"`
	AccountNumber   string          `gorm:"size:100;index" json:"account_number"`
	OpeningBalance  decimal.Decimal `gorm:"type:decimal(21,10);default:0" json:"opening_balance"`
	ParentAccountId int             `gorm:"index;not null;default:0" json:"parent_account_id"`
	AccountTypeId   int             `gorm:"index;not null" json:"account_type_id" binding:"required"`
	CurrencyId      int             `gorm:"index;not null" json:"currency_id" binding:"required"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a TransactionAccount) GetCursor() string {
	return a.AccountName
}

type NewTransactionAccount struct {
	AccountName     string          `json:"account_name" binding:"required"`
	AccountNumber   string          `json:"account_number"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	ParentAccountId int             `json:"parent_account_id"`
	AccountTypeId   int             `json:"account_type_id" binding:"required"`
	CurrencyId      int             `json:"currency_id" binding:"required"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewTransactionAccount) validate(ctx context.Context, id int) error {
	if input.AccountName == "" {
		return newValidationError("account_name", "must not be blank")
	}
	if id > 0 {
		if id == input.ParentAccountId {
			return ErrHierarchyCycle
		}
		if err := utils.ValidateResourceId[TransactionAccount](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[TransactionAccount](ctx, "account_name", input.AccountName, id); err != nil {
		return newValidationError("account_name", err.Error())
	}
	if err := utils.ValidateResourceId[TransactionAccountType](ctx, input.AccountTypeId); err != nil {
		return newValidationError("account_type_id", "account type not found")
	}
	if err := utils.ValidateResourceId[TransactionCurrency](ctx, input.CurrencyId); err != nil {
		return newValidationError("currency_id", "currency not found")
	}
	if input.ParentAccountId > 0 {
		if err := utils.ValidateResourceId[TransactionAccount](ctx, input.ParentAccountId); err != nil {
			return newValidationError("parent_account_id", "parent account not found")
		}
	}
	return nil
}

// parentChainContains walks up the parent chain starting at startId and
// reports whether targetId appears on it. The walk is bounded by the number
// of accounts so a pre-existing loop in stored data cannot spin forever.
func parentChainContains(getParent func(id int) (int, error), startId int, targetId int, maxDepth int) (bool, error) {
	current := startId
	for depth := 0; current > 0 && depth <= maxDepth; depth++ {
		if current == targetId {
			return true, nil
		}
		parent, err := getParent(current)
		if err != nil {
			return false, err
		}
		current = parent
	}
	return false, nil
}

func accountParentLookup(ctx context.Context) func(id int) (int, error) {
	db := config.GetDB()
	return func(id int) (int, error) {
		var parentId int
		err := db.WithContext(ctx).Model(&TransactionAccount{}).
			Where("id = ?", id).Select("parent_account_id").Scan(&parentId).Error
		return parentId, err
	}
}

// checkAccountCycle rejects a parent assignment that would put accountId on
// its own ancestor chain.
func checkAccountCycle(ctx context.Context, accountId int, newParentId int) error {
	if newParentId == 0 {
		return nil
	}
	if accountId == newParentId {
		return ErrHierarchyCycle
	}
	total, err := utils.ResourceCountWhere[TransactionAccount](ctx, "1 = 1")
	if err != nil {
		return err
	}
	onChain, err := parentChainContains(accountParentLookup(ctx), newParentId, accountId, int(total))
	if err != nil {
		return err
	}
	if onChain {
		return ErrHierarchyCycle
	}
	return nil
}

func CreateTransactionAccount(ctx context.Context, input *NewTransactionAccount) (*TransactionAccount, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	account := TransactionAccount{
		AccountName:     input.AccountName,
		AccountNumber:   input.AccountNumber,
		OpeningBalance:  utils.NormalizeDecimal(input.OpeningBalance),
		ParentAccountId: input.ParentAccountId,
		AccountTypeId:   input.AccountTypeId,
		CurrencyId:      input.CurrencyId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateTransactionAccount(ctx context.Context, id int, input *NewTransactionAccount) (*TransactionAccount, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[TransactionAccount](ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ParentAccountId != account.ParentAccountId {
		if err := checkAccountCycle(ctx, id, input.ParentAccountId); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	if input.CurrencyId != account.CurrencyId {
		var count int64
		if err := db.WithContext(ctx).Model(&TransactionEntry{}).Where("transaction_account_id = ?", account.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, newValidationError("currency_id", "not allowed to change account currency when entries exist")
		}
	}

	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"AccountName":     input.AccountName,
		"AccountNumber":   input.AccountNumber,
		"OpeningBalance":  utils.NormalizeDecimal(input.OpeningBalance),
		"ParentAccountId": input.ParentAccountId,
		"AccountTypeId":   input.AccountTypeId,
		"CurrencyId":      input.CurrencyId,
	}).Error
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ReparentTransactionAccount moves an account under a new parent
// (0 = make it a root). The tree is left untouched when the move would
// create a cycle.
func ReparentTransactionAccount(ctx context.Context, id int, newParentId int) (*TransactionAccount, error) {

	account, err := utils.FetchModel[TransactionAccount](ctx, id)
	if err != nil {
		return nil, err
	}
	if newParentId > 0 {
		if err := utils.ValidateResourceId[TransactionAccount](ctx, newParentId); err != nil {
			return nil, newValidationError("parent_account_id", "parent account not found")
		}
	}
	if err := checkAccountCycle(ctx, id, newParentId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"ParentAccountId": newParentId,
	}).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteTransactionAccount removes an account. Accounts referenced by ledger
// entries, child accounts or balance-sheet bindings are never deleted; the
// caller gets a conflict instead of orphaned references.
func DeleteTransactionAccount(ctx context.Context, id int) (*TransactionAccount, error) {

	account, err := utils.FetchModel[TransactionAccount](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[TransactionEntry](ctx, "transaction_account_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "transaction account", Id: id, ReferencedBy: "transaction entries"}
	}

	count, err = utils.ResourceCountWhere[TransactionAccount](ctx, "parent_account_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "transaction account", Id: id, ReferencedBy: "child accounts"}
	}

	count, err = utils.ResourceCountWhere[BalanceSheetItemType](ctx, "transaction_account_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "transaction account", Id: id, ReferencedBy: "balance sheet item types"}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func GetTransactionAccount(ctx context.Context, id int) (*TransactionAccount, error) {
	return utils.FetchModel[TransactionAccount](ctx, id)
}

func GetTransactionAccounts(ctx context.Context, name *string, number *string) ([]*TransactionAccount, error) {

	db := config.GetDB()
	var results []*TransactionAccount

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("account_name LIKE ?", "%"+*name+"%")
	}
	if number != nil && len(*number) > 0 {
		dbCtx = dbCtx.Where("account_number LIKE ?", "%"+*number+"%")
	}
	err := dbCtx.Order("account_name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindChildAccounts lists the direct children of an account (0 = roots).
func FindChildAccounts(ctx context.Context, parentId int) ([]*TransactionAccount, error) {
	db := config.GetDB()
	var results []*TransactionAccount
	err := db.WithContext(ctx).Where("parent_account_id = ?", parentId).
		Order("account_name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateTransactionAccounts(ctx context.Context, limit int, after *string, name *string) (*Connection[TransactionAccount], error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&TransactionAccount{})
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("account_name LIKE ?", "%"+*name+"%")
	}
	return FetchPage[TransactionAccount](dbCtx, limit, after, "account_name", ">")
}
