package models

import (
	"context"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
)

// BalanceSheetItemType is one line definition of the balance sheet layout.
// Items form a tree: composite items derive their value from their children,
// account-bound leaves derive it from the ledger, and plain leaves from
// recorded item values. Sibling order is item sequence first, then item
// number.
type BalanceSheetItemType struct {
	ID                   int       `gorm:"primary_key" json:"id"`
	ItemSequence         int       `gorm:"not null;default:0" json:"item_sequence"`
	ItemNumber           string    `gorm:"size:50;not null;uniqueIndex" json:"item_number" binding:"required"`
	ShortDescription     string    `gorm:"size:150;not null" json:"short_description" binding:"required"`
	ParentItemTypeId     int       `gorm:"index;not null;default:0" json:"parent_item_type_id"`
	TransactionAccountId int       `gorm:"index;not null;default:0" json:"transaction_account_id"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ItemTypeLess is the sibling ordering used for balance sheet rows:
// ascending item sequence, ties broken by item number.
func ItemTypeLess(a, b *BalanceSheetItemType) bool {
	if a.ItemSequence != b.ItemSequence {
		return a.ItemSequence < b.ItemSequence
	}
	return a.ItemNumber < b.ItemNumber
}

type NewBalanceSheetItemType struct {
	ItemSequence         int    `json:"item_sequence"`
	ItemNumber           string `json:"item_number" binding:"required"`
	ShortDescription     string `json:"short_description" binding:"required"`
	ParentItemTypeId     int    `json:"parent_item_type_id"`
	TransactionAccountId int    `json:"transaction_account_id"`
}

func (input *NewBalanceSheetItemType) validate(ctx context.Context, id int) error {
	if input.ItemNumber == "" {
		return newValidationError("item_number", "must not be blank")
	}
	if input.ShortDescription == "" {
		return newValidationError("short_description", "must not be blank")
	}
	if id > 0 {
		if id == input.ParentItemTypeId {
			return ErrHierarchyCycle
		}
		if err := utils.ValidateResourceId[BalanceSheetItemType](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[BalanceSheetItemType](ctx, "item_number", input.ItemNumber, id); err != nil {
		return newValidationError("item_number", err.Error())
	}
	if input.ParentItemTypeId > 0 {
		if err := utils.ValidateResourceId[BalanceSheetItemType](ctx, input.ParentItemTypeId); err != nil {
			return newValidationError("parent_item_type_id", "parent item type not found")
		}
	}
	if input.TransactionAccountId > 0 {
		if err := utils.ValidateResourceId[TransactionAccount](ctx, input.TransactionAccountId); err != nil {
			return newValidationError("transaction_account_id", "transaction account not found")
		}
	}
	return nil
}

func itemTypeParentLookup(ctx context.Context) func(id int) (int, error) {
	db := config.GetDB()
	return func(id int) (int, error) {
		var parentId int
		err := db.WithContext(ctx).Model(&BalanceSheetItemType{}).
			Where("id = ?", id).Select("parent_item_type_id").Scan(&parentId).Error
		return parentId, err
	}
}

func checkItemTypeCycle(ctx context.Context, itemTypeId int, newParentId int) error {
	if newParentId == 0 {
		return nil
	}
	if itemTypeId == newParentId {
		return ErrHierarchyCycle
	}
	total, err := utils.ResourceCountWhere[BalanceSheetItemType](ctx, "1 = 1")
	if err != nil {
		return err
	}
	onChain, err := parentChainContains(itemTypeParentLookup(ctx), newParentId, itemTypeId, int(total))
	if err != nil {
		return err
	}
	if onChain {
		return ErrHierarchyCycle
	}
	return nil
}

func CreateBalanceSheetItemType(ctx context.Context, input *NewBalanceSheetItemType) (*BalanceSheetItemType, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	itemType := BalanceSheetItemType{
		ItemSequence:         input.ItemSequence,
		ItemNumber:           input.ItemNumber,
		ShortDescription:     input.ShortDescription,
		ParentItemTypeId:     input.ParentItemTypeId,
		TransactionAccountId: input.TransactionAccountId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&itemType).Error; err != nil {
		return nil, err
	}
	return &itemType, nil
}

func UpdateBalanceSheetItemType(ctx context.Context, id int, input *NewBalanceSheetItemType) (*BalanceSheetItemType, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	itemType, err := utils.FetchModel[BalanceSheetItemType](ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ParentItemTypeId != itemType.ParentItemTypeId {
		if err := checkItemTypeCycle(ctx, id, input.ParentItemTypeId); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&itemType).Updates(map[string]interface{}{
		"ItemSequence":         input.ItemSequence,
		"ItemNumber":           input.ItemNumber,
		"ShortDescription":     input.ShortDescription,
		"ParentItemTypeId":     input.ParentItemTypeId,
		"TransactionAccountId": input.TransactionAccountId,
	}).Error
	if err != nil {
		return nil, err
	}
	return itemType, nil
}

// ReparentBalanceSheetItemType moves an item under a new parent (0 = root).
func ReparentBalanceSheetItemType(ctx context.Context, id int, newParentId int) (*BalanceSheetItemType, error) {

	itemType, err := utils.FetchModel[BalanceSheetItemType](ctx, id)
	if err != nil {
		return nil, err
	}
	if newParentId > 0 {
		if err := utils.ValidateResourceId[BalanceSheetItemType](ctx, newParentId); err != nil {
			return nil, newValidationError("parent_item_type_id", "parent item type not found")
		}
	}
	if err := checkItemTypeCycle(ctx, id, newParentId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&itemType).Updates(map[string]interface{}{
		"ParentItemTypeId": newParentId,
	}).Error
	if err != nil {
		return nil, err
	}
	return itemType, nil
}

func DeleteBalanceSheetItemType(ctx context.Context, id int) (*BalanceSheetItemType, error) {

	itemType, err := utils.FetchModel[BalanceSheetItemType](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[BalanceSheetItemType](ctx, "parent_item_type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "balance sheet item type", Id: id, ReferencedBy: "child item types"}
	}

	count, err = utils.ResourceCountWhere[BalanceSheetItemValue](ctx, "item_type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "balance sheet item type", Id: id, ReferencedBy: "balance sheet item values"}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&itemType).Error; err != nil {
		return nil, err
	}
	return itemType, nil
}

func GetBalanceSheetItemType(ctx context.Context, id int) (*BalanceSheetItemType, error) {
	return utils.FetchModel[BalanceSheetItemType](ctx, id)
}

// GetBalanceSheetItemTypes lists all items in sibling order.
func GetBalanceSheetItemTypes(ctx context.Context) ([]*BalanceSheetItemType, error) {
	db := config.GetDB()
	var results []*BalanceSheetItemType
	err := db.WithContext(ctx).Order("item_sequence, item_number").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindChildItemTypes lists the direct children of an item (0 = roots) in
// sibling order.
func FindChildItemTypes(ctx context.Context, parentId int) ([]*BalanceSheetItemType, error) {
	db := config.GetDB()
	var results []*BalanceSheetItemType
	err := db.WithContext(ctx).Where("parent_item_type_id = ?", parentId).
		Order("item_sequence, item_number").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
