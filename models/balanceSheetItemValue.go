package models

import (
	"context"
	"errors"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceSheetItemValue is one recorded observation of a balance sheet item
// on an effective date. Lookups take the most recent value on or before the
// requested date; values after it never leak into an earlier report.
type BalanceSheetItemValue struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ItemTypeId       int             `gorm:"index;not null" json:"item_type_id" binding:"required"`
	ShortDescription string          `gorm:"size:150" json:"short_description"`
	EffectiveDate    time.Time       `gorm:"index;not null" json:"effective_date" binding:"required"`
	ItemAmount       decimal.Decimal `gorm:"type:decimal(21,10);not null" json:"item_amount"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBalanceSheetItemValue struct {
	ItemTypeId       int             `json:"item_type_id" binding:"required"`
	ShortDescription string          `json:"short_description"`
	EffectiveDate    time.Time       `json:"effective_date" binding:"required"`
	ItemAmount       decimal.Decimal `json:"item_amount"`
}

func (input *NewBalanceSheetItemValue) validate(ctx context.Context) error {
	if input.EffectiveDate.IsZero() {
		return newValidationError("effective_date", "must not be blank")
	}
	if err := utils.ValidateResourceId[BalanceSheetItemType](ctx, input.ItemTypeId); err != nil {
		return newValidationError("item_type_id", "item type not found")
	}
	return nil
}

func CreateBalanceSheetItemValue(ctx context.Context, input *NewBalanceSheetItemValue) (*BalanceSheetItemValue, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	value := BalanceSheetItemValue{
		ItemTypeId:       input.ItemTypeId,
		ShortDescription: input.ShortDescription,
		EffectiveDate:    utils.ConvertToDate(input.EffectiveDate),
		ItemAmount:       utils.NormalizeDecimal(input.ItemAmount),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&value).Error; err != nil {
		return nil, err
	}
	return &value, nil
}

func UpdateBalanceSheetItemValue(ctx context.Context, id int, input *NewBalanceSheetItemValue) (*BalanceSheetItemValue, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	value, err := utils.FetchModel[BalanceSheetItemValue](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&value).Updates(map[string]interface{}{
		"ItemTypeId":       input.ItemTypeId,
		"ShortDescription": input.ShortDescription,
		"EffectiveDate":    utils.ConvertToDate(input.EffectiveDate),
		"ItemAmount":       utils.NormalizeDecimal(input.ItemAmount),
	}).Error
	if err != nil {
		return nil, err
	}
	return value, nil
}

func DeleteBalanceSheetItemValue(ctx context.Context, id int) (*BalanceSheetItemValue, error) {

	value, err := utils.FetchModel[BalanceSheetItemValue](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&value).Error; err != nil {
		return nil, err
	}
	return value, nil
}

func GetBalanceSheetItemValue(ctx context.Context, id int) (*BalanceSheetItemValue, error) {
	return utils.FetchModel[BalanceSheetItemValue](ctx, id)
}

// GetBalanceSheetItemValues lists recorded values of one item, newest first.
func GetBalanceSheetItemValues(ctx context.Context, itemTypeId int) ([]*BalanceSheetItemValue, error) {
	db := config.GetDB()
	var results []*BalanceSheetItemValue
	err := db.WithContext(ctx).Where("item_type_id = ?", itemTypeId).
		Order("effective_date DESC, id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// LatestItemValueAsOf returns the most recent value of an item on or before
// asOf, or nil when no value exists in that range. Ties on the effective date
// go to the latest recorded row.
func LatestItemValueAsOf(ctx context.Context, itemTypeId int, asOf time.Time) (*BalanceSheetItemValue, error) {
	db := config.GetDB()
	var value BalanceSheetItemValue
	err := db.WithContext(ctx).
		Where("item_type_id = ? AND effective_date <= ?", itemTypeId, utils.ConvertToDate(asOf)).
		Order("effective_date DESC, id DESC").
		First(&value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
