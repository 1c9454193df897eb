package models

import (
	"context"
	"fmt"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
)

// Reference data: entities the ledger core references by id only. They carry
// no behavior beyond CRUD and existence checks, but deleting one while it is
// referenced is a conflict, never a cascade.

type TransactionAccountType struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type TransactionCurrency struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Code      string    `gorm:"size:10;not null;index" json:"code" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type DealerType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Dealer struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:150;not null;index" json:"name" binding:"required"`
	DealerTypeId int       `gorm:"index;not null" json:"dealer_type_id" binding:"required"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type EventType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func referenceListCacheKey[T any]() string {
	var v T
	return fmt.Sprintf("refList:%T", v)
}

// listReference reads a reference-data list through the redis cache.
func listReference[T any](ctx context.Context) ([]*T, error) {
	cacheKey := referenceListCacheKey[T]()

	var cached []*T
	exists, err := config.GetRedisObject(cacheKey, &cached)
	if err != nil {
		return nil, err
	}
	if exists {
		return cached, nil
	}

	results, err := utils.FetchAllModels[T](ctx)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(cacheKey, results, 0); err != nil {
		return nil, err
	}
	return results, nil
}

func invalidateReferenceCache[T any]() {
	_ = config.RemoveRedisKey(referenceListCacheKey[T]())
}

func createReference[T any](ctx context.Context, record *T) (*T, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	invalidateReferenceCache[T]()
	return record, nil
}

func updateReference[T any](ctx context.Context, id int, updates map[string]interface{}) (*T, error) {
	record, err := utils.FetchModel[T](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, err
	}
	invalidateReferenceCache[T]()
	return record, nil
}

func deleteReference[T any](ctx context.Context, id int) (*T, error) {
	record, err := utils.FetchModel[T](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(record).Error; err != nil {
		return nil, err
	}
	invalidateReferenceCache[T]()
	return record, nil
}

/* TransactionAccountType */

func CreateTransactionAccountType(ctx context.Context, input *TransactionAccountType) (*TransactionAccountType, error) {
	if err := utils.ValidateUnique[TransactionAccountType](ctx, "name", input.Name, 0); err != nil {
		return nil, newValidationError("name", err.Error())
	}
	return createReference(ctx, input)
}

func UpdateTransactionAccountType(ctx context.Context, id int, input *TransactionAccountType) (*TransactionAccountType, error) {
	if err := utils.ValidateUnique[TransactionAccountType](ctx, "name", input.Name, id); err != nil {
		return nil, newValidationError("name", err.Error())
	}
	return updateReference[TransactionAccountType](ctx, id, map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
	})
}

func DeleteTransactionAccountType(ctx context.Context, id int) (*TransactionAccountType, error) {
	count, err := utils.ResourceCountWhere[TransactionAccount](ctx, "account_type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "transaction account type", Id: id, ReferencedBy: "transaction accounts"}
	}
	return deleteReference[TransactionAccountType](ctx, id)
}

func GetTransactionAccountType(ctx context.Context, id int) (*TransactionAccountType, error) {
	return utils.FetchModel[TransactionAccountType](ctx, id)
}

func GetTransactionAccountTypes(ctx context.Context) ([]*TransactionAccountType, error) {
	return listReference[TransactionAccountType](ctx)
}

/* TransactionCurrency */

func CreateTransactionCurrency(ctx context.Context, input *TransactionCurrency) (*TransactionCurrency, error) {
	if err := utils.ValidateUnique[TransactionCurrency](ctx, "code", input.Code, 0); err != nil {
		return nil, newValidationError("code", err.Error())
	}
	return createReference(ctx, input)
}

func UpdateTransactionCurrency(ctx context.Context, id int, input *TransactionCurrency) (*TransactionCurrency, error) {
	if err := utils.ValidateUnique[TransactionCurrency](ctx, "code", input.Code, id); err != nil {
		return nil, newValidationError("code", err.Error())
	}
	return updateReference[TransactionCurrency](ctx, id, map[string]interface{}{
		"Name": input.Name,
		"Code": input.Code,
	})
}

func DeleteTransactionCurrency(ctx context.Context, id int) (*TransactionCurrency, error) {
	count, err := utils.ResourceCountWhere[TransactionAccount](ctx, "currency_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "transaction currency", Id: id, ReferencedBy: "transaction accounts"}
	}
	return deleteReference[TransactionCurrency](ctx, id)
}

func GetTransactionCurrency(ctx context.Context, id int) (*TransactionCurrency, error) {
	return utils.FetchModel[TransactionCurrency](ctx, id)
}

func GetTransactionCurrencies(ctx context.Context) ([]*TransactionCurrency, error) {
	return listReference[TransactionCurrency](ctx)
}

/* DealerType */

func CreateDealerType(ctx context.Context, input *DealerType) (*DealerType, error) {
	if err := utils.ValidateUnique[DealerType](ctx, "name", input.Name, 0); err != nil {
		return nil, newValidationError("name", err.Error())
	}
	return createReference(ctx, input)
}

func UpdateDealerType(ctx context.Context, id int, input *DealerType) (*DealerType, error) {
	if err := utils.ValidateUnique[DealerType](ctx, "name", input.Name, id); err != nil {
		return nil, newValidationError("name", err.Error())
	}
	return updateReference[DealerType](ctx, id, map[string]interface{}{"Name": input.Name})
}

func DeleteDealerType(ctx context.Context, id int) (*DealerType, error) {
	count, err := utils.ResourceCountWhere[Dealer](ctx, "dealer_type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "dealer type", Id: id, ReferencedBy: "dealers"}
	}
	return deleteReference[DealerType](ctx, id)
}

func GetDealerType(ctx context.Context, id int) (*DealerType, error) {
	return utils.FetchModel[DealerType](ctx, id)
}

func GetDealerTypes(ctx context.Context) ([]*DealerType, error) {
	return listReference[DealerType](ctx)
}

/* Dealer */

func CreateDealer(ctx context.Context, input *Dealer) (*Dealer, error) {
	if input.DealerTypeId > 0 {
		if err := utils.ValidateResourceId[DealerType](ctx, input.DealerTypeId); err != nil {
			return nil, newValidationError("dealer_type_id", "dealer type not found")
		}
	}
	return createReference(ctx, input)
}

func UpdateDealer(ctx context.Context, id int, input *Dealer) (*Dealer, error) {
	if input.DealerTypeId > 0 {
		if err := utils.ValidateResourceId[DealerType](ctx, input.DealerTypeId); err != nil {
			return nil, newValidationError("dealer_type_id", "dealer type not found")
		}
	}
	return updateReference[Dealer](ctx, id, map[string]interface{}{
		"Name":         input.Name,
		"DealerTypeId": input.DealerTypeId,
	})
}

func DeleteDealer(ctx context.Context, id int) (*Dealer, error) {
	count, err := utils.ResourceCountWhere[AccountingEvent](ctx, "dealer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "dealer", Id: id, ReferencedBy: "accounting events"}
	}
	return deleteReference[Dealer](ctx, id)
}

func GetDealer(ctx context.Context, id int) (*Dealer, error) {
	return utils.FetchModel[Dealer](ctx, id)
}

func GetDealers(ctx context.Context) ([]*Dealer, error) {
	return listReference[Dealer](ctx)
}

/* EventType */

func CreateEventType(ctx context.Context, input *EventType) (*EventType, error) {
	if err := utils.ValidateUnique[EventType](ctx, "name", input.Name, 0); err != nil {
		return nil, newValidationError("name", err.Error())
	}
	return createReference(ctx, input)
}

func UpdateEventType(ctx context.Context, id int, input *EventType) (*EventType, error) {
	if err := utils.ValidateUnique[EventType](ctx, "name", input.Name, id); err != nil {
		return nil, newValidationError("name", err.Error())
	}
	return updateReference[EventType](ctx, id, map[string]interface{}{"Name": input.Name})
}

func DeleteEventType(ctx context.Context, id int) (*EventType, error) {
	count, err := utils.ResourceCountWhere[AccountingEvent](ctx, "event_type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferentialConflictError{Resource: "event type", Id: id, ReferencedBy: "accounting events"}
	}
	return deleteReference[EventType](ctx, id)
}

func GetEventType(ctx context.Context, id int) (*EventType, error) {
	return utils.FetchModel[EventType](ctx, id)
}

func GetEventTypes(ctx context.Context) ([]*EventType, error) {
	return listReference[EventType](ctx)
}
