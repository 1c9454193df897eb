package models

import (
	"context"
	"fmt"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/utils"
	"gorm.io/gorm"
)

// AccountingEvent is one line of the business event log: something happened
// on a date, involving a dealer, classified by an event type, optionally tied
// to the ledger transaction that booked it. Events are append-only; a wrong
// event is corrected by deleting it and recording a new one, never by
// editing in place.
type AccountingEvent struct {
	ID                   int       `gorm:"primary_key" json:"id"`
	EventDate            time.Time `gorm:"index;not null" json:"event_date"`
	EventTypeId          int       `gorm:"index;not null" json:"event_type_id" binding:"required"`
	DealerId             int       `gorm:"index;not null" json:"dealer_id" binding:"required"`
	Description          string    `gorm:"size:255" json:"description"`
	AccountTransactionId int       `gorm:"index;not null;default:0" json:"account_transaction_id"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (e AccountingEvent) GetCursor() string {
	return fmt.Sprintf("%012d", e.ID)
}

type NewAccountingEvent struct {
	EventDate            time.Time `json:"event_date" binding:"required"`
	EventTypeId          int       `json:"event_type_id" binding:"required"`
	DealerId             int       `json:"dealer_id" binding:"required"`
	Description          string    `json:"description"`
	AccountTransactionId int       `json:"account_transaction_id"`
}

func (input *NewAccountingEvent) validate(ctx context.Context) error {
	if input.EventDate.IsZero() {
		return newValidationError("event_date", "must not be blank")
	}
	if err := utils.ValidateResourceId[EventType](ctx, input.EventTypeId); err != nil {
		return newValidationError("event_type_id", "event type not found")
	}
	if err := utils.ValidateResourceId[Dealer](ctx, input.DealerId); err != nil {
		return newValidationError("dealer_id", "dealer not found")
	}
	if input.AccountTransactionId > 0 {
		if err := utils.ValidateResourceId[AccountTransaction](ctx, input.AccountTransactionId); err != nil {
			return newValidationError("account_transaction_id", "account transaction not found")
		}
	}
	return nil
}

func RecordAccountingEvent(ctx context.Context, input *NewAccountingEvent) (*AccountingEvent, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	event := AccountingEvent{
		EventDate:            utils.ConvertToDate(input.EventDate),
		EventTypeId:          input.EventTypeId,
		DealerId:             input.DealerId,
		Description:          input.Description,
		AccountTransactionId: input.AccountTransactionId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteAccountingEvent removes an event outright. There is no in-place edit
// of the log; the caller records a replacement event after deleting.
func DeleteAccountingEvent(ctx context.Context, id int) (*AccountingEvent, error) {

	event, err := utils.FetchModel[AccountingEvent](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func GetAccountingEvent(ctx context.Context, id int) (*AccountingEvent, error) {
	return utils.FetchModel[AccountingEvent](ctx, id)
}

type AccountingEventFilter struct {
	EventTypeId *int
	DealerId    *int
	FromDate    *time.Time
	ToDate      *time.Time
}

func (f *AccountingEventFilter) apply(dbCtx *gorm.DB) *gorm.DB {
	if f == nil {
		return dbCtx
	}
	if f.EventTypeId != nil {
		dbCtx = dbCtx.Where("event_type_id = ?", *f.EventTypeId)
	}
	if f.DealerId != nil {
		dbCtx = dbCtx.Where("dealer_id = ?", *f.DealerId)
	}
	if f.FromDate != nil {
		dbCtx = dbCtx.Where("event_date >= ?", utils.ConvertToDate(*f.FromDate))
	}
	if f.ToDate != nil {
		dbCtx = dbCtx.Where("event_date <= ?", utils.ConvertToDate(*f.ToDate))
	}
	return dbCtx
}

func GetAccountingEvents(ctx context.Context, filter *AccountingEventFilter) ([]*AccountingEvent, error) {
	db := config.GetDB()
	dbCtx := filter.apply(db.WithContext(ctx))
	var results []*AccountingEvent
	err := dbCtx.Order("event_date DESC, id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateAccountingEvents(ctx context.Context, limit int, after *string, filter *AccountingEventFilter) (*Connection[AccountingEvent], error) {
	db := config.GetDB()
	dbCtx := filter.apply(db.WithContext(ctx).Model(&AccountingEvent{}))
	return FetchPage[AccountingEvent](dbCtx, limit, after, "id", "<")
}
