package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/keeper-books/keeper_backend/config"
	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["error"] = err.Error()
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// NormalizeDecimal strips trailing zeros so equal values compare and store
// identically regardless of input precision ("1.50" == "1.5").
// Idempotent: NormalizeDecimal(NormalizeDecimal(x)) == NormalizeDecimal(x).
func NormalizeDecimal(value decimal.Decimal) decimal.Decimal {
	normalized, err := decimal.NewFromString(value.String())
	if err != nil {
		return value
	}
	return normalized
}

// ConvertToDate truncates a timestamp to its calendar date in UTC.
func ConvertToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateLock obtains an exclusive redis lock for one aggregate and returns
// a release function. Lock acquisition failure is reported to the caller so a
// concurrent writer never interleaves with a lifecycle transition; when Redis
// is not configured the DB transaction remains the only serialization point.
func AggregateLock(ctx context.Context, lockType string, aggregateId int, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%d", lockType, aggregateId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "could not obtain aggregate lock", lockKey, err)
		return nil, errors.New("aggregate is locked by another operation")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "error obtaining aggregate lock", lockKey, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
