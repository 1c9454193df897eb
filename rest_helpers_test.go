package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keeper-books/keeper_backend/models"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
)

func invokeWriteError(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, err)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	return w.Code, body
}

func TestWriteError_NoValue(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	code, body := invokeWriteError(t, &models.NoValueError{ItemTypeId: 7, AsOf: asOf})
	if code != http.StatusNotFound {
		t.Fatalf("no-value should map to 404, got %d", code)
	}
	if body["item_type_id"] != float64(7) {
		t.Fatalf("body should carry item_type_id 7, got %v", body["item_type_id"])
	}
	if body["as_of"] != "2026-06-30" {
		t.Fatalf("body should carry as_of 2026-06-30, got %v", body["as_of"])
	}
}

func TestWriteError_Unbalanced(t *testing.T) {
	code, body := invokeWriteError(t, &models.UnbalancedTransactionError{
		TransactionId: 3,
		Debits:        decimal.NewFromInt(100),
		Credits:       decimal.NewFromInt(90),
	})
	if code != http.StatusConflict {
		t.Fatalf("unbalanced posting should map to 409, got %d", code)
	}
	if body["discrepancy"] != "10" {
		t.Fatalf("body should carry the discrepancy 10, got %v", body["discrepancy"])
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"record not found", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"validation", &models.ValidationError{Field: "name", Message: "must not be blank"}, http.StatusBadRequest},
		{"hierarchy cycle", models.ErrHierarchyCycle, http.StatusConflict},
		{"invalid transition", &models.InvalidTransitionError{From: models.StatusDraft, To: models.StatusPosted}, http.StatusConflict},
		{"referential conflict", &models.ReferentialConflictError{Resource: "dealer", Id: 1, ReferencedBy: "accounting events"}, http.StatusConflict},
		{"cancelled", context.Canceled, statusClientClosedRequest},
	}
	for _, tc := range cases {
		code, _ := invokeWriteError(t, tc.err)
		if code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, code)
		}
	}
}
