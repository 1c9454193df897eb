package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalizeDecimal_StripsTrailingZeros(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1.50", "1.5"},
		{"1.5", "1.5"},
		{"100.00", "100"},
		{"0.000", "0"},
		{"-20.100", "-20.1"},
		{"1234567890.0000000001", "1234567890.0000000001"},
	}
	for _, tc := range cases {
		d, err := ParseDecimal(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error: %v", tc.in, err)
		}
		if got := NormalizeDecimal(d); got.String() != tc.expected {
			t.Fatalf("NormalizeDecimal(%q) expected %s, got %s", tc.in, tc.expected, got.String())
		}
	}
}

func TestNormalizeDecimal_EqualValuesNormalizeIdentically(t *testing.T) {
	a, _ := decimal.NewFromString("1.50")
	b, _ := decimal.NewFromString("1.5")
	na, nb := NormalizeDecimal(a), NormalizeDecimal(b)
	if na.String() != nb.String() {
		t.Fatalf("1.50 and 1.5 should normalize identically, got %s vs %s", na.String(), nb.String())
	}
}

func TestNormalizeDecimal_Idempotent(t *testing.T) {
	for _, raw := range []string{"1.50", "0.001", "-7.200", "42"} {
		d, _ := decimal.NewFromString(raw)
		once := NormalizeDecimal(d)
		twice := NormalizeDecimal(once)
		if once.String() != twice.String() {
			t.Fatalf("NormalizeDecimal not idempotent for %s: %s vs %s", raw, once.String(), twice.String())
		}
	}
}

func TestParseDecimal_RejectsEmpty(t *testing.T) {
	if _, err := ParseDecimal("   "); err == nil {
		t.Fatal("expected error for blank input")
	}
}

func TestConvertToDate(t *testing.T) {
	in := time.Date(2026, 3, 15, 23, 45, 12, 999, time.FixedZone("X", 3*3600))
	got := ConvertToDate(in)
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ConvertToDate = %s, want %s", got, want)
	}
}

func TestDereferencePtr(t *testing.T) {
	v := 7
	if got := DereferencePtr(&v); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := DereferencePtr[int](nil, 3); got != 3 {
		t.Fatalf("expected default 3, got %d", got)
	}
	if got := DereferencePtr[string](nil); got != "" {
		t.Fatalf("expected zero value, got %q", got)
	}
}
