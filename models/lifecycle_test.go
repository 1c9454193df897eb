package models

import "testing"

func TestCanTransition_OnlySingleForwardSteps(t *testing.T) {
	cases := []struct {
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{StatusDraft, StatusProposed, true},
		{StatusProposed, StatusPosted, true},
		{StatusPosted, StatusApproved, true},
		{StatusDraft, StatusPosted, false},
		{StatusDraft, StatusApproved, false},
		{StatusProposed, StatusApproved, false},
		{StatusProposed, StatusDraft, false},
		{StatusPosted, StatusProposed, false},
		{StatusApproved, StatusPosted, false},
		{StatusApproved, StatusDraft, false},
		{StatusDraft, StatusDraft, false},
		{StatusApproved, StatusApproved, false},
		{TransactionStatus("Bogus"), StatusProposed, false},
		{StatusDraft, TransactionStatus("Bogus"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestRank_IsMonotonic(t *testing.T) {
	order := []TransactionStatus{StatusDraft, StatusProposed, StatusPosted, StatusApproved}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Fatalf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if TransactionStatus("Bogus").Rank() != -1 {
		t.Fatalf("unknown status should rank -1")
	}
}

func TestDeriveFlags_Cumulative(t *testing.T) {
	cases := []struct {
		status TransactionStatus
		want   LifecycleFlags
	}{
		{StatusDraft, LifecycleFlags{}},
		{StatusProposed, LifecycleFlags{WasProposed: true}},
		{StatusPosted, LifecycleFlags{WasProposed: true, WasPosted: true}},
		{StatusApproved, LifecycleFlags{WasProposed: true, WasPosted: true, WasApproved: true}},
	}
	for _, tc := range cases {
		if got := DeriveFlags(tc.status, false); got != tc.want {
			t.Errorf("DeriveFlags(%s) = %+v, want %+v", tc.status, got, tc.want)
		}
	}

	flags := DeriveFlags(StatusPosted, true)
	if !flags.WasDeleted {
		t.Fatalf("deleted marker should carry through")
	}
	if !flags.WasPosted || flags.WasApproved {
		t.Fatalf("deletion must not change the reached stage: %+v", flags)
	}
}

func TestStatusFromFlags_RoundTrip(t *testing.T) {
	for _, status := range []TransactionStatus{StatusDraft, StatusProposed, StatusPosted, StatusApproved} {
		for _, deleted := range []bool{false, true} {
			gotStatus, gotDeleted := StatusFromFlags(DeriveFlags(status, deleted))
			if gotStatus != status || gotDeleted != deleted {
				t.Errorf("round trip (%s, %v) came back as (%s, %v)", status, deleted, gotStatus, gotDeleted)
			}
		}
	}
}
