package domain

import "testing"

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{StatusPending, StatusInReview, true},
		{StatusPending, StatusApproved, false},
		{StatusPending, StatusRejected, false},
		{StatusInReview, StatusApproved, true},
		{StatusInReview, StatusRejected, true},
		{StatusInReview, StatusPending, false},
		{StatusRejected, StatusInReview, true},
		{StatusRejected, StatusApproved, false},
		{StatusApproved, StatusInReview, false},
		{StatusApproved, StatusRejected, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionTo_ApprovedIsTerminal(t *testing.T) {
	for _, next := range []InvoiceStatus{StatusPending, StatusInReview, StatusApproved, StatusRejected} {
		if StatusApproved.CanTransitionTo(next) {
			t.Fatalf("approved must be terminal, allowed -> %s", next)
		}
	}
}
