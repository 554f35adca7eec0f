package domain

import (
	"errors"
	"testing"
)

func TestCancelPolicyAllowsCancel(t *testing.T) {
	for _, status := range OrderStatuses {
		t.Run(string(status), func(t *testing.T) {
			wantPending := status == OrderStatusPending
			wantPaid := status == OrderStatusPending || status == OrderStatusPaid

			if got := CancelPolicyPending.AllowsCancel(status); got != wantPending {
				t.Errorf("pending policy: got %v, want %v", got, wantPending)
			}
			if got := CancelPolicyPendingOrPaid.AllowsCancel(status); got != wantPaid {
				t.Errorf("pending_or_paid policy: got %v, want %v", got, wantPaid)
			}
		})
	}
}

func TestParseCancelPolicy(t *testing.T) {
	policy, err := ParseCancelPolicy("")
	if err != nil || policy != CancelPolicyPending {
		t.Fatalf("empty value: got %q, %v", policy, err)
	}

	policy, err = ParseCancelPolicy(" Pending_Or_Paid ")
	if err != nil || policy != CancelPolicyPendingOrPaid {
		t.Fatalf("mixed case: got %q, %v", policy, err)
	}

	if _, err := ParseCancelPolicy("always"); !errors.Is(err, ErrInvalidCancelPolicy) {
		t.Fatalf("expected ErrInvalidCancelPolicy, got %v", err)
	}
}
