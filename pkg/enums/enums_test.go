package enums

import "testing"

func TestParseStoreStatus(t *testing.T) {
	got, err := ParseStoreStatus("PENDING_APPROVAL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StoreStatusPendingApproval {
		t.Fatalf("expected pending approval, got %s", got)
	}
	if _, err := ParseStoreStatus("pending_approval"); err == nil {
		t.Fatal("expected lowercase value to be rejected")
	}
}

func TestEnumValidity(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		got   bool
	}{
		{name: "product hidden", valid: true, got: ProductStatusHidden.IsValid()},
		{name: "product unknown", valid: false, got: ProductStatus("LIVE").IsValid()},
		{name: "role admin", valid: true, got: UserRoleSystemAdmin.IsValid()},
		{name: "role empty", valid: false, got: UserRole("").IsValid()},
		{name: "tier premium", valid: true, got: PlanTierPremium.IsValid()},
		{name: "plan suspended", valid: true, got: PlanStatusSuspended.IsValid()},
		{name: "subscription pending", valid: true, got: SubscriptionStatusPending.IsValid()},
		{name: "subscription canceled spelling", valid: false, got: SubscriptionStatus("CANCELED").IsValid()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.valid {
				t.Fatalf("expected valid=%v, got %v", tt.valid, tt.got)
			}
		})
	}
}

func TestParseSubscriptionStatusRoundTrip(t *testing.T) {
	for _, status := range validSubscriptionStatuses {
		parsed, err := ParseSubscriptionStatus(status.String())
		if err != nil {
			t.Fatalf("parse %s: %v", status, err)
		}
		if parsed != status {
			t.Fatalf("expected %s, got %s", status, parsed)
		}
	}
}
