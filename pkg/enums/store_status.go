package enums

import "fmt"

// StoreStatus tracks the approval lifecycle of a storefront.
type StoreStatus string

const (
	StoreStatusPendingApproval StoreStatus = "PENDING_APPROVAL"
	StoreStatusActive          StoreStatus = "ACTIVE"
	StoreStatusInactive        StoreStatus = "INACTIVE"
	StoreStatusSuspended       StoreStatus = "SUSPENDED"
	StoreStatusRejected        StoreStatus = "REJECTED"
)

var validStoreStatuses = []StoreStatus{
	StoreStatusPendingApproval,
	StoreStatusActive,
	StoreStatusInactive,
	StoreStatusSuspended,
	StoreStatusRejected,
}

// String implements fmt.Stringer.
func (s StoreStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s StoreStatus) IsValid() bool {
	for _, candidate := range validStoreStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStoreStatus converts raw input into a StoreStatus.
func ParseStoreStatus(value string) (StoreStatus, error) {
	for _, candidate := range validStoreStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store status %q", value)
}
