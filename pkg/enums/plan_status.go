package enums

import "fmt"

// PlanStatus is the availability state of a subscription plan.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusExpired   PlanStatus = "EXPIRED"
	PlanStatusCancelled PlanStatus = "CANCELLED"
	PlanStatusSuspended PlanStatus = "SUSPENDED"
)

var validPlanStatuses = []PlanStatus{
	PlanStatusActive,
	PlanStatusExpired,
	PlanStatusCancelled,
	PlanStatusSuspended,
}

// String implements fmt.Stringer.
func (s PlanStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s PlanStatus) IsValid() bool {
	for _, candidate := range validPlanStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePlanStatus converts raw input into a PlanStatus.
func ParsePlanStatus(value string) (PlanStatus, error) {
	for _, candidate := range validPlanStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan status %q", value)
}
