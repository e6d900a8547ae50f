package enums

import "fmt"

// PlanTier is the tier of a subscription plan.
type PlanTier string

const (
	PlanTierBasic    PlanTier = "BASIC"
	PlanTierStandard PlanTier = "STANDARD"
	PlanTierPremium  PlanTier = "PREMIUM"
)

var validPlanTiers = []PlanTier{
	PlanTierBasic,
	PlanTierStandard,
	PlanTierPremium,
}

// String implements fmt.Stringer.
func (s PlanTier) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s PlanTier) IsValid() bool {
	for _, candidate := range validPlanTiers {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePlanTier converts raw input into a PlanTier.
func ParsePlanTier(value string) (PlanTier, error) {
	for _, candidate := range validPlanTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan tier %q", value)
}
