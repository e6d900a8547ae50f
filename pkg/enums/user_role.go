package enums

import "fmt"

// UserRole is the role carried by an identity.
type UserRole string

const (
	UserRoleSystemAdmin UserRole = "SYSTEM_ADMIN"
	UserRoleCustomer    UserRole = "CUSTOMER"
	UserRoleVendor      UserRole = "VENDOR"
)

var validUserRoles = []UserRole{
	UserRoleSystemAdmin,
	UserRoleCustomer,
	UserRoleVendor,
}

// String implements fmt.Stringer.
func (s UserRole) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
