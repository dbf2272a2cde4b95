package enums

import "fmt"

// UserRole represents the platform permission level of a user.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleKitchen UserRole = "kitchen"
	UserRoleClient  UserRole = "client"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleKitchen,
	UserRoleClient,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to back-office staff.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleKitchen
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
