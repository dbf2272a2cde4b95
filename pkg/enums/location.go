package enums

import (
	"fmt"
	"strings"
)

// Location is one of the kitchens that owns a price list and inventory pool.
type Location string

const (
	LocationThessaloniki Location = "thessaloniki"
	LocationMykonos      Location = "mykonos"
)

var validLocations = []Location{
	LocationThessaloniki,
	LocationMykonos,
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Location.
func (l Location) IsValid() bool {
	for _, candidate := range validLocations {
		if candidate == l {
			return true
		}
	}
	return false
}

// DisplayName is the human readable kitchen name used in emails.
func (l Location) DisplayName() string {
	switch l {
	case LocationMykonos:
		return "Mykonos"
	default:
		return "Thessaloniki"
	}
}

// ParseLocation converts raw input into a Location. Matching is case-insensitive.
func ParseLocation(value string) (Location, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLocations {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location %q", value)
}
