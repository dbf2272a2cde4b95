package enums

import "fmt"

// ConciergeStatus tracks a concierge ticket.
type ConciergeStatus string

const (
	ConciergePending   ConciergeStatus = "pending"
	ConciergeQuoted    ConciergeStatus = "quoted"
	ConciergeApproved  ConciergeStatus = "approved"
	ConciergeCompleted ConciergeStatus = "completed"
	ConciergeCancelled ConciergeStatus = "cancelled"
)

var validConciergeStatuses = []ConciergeStatus{
	ConciergePending,
	ConciergeQuoted,
	ConciergeApproved,
	ConciergeCompleted,
	ConciergeCancelled,
}

// IsValid reports whether the value is a known ConciergeStatus.
func (s ConciergeStatus) IsValid() bool {
	for _, candidate := range validConciergeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConciergeStatus converts raw input into a ConciergeStatus.
func ParseConciergeStatus(value string) (ConciergeStatus, error) {
	for _, candidate := range validConciergeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid concierge status %q", value)
}
