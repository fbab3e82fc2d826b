package enums

import "fmt"

// LoyaltyEventType classifies loyalty ledger entries.
type LoyaltyEventType string

const (
	LoyaltyEventOrderCompleted LoyaltyEventType = "order_completed_award"
)

var validLoyaltyEventTypes = []LoyaltyEventType{
	LoyaltyEventOrderCompleted,
}

// IsValid reports whether the value is a known LoyaltyEventType.
func (l LoyaltyEventType) IsValid() bool {
	for _, candidate := range validLoyaltyEventTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLoyaltyEventType converts raw input into a LoyaltyEventType.
func ParseLoyaltyEventType(value string) (LoyaltyEventType, error) {
	for _, candidate := range validLoyaltyEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty event type %q", value)
}
