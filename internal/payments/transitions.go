package payments

import "github.com/freshfoldhq/freshfold-backend/pkg/enums"

// allowedTransitions is the authoritative payment transition table. A failed
// payment may re-open to pending for retry; completed and cancelled are
// terminal.
var allowedTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending:    {enums.PaymentStatusProcessing, enums.PaymentStatusCancelled},
	enums.PaymentStatusProcessing: {enums.PaymentStatusCompleted, enums.PaymentStatusFailed, enums.PaymentStatusCancelled},
	enums.PaymentStatusFailed:     {enums.PaymentStatusPending},
	enums.PaymentStatusCompleted:  {},
	enums.PaymentStatusCancelled:  {},
}

// CanTransition reports whether from -> to is a legal payment transition.
func CanTransition(from, to enums.PaymentStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status enums.PaymentStatus) bool {
	return len(allowedTransitions[status]) == 0
}
