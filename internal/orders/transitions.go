package orders

import "github.com/freshfoldhq/freshfold-backend/pkg/enums"

// allowedTransitions is the authoritative order transition table. Cancelled
// is reachable from every non-terminal state; completed and cancelled have
// no outgoing edges.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:          {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:        {enums.OrderStatusAssigned, enums.OrderStatusInProgress, enums.OrderStatusCancelled},
	enums.OrderStatusAssigned:         {enums.OrderStatusConfirmed, enums.OrderStatusInProgress, enums.OrderStatusCancelled},
	enums.OrderStatusInProgress:       {enums.OrderStatusReadyForPickup, enums.OrderStatusCancelled},
	enums.OrderStatusReadyForPickup:   {enums.OrderStatusPickedUp, enums.OrderStatusCancelled},
	enums.OrderStatusPickedUp:         {enums.OrderStatusReadyForDelivery, enums.OrderStatusCancelled},
	enums.OrderStatusReadyForDelivery: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusCompleted:        {},
	enums.OrderStatusCancelled:        {},
}

// CanTransition reports whether from -> to is a legal order transition.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status enums.OrderStatus) bool {
	return len(allowedTransitions[status]) == 0
}
