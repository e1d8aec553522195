package models

import "fmt"

// ValidOrderTransitions defines which order status changes are allowed
var ValidOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// ValidDeliveryTransitions defines which delivery status changes are
// allowed. Failed and cancelled are reachable from every non-terminal
// state; failed deliveries can re-enter transit on a retry attempt.
var ValidDeliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:        {DeliveryStatusPickedUp, DeliveryStatusInTransit, DeliveryStatusFailed, DeliveryStatusCancelled},
	DeliveryStatusPickedUp:       {DeliveryStatusInTransit, DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusFailed, DeliveryStatusReturned, DeliveryStatusCancelled},
	DeliveryStatusInTransit:      {DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusFailed, DeliveryStatusReturned, DeliveryStatusCancelled},
	DeliveryStatusOutForDelivery: {DeliveryStatusDelivered, DeliveryStatusFailed, DeliveryStatusReturned, DeliveryStatusCancelled},
	DeliveryStatusFailed:         {DeliveryStatusInTransit, DeliveryStatusOutForDelivery, DeliveryStatusReturned, DeliveryStatusCancelled},
	DeliveryStatusDelivered:      {},
	DeliveryStatusReturned:       {},
	DeliveryStatusCancelled:      {},
}

// CanTransitionOrder checks if an order status transition is valid
func CanTransitionOrder(from, to OrderStatus) bool {
	validNext, exists := ValidOrderTransitions[from]
	if !exists {
		return false
	}
	for _, status := range validNext {
		if status == to {
			return true
		}
	}
	return false
}

// ValidateOrderTransition returns an error if the transition is invalid
func ValidateOrderTransition(from, to OrderStatus) error {
	if from == to {
		return nil
	}
	if !CanTransitionOrder(from, to) {
		return fmt.Errorf("invalid order status transition from %s to %s", from, to)
	}
	return nil
}

// CanTransitionDelivery checks if a delivery status transition is valid
func CanTransitionDelivery(from, to DeliveryStatus) bool {
	validNext, exists := ValidDeliveryTransitions[from]
	if !exists {
		return false
	}
	for _, status := range validNext {
		if status == to {
			return true
		}
	}
	return false
}

// ValidateDeliveryTransition returns an error if the transition is invalid
func ValidateDeliveryTransition(from, to DeliveryStatus) error {
	if from == to {
		return nil
	}
	if !CanTransitionDelivery(from, to) {
		return fmt.Errorf("invalid delivery status transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalOrderStatus reports whether an order status has no outgoing transitions
func IsTerminalOrderStatus(status OrderStatus) bool {
	next, exists := ValidOrderTransitions[status]
	return exists && len(next) == 0
}

// GetOrderStatusDisplayName returns a human-readable status name
func GetOrderStatusDisplayName(status OrderStatus) string {
	displayNames := map[OrderStatus]string{
		OrderStatusPending:   "Pending",
		OrderStatusConfirmed: "Confirmed",
		OrderStatusShipped:   "Shipped",
		OrderStatusDelivered: "Delivered",
		OrderStatusCancelled: "Cancelled",
	}
	if name, ok := displayNames[status]; ok {
		return name
	}
	return string(status)
}

// GetDeliveryStatusDisplayName returns a human-readable status name
func GetDeliveryStatusDisplayName(status DeliveryStatus) string {
	displayNames := map[DeliveryStatus]string{
		DeliveryStatusPending:        "Pending Pickup",
		DeliveryStatusPickedUp:       "Picked Up",
		DeliveryStatusInTransit:      "In Transit",
		DeliveryStatusOutForDelivery: "Out for Delivery",
		DeliveryStatusDelivered:      "Delivered",
		DeliveryStatusFailed:         "Delivery Failed",
		DeliveryStatusReturned:       "Returned to Origin",
		DeliveryStatusCancelled:      "Cancelled",
	}
	if name, ok := displayNames[status]; ok {
		return name
	}
	return string(status)
}

// OrderStatusForDelivery maps a delivery status onto the order lifecycle.
// Not every delivery state moves the order; the zero value means no change.
func OrderStatusForDelivery(status DeliveryStatus) OrderStatus {
	switch status {
	case DeliveryStatusPickedUp, DeliveryStatusInTransit, DeliveryStatusOutForDelivery:
		return OrderStatusShipped
	case DeliveryStatusDelivered:
		return OrderStatusDelivered
	case DeliveryStatusCancelled:
		return OrderStatusCancelled
	}
	return ""
}
