package carriers

import "fmt"

// AuthError indicates the carrier rejected our credentials or session
type AuthError struct {
	Carrier string
	Cause   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Carrier, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// RequestError wraps a non-2xx carrier response, preserving the raw
// provider message for operator diagnosis
type RequestError struct {
	Carrier         string
	Status          int
	ProviderMessage string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Carrier, e.Status, e.ProviderMessage)
}

// ServiceabilityError indicates no courier serves the pincode pair
type ServiceabilityError struct {
	PickupPincode   string
	DeliveryPincode string
}

func (e *ServiceabilityError) Error() string {
	return fmt.Sprintf("no courier serves %s to %s", e.PickupPincode, e.DeliveryPincode)
}
