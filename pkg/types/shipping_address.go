package types

import "strings"

// ShippingAddress is the structured delivery blob stored on each order.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Address       string `json:"address" validate:"required"`
}

// IsComplete reports whether every required field carries a value.
func (a ShippingAddress) IsComplete() bool {
	return strings.TrimSpace(a.RecipientName) != "" &&
		strings.TrimSpace(a.Phone) != "" &&
		strings.TrimSpace(a.Address) != ""
}
