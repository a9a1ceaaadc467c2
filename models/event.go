package models

import "time"

const (
	EventBookingCreated = "booking-created"
	EventBookingPaid    = "booking-paid"
	EventBookingDeleted = "booking-deleted"
)

// Event is published on the booking events channel.
type Event struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"bookingId"`
	Buyer         string    `json:"buyer"`
	TransactionID string    `json:"transactionId,omitempty"`
	At            time.Time `json:"at"`
}
