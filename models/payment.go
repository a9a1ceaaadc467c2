package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an append-only record of a confirmed payment.
type Payment struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	BookingID     primitive.ObjectID `json:"bookingId" bson:"bookingId"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	Amount        float64            `json:"amount" bson:"amount"`
	Buyer         string             `json:"buyer,omitempty" bson:"buyer,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}
