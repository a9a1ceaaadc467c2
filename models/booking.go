package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Booking struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Buyer         string             `json:"buyer" bson:"buyer"`
	BuyerName     string             `json:"buyerName,omitempty" bson:"buyerName,omitempty"`
	PartID        string             `json:"partId,omitempty" bson:"partId,omitempty"`
	PartName      string             `json:"partName" bson:"partName"`
	Price         float64            `json:"price" bson:"price"`
	Quantity      int                `json:"quantity" bson:"quantity"`
	Phone         string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Address       string             `json:"address,omitempty" bson:"address,omitempty"`
	Paid          bool               `json:"paid" bson:"paid"`
	TransactionID string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Total is the order amount in major currency units.
func (b Booking) Total() float64 {
	return b.Price * float64(b.Quantity)
}
