package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Comment   string             `json:"comment" bson:"comment"`
	Author    string             `json:"author,omitempty" bson:"author,omitempty"`
	Rating    int                `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
