package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Profile struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email     string             `json:"email,omitempty" bson:"email,omitempty"`
	Name      string             `json:"name,omitempty" bson:"name,omitempty"`
	Education string             `json:"education,omitempty" bson:"education,omitempty"`
	Location  string             `json:"location,omitempty" bson:"location,omitempty"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	LinkedIn  string             `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
}
