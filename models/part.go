package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Part struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Image       string             `json:"img,omitempty" bson:"img,omitempty"`
	Price       float64            `json:"price" bson:"price"`
	MinOrder    int                `json:"minOrder,omitempty" bson:"minOrder,omitempty"`
	Quantity    int                `json:"quantity" bson:"quantity"`
}

// PartUpdate carries a partial overwrite; nil fields are left untouched.
type PartUpdate struct {
	Name        *string  `json:"name,omitempty" bson:"name,omitempty"`
	Description *string  `json:"description,omitempty" bson:"description,omitempty"`
	Image       *string  `json:"img,omitempty" bson:"img,omitempty"`
	Price       *float64 `json:"price,omitempty" bson:"price,omitempty"`
	MinOrder    *int     `json:"minOrder,omitempty" bson:"minOrder,omitempty"`
	Quantity    *int     `json:"quantity,omitempty" bson:"quantity,omitempty"`
}

func (u PartUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Image == nil &&
		u.Price == nil && u.MinOrder == nil && u.Quantity == nil
}

// Apply copies the set fields onto p.
func (u PartUpdate) Apply(p *Part) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.MinOrder != nil {
		p.MinOrder = *u.MinOrder
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
}
