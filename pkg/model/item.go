package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateDisplayIDBase is the first display ID handed out to template
// items. Real items never carry a display ID.
const TemplateDisplayIDBase = 800

type Item struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required,min=1,max=200"`
	Description string             `json:"description" bson:"description"`
	Quantity    int                `json:"quantity" bson:"quantity" validate:"min=0"`
	Price       float64            `json:"price" bson:"price" validate:"min=0"`
	Category    string             `json:"category" bson:"category"`
	IsDummy     bool               `json:"isDummy" bson:"is_dummy"`
	DisplayID   *int               `json:"displayId,omitempty" bson:"display_id,omitempty"`
	Image       string             `json:"image" bson:"image"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// ItemUpdate carries partial item changes; nil fields are left untouched.
type ItemUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty"`
	Quantity    *int     `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	Category    *string  `json:"category,omitempty"`
	IsDummy     *bool    `json:"isDummy,omitempty"`
	Image       *string  `json:"image,omitempty"`
}
