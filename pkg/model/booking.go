package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusActive    = "active"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID primitive.ObjectID `json:"customerId" bson:"customer_id" validate:"required"`
	StartDate  time.Time          `json:"startDate" bson:"start_date" validate:"required"`
	EndDate    time.Time          `json:"endDate" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status     string             `json:"status" bson:"status" validate:"required,oneof=pending active completed cancelled"`
	Notes      string             `json:"notes" bson:"notes"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updated_at"`
}

// BookingItem is one equipment line of a booking, unique per
// (booking_id, item_id). Quantity only ever grows through scans.
type BookingItem struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID primitive.ObjectID `json:"bookingId" bson:"booking_id" validate:"required"`
	ItemID    primitive.ObjectID `json:"itemId" bson:"item_id" validate:"required"`
	Quantity  int                `json:"quantity" bson:"quantity" validate:"required,min=1"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// BookingItemInput is an item line as supplied by create/update payloads.
type BookingItemInput struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type BookingCreate struct {
	CustomerID string             `json:"customerId" validate:"required"`
	StartDate  time.Time          `json:"startDate" validate:"required"`
	EndDate    time.Time          `json:"endDate" validate:"required"`
	Status     string             `json:"status" validate:"omitempty,oneof=pending active completed cancelled"`
	Notes      string             `json:"notes"`
	Items      []BookingItemInput `json:"items" validate:"required,min=1,dive"`
}

type BookingUpdate struct {
	CustomerID *string             `json:"customerId,omitempty"`
	StartDate  *time.Time          `json:"startDate,omitempty"`
	EndDate    *time.Time          `json:"endDate,omitempty"`
	Status     *string             `json:"status,omitempty" validate:"omitempty,oneof=pending active completed cancelled"`
	Notes      *string             `json:"notes,omitempty"`
	Items      []BookingItemInput  `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// BookingItemDetail is a booking line joined with its item document.
type BookingItemDetail struct {
	BookingItem `bson:",inline"`
	Item        *Item `json:"item,omitempty" bson:"-"`
}

// BookingDetail is a booking joined with its customer and item lines.
type BookingDetail struct {
	Booking  `bson:",inline"`
	Customer *Customer           `json:"customer,omitempty" bson:"-"`
	Items    []BookingItemDetail `json:"items" bson:"-"`
}
