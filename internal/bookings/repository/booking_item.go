package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "rentory/internal/bookings/errors"
	"rentory/pkg/config"
	"rentory/pkg/model"
)

const BookingItemCollectionName = "booking_items"

// BookingItemRepository manages one line per (booking, item) pair. The
// collection carries a unique compound index on those two fields, so a
// concurrent Create race surfaces as ErrDuplicateItem and callers fall
// back to IncrementQuantity.
type BookingItemRepository interface {
	Create(ctx context.Context, item *model.BookingItem) error
	FindByBookingAndItem(ctx context.Context, bookingID, itemID primitive.ObjectID) (*model.BookingItem, error)
	IncrementQuantity(ctx context.Context, bookingID, itemID primitive.ObjectID, delta int) error
	FindByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*model.BookingItem, error)
	DeleteByBooking(ctx context.Context, bookingID primitive.ObjectID) error
}

type mongoBookingItemRepository struct {
	collection *mongo.Collection
}

func NewMongoBookingItemRepository(cfg *config.Config) BookingItemRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingItemRepository{collection: db.Collection(BookingItemCollectionName)}
}

func (r *mongoBookingItemRepository) Create(ctx context.Context, item *model.BookingItem) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	item.CreatedAt = time.Now().UTC()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, item)
	if mongo.IsDuplicateKeyError(err) {
		return bookingerrors.ErrDuplicateItem
	}
	return err
}

func (r *mongoBookingItemRepository) FindByBookingAndItem(ctx context.Context, bookingID, itemID primitive.ObjectID) (*model.BookingItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var item model.BookingItem
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID, "item_id": itemID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, bookingerrors.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *mongoBookingItemRepository) IncrementQuantity(ctx context.Context, bookingID, itemID primitive.ObjectID, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"booking_id": bookingID, "item_id": itemID},
		bson.M{"$inc": bson.M{"quantity": delta}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return bookingerrors.ErrItemNotFound
	}
	return nil
}

func (r *mongoBookingItemRepository) FindByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*model.BookingItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*model.BookingItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoBookingItemRepository) DeleteByBooking(ctx context.Context, bookingID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"booking_id": bookingID})
	return err
}
