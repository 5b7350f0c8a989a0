package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingerrors "rentory/internal/bookings/errors"
	"rentory/pkg/config"
	"rentory/pkg/model"
)

const (
	CollectionName = "bookings"

	insertTimeout = 5 * time.Second
	queryTimeout  = 5 * time.Second
	updateTimeout = 5 * time.Second
	deleteTimeout = 5 * time.Second
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context) ([]*model.Booking, error)
	Update(ctx context.Context, id string, booking *model.Booking) error
	Delete(ctx context.Context, id string) error
}

type mongoBookingRepository struct {
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{collection: db.Collection(CollectionName)}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, booking)
	return err
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, bookingerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, bookingerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return bookingerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"customer_id": booking.CustomerID,
		"start_date":  booking.StartDate,
		"end_date":    booking.EndDate,
		"status":      booking.Status,
		"notes":       booking.Notes,
		"updated_at":  time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return bookingerrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return bookingerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return bookingerrors.ErrNotFound
	}
	return nil
}
