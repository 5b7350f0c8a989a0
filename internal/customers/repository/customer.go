package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	customererrors "rentory/internal/customers/errors"
	"rentory/pkg/config"
	"rentory/pkg/model"
)

const (
	CollectionName = "customers"

	insertTimeout = 5 * time.Second
	queryTimeout  = 5 * time.Second
	updateTimeout = 5 * time.Second
	deleteTimeout = 5 * time.Second
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Customer, error)
	Update(ctx context.Context, id string, customer *model.Customer) error
	Delete(ctx context.Context, id string) error
}

type mongoCustomerRepository struct {
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{collection: db.Collection(CollectionName)}
}

func (r *mongoCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, customer)
	return err
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, customererrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var customer model.Customer
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, customererrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var customers []*model.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *mongoCustomerRepository) Update(ctx context.Context, id string, customer *model.Customer) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return customererrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":       customer.Name,
		"email":      customer.Email,
		"phone":      customer.Phone,
		"address":    customer.Address,
		"updated_at": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return customererrors.ErrNotFound
	}
	return nil
}

func (r *mongoCustomerRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return customererrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return customererrors.ErrNotFound
	}
	return nil
}
