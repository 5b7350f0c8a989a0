package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	itemserrors "rentory/internal/items/errors"
	"rentory/pkg/config"
	"rentory/pkg/model"
)

const CollectionName = "items"

// ListFilter narrows item listings to real items or template items.
type ListFilter struct {
	ExcludeDummy bool
	DummyOnly    bool
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*model.Item, error)
	Update(ctx context.Context, id string, item *model.Item) error
	SetDisplayID(ctx context.Context, id primitive.ObjectID, displayID int) error
	MaxTemplateDisplayID(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

type mongoItemRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoItemRepository(cfg *config.Config) ItemRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoItemRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoItemRepository) Create(ctx context.Context, item *model.Item) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid
	}
	return nil
}

func (r *mongoItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", itemserrors.ErrInvalidID, id)
	}

	var item model.Item
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, itemserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

func (r *mongoItemRepository) FindAll(ctx context.Context, filter ListFilter) ([]*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{}
	if filter.ExcludeDummy {
		query["is_dummy"] = bson.M{"$ne": true}
	}
	if filter.DummyOnly {
		query["is_dummy"] = true
	}

	sort := bson.D{{Key: "is_dummy", Value: 1}, {Key: "name", Value: 1}}
	if filter.DummyOnly {
		sort = bson.D{{Key: "display_id", Value: 1}, {Key: "name", Value: 1}}
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*model.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

func (r *mongoItemRepository) Update(ctx context.Context, id string, item *model.Item) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", itemserrors.ErrInvalidID, id)
	}

	item.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": bson.M{
		"name":        item.Name,
		"description": item.Description,
		"quantity":    item.Quantity,
		"price":       item.Price,
		"category":    item.Category,
		"is_dummy":    item.IsDummy,
		"display_id":  item.DisplayID,
		"image":       item.Image,
		"updated_at":  item.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if result.MatchedCount == 0 {
		return itemserrors.ErrNotFound
	}
	return nil
}

func (r *mongoItemRepository) SetDisplayID(ctx context.Context, id primitive.ObjectID, displayID int) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"display_id": displayID}})
	if err != nil {
		return fmt.Errorf("failed to set display ID: %w", err)
	}
	return nil
}

// MaxTemplateDisplayID returns the highest display ID among template
// items, or zero when none carries one yet.
func (r *mongoItemRepository) MaxTemplateDisplayID(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "display_id", Value: -1}}).
		SetProjection(bson.M{"display_id": 1})

	var doc struct {
		DisplayID *int `bson:"display_id"`
	}
	err := r.collection.FindOne(ctx, bson.M{"is_dummy": true}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to find max display ID: %w", err)
	}
	if doc.DisplayID == nil {
		return 0, nil
	}
	return *doc.DisplayID, nil
}

func (r *mongoItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", itemserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.DeletedCount == 0 {
		return itemserrors.ErrNotFound
	}
	return nil
}
