package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentory/pkg/config"
)

const (
	CollectionName = "settings"

	recipientsDocID = "email_recipients"

	queryTimeout  = 5 * time.Second
	updateTimeout = 5 * time.Second
)

type recipientsDocument struct {
	ID         string    `bson:"_id"`
	Recipients []string  `bson:"recipients"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// SettingsRepository stores small singleton configuration documents
// keyed by a well-known string ID.
type SettingsRepository interface {
	EmailRecipients(ctx context.Context) ([]string, error)
	SetEmailRecipients(ctx context.Context, recipients []string) error
}

type mongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewMongoSettingsRepository(cfg *config.Config) SettingsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSettingsRepository{collection: db.Collection(CollectionName)}
}

// EmailRecipients returns the stored list, or an empty list when the
// document has never been written.
func (r *mongoSettingsRepository) EmailRecipients(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc recipientsDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": recipientsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Recipients == nil {
		return []string{}, nil
	}
	return doc.Recipients, nil
}

func (r *mongoSettingsRepository) SetEmailRecipients(ctx context.Context, recipients []string) error {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"recipients": recipients,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": recipientsDocID}, update, opts)
	return err
}
