package settings

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	settingsCollection = "site_settings"
	settingsDocID      = "site"
)

type mongoRepository struct {
	db *mongo.Database
}

// NewMongoRepository creates a settings repository storing a single document.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{db: db}
}

func (r *mongoRepository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &s, nil
}

func (r *mongoRepository) Save(ctx context.Context, s *Settings) error {
	s.UpdatedAt = time.Now()
	_, err := r.db.Collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": settingsDocID},
		bson.M{"$set": bson.M{
			"wahaBaseUrl": s.WahaBaseURL,
			"sessionName": s.SessionName,
			"wahaApiKey":  s.WahaAPIKey,
			"updatedAt":   s.UpdatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}
