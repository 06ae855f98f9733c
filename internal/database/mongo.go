package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// NewMongoDatabase connects to MongoDB and returns a handle to the named database.
// The returned client must be disconnected by the caller on shutdown.
func NewMongoDatabase(uri, name string) (*mongo.Client, *mongo.Database) {
	if uri == "" {
		log.Println("❌ MONGO_URL environment variable is not set")
		return nil, nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		log.Printf("❌ Could not create MongoDB client: %v", err)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Printf("❌ Could not connect to MongoDB: %v", err)
		_ = client.Disconnect(context.Background())
		return nil, nil
	}

	log.Println("✅ Successfully connected to MongoDB")
	return client, client.Database(name)
}
