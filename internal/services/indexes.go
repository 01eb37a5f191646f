package services

import (
	"context"

	"github.com/dwellio/dwellio-backend/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the listing search depends on.
// Safe to call on every startup; CreateMany is a no-op for existing indexes.
func EnsureIndexes(ctx context.Context) error {
	properties := database.DB.Collection(database.PropertiesCollection)

	_, err := properties.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// Text index backing the free-text search.
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "location.city", Value: "text"},
				{Key: "location.state", Value: "text"},
			},
			Options: options.Index().SetName("property_text_search"),
		},
		{
			// Newest-first pagination with a stable tie-break.
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetName("owner"),
		},
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "price", Value: 1}},
			Options: options.Index().SetName("active_price"),
		},
	})
	if err != nil {
		return err
	}

	users := database.DB.Collection(database.UsersCollection)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	})
	return err
}
