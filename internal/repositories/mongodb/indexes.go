package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates every index the repositories rely on. Run once at
// startup; index creation is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := EnsureRaffleIndexes(ctx, db); err != nil {
		return err
	}
	if err := EnsureWizardIndexes(ctx, db); err != nil {
		return err
	}

	// Unique (chat, user) pair backing idempotent registration
	_, err := db.Collection("memberships").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chatId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("membership_pair"),
	})
	if err != nil {
		return err
	}

	// Handle lookups for /winner target resolution
	_, err = db.Collection("participants").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "handle", Value: 1}},
		Options: options.Index().SetName("participant_handle"),
	})
	return err
}
