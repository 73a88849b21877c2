package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
)

// OperatorRepository implements the repositories.OperatorRepository interface
type OperatorRepository struct {
	collection *mongo.Collection
}

// NewOperatorRepository creates a new OperatorRepository
func NewOperatorRepository(db *mongo.Database) repositories.OperatorRepository {
	return &OperatorRepository{
		collection: db.Collection("operators"),
	}
}

// FindByEmail finds an operator account by email
func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var operator models.Operator
	err := r.collection.FindOne(ctx, bson.M{"_id": email}).Decode(&operator)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &operator, nil
}

// Upsert writes an operator account, used by bootstrap to seed the
// configured operator
func (r *OperatorRepository) Upsert(ctx context.Context, operator *models.Operator) error {
	now := time.Now()
	update := bson.M{
		"$set":         bson.M{"password": operator.Password, "role": operator.Role, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": operator.Email}, update, opts)
	return err
}
