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

// WizardRepository implements the repositories.WizardRepository interface.
// Conversations live in the same database as domain data so in-progress
// setups survive process restarts.
type WizardRepository struct {
	collection *mongo.Collection
}

// NewWizardRepository creates a new WizardRepository
func NewWizardRepository(db *mongo.Database) repositories.WizardRepository {
	return &WizardRepository{
		collection: db.Collection("wizard_states"),
	}
}

func wizardKey(hostID, conversationID int64) bson.M {
	return bson.M{"hostId": hostID, "conversationId": conversationID}
}

// Find returns the persisted conversation for (host, conversation), or
// models.ErrNotFound
func (r *WizardRepository) Find(ctx context.Context, hostID, conversationID int64) (*models.WizardState, error) {
	var state models.WizardState
	err := r.collection.FindOne(ctx, wizardKey(hostID, conversationID)).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// Save upserts the conversation state
func (r *WizardRepository) Save(ctx context.Context, state *models.WizardState) error {
	state.UpdatedAt = time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, wizardKey(state.HostID, state.ConversationID), state, opts)
	return err
}

// Clear removes the conversation state; clearing an absent state is fine
func (r *WizardRepository) Clear(ctx context.Context, hostID, conversationID int64) error {
	_, err := r.collection.DeleteOne(ctx, wizardKey(hostID, conversationID))
	return err
}

// EnsureWizardIndexes creates the conversation key index and a TTL sweep on
// the idle deadline. The deadline is still checked on every transition; the
// TTL index only garbage-collects states nobody ever touched again.
func EnsureWizardIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("wizard_states")

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hostId", Value: 1}, {Key: "conversationId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("wizard_conversation_key"),
	})
	if err != nil {
		return err
	}

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "deadline", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("wizard_deadline_ttl"),
	})
	return err
}
