package repositories

import (
	"context"

	"github.com/kassabot/raffle-backend/internal/models"
)

// ChatRepository defines the interface for chat metadata and winner-role operations
type ChatRepository interface {
	FindByID(ctx context.Context, chatID int64) (*models.Chat, error)
	// SaveIfAbsent creates the chat on bot-join; an existing record is
	// left untouched
	SaveIfAbsent(ctx context.Context, chat *models.Chat) error
	// SyncAdmins replaces the admin set from the chat transport
	SyncAdmins(ctx context.Context, chatID int64, adminIDs []int64) error
	GetAdminIDs(ctx context.Context, chatID int64) ([]int64, error)
	GetWinnerHistory(ctx context.Context, chatID int64) ([]int64, error)
	GetCurrentWinner(ctx context.Context, chatID int64) (*int64, error)
	// CycleWinner pushes the current winner onto the history and sets a
	// new current winner, as one atomic document update
	CycleWinner(ctx context.Context, chatID int64, newWinnerID int64) error
	// ReplaceWinner sets a new current winner without touching the
	// history (the previous-winner correction rule)
	ReplaceWinner(ctx context.Context, chatID int64, newWinnerID int64) error
	ListChatsWhereCurrentWinner(ctx context.Context, userID int64) ([]models.ChatRef, error)
	Delete(ctx context.Context, chatID int64) error
}

// ParticipantRepository defines the interface for participant records
type ParticipantRepository interface {
	// SaveIfAbsent creates the participant on first registration and
	// refreshes the handle on subsequent calls
	SaveIfAbsent(ctx context.Context, participant *models.Participant) error
	FindByID(ctx context.Context, userID int64) (*models.Participant, error)
	FindByHandleInChat(ctx context.Context, chatID int64, handle string) (*models.Participant, error)
}

// MembershipRepository defines the interface for (participant, chat) registrations
type MembershipRepository interface {
	// Register creates the membership pair; a duplicate registration
	// returns models.ErrAlreadyRegistered
	Register(ctx context.Context, chatID, userID int64) error
	ListMembers(ctx context.Context, chatID int64) ([]int64, error)
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
	// ListChatsWithRaffle lists the user's chats that have a raffle
	// record, for the graph chat picker
	ListChatsWithRaffle(ctx context.Context, userID int64) ([]models.ChatRef, error)
	DeleteByChat(ctx context.Context, chatID int64) error
}

// RaffleRepository defines the interface for raffle configuration and ledger snapshots
type RaffleRepository interface {
	// FindActiveByChat returns the chat's active raffle or models.ErrNoRaffle
	FindActiveByChat(ctx context.Context, chatID int64) (*models.Raffle, error)
	// Create inserts a new active raffle. A concurrent active raffle for
	// the same chat trips the partial unique index and surfaces
	// models.ErrPersistence; the loser can re-read the winner's record.
	Create(ctx context.Context, raffle *models.Raffle) error
	// Update replaces the window, fee and ledger snapshot of an existing raffle
	Update(ctx context.Context, raffleID string, data models.RaffleData) error
	// CloseActive flips the active flag off; closing an already-closed
	// raffle is a no-op so duplicate commands stay idempotent
	CloseActive(ctx context.Context, chatID int64) error
	DeleteByChat(ctx context.Context, chatID int64) error
}

// WizardRepository defines the interface for persisted setup-wizard conversations
type WizardRepository interface {
	Find(ctx context.Context, hostID, conversationID int64) (*models.WizardState, error)
	Save(ctx context.Context, state *models.WizardState) error
	Clear(ctx context.Context, hostID, conversationID int64) error
}

// OperatorRepository defines the interface for operator accounts
type OperatorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Operator, error)
	Upsert(ctx context.Context, operator *models.Operator) error
}
