package services

import (
	"context"
	"time"

	"github.com/kassabot/raffle-backend/internal/models"
)

// LedgerService validates and ingests external payment ledger exports
type LedgerService interface {
	// Validate reports whether the file is a well-formed ledger export.
	// A schema mismatch is (false, nil); a missing or unreadable file is
	// an error wrapping models.ErrNotFound.
	Validate(path string) (bool, error)
	ValidateBytes(data []byte) (bool, error)
	// Ingest parses the export and returns the normalized rows inside
	// the inclusive window, amounts converted to integer minor units
	Ingest(path string, windowStart, windowEnd time.Time) ([]models.LedgerRow, error)
	IngestBytes(data []byte, windowStart, windowEnd time.Time) ([]models.LedgerRow, error)
}

// AnalyticsService turns a raffle's ledger snapshot into chart series.
// Both operations are pure reads of persisted state.
type AnalyticsService interface {
	ComputeGraph(ctx context.Context, chatID int64) (*models.GraphSeries, error)
	ComputeExpectedValue(ctx context.Context, chatID int64) (*models.ExpectedSeries, error)
}

// StepResult reports what a wizard transition produced
type StepResult struct {
	Stage models.WizardStage `json:"stage"`
	Text  string             `json:"text"`
}

// WizardService drives the persisted raffle-setup conversation
type WizardService interface {
	// Start opens a conversation for a host who staged a ledger upload.
	// Hosts who are not the current winner anywhere get models.ErrForbidden.
	Start(ctx context.Context, hostID, conversationID int64, ledgerKey string) (*StepResult, error)
	// HandleCallback applies one transport callback to the conversation
	HandleCallback(ctx context.Context, hostID int64, hostHandle string, conversationID int64, data string) (*StepResult, error)
}

// SuccessionService applies the role-dependent winner succession rules
type SuccessionService interface {
	// Succeed transfers the current-winner role to the named target and
	// closes the chat's active raffle, atomically
	Succeed(ctx context.Context, chatID, callerID int64, targetHandle string) (*models.Participant, error)
	// Close deactivates the active raffle without drawing a winner;
	// allowed for admins and the current winner
	Close(ctx context.Context, chatID, callerID int64) error
}

// ChatService covers chat lifecycle and member registration
type ChatService interface {
	BotAdded(ctx context.Context, chatID int64, title string, adderID int64, adderHandle string) error
	RegisterMember(ctx context.Context, chatID, userID int64, handle string) error
	SyncAdmins(ctx context.Context, chatID int64, adminIDs []int64) error
	ListChatsWithRaffle(ctx context.Context, userID int64) ([]models.ChatRef, error)
	Teardown(ctx context.Context, chatID int64) error
}

// AuthService authenticates operators for the maintenance API
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
	// SeedOperator writes the configured operator account at startup
	SeedOperator(ctx context.Context) error
}

// TxRunner runs a function inside a storage transaction. Implemented by
// pkg/mongodb.Client; tests substitute a pass-through.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
