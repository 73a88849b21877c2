package models

import "errors"

// Expected, recoverable outcomes. Handlers map each of these to a specific
// user-facing message; anything else is treated as an internal server error.
var (
	// ErrNoRaffle means no raffle configuration exists for the chat
	ErrNoRaffle = errors.New("no raffle configured for chat")

	// ErrNoEntries means a raffle exists but its ledger is empty or too
	// small to compute anything from
	ErrNoEntries = errors.New("no entries in raffle ledger")

	// ErrInvalidFile means a submitted ledger file failed schema validation
	ErrInvalidFile = errors.New("invalid ledger file")

	// ErrForbidden means the caller's role does not allow the operation
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound means the addressed participant is not registered in the chat
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyWinner means a non-admin caller named themselves while
	// already holding a winner role
	ErrAlreadyWinner = errors.New("already the winner")

	// ErrAlreadyRegistered means the participant is already a member of the chat
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrPersistence means a constraint violation or transient store
	// failure; no partial state change is visible
	ErrPersistence = errors.New("persistence error")

	// ErrNotFound means a requested artifact (ledger file, staged upload)
	// does not exist or is unreadable
	ErrNotFound = errors.New("not found")
)
