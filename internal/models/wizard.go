package models

import "time"

// WizardStage is the state tag of the raffle-setup conversation
type WizardStage string

const (
	StageAwaitChatSelection WizardStage = "AWAIT_CHAT_SELECTION"
	StageUpdateOrNew        WizardStage = "UPDATE_OR_NEW"
	StageStartDate          WizardStage = "START_DATE"
	StageEndDate            WizardStage = "END_DATE"
	StageFee                WizardStage = "FEE"

	// Terminal stages. A wizard record is cleared as soon as one of
	// these is reached; they appear only in step results.
	StageCommitted WizardStage = "COMMITTED"
	StageCancelled WizardStage = "CANCELLED"
	StageError     WizardStage = "ERROR"
	StageTimedOut  WizardStage = "TIMED_OUT"
)

// Terminal reports whether the stage ends the conversation
func (s WizardStage) Terminal() bool {
	switch s {
	case StageCommitted, StageCancelled, StageError, StageTimedOut:
		return true
	}
	return false
}

// WizardState is the persisted raffle-setup conversation, keyed by
// (host, conversation). It survives process restarts; the idle deadline is
// stored in the record and checked on every transition rather than relying
// on an in-process timer.
type WizardState struct {
	HostID         int64       `bson:"hostId" json:"hostId"`
	ConversationID int64       `bson:"conversationId" json:"conversationId"`
	Stage          WizardStage `bson:"stage" json:"stage"`

	ChatID    int64     `bson:"chatId" json:"chatId"`
	ChatTitle string    `bson:"chatTitle" json:"chatTitle"`
	StartDate time.Time `bson:"startDate" json:"startDate"`
	EndDate   time.Time `bson:"endDate" json:"endDate"`
	EntryFee  int64     `bson:"entryFee" json:"entryFee"`

	// LedgerKey points at the staged upload in the ledger stage store
	LedgerKey string `bson:"ledgerKey" json:"ledgerKey"`

	// LastRendered is the text of the last message edit, kept so a repeated
	// callback that produces identical text can skip the transport edit
	LastRendered string `bson:"lastRendered" json:"lastRendered"`

	Deadline  time.Time `bson:"deadline" json:"deadline"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the conversation idle deadline has passed
func (w *WizardState) Expired(now time.Time) bool {
	return now.After(w.Deadline)
}
