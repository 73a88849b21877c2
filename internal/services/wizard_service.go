package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
	"github.com/kassabot/raffle-backend/internal/transport"
	"github.com/kassabot/raffle-backend/internal/utils"
)

// LedgerStage is the staged-upload store the wizard reads committed files
// from. Implemented by pkg/ledgerstage.Store.
type LedgerStage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// WizardConfig carries the wizard tunables out of the app config
type WizardConfig struct {
	IdleTimeout time.Duration
	DefaultFee  int64
}

// Compile-time check to ensure WizardServiceImpl implements WizardService
var _ WizardService = (*WizardServiceImpl)(nil)

// WizardServiceImpl drives the raffle-setup conversation. State lives in
// the wizard repository keyed by (host, conversation) and carries its own
// idle deadline, so a restart in the middle of a setup changes nothing.
type WizardServiceImpl struct {
	wizardRepo repositories.WizardRepository
	chatRepo   repositories.ChatRepository
	raffleRepo repositories.RaffleRepository
	ledger     LedgerService
	stage      LedgerStage
	messenger  transport.Messenger
	cfg        WizardConfig
	now        func() time.Time
}

// NewWizardService creates a new WizardServiceImpl
func NewWizardService(
	wizardRepo repositories.WizardRepository,
	chatRepo repositories.ChatRepository,
	raffleRepo repositories.RaffleRepository,
	ledger LedgerService,
	stage LedgerStage,
	messenger transport.Messenger,
	cfg WizardConfig,
) *WizardServiceImpl {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	if cfg.DefaultFee <= 0 {
		cfg.DefaultFee = 100
	}
	return &WizardServiceImpl{
		wizardRepo: wizardRepo,
		chatRepo:   chatRepo,
		raffleRepo: raffleRepo,
		ledger:     ledger,
		stage:      stage,
		messenger:  messenger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Start opens a conversation for a host who staged a ledger upload. Only
// chats where the host is the current winner are offered; anyone else gets
// models.ErrForbidden.
func (s *WizardServiceImpl) Start(ctx context.Context, hostID, conversationID int64, ledgerKey string) (*StepResult, error) {
	chats, err := s.chatRepo.ListChatsWhereCurrentWinner(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("list winner chats: %w", err)
	}
	if len(chats) == 0 {
		return nil, models.ErrForbidden
	}

	state := &models.WizardState{
		HostID:         hostID,
		ConversationID: conversationID,
		Stage:          models.StageAwaitChatSelection,
		EntryFee:       s.cfg.DefaultFee,
		LedgerKey:      ledgerKey,
		Deadline:       s.now().Add(s.cfg.IdleTimeout),
	}
	if err := s.wizardRepo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save wizard state: %w", err)
	}

	keyboard := make([][]transport.Button, 0, len(chats)+1)
	for _, chat := range chats {
		cmd := models.Command{Kind: models.CmdChatSelected, ChatID: chat.ChatID, ChatTitle: chat.Title}
		keyboard = append(keyboard, []transport.Button{{Label: chat.Title, Data: cmd.Encode()}})
	}
	keyboard = append(keyboard, cancelRow())

	if err := s.messenger.Send(ctx, conversationID, MsgChooseChannel, keyboard); err != nil {
		return nil, err
	}
	slog.Info("Wizard started", "hostId", hostID, "chats", len(chats))
	return &StepResult{Stage: models.StageAwaitChatSelection, Text: MsgChooseChannel}, nil
}

// HandleCallback applies one transport callback to the conversation. Any
// input with no defined transition from the current stage ends the
// conversation with a generic failure, which also swallows stale callbacks
// replayed against an already-finished wizard.
func (s *WizardServiceImpl) HandleCallback(ctx context.Context, hostID int64, hostHandle string, conversationID int64, data string) (result *StepResult, err error) {
	// A conversation must never survive a failed transition; the host
	// would be stuck pressing buttons against broken state
	defer func() {
		if err != nil {
			if cerr := s.wizardRepo.Clear(ctx, hostID, conversationID); cerr != nil {
				slog.Warn("Failed to clear wizard state after error", "error", cerr, "hostId", hostID)
			}
		}
	}()

	state, err := s.wizardRepo.Find(ctx, hostID, conversationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Stale or replayed callback; nothing to clear
			if err := s.messenger.Edit(ctx, conversationID, MsgUnknownError, nil); err != nil {
				return nil, err
			}
			return &StepResult{Stage: models.StageError, Text: MsgUnknownError}, nil
		}
		return nil, fmt.Errorf("load wizard state: %w", err)
	}

	if state.Expired(s.now()) {
		return s.terminate(ctx, state, models.StageTimedOut, MsgTimedOut)
	}

	cmd, err := models.ParseCallback(data)
	if err != nil {
		slog.Warn("Unparseable wizard callback", "hostId", hostID, "data", data)
		return s.terminate(ctx, state, models.StageError, MsgUnknownError)
	}

	if cmd.Kind == models.CmdCancel {
		return s.terminate(ctx, state, models.StageCancelled, MsgCancelled)
	}

	switch state.Stage {
	case models.StageAwaitChatSelection:
		if cmd.Kind == models.CmdChatSelected {
			return s.selectChat(ctx, state, cmd)
		}
	case models.StageUpdateOrNew:
		switch cmd.Kind {
		case models.CmdSetupNew:
			return s.beginDates(ctx, state)
		case models.CmdSetupUpdate:
			return s.commitUpdate(ctx, state, hostHandle)
		}
	case models.StageStartDate:
		switch {
		case cmd.Kind == models.CmdDateAdjust && cmd.Field == models.DateStart:
			state.StartDate = state.StartDate.Add(time.Duration(cmd.DeltaMins) * time.Minute)
			return s.renderStep(ctx, state, models.StageStartDate, "")
		case cmd.Kind == models.CmdDateConfirm && cmd.Field == models.DateStart:
			state.EndDate = state.StartDate
			return s.renderStep(ctx, state, models.StageEndDate, "")
		}
	case models.StageEndDate:
		switch {
		case cmd.Kind == models.CmdDateAdjust && cmd.Field == models.DateEnd:
			warning := ""
			state.EndDate = state.EndDate.Add(time.Duration(cmd.DeltaMins) * time.Minute)
			if state.EndDate.Before(state.StartDate) {
				state.EndDate = state.StartDate
				warning = msgEndBeforeStart
			}
			return s.renderStep(ctx, state, models.StageEndDate, warning)
		case cmd.Kind == models.CmdDateConfirm && cmd.Field == models.DateEnd:
			state.EntryFee = s.cfg.DefaultFee
			return s.renderStep(ctx, state, models.StageFee, "")
		}
	case models.StageFee:
		switch cmd.Kind {
		case models.CmdFeeAdjust:
			warning := ""
			state.EntryFee += cmd.FeeDelta
			if state.EntryFee < 0 {
				state.EntryFee = 0
				warning = msgNegativeFee
			}
			return s.renderStep(ctx, state, models.StageFee, warning)
		case models.CmdFeeConfirm:
			return s.commitNew(ctx, state, hostHandle)
		}
	}

	slog.Warn("Wizard callback matched no transition", "hostId", hostID, "stage", state.Stage, "data", data)
	return s.terminate(ctx, state, models.StageError, MsgUnknownError)
}

// selectChat stores the chosen chat and offers update-or-new depending on
// whether an active raffle already exists
func (s *WizardServiceImpl) selectChat(ctx context.Context, state *models.WizardState, cmd models.Command) (*StepResult, error) {
	state.ChatID = cmd.ChatID
	state.ChatTitle = cmd.ChatTitle

	var text string
	var keyboard [][]transport.Button
	_, err := s.raffleRepo.FindActiveByChat(ctx, state.ChatID)
	switch {
	case err == nil:
		text = fmt.Sprintf(msgSetupBase, state.ChatTitle) + msgSetupUpdateOrNew
		keyboard = [][]transport.Button{
			{{Label: btnUpdateRaffle, Data: models.Command{Kind: models.CmdSetupUpdate}.Encode()}},
			{{Label: btnNewRaffle, Data: models.Command{Kind: models.CmdSetupNew}.Encode()}},
			cancelRow(),
		}
	case errors.Is(err, models.ErrNoRaffle):
		text = fmt.Sprintf(msgSetupBase, state.ChatTitle) + msgSetupNew
		keyboard = [][]transport.Button{
			{{Label: btnNewRaffle, Data: models.Command{Kind: models.CmdSetupNew}.Encode()}},
			cancelRow(),
		}
	default:
		return nil, fmt.Errorf("look up raffle for chat %d: %w", state.ChatID, err)
	}

	state.Stage = models.StageUpdateOrNew
	return s.persistAndRender(ctx, state, text, keyboard)
}

// beginDates seeds a fresh window at the current quarter hour and moves to
// start-date capture
func (s *WizardServiceImpl) beginDates(ctx context.Context, state *models.WizardState) (*StepResult, error) {
	state.StartDate = utils.FloorTo15Min(s.now())
	state.EndDate = state.StartDate
	return s.renderStep(ctx, state, models.StageStartDate, "")
}

// renderStep advances to the given stage and re-renders the running
// message. An adjustment that produces identical text (a clamped repeat)
// skips the transport edit so duplicate-content errors cannot happen.
func (s *WizardServiceImpl) renderStep(ctx context.Context, state *models.WizardState, stage models.WizardStage, warning string) (*StepResult, error) {
	state.Stage = stage

	text := fmt.Sprintf(msgSetupBase, state.ChatTitle)
	var keyboard [][]transport.Button
	switch stage {
	case models.StageStartDate:
		text += fmt.Sprintf(msgSetupStartDate, state.StartDate.Format(stampLayout))
		keyboard = dateKeyboard(models.DateStart)
	case models.StageEndDate:
		text += fmt.Sprintf(msgSetupStartDate, state.StartDate.Format(stampLayout))
		text += fmt.Sprintf(msgSetupEndDate, state.EndDate.Format(stampLayout))
		keyboard = dateKeyboard(models.DateEnd)
	case models.StageFee:
		text += fmt.Sprintf(msgSetupStartDate, state.StartDate.Format(stampLayout))
		text += fmt.Sprintf(msgSetupEndDate, state.EndDate.Format(stampLayout))
		text += fmt.Sprintf(msgSetupFee, utils.FormatMinor(state.EntryFee))
		keyboard = feeKeyboard()
	}
	if warning != "" {
		text += warning
	}

	return s.persistAndRender(ctx, state, text, keyboard)
}

// persistAndRender refreshes the idle deadline, saves the state and edits
// the running message unless the text is unchanged
func (s *WizardServiceImpl) persistAndRender(ctx context.Context, state *models.WizardState, text string, keyboard [][]transport.Button) (*StepResult, error) {
	unchanged := text == state.LastRendered
	state.LastRendered = text
	state.Deadline = s.now().Add(s.cfg.IdleTimeout)
	if err := s.wizardRepo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save wizard state: %w", err)
	}
	if !unchanged {
		if err := s.messenger.Edit(ctx, state.ConversationID, text, keyboard); err != nil {
			return nil, err
		}
	}
	return &StepResult{Stage: state.Stage, Text: text}, nil
}

// commitUpdate re-ingests the staged ledger against the existing window
// and replaces the raffle's data in place
func (s *WizardServiceImpl) commitUpdate(ctx context.Context, state *models.WizardState, hostHandle string) (*StepResult, error) {
	raffle, err := s.raffleRepo.FindActiveByChat(ctx, state.ChatID)
	if err != nil {
		return nil, fmt.Errorf("load raffle for update: %w", err)
	}

	rows, err := s.ingestStaged(ctx, state, raffle.StartDate, raffle.EndDate)
	if err != nil {
		return nil, err
	}
	data := models.RaffleData{
		StartDate: raffle.StartDate,
		EndDate:   raffle.EndDate,
		EntryFee:  raffle.EntryFee,
		Rows:      rows,
	}
	if err := s.raffleRepo.Update(ctx, raffle.RaffleID, data); err != nil {
		return nil, fmt.Errorf("update raffle %s: %w", raffle.RaffleID, err)
	}

	return s.finish(ctx, state, fmt.Sprintf(msgUpdated, state.ChatTitle), fmt.Sprintf(msgUpdatedChat, hostHandle))
}

// commitNew inserts a fresh active raffle with the configured window, fee
// and the staged ledger filtered to that window
func (s *WizardServiceImpl) commitNew(ctx context.Context, state *models.WizardState, hostHandle string) (*StepResult, error) {
	rows, err := s.ingestStaged(ctx, state, state.StartDate, state.EndDate)
	if err != nil {
		return nil, err
	}

	raffle := &models.Raffle{
		RaffleID:  uuid.NewString(),
		ChatID:    state.ChatID,
		CreatorID: state.HostID,
		StartDate: state.StartDate,
		EndDate:   state.EndDate,
		EntryFee:  state.EntryFee,
	}
	raffle.SetRows(rows)

	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		// A concurrent commit may have won the active slot; surface the
		// failure and end the conversation rather than corrupting state
		slog.Error("Failed to create raffle", "error", err, "chatId", state.ChatID)
		if errors.Is(err, models.ErrPersistence) {
			if _, terr := s.terminate(ctx, state, models.StageError, MsgServerError); terr != nil {
				return nil, terr
			}
		}
		return nil, err
	}

	confirmation := fmt.Sprintf(msgSetupBase, state.ChatTitle) +
		fmt.Sprintf(msgSetupStartDate, state.StartDate.Format(stampLayout)) +
		fmt.Sprintf(msgSetupEndDate, state.EndDate.Format(stampLayout)) +
		fmt.Sprintf(msgSetupFee, utils.FormatMinor(state.EntryFee)) +
		fmt.Sprintf(msgConfirmed, state.ChatTitle)
	return s.finish(ctx, state, confirmation, fmt.Sprintf(msgCreatedChat, hostHandle))
}

// ingestStaged pulls the staged upload and runs it through the ingestor
func (s *WizardServiceImpl) ingestStaged(ctx context.Context, state *models.WizardState, start, end time.Time) ([]models.LedgerRow, error) {
	data, err := s.stage.Get(ctx, state.LedgerKey)
	if err != nil {
		return nil, fmt.Errorf("fetch staged ledger %s: %w", state.LedgerKey, err)
	}
	rows, err := s.ledger.IngestBytes(data, start, end)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// finish acknowledges the host, announces in the origin chat, clears the
// conversation and removes the staged upload
func (s *WizardServiceImpl) finish(ctx context.Context, state *models.WizardState, hostText, chatText string) (*StepResult, error) {
	if err := s.messenger.Edit(ctx, state.ConversationID, hostText, nil); err != nil {
		return nil, err
	}
	if err := s.messenger.Send(ctx, state.ChatID, chatText, nil); err != nil {
		return nil, err
	}
	if err := s.wizardRepo.Clear(ctx, state.HostID, state.ConversationID); err != nil {
		return nil, fmt.Errorf("clear wizard state: %w", err)
	}
	if err := s.stage.Delete(ctx, state.LedgerKey); err != nil {
		slog.Warn("Failed to delete staged ledger", "error", err, "key", state.LedgerKey)
	}
	slog.Info("Wizard committed", "hostId", state.HostID, "chatId", state.ChatID)
	return &StepResult{Stage: models.StageCommitted, Text: hostText}, nil
}

// terminate clears the conversation and reports the terminal outcome
func (s *WizardServiceImpl) terminate(ctx context.Context, state *models.WizardState, stage models.WizardStage, text string) (*StepResult, error) {
	if err := s.wizardRepo.Clear(ctx, state.HostID, state.ConversationID); err != nil {
		return nil, fmt.Errorf("clear wizard state: %w", err)
	}
	if state.LedgerKey != "" && stage != models.StageTimedOut {
		if err := s.stage.Delete(ctx, state.LedgerKey); err != nil {
			slog.Warn("Failed to delete staged ledger", "error", err, "key", state.LedgerKey)
		}
	}
	if err := s.messenger.Edit(ctx, state.ConversationID, text, nil); err != nil {
		return nil, err
	}
	return &StepResult{Stage: stage, Text: text}, nil
}

const stampLayout = "2006-01-02 15:04"

func cancelRow() []transport.Button {
	return []transport.Button{{Label: btnCancel, Data: models.Command{Kind: models.CmdCancel}.Encode()}}
}

func dateKeyboard(field models.DateField) [][]transport.Button {
	rough := []transport.Button{}
	for _, mins := range []int{-1440, -720, -360, 360, 720, 1440} {
		cmd := models.Command{Kind: models.CmdDateAdjust, Field: field, DeltaMins: mins}
		rough = append(rough, transport.Button{Label: deltaLabel(mins), Data: cmd.Encode()})
	}
	smooth := []transport.Button{}
	for _, mins := range []int{-60, -30, -15, 15, 30, 60} {
		cmd := models.Command{Kind: models.CmdDateAdjust, Field: field, DeltaMins: mins}
		smooth = append(smooth, transport.Button{Label: deltaLabel(mins), Data: cmd.Encode()})
	}
	return [][]transport.Button{
		rough,
		smooth,
		{{Label: btnConfirm, Data: models.Command{Kind: models.CmdDateConfirm, Field: field}.Encode()}},
		cancelRow(),
	}
}

func feeKeyboard() [][]transport.Button {
	row := []transport.Button{}
	for _, delta := range []int64{-100, -50, 50, 100} {
		cmd := models.Command{Kind: models.CmdFeeAdjust, FeeDelta: delta}
		row = append(row, transport.Button{Label: utils.FormatMinor(delta), Data: cmd.Encode()})
	}
	return [][]transport.Button{
		row,
		{{Label: btnFinish, Data: models.Command{Kind: models.CmdFeeConfirm}.Encode()}},
		cancelRow(),
	}
}

func deltaLabel(mins int) string {
	if mins%1440 == 0 {
		return fmt.Sprintf("%+d d", mins/1440)
	}
	if mins%60 == 0 {
		return fmt.Sprintf("%+d h", mins/60)
	}
	return fmt.Sprintf("%+d m", mins)
}
