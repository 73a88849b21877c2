package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/transport"
)

const (
	testHostID = int64(42)
	testConvID = int64(9001)
	testChatID = int64(7)
)

type wizardFixture struct {
	svc        *WizardServiceImpl
	wizardRepo *fakeWizardRepo
	raffleRepo *fakeRaffleRepo
	stage      *fakeStage
	recorder   *transport.Recorder
	now        time.Time
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	winner := testHostID
	chatRepo := newFakeChatRepo(&models.Chat{
		ChatID:    testChatID,
		Title:     "lounge",
		AdminIDs:  []int64{1},
		CurWinner: &winner,
	})
	f := &wizardFixture{
		wizardRepo: newFakeWizardRepo(),
		raffleRepo: newFakeRaffleRepo(),
		stage:      newFakeStage(),
		recorder:   transport.NewRecorder(),
		now:        time.Date(2026, 3, 1, 12, 7, 0, 0, time.UTC),
	}
	f.stage.blobs["k1"] = []byte("2026-03-01 19:00:00,Alice,x,10\n2026-03-05 09:00:00,Bob,x,5\n")

	f.svc = NewWizardService(f.wizardRepo, chatRepo, f.raffleRepo, NewLedgerService(), f.stage, f.recorder, WizardConfig{
		IdleTimeout: 2 * time.Minute,
		DefaultFee:  100,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *wizardFixture) step(t *testing.T, data string) *StepResult {
	t.Helper()
	result, err := f.svc.HandleCallback(context.Background(), testHostID, "winnerhost", testConvID, data)
	if err != nil {
		t.Fatalf("HandleCallback(%q): %v", data, err)
	}
	return result
}

func TestWizardStartOffersWinnerChats(t *testing.T) {
	f := newWizardFixture(t)

	result, err := f.svc.Start(context.Background(), testHostID, testConvID, "k1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if result.Stage != models.StageAwaitChatSelection {
		t.Errorf("stage = %s, want %s", result.Stage, models.StageAwaitChatSelection)
	}
	if len(f.recorder.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(f.recorder.Messages))
	}
	msg := f.recorder.Messages[0]
	if msg.Text != MsgChooseChannel {
		t.Errorf("text = %q, want %q", msg.Text, MsgChooseChannel)
	}
	// One chat row plus the cancel row
	if len(msg.Keyboard) != 2 {
		t.Errorf("got %d keyboard rows, want 2", len(msg.Keyboard))
	}
	if msg.Keyboard[0][0].Label != "lounge" {
		t.Errorf("chat button label = %q, want lounge", msg.Keyboard[0][0].Label)
	}
}

func TestWizardStartNotWinnerAnywhere(t *testing.T) {
	f := newWizardFixture(t)

	_, err := f.svc.Start(context.Background(), 555, testConvID, "k1")
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestWizardFullSetupFlow(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := f.step(t, "raffle:chat_selected:7:lounge")
	if result.Stage != models.StageUpdateOrNew {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageUpdateOrNew)
	}
	if !strings.Contains(result.Text, "No existing raffle found") {
		t.Errorf("expected new-raffle prompt, got %q", result.Text)
	}

	result = f.step(t, "raffle:setup:new")
	if result.Stage != models.StageStartDate {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageStartDate)
	}
	// Seeded at the current quarter hour
	if !strings.Contains(result.Text, "2026-03-01 12:00") {
		t.Errorf("expected seeded start date in %q", result.Text)
	}

	f.step(t, "raffle:date:start:update:+360")
	result = f.step(t, "raffle:date:start:confirmed")
	if result.Stage != models.StageEndDate {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageEndDate)
	}

	f.step(t, "raffle:date:end:update:+1440")
	f.step(t, "raffle:date:end:update:+1440")
	f.step(t, "raffle:date:end:update:+1440")
	f.step(t, "raffle:date:end:update:+1440")
	result = f.step(t, "raffle:date:end:confirmed")
	if result.Stage != models.StageFee {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageFee)
	}

	f.step(t, "raffle:fee:update:+50")
	result = f.step(t, "raffle:fee:confirmed")
	if result.Stage != models.StageCommitted {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageCommitted)
	}

	raffle, err := f.raffleRepo.FindActiveByChat(ctx, testChatID)
	if err != nil {
		t.Fatalf("FindActiveByChat: %v", err)
	}
	wantStart := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC)
	if !raffle.StartDate.Equal(wantStart) || !raffle.EndDate.Equal(wantEnd) {
		t.Errorf("window = [%v, %v], want [%v, %v]", raffle.StartDate, raffle.EndDate, wantStart, wantEnd)
	}
	if raffle.EntryFee != 150 {
		t.Errorf("fee = %d, want 150", raffle.EntryFee)
	}
	rows := raffle.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d ledger rows, want 2", len(rows))
	}
	if rows[0].Entrant != "Alice" || rows[0].Amount != 1000 {
		t.Errorf("row 0 = %+v, want Alice / 1000", rows[0])
	}

	// The staged upload and conversation are gone
	if _, err := f.stage.Get(ctx, "k1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("staged ledger should be deleted, got %v", err)
	}
	if _, err := f.wizardRepo.Find(ctx, testHostID, testConvID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("wizard state should be cleared, got %v", err)
	}

	// The last two messages are the host confirmation edit and the chat
	// announcement naming the actor
	n := len(f.recorder.Messages)
	if n < 2 {
		t.Fatalf("got %d messages, want at least 2", n)
	}
	hostMsg, chatMsg := f.recorder.Messages[n-2], f.recorder.Messages[n-1]
	if !hostMsg.Edit || hostMsg.ChatID != testConvID {
		t.Errorf("host confirmation = %+v, want edit in conversation", hostMsg)
	}
	if chatMsg.Edit || chatMsg.ChatID != testChatID {
		t.Errorf("chat announcement = %+v, want send in chat", chatMsg)
	}
	if !strings.Contains(chatMsg.Text, "@winnerhost") {
		t.Errorf("announcement %q should name the host", chatMsg.Text)
	}
}

func TestWizardEndDateClampAndIdempotentEdit(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.step(t, "raffle:chat_selected:7:lounge")
	f.step(t, "raffle:setup:new")
	f.step(t, "raffle:date:start:confirmed")

	result := f.step(t, "raffle:date:end:update:-1440")
	if !strings.Contains(result.Text, msgEndBeforeStart) {
		t.Errorf("expected clamp warning in %q", result.Text)
	}

	before := len(f.recorder.Messages)
	repeat := f.step(t, "raffle:date:end:update:-1440")
	if repeat.Text != result.Text {
		t.Errorf("clamped repeat changed text: %q vs %q", repeat.Text, result.Text)
	}
	if len(f.recorder.Messages) != before {
		t.Errorf("identical render should skip the transport edit")
	}
}

func TestWizardFeeClamp(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.step(t, "raffle:chat_selected:7:lounge")
	f.step(t, "raffle:setup:new")
	f.step(t, "raffle:date:start:confirmed")
	f.step(t, "raffle:date:end:update:+1440")
	f.step(t, "raffle:date:end:confirmed")

	result := f.step(t, "raffle:fee:update:-100")
	if strings.Contains(result.Text, msgNegativeFee) {
		t.Errorf("fee 0 is legal, got warning in %q", result.Text)
	}
	result = f.step(t, "raffle:fee:update:-50")
	if !strings.Contains(result.Text, msgNegativeFee) {
		t.Errorf("expected negative-fee warning in %q", result.Text)
	}
	if !strings.Contains(result.Text, "Fee set to 0!") {
		t.Errorf("fee should clamp to 0, got %q", result.Text)
	}
}

func TestWizardCancel(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.step(t, "raffle:chat_selected:7:lounge")

	result := f.step(t, "raffle:cancel")
	if result.Stage != models.StageCancelled || result.Text != MsgCancelled {
		t.Fatalf("got %+v, want cancelled terminal", result)
	}
	if _, err := f.wizardRepo.Find(ctx, testHostID, testConvID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("wizard state should be cleared, got %v", err)
	}
	if len(f.raffleRepo.active) != 0 {
		t.Errorf("cancel must not create a raffle")
	}
}

func TestWizardTimeout(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.now = f.now.Add(3 * time.Minute)
	result := f.step(t, "raffle:chat_selected:7:lounge")
	if result.Stage != models.StageTimedOut || result.Text != MsgTimedOut {
		t.Fatalf("got %+v, want timed-out terminal", result)
	}
	if _, err := f.wizardRepo.Find(ctx, testHostID, testConvID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("wizard state should be cleared, got %v", err)
	}
}

func TestWizardUnknownCallback(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := f.step(t, "raffle:date:start:update:+17")
	if result.Stage != models.StageError {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageError)
	}
	if _, err := f.wizardRepo.Find(ctx, testHostID, testConvID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("wizard state should be cleared, got %v", err)
	}
}

func TestWizardOutOfPlaceCallback(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// A fee adjustment before any chat is selected has no transition
	result := f.step(t, "raffle:fee:update:+50")
	if result.Stage != models.StageError {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageError)
	}
}

func TestWizardStaleCallback(t *testing.T) {
	f := newWizardFixture(t)

	// No Start, so no conversation exists
	result := f.step(t, "raffle:cancel")
	if result.Stage != models.StageError {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageError)
	}
}

func TestWizardUpdateExistingRaffle(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	existing := testRaffle(testChatID, nil)
	existing.StartDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	existing.EndDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	existing.EntryFee = 200
	f.raffleRepo.active[testChatID] = existing

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	result := f.step(t, "raffle:chat_selected:7:lounge")
	if !strings.Contains(result.Text, "Found existing raffle") {
		t.Errorf("expected update prompt, got %q", result.Text)
	}

	result = f.step(t, "raffle:setup:old")
	if result.Stage != models.StageCommitted {
		t.Fatalf("stage = %s, want %s", result.Stage, models.StageCommitted)
	}

	// Window and fee untouched, ledger replaced from the staged upload
	raffle, err := f.raffleRepo.FindActiveByChat(ctx, testChatID)
	if err != nil {
		t.Fatalf("FindActiveByChat: %v", err)
	}
	if raffle.EntryFee != 200 {
		t.Errorf("fee = %d, want 200", raffle.EntryFee)
	}
	rows := raffle.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestWizardConcurrentCreateLosesCleanly(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, testHostID, testConvID, "k1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.step(t, "raffle:chat_selected:7:lounge")
	f.step(t, "raffle:setup:new")
	f.step(t, "raffle:date:start:confirmed")
	f.step(t, "raffle:date:end:update:+1440")
	f.step(t, "raffle:date:end:confirmed")

	// Another setup commits first
	f.raffleRepo.active[testChatID] = testRaffle(testChatID, threeEntrantRows())

	_, err := f.svc.HandleCallback(ctx, testHostID, "winnerhost", testConvID, "raffle:fee:confirmed")
	if !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if _, ferr := f.wizardRepo.Find(ctx, testHostID, testConvID); !errors.Is(ferr, models.ErrNotFound) {
		t.Errorf("wizard state should be cleared after losing the race, got %v", ferr)
	}
	// The winning raffle is untouched
	raffle, _ := f.raffleRepo.FindActiveByChat(ctx, testChatID)
	if raffle.EntryFee != 100 || len(raffle.Rows()) != 3 {
		t.Errorf("winning raffle was modified: %+v", raffle)
	}
}
