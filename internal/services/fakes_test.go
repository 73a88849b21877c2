package services

import (
	"context"
	"fmt"

	"github.com/kassabot/raffle-backend/internal/models"
)

// In-memory repository fakes shared by the service tests. They mirror the
// error contracts of the mongodb implementations.

type fakeChatRepo struct {
	chats map[int64]*models.Chat
}

func newFakeChatRepo(chats ...*models.Chat) *fakeChatRepo {
	r := &fakeChatRepo{chats: make(map[int64]*models.Chat)}
	for _, c := range chats {
		r.chats[c.ChatID] = c
	}
	return r
}

func (r *fakeChatRepo) FindByID(_ context.Context, chatID int64) (*models.Chat, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return chat, nil
}

func (r *fakeChatRepo) SaveIfAbsent(_ context.Context, chat *models.Chat) error {
	if _, ok := r.chats[chat.ChatID]; ok {
		return nil
	}
	r.chats[chat.ChatID] = chat
	return nil
}

func (r *fakeChatRepo) SyncAdmins(_ context.Context, chatID int64, adminIDs []int64) error {
	chat, ok := r.chats[chatID]
	if !ok {
		return models.ErrNotFound
	}
	chat.AdminIDs = adminIDs
	return nil
}

func (r *fakeChatRepo) GetAdminIDs(_ context.Context, chatID int64) ([]int64, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return chat.AdminIDs, nil
}

func (r *fakeChatRepo) GetWinnerHistory(_ context.Context, chatID int64) ([]int64, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return chat.PrevWinners, nil
}

func (r *fakeChatRepo) GetCurrentWinner(_ context.Context, chatID int64) (*int64, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return chat.CurWinner, nil
}

func (r *fakeChatRepo) CycleWinner(_ context.Context, chatID int64, newWinnerID int64) error {
	chat, ok := r.chats[chatID]
	if !ok {
		return models.ErrNotFound
	}
	if chat.CurWinner != nil {
		chat.PrevWinners = append(chat.PrevWinners, *chat.CurWinner)
	}
	w := newWinnerID
	chat.CurWinner = &w
	return nil
}

func (r *fakeChatRepo) ReplaceWinner(_ context.Context, chatID int64, newWinnerID int64) error {
	chat, ok := r.chats[chatID]
	if !ok {
		return models.ErrNotFound
	}
	w := newWinnerID
	chat.CurWinner = &w
	return nil
}

func (r *fakeChatRepo) ListChatsWhereCurrentWinner(_ context.Context, userID int64) ([]models.ChatRef, error) {
	var refs []models.ChatRef
	for _, chat := range r.chats {
		if chat.IsCurrentWinner(userID) {
			refs = append(refs, models.ChatRef{ChatID: chat.ChatID, Title: chat.Title})
		}
	}
	return refs, nil
}

func (r *fakeChatRepo) Delete(_ context.Context, chatID int64) error {
	delete(r.chats, chatID)
	return nil
}

type fakeParticipantRepo struct {
	participants map[int64]*models.Participant
	members      map[int64]map[int64]bool // chatID -> userID set
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{
		participants: make(map[int64]*models.Participant),
		members:      make(map[int64]map[int64]bool),
	}
}

func (r *fakeParticipantRepo) add(chatID int64, p *models.Participant) {
	r.participants[p.UserID] = p
	if r.members[chatID] == nil {
		r.members[chatID] = make(map[int64]bool)
	}
	r.members[chatID][p.UserID] = true
}

func (r *fakeParticipantRepo) SaveIfAbsent(_ context.Context, p *models.Participant) error {
	r.participants[p.UserID] = p
	return nil
}

func (r *fakeParticipantRepo) FindByID(_ context.Context, userID int64) (*models.Participant, error) {
	p, ok := r.participants[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return p, nil
}

func (r *fakeParticipantRepo) FindByHandleInChat(_ context.Context, chatID int64, handle string) (*models.Participant, error) {
	for _, p := range r.participants {
		if p.Handle == handle && r.members[chatID][p.UserID] {
			return p, nil
		}
	}
	return nil, models.ErrUserNotFound
}

type memberKey struct {
	chatID, userID int64
}

type fakeMembershipRepo struct {
	pairs       map[memberKey]bool
	raffleChats map[int64]models.ChatRef // chats that have a raffle record
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{
		pairs:       make(map[memberKey]bool),
		raffleChats: make(map[int64]models.ChatRef),
	}
}

func (r *fakeMembershipRepo) Register(_ context.Context, chatID, userID int64) error {
	key := memberKey{chatID, userID}
	if r.pairs[key] {
		return models.ErrAlreadyRegistered
	}
	r.pairs[key] = true
	return nil
}

func (r *fakeMembershipRepo) ListMembers(_ context.Context, chatID int64) ([]int64, error) {
	var ids []int64
	for key := range r.pairs {
		if key.chatID == chatID {
			ids = append(ids, key.userID)
		}
	}
	return ids, nil
}

func (r *fakeMembershipRepo) IsMember(_ context.Context, chatID, userID int64) (bool, error) {
	return r.pairs[memberKey{chatID, userID}], nil
}

func (r *fakeMembershipRepo) ListChatsWithRaffle(_ context.Context, userID int64) ([]models.ChatRef, error) {
	var refs []models.ChatRef
	for key := range r.pairs {
		if key.userID != userID {
			continue
		}
		if ref, ok := r.raffleChats[key.chatID]; ok {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (r *fakeMembershipRepo) DeleteByChat(_ context.Context, chatID int64) error {
	for key := range r.pairs {
		if key.chatID == chatID {
			delete(r.pairs, key)
		}
	}
	return nil
}

type fakeRaffleRepo struct {
	active map[int64]*models.Raffle
	closed []*models.Raffle
}

func newFakeRaffleRepo(raffles ...*models.Raffle) *fakeRaffleRepo {
	r := &fakeRaffleRepo{active: make(map[int64]*models.Raffle)}
	for _, raf := range raffles {
		raf.Active = true
		r.active[raf.ChatID] = raf
	}
	return r
}

func (r *fakeRaffleRepo) FindActiveByChat(_ context.Context, chatID int64) (*models.Raffle, error) {
	raffle, ok := r.active[chatID]
	if !ok {
		return nil, models.ErrNoRaffle
	}
	return raffle, nil
}

func (r *fakeRaffleRepo) Create(_ context.Context, raffle *models.Raffle) error {
	if _, ok := r.active[raffle.ChatID]; ok {
		return fmt.Errorf("%w: active raffle exists in chat %d", models.ErrPersistence, raffle.ChatID)
	}
	raffle.Active = true
	r.active[raffle.ChatID] = raffle
	return nil
}

func (r *fakeRaffleRepo) Update(_ context.Context, raffleID string, data models.RaffleData) error {
	for _, raffle := range r.active {
		if raffle.RaffleID == raffleID {
			raffle.StartDate = data.StartDate
			raffle.EndDate = data.EndDate
			raffle.EntryFee = data.EntryFee
			raffle.SetRows(data.Rows)
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *fakeRaffleRepo) CloseActive(_ context.Context, chatID int64) error {
	if raffle, ok := r.active[chatID]; ok {
		raffle.Active = false
		r.closed = append(r.closed, raffle)
		delete(r.active, chatID)
	}
	return nil
}

func (r *fakeRaffleRepo) DeleteByChat(_ context.Context, chatID int64) error {
	delete(r.active, chatID)
	return nil
}

type wizardKey struct {
	hostID, conversationID int64
}

type fakeWizardRepo struct {
	states map[wizardKey]*models.WizardState
}

func newFakeWizardRepo() *fakeWizardRepo {
	return &fakeWizardRepo{states: make(map[wizardKey]*models.WizardState)}
}

func (r *fakeWizardRepo) Find(_ context.Context, hostID, conversationID int64) (*models.WizardState, error) {
	state, ok := r.states[wizardKey{hostID, conversationID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *state
	return &copied, nil
}

func (r *fakeWizardRepo) Save(_ context.Context, state *models.WizardState) error {
	copied := *state
	r.states[wizardKey{state.HostID, state.ConversationID}] = &copied
	return nil
}

func (r *fakeWizardRepo) Clear(_ context.Context, hostID, conversationID int64) error {
	delete(r.states, wizardKey{hostID, conversationID})
	return nil
}

type fakeStage struct {
	blobs map[string][]byte
}

func newFakeStage() *fakeStage {
	return &fakeStage{blobs: make(map[string][]byte)}
}

func (s *fakeStage) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return data, nil
}

func (s *fakeStage) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

// passTx satisfies TxRunner without transactional semantics
type passTx struct{}

func (passTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
