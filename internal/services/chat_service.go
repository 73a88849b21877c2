package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
	"github.com/kassabot/raffle-backend/internal/transport"
)

// Compile-time check to ensure ChatServiceImpl implements ChatService
var _ ChatService = (*ChatServiceImpl)(nil)

// ChatServiceImpl maintains chat rosters: which chats the engine knows,
// who their admins are and which users have opted in.
type ChatServiceImpl struct {
	chatRepo        repositories.ChatRepository
	participantRepo repositories.ParticipantRepository
	membershipRepo  repositories.MembershipRepository
	raffleRepo      repositories.RaffleRepository
	messenger       transport.Messenger
}

// NewChatService creates a new ChatServiceImpl
func NewChatService(
	chatRepo repositories.ChatRepository,
	participantRepo repositories.ParticipantRepository,
	membershipRepo repositories.MembershipRepository,
	raffleRepo repositories.RaffleRepository,
	messenger transport.Messenger,
) *ChatServiceImpl {
	return &ChatServiceImpl{
		chatRepo:        chatRepo,
		participantRepo: participantRepo,
		membershipRepo:  membershipRepo,
		raffleRepo:      raffleRepo,
		messenger:       messenger,
	}
}

// BotAdded registers a chat the first time the bot lands in it. The user
// who added the bot is recorded as admin and becomes the initial current
// winner so somebody can run the first setup.
func (s *ChatServiceImpl) BotAdded(ctx context.Context, chatID int64, title string, adderID int64, adderHandle string) error {
	chat := &models.Chat{
		ChatID:    chatID,
		Title:     title,
		AdminIDs:  []int64{adderID},
		CurWinner: &adderID,
	}
	if err := s.chatRepo.SaveIfAbsent(ctx, chat); err != nil {
		return fmt.Errorf("save chat %d: %w", chatID, err)
	}
	if err := s.RegisterMember(ctx, chatID, adderID, adderHandle); err != nil && !errors.Is(err, models.ErrAlreadyRegistered) {
		return err
	}
	if err := s.messenger.Send(ctx, chatID, MsgGreeting, nil); err != nil {
		return err
	}
	slog.Info("Chat registered", "chatId", chatID, "title", title, "adderId", adderID)
	return nil
}

// RegisterMember opts a user into raffles in a chat. Registering twice in
// the same chat returns models.ErrAlreadyRegistered.
func (s *ChatServiceImpl) RegisterMember(ctx context.Context, chatID, userID int64, handle string) error {
	participant := &models.Participant{UserID: userID, Handle: handle}
	if err := s.participantRepo.SaveIfAbsent(ctx, participant); err != nil {
		return fmt.Errorf("save participant %d: %w", userID, err)
	}
	if err := s.membershipRepo.Register(ctx, chatID, userID); err != nil {
		return err
	}
	slog.Info("Member registered", "chatId", chatID, "userId", userID)
	return nil
}

// SyncAdmins replaces the stored admin list for a chat
func (s *ChatServiceImpl) SyncAdmins(ctx context.Context, chatID int64, adminIDs []int64) error {
	if err := s.chatRepo.SyncAdmins(ctx, chatID, adminIDs); err != nil {
		return fmt.Errorf("sync admins for chat %d: %w", chatID, err)
	}
	return nil
}

// ListChatsWithRaffle returns the chats a user belongs to that currently
// have an active raffle, for picking which graph to draw
func (s *ChatServiceImpl) ListChatsWithRaffle(ctx context.Context, userID int64) ([]models.ChatRef, error) {
	chats, err := s.membershipRepo.ListChatsWithRaffle(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list raffle chats for user %d: %w", userID, err)
	}
	return chats, nil
}

// Teardown removes every trace of a chat after the bot leaves it
func (s *ChatServiceImpl) Teardown(ctx context.Context, chatID int64) error {
	if err := s.raffleRepo.DeleteByChat(ctx, chatID); err != nil {
		return fmt.Errorf("delete raffles for chat %d: %w", chatID, err)
	}
	if err := s.membershipRepo.DeleteByChat(ctx, chatID); err != nil {
		return fmt.Errorf("delete memberships for chat %d: %w", chatID, err)
	}
	if err := s.chatRepo.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat %d: %w", chatID, err)
	}
	slog.Info("Chat torn down", "chatId", chatID)
	return nil
}
