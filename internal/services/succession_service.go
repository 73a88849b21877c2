package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
)

// Compile-time check to ensure SuccessionServiceImpl implements SuccessionService
var _ SuccessionService = (*SuccessionServiceImpl)(nil)

// SuccessionServiceImpl hands the winner slot to the next participant and
// closes the running raffle. Every mutation runs inside one transaction so
// a crash can never leave the history updated without the raffle closed.
type SuccessionServiceImpl struct {
	chatRepo        repositories.ChatRepository
	participantRepo repositories.ParticipantRepository
	raffleRepo      repositories.RaffleRepository
	tx              TxRunner
}

// NewSuccessionService creates a new SuccessionServiceImpl
func NewSuccessionService(
	chatRepo repositories.ChatRepository,
	participantRepo repositories.ParticipantRepository,
	raffleRepo repositories.RaffleRepository,
	tx TxRunner,
) *SuccessionServiceImpl {
	return &SuccessionServiceImpl{
		chatRepo:        chatRepo,
		participantRepo: participantRepo,
		raffleRepo:      raffleRepo,
		tx:              tx,
	}
}

// Succeed names targetHandle as the chat's next winner on behalf of
// callerID. Who may call and what happens to the history depends on the
// caller's standing:
//
//   - a chat admin sets the winner and the old one joins the history
//   - the most recent previous winner corrects the handoff, replacing the
//     current winner without touching the history
//   - the current winner passes the crown on, entering the history
//
// Anyone else gets models.ErrForbidden.
func (s *SuccessionServiceImpl) Succeed(ctx context.Context, chatID, callerID int64, targetHandle string) (*models.Participant, error) {
	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load chat %d: %w", chatID, err)
	}

	isAdmin := chat.IsAdmin(callerID)
	isCur := chat.IsCurrentWinner(callerID)
	mostRecent, hasPrev := chat.MostRecentPrevWinner()
	isPrev := hasPrev && mostRecent == callerID

	if !isAdmin && isCur && isPrev {
		// The same user holding both roles means the history was corrupted
		// by an earlier partial write; refuse to extend it
		return nil, fmt.Errorf("caller %d is both current and previous winner in chat %d: %w", callerID, chatID, models.ErrPersistence)
	}
	if !isAdmin && !isCur && !isPrev {
		return nil, models.ErrForbidden
	}

	target, err := s.participantRepo.FindByHandleInChat(ctx, chatID, strings.TrimPrefix(targetHandle, "@"))
	if err != nil {
		return nil, err
	}
	if !isAdmin && target.UserID == callerID {
		return nil, models.ErrAlreadyWinner
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		switch {
		case isAdmin, isCur:
			if err := s.chatRepo.CycleWinner(ctx, chatID, target.UserID); err != nil {
				return err
			}
		case isPrev:
			if err := s.chatRepo.ReplaceWinner(ctx, chatID, target.UserID); err != nil {
				return err
			}
		}
		return s.raffleRepo.CloseActive(ctx, chatID)
	})
	if err != nil {
		return nil, fmt.Errorf("commit succession in chat %d: %w", chatID, errors.Join(models.ErrPersistence, err))
	}

	slog.Info("Winner succession committed",
		"chatId", chatID,
		"callerId", callerID,
		"winnerId", target.UserID,
		"asAdmin", isAdmin,
	)
	return target, nil
}

// Close ends the active raffle without naming a new winner. Allowed for
// chat admins and the current winner.
func (s *SuccessionServiceImpl) Close(ctx context.Context, chatID, callerID int64) error {
	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load chat %d: %w", chatID, err)
	}
	if !chat.IsAdmin(callerID) && !chat.IsCurrentWinner(callerID) {
		return models.ErrForbidden
	}
	if err := s.raffleRepo.CloseActive(ctx, chatID); err != nil {
		return fmt.Errorf("close raffle in chat %d: %w", chatID, err)
	}
	slog.Info("Raffle closed", "chatId", chatID, "callerId", callerID)
	return nil
}
