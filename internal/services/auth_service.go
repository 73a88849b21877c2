package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/internal/config"
	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
	"github.com/kassabot/raffle-backend/internal/utils"
)

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthServiceImpl authenticates operators for the protected admin surface
type AuthServiceImpl struct {
	operatorRepo repositories.OperatorRepository
	cfg          *config.Config
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(operatorRepo repositories.OperatorRepository, cfg *config.Config) *AuthServiceImpl {
	return &AuthServiceImpl{operatorRepo: operatorRepo, cfg: cfg}
}

// Login verifies the operator's credentials and returns a signed token
func (s *AuthServiceImpl) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	operator, err := s.operatorRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrForbidden
		}
		return "", fmt.Errorf("load operator: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.Password), []byte(req.Password)); err != nil {
		slog.Warn("Operator login rejected", "email", req.Email)
		return "", models.ErrForbidden
	}
	token, err := utils.GenerateJWT(operator.Email, operator.Role, s.cfg)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// SeedOperator ensures the operator account from the config exists
func (s *AuthServiceImpl) SeedOperator(ctx context.Context) error {
	if s.cfg.Operator.Email == "" || s.cfg.Operator.PasswordHash == "" {
		slog.Warn("No operator account configured, skipping seed")
		return nil
	}
	operator := &models.Operator{
		Email:    s.cfg.Operator.Email,
		Password: s.cfg.Operator.PasswordHash,
		Role:     "operator",
	}
	if err := s.operatorRepo.Upsert(ctx, operator); err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}
	return nil
}
