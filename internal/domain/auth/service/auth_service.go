// Package service coordinates account registration, login, and session
// token validation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/thequantifier/quantifier/internal/domain/auth/repository"
)

// ErrInvalidCredentials is returned for a wrong email or password. Both
// cases map to the same error so login does not leak which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterParams contains the required data for registration.
type RegisterParams struct {
	Email    string
	Username string
	Password string
	FullName string
}

// AuthResult is produced after registration or login.
type AuthResult struct {
	User  *repository.User
	Token string
}

// AuthService coordinates account business logic.
type AuthService struct {
	repo         repository.AuthRepository
	tokenManager TokenManager
	logger       *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(repo repository.AuthRepository, tokenManager TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// Register creates a new account and issues a session token.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, params.Email, params.Username, hashedPassword, params.FullName)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenManager.Generate(user.ID.String())
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user against stored credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !ComparePassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenManager.Generate(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate validates a session token and loads its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*repository.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.tokenManager.Validate(token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies partial profile changes for the user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, update repository.ProfileUpdate) (*repository.User, error) {
	if update.Email != nil {
		existing, err := s.repo.GetUserByEmail(ctx, *update.Email)
		if err == nil && existing.ID != userID {
			return nil, repository.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("check email uniqueness: %w", err)
		}
	}

	return s.repo.UpdateProfile(ctx, userID, update)
}
