package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/stayvista/stayvista-api/internal/domain"
	"github.com/stayvista/stayvista-api/internal/platform/auth"
	"github.com/stayvista/stayvista-api/internal/platform/mailer"
	repo "github.com/stayvista/stayvista-api/internal/repo/mongo"
	"github.com/stayvista/stayvista-api/pkg/events"
	"github.com/stayvista/stayvista-api/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type authService struct {
	users    repo.UserRepository
	tokens   *auth.TokenService
	mailer   mailer.Service
	eventBus events.Publisher
}

func NewAuthService(users repo.UserRepository, tokens *auth.TokenService, m mailer.Service, eventBus events.Publisher) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		mailer:   m,
		eventBus: eventBus,
	}
}

// Register creates a user and immediately signs them in, returning the token
// to set on the session cookie.
func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", domain.ErrEmailExists
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash, req.FirstName, req.LastName)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.mailer.SendWelcome(user.Email, user.FirstName); err != nil {
		// registration succeeded; a lost welcome mail is not worth failing it
		logger.WarnContext(ctx, "failed to send welcome email", "error", err, "user_id", user.ID)
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: time.Now().UTC(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish user.registered", "error", err, "user_id", user.ID)
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
