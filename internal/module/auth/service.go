package auth

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/weatherlog/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Current(ctx context.Context, userID uint) (*Session, error)
}

// authService implements Service.
type authService struct {
	userRepo domain.UserRepository
	cost     int
}

// NewService creates a new auth Service. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewService(userRepo domain.UserRepository, cost int) Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &authService{userRepo: userRepo, cost: cost}
}

// Login checks the username and password and returns the caller's session.
func (s *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		// Unknown users and bad passwords are indistinguishable to the caller.
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "login rejected", "username", user.Username)
		return nil, domain.ErrUnauthorized
	}

	return &Session{UserID: user.ID, Username: user.Username}, nil
}

// Register creates a new user with a bcrypt password hash.
func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := domain.User{Username: username, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

// Current resolves the session for an identity asserted by X-User-ID. An ID
// that no longer names a user is unauthorized.
func (s *authService) Current(ctx context.Context, userID uint) (*Session, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return &Session{UserID: user.ID, Username: user.Username}, nil
}

func validateCredentials(username, password string) error {
	fields := make(map[string]string)
	if !usernamePattern.MatchString(username) {
		fields["username"] = "username must be 3-50 letters, digits, '.', '_' or '-'"
	}
	// bcrypt ignores bytes past 72.
	if n := len(password); n < 8 || n > 72 {
		fields["password"] = "password must be 8-72 bytes"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}
