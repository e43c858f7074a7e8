package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/auth"
)

const (
	DefaultUsername = "admin"
	DefaultName     = "Administrator"
)

type Service struct {
	users  UserRepository
	logger zerolog.Logger
	cost   int
}

func NewService(users UserRepository, logger zerolog.Logger) *Service {
	return &Service{users: users, logger: logger, cost: bcrypt.DefaultCost}
}

// EnsureDefault seeds the default administrator when the store is empty.
func (s *Service) EnsureDefault(ctx context.Context, password string) error {
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admin users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		return fmt.Errorf("default admin password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}
	if err := s.users.Create(ctx, &User{Username: DefaultUsername, Password: string(hash), Name: DefaultName}); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	s.logger.Info().Str("username", DefaultUsername).Msg("seeded default admin account")
	return nil
}

// Authenticate implements auth.AdminAuthenticator.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*auth.Principal, error) {
	if username == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if isHash(u.Password) {
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			return nil, auth.ErrInvalidCredentials
		}
	} else {
		if !plaintextMatches(u.Password, password) {
			return nil, auth.ErrInvalidCredentials
		}
		s.upgrade(ctx, u.Username, password)
	}
	return &auth.Principal{Subject: u.Username, Name: u.Name}, nil
}

// upgrade replaces a plaintext password with its hash. Failure is logged and
// does not block the login.
func (s *Service) upgrade(ctx context.Context, username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err == nil {
		err = s.users.UpdatePassword(ctx, username, string(hash))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to upgrade plaintext admin password")
		return
	}
	s.logger.Info().Str("username", username).Msg("upgraded plaintext admin password")
}

// plaintextMatches compares a legacy stored password in constant time.
func plaintextMatches(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
