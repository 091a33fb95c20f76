package application

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// SecretService looks up entries of the vault's generic secret store.
// Lookups that find nothing return (nil, nil).
type SecretService struct {
	sessions SessionSource
	api      driven.VaultAPI
}

// NewSecretService creates a SecretService.
func NewSecretService(sessions SessionSource, api driven.VaultAPI) *SecretService {
	return &SecretService{sessions: sessions, api: api}
}

// GetSecretByID returns the secret with the given UUID.
func (s *SecretService) GetSecretByID(ctx context.Context, id string) (*model.Secret, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, model.InvalidArgumentf("secret id %q is not a UUID", id)
	}

	sess, err := s.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.GetSecret(ctx, sess, parsed)
}

// GetSecretByTitle returns the first secret whose title matches,
// ignoring case.
func (s *SecretService) GetSecretByTitle(ctx context.Context, title string) (*model.Secret, error) {
	if strings.TrimSpace(title) == "" {
		return nil, model.InvalidArgumentf("secret title is required")
	}

	sess, err := s.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.FindSecretByTitle(ctx, sess, title)
}
