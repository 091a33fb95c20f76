package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// PWSAFE_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set PWSAFE_SECRET_KEY")

// CredentialStore defines the driven port for encrypted storage of vault
// connection credentials. The adapter encrypts; this interface carries
// plaintext at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces a credential.
	Set(ctx context.Context, service, key, plaintext string) error

	// Get returns ("", nil) if no credential exists.
	Get(ctx context.Context, service, key string) (string, error)

	// List returns all credentials of a service with decrypted values.
	List(ctx context.Context, service string) ([]model.Credential, error)

	// Delete removes one credential.
	Delete(ctx context.Context, service, key string) error
}
