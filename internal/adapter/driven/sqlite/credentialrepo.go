package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Values are sealed with AES-256-GCM using the row's service and key as
// additional data.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes, or
// nil when PWSAFE_SECRET_KEY is unset; reads and writes then fail with
// ErrEncryptionKeyNotSet while Delete still works.
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// ParseEncryptionKey decodes PWSAFE_SECRET_KEY, given as 64 hex digits or
// standard base64, into a 32-byte key. An empty value yields a nil key.
func ParseEncryptionKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) == 64 {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(key) != 32 {
		return nil, errors.New("secret key must be 32 bytes encoded as 64 hex digits or base64")
	}
	return key, nil
}

// Set stores or replaces one credential of a service.
func (r *CredentialRepo) Set(ctx context.Context, service, key, plaintext string) error {
	encrypted, err := r.encrypt(service, key, plaintext)
	if err != nil {
		return err
	}

	const query = `INSERT INTO credentials (service, cred_key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (service, cred_key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	_, err = r.db.Writer.ExecContext(ctx, query, service, key, encrypted)
	if err != nil {
		return fmt.Errorf("set credential %s/%s: %w", service, key, err)
	}
	return nil
}

// Get retrieves one plaintext credential.
// Returns ("", nil) if no credential exists.
func (r *CredentialRepo) Get(ctx context.Context, service, key string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM credentials WHERE service = ? AND cred_key = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, service, key).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential %s/%s: %w", service, key, err)
	}

	plaintext, err := r.decrypt(service, key, encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %s/%s: %w", service, key, err)
	}
	return plaintext, nil
}

// List returns the credentials of a service with decrypted values.
func (r *CredentialRepo) List(ctx context.Context, service string) ([]model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, service, cred_key, value, updated_at FROM credentials WHERE service = ? ORDER BY cred_key`
	rows, err := r.db.Reader.QueryContext(ctx, query, service)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		var cred model.Credential
		var encrypted string
		var updatedAt string
		if err := rows.Scan(&cred.ID, &cred.Service, &cred.Key, &encrypted, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		plaintext, err := r.decrypt(cred.Service, cred.Key, encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential %s/%s: %w", cred.Service, cred.Key, err)
		}
		cred.Value = model.Sensitive(plaintext)

		cred.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for credential %s/%s: %w", cred.Service, cred.Key, err)
		}

		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Delete removes one credential. Deleting a missing credential is not an error.
func (r *CredentialRepo) Delete(ctx context.Context, service, key string) error {
	const query = `DELETE FROM credentials WHERE service = ? AND cred_key = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, service, key)
	if err != nil {
		return fmt.Errorf("delete credential %s/%s: %w", service, key, err)
	}
	return nil
}

// additionalData binds a ciphertext to its row, so a value copied into
// another service or key slot fails to open.
func additionalData(service, key string) []byte {
	return []byte(service + "\x00" + key)
}

// encrypt seals plaintext with AES-256-GCM and returns base64 of
// nonce || ciphertext || tag.
func (r *CredentialRepo) encrypt(service, key, plaintext string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), additionalData(service, key))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decrypt reverses encrypt for the same service and key.
func (r *CredentialRepo) decrypt(service, key, encoded string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	if len(data) < gcm.NonceSize()+gcm.Overhead() {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, additionalData(service, key))
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plaintext), nil
}

// aead returns the cipher for the configured key, or ErrEncryptionKeyNotSet.
func (r *CredentialRepo) aead() (cipher.AEAD, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
