package sqlite

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	err := repo.Set(ctx, "default", model.CredentialKeyAPIKey, "key-abc123")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "default", model.CredentialKeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "key-abc123", val)
}

func TestCredentialRepo_ValueIsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "default", model.CredentialKeyAPIKey, "plain-value"))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ? AND cred_key = ?`,
		"default", model.CredentialKeyAPIKey).Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "plain-value")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	val, err := repo.Get(ctx, "default", "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	err := repo.Set(ctx, "default", model.CredentialKeyAPIKey, "old-value")
	require.NoError(t, err)

	err = repo.Set(ctx, "default", model.CredentialKeyAPIKey, "new-value")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "default", model.CredentialKeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "default", model.CredentialKeyRunAsPassword, "pw"))
	require.NoError(t, repo.Set(ctx, "default", model.CredentialKeyAPIKey, "key"))
	require.NoError(t, repo.Set(ctx, "staging", model.CredentialKeyAPIKey, "other"))

	creds, err := repo.List(ctx, "default")
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, model.CredentialKeyAPIKey, creds[0].Key)
	assert.Equal(t, "key", creds[0].Value.Reveal())
	assert.Equal(t, model.CredentialKeyRunAsPassword, creds[1].Key)
	assert.False(t, creds[1].UpdatedAt.IsZero())

	empty, err := repo.List(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	err := repo.Set(ctx, "default", model.CredentialKeyAPIKey, "key")
	require.NoError(t, err)

	err = repo.Delete(ctx, "default", model.CredentialKeyAPIKey)
	require.NoError(t, err)

	val, err := repo.Get(ctx, "default", model.CredentialKeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "", val)

	assert.NoError(t, repo.Delete(ctx, "default", "nonexistent"), "deleting nonexistent credential should not error")
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, "default", "k", "v"), driven.ErrEncryptionKeyNotSet)

	_, err := repo.Get(ctx, "default", "k")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx, "default")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey).Set(ctx, "default", "k", "v"))

	other := []byte("fedcba9876543210fedcba9876543210")
	_, err := NewCredentialRepo(db, other).Get(ctx, "default", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt credential")
}

func TestParseEncryptionKey(t *testing.T) {
	key, err := ParseEncryptionKey("")
	require.NoError(t, err)
	assert.Nil(t, key)

	key, err = ParseEncryptionKey(hex.EncodeToString(testKey))
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	key, err = ParseEncryptionKey(base64.StdEncoding.EncodeToString(testKey))
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	_, err = ParseEncryptionKey("too-short")
	assert.Error(t, err)
}

func TestCredentialRepo_ValueBoundToSlot(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "default", model.CredentialKeyAPIKey, "key"))
	require.NoError(t, repo.Set(ctx, "default", model.CredentialKeyOAuthClientSecret, "secret"))

	// Copy the api key ciphertext into the client secret row.
	_, err := db.Writer.ExecContext(ctx, `UPDATE credentials SET value = (
		SELECT value FROM credentials WHERE service = 'default' AND cred_key = ?
	) WHERE service = 'default' AND cred_key = ?`, model.CredentialKeyAPIKey, model.CredentialKeyOAuthClientSecret)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "default", model.CredentialKeyOAuthClientSecret)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt credential")
}
