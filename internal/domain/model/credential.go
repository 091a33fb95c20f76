package model

import "time"

// Credential is a vault connection credential kept in the local store.
// Service identifies the vault profile ("default"), and Key the credential
// within it ("api_key", "oauth_client_secret").
type Credential struct {
	ID        int64
	Service   string
	Key       string
	Value     Sensitive
	UpdatedAt time.Time
}

// Credential keys understood by the composition root.
const (
	CredentialKeyAPIKey            = "api_key"
	CredentialKeyRunAsPassword     = "run_as_password"
	CredentialKeyOAuthClientSecret = "oauth_client_secret"
)
