// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// TokenGrant is the result of an OAuth client-credentials exchange.
type TokenGrant struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
}

// AccountQuery selects managed accounts on GET /ManagedAccounts. A
// domain-linked query sends DomainName\AccountName as one parameter.
type AccountQuery struct {
	SystemID     int64
	SystemName   string
	AccountName  string
	DomainName   string
	DomainLinked bool
}

// VaultAPI defines the driven port for the vault's REST surface. Every
// failure is a *model.APIError. Methods taking a session send its
// Authorization header.
type VaultAPI interface {
	// Authentication

	// ProbeAPIKey validates a PS-Auth header with GET /Auth.
	ProbeAPIKey(ctx context.Context, authorization string) error
	// RequestClientToken performs the client-credentials grant against
	// POST /Auth/Connect/Token.
	RequestClientToken(ctx context.Context, clientID, clientSecret string) (*TokenGrant, error)
	// SignAppIn binds a bearer token to an application session.
	SignAppIn(ctx context.Context, sess *model.Session) error
	// SignOut ends the server-side session.
	SignOut(ctx context.Context, sess *model.Session) error

	// Directory

	// ListManagedSystems returns all systems, or the one system when
	// systemID is non-zero. Records are id-reconciled.
	ListManagedSystems(ctx context.Context, sess *model.Session, systemID int64) ([]model.ManagedSystem, error)
	// ListManagedAccounts returns the accounts matching q, always as a slice.
	ListManagedAccounts(ctx context.Context, sess *model.Session, q AccountQuery) ([]model.ManagedAccount, error)
	// GetManagedAccount returns one account by id.
	GetManagedAccount(ctx context.Context, sess *model.Session, accountID int64) (*model.ManagedAccount, error)

	// Checkout

	// CreateRequest places a checkout on an account.
	CreateRequest(ctx context.Context, sess *model.Session, req model.PasswordRequest) (*model.PasswordRequestResult, error)
	// ListActiveRequests returns the active checkouts on an account.
	ListActiveRequests(ctx context.Context, sess *model.Session, accountID int64) ([]model.PasswordRequestResult, error)
	// FetchCredential returns the credential bound to a request.
	FetchCredential(ctx context.Context, sess *model.Session, requestID string) (model.Sensitive, error)
	// CheckIn releases a checkout.
	CheckIn(ctx context.Context, sess *model.Session, requestID, reason string) error

	// Secrets

	// GetSecret returns (nil, nil) when no secret has the id.
	GetSecret(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.Secret, error)
	// FindSecretByTitle returns (nil, nil) when no secret has the title.
	FindSecretByTitle(ctx context.Context, sess *model.Session, title string) (*model.Secret, error)
}
