// Package pwsafe is a client for a privileged-access vault's REST API. It
// authenticates, resolves managed systems and accounts, checks credentials
// out and back in, and looks up Secrets-Safe entries.
//
// A Client is safe for concurrent use. Close it when done:
//
//	client, err := pwsafe.New(opts)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	pw, err := client.GetManagedAccountPasswordByName(ctx, pwsafe.AccountLookup{
//		AccountName: "root",
//		SystemName:  "db01",
//	})
package pwsafe

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ericfisherdev/pwsafe/internal/adapter/driven/vault"
	"github.com/ericfisherdev/pwsafe/internal/application"
	"github.com/ericfisherdev/pwsafe/internal/config"
	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// Options configures a Client. Start from DefaultOptions; a zero Options
// disables automatic session refresh.
type Options = config.Vault

// DefaultOptions returns Options with a 30s timeout, 60 minute checkouts
// and automatic session refresh.
func DefaultOptions() Options {
	return config.DefaultVault()
}

// Domain types.
type (
	Session               = model.Session
	ManagedSystem         = model.ManagedSystem
	ManagedAccount        = model.ManagedAccount
	AccountLookup         = model.AccountLookup
	PasswordRequest       = model.PasswordRequest
	PasswordRequestResult = model.PasswordRequestResult
	ManagedPassword       = model.ManagedPassword
	Secret                = model.Secret
	Sensitive             = model.Sensitive
)

// Error kinds. Every failure is one of these or wraps one of the sentinels,
// so errors.Is and errors.As see the full cause chain.
type (
	APIError  = model.APIError
	AuthError = model.AuthError
)

var (
	ErrInvalidArgument = model.ErrInvalidArgument
	ErrSessionExpired  = model.ErrSessionExpired
	ErrUnparseable     = model.ErrUnparseable
	ErrClientClosed    = model.ErrClientClosed
)

// IsConflict reports whether err is the vault's "already checked out" answer.
func IsConflict(err error) bool { return model.IsConflict(err) }

// IsNotFound reports whether err is an HTTP 404 from the vault.
func IsNotFound(err error) bool { return model.IsNotFound(err) }

// NewPasswordRequest builds a request with the default reason, conflict
// option and access type. systemID must be positive.
var NewPasswordRequest = model.NewPasswordRequest

// Option customizes a Client beyond Options.
type Option func(*clientSettings)

type clientSettings struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *clientSettings) { s.logger = logger }
}

// WithHTTPClient replaces the pooled HTTP client. Its Timeout is set from
// Options when zero and a cookie jar is attached when missing.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *clientSettings) { s.httpClient = hc }
}

// Client is the vault client. The zero value is not usable; call New.
type Client struct {
	api       *vault.Client
	sessions  *application.SessionManager
	directory *application.Directory
	checkout  *application.Coordinator
	secrets   *application.SecretService

	mu     sync.RWMutex
	closed bool
}

// New validates opts and builds a Client. No network call is made until the
// first operation.
func New(opts Options, options ...Option) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var s clientSettings
	for _, o := range options {
		o(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	api, err := vault.NewClient(vault.Options{
		BaseURL:        opts.BaseURL,
		Timeout:        opts.Timeout,
		DirectoryCache: opts.DirectoryCache,
		HTTPClient:     s.httpClient,
		Logger:         s.logger,
	})
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = vault.DefaultTimeout
	}

	sessions := application.NewSessionManager(api, application.SessionConfig{
		Credentials: application.Credentials{
			APIKey:            opts.APIKey,
			RunAsUsername:     opts.RunAsUsername,
			RunAsPassword:     opts.RunAsPassword,
			UseOAuth:          opts.UseOAuth,
			OAuthClientID:     opts.OAuthClientID,
			OAuthClientSecret: opts.OAuthClientSecret,
		},
		AutoRefresh: opts.AutoRefresh,
		Timeout:     timeout,
	}, s.logger)
	directory := application.NewDirectory(sessions, api, s.logger)

	return &Client{
		api:       api,
		sessions:  sessions,
		directory: directory,
		checkout:  application.NewCoordinator(sessions, directory, api, opts.DefaultDuration, s.logger),
		secrets:   application.NewSecretService(sessions, api),
	}, nil
}

// Close releases pooled connections. It is safe to call more than once;
// later operations fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.api.Close()
	return nil
}

func (c *Client) open() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// Authenticate establishes a session now unless a usable one is held. Use
// it to fail fast at startup, or to renew when automatic refresh is off.
func (c *Client) Authenticate(ctx context.Context) (*Session, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.sessions.Authenticate(ctx)
}

// SignOut ends the session on the vault and locally. Without a session it
// does nothing.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.open(); err != nil {
		return err
	}
	return c.sessions.SignOut(ctx)
}

// GetManagedSystems returns every managed system, or only systemID when it
// is non-zero.
func (c *Client) GetManagedSystems(ctx context.Context, systemID int64) ([]ManagedSystem, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.directory.ListSystems(ctx, systemID)
}

// GetManagedAccounts returns managed accounts, optionally narrowed to a
// system and an account name. An account name requires a system id.
func (c *Client) GetManagedAccounts(ctx context.Context, systemID int64, accountName string) ([]ManagedAccount, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.directory.ListAccounts(ctx, systemID, accountName)
}

// GetManagedAccountByID returns one account by id.
func (c *Client) GetManagedAccountByID(ctx context.Context, accountID int64) (*ManagedAccount, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.directory.ResolveAccountByID(ctx, accountID)
}

// GetManagedAccountByName resolves a local or domain-linked account.
func (c *Client) GetManagedAccountByName(ctx context.Context, lookup AccountLookup) (*ManagedAccount, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.directory.ResolveAccountByName(ctx, lookup)
}

// GetManagedAccountPasswordByID checks out the password of an account.
func (c *Client) GetManagedAccountPasswordByID(ctx context.Context, accountID int64) (*ManagedPassword, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.checkout.PasswordByAccountID(ctx, accountID)
}

// GetManagedAccountPasswordByName resolves an account and checks out its
// password.
func (c *Client) GetManagedAccountPasswordByName(ctx context.Context, lookup AccountLookup) (*ManagedPassword, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.checkout.PasswordByAccountName(ctx, lookup)
}

// GetManagedAccountPasswordByRequestID fetches the password of an existing
// request. Account, system and expiry are left unset.
func (c *Client) GetManagedAccountPasswordByRequestID(ctx context.Context, requestID string) (*ManagedPassword, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.checkout.PasswordByRequestID(ctx, requestID)
}

// CreatePasswordRequest places a checkout without fetching the password.
func (c *Client) CreatePasswordRequest(ctx context.Context, req PasswordRequest) (*PasswordRequestResult, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.checkout.CreateRequest(ctx, req)
}

// CheckInPassword releases a checkout. reason may be empty.
func (c *Client) CheckInPassword(ctx context.Context, requestID, reason string) error {
	if err := c.open(); err != nil {
		return err
	}
	return c.checkout.CheckIn(ctx, requestID, reason)
}

// GetSecretByID returns the Secrets-Safe entry with the given UUID, or nil
// when there is none.
func (c *Client) GetSecretByID(ctx context.Context, id string) (*Secret, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.secrets.GetSecretByID(ctx, id)
}

// GetSecretByTitle returns the first Secrets-Safe entry with the given
// title, or nil when there is none.
func (c *Client) GetSecretByTitle(ctx context.Context, title string) (*Secret, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.secrets.GetSecretByTitle(ctx, title)
}
