// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// SessionSource hands out a usable session to the services that call the
// vault on a caller's behalf.
type SessionSource interface {
	EnsureSession(ctx context.Context) (*model.Session, error)
}

// Credentials selects and parameterizes the authentication strategy.
type Credentials struct {
	APIKey        string
	RunAsUsername string
	RunAsPassword string

	UseOAuth          bool
	OAuthClientID     string
	OAuthClientSecret string
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	Credentials Credentials
	// AutoRefresh replaces an expired session transparently. When false,
	// EnsureSession fails with ErrSessionExpired until Authenticate is
	// called.
	AutoRefresh bool
	// Timeout bounds a shared authentication flight, which does not follow
	// any single caller's cancellation.
	Timeout time.Duration
}

// SessionManager owns the client's single authenticated session. At most one
// authentication is in flight at a time; every caller that needs a new
// session while one is being established waits for that flight and gets
// its result or its failure.
type SessionManager struct {
	api    driven.VaultAPI
	cfg    SessionConfig
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	session *model.Session
	flight  singleflight.Group
}

// NewSessionManager creates a SessionManager. A nil logger uses slog.Default().
func NewSessionManager(api driven.VaultAPI, cfg SessionConfig, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		api:    api,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Current returns the held session, which may be nil or expired.
func (m *SessionManager) Current() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// EnsureSession returns a usable session, authenticating when none is held
// or, with AutoRefresh, when the held one has expired.
func (m *SessionManager) EnsureSession(ctx context.Context) (*model.Session, error) {
	sess, now := m.snapshot()
	if sess != nil && !sess.IsExpired(now) {
		return sess, nil
	}
	if sess != nil && !m.cfg.AutoRefresh {
		return nil, &model.AuthError{Op: "ensure session", Err: model.ErrSessionExpired}
	}
	return m.authenticate(ctx)
}

// Authenticate establishes a session now unless a usable one is held. It
// ignores AutoRefresh.
func (m *SessionManager) Authenticate(ctx context.Context) (*model.Session, error) {
	sess, now := m.snapshot()
	if sess != nil && !sess.IsExpired(now) {
		return sess, nil
	}
	return m.authenticate(ctx)
}

// SignOut ends the server-side session and forgets the local one. Without a
// session it succeeds without a network call.
func (m *SessionManager) SignOut(ctx context.Context) error {
	sess := m.Current()
	if sess == nil {
		return nil
	}

	m.logger.Info("signing out")
	if err := m.api.SignOut(ctx, sess); err != nil {
		return err
	}

	m.mu.Lock()
	if m.session == sess {
		m.session = nil
	}
	m.mu.Unlock()
	return nil
}

func (m *SessionManager) snapshot() (*model.Session, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.now()
}

// authenticate joins or starts the shared flight. A caller whose context
// ends first returns early; the flight itself continues for the others.
func (m *SessionManager) authenticate(ctx context.Context) (*model.Session, error) {
	flightCtx := context.WithoutCancel(ctx)

	ch := m.flight.DoChan("authenticate", func() (any, error) {
		// Another flight may have finished between the caller's check and
		// this one starting.
		if sess, now := m.snapshot(); sess != nil && !sess.IsExpired(now) {
			return sess, nil
		}

		fctx := flightCtx
		if m.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(flightCtx, m.cfg.Timeout)
			defer cancel()
		}

		sess, err := m.login(fctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.session = sess
		m.mu.Unlock()
		return sess, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *SessionManager) login(ctx context.Context) (*model.Session, error) {
	if m.cfg.Credentials.UseOAuth {
		return m.loginOAuth(ctx)
	}
	return m.loginAPIKey(ctx)
}

func (m *SessionManager) loginAPIKey(ctx context.Context) (*model.Session, error) {
	c := m.cfg.Credentials
	m.logger.Info("authenticating", "method", "api_key", "run_as", c.RunAsUsername)

	_, issuedAt := m.snapshot()
	sess := model.NewKeySession(c.APIKey, c.RunAsUsername, c.RunAsPassword, issuedAt)
	if err := m.api.ProbeAPIKey(ctx, sess.Authorization()); err != nil {
		m.logger.Warn("api key authentication failed", "error", err)
		return nil, &model.AuthError{Op: "api key", Err: err}
	}

	m.logger.Info("authenticated", "method", "api_key", "expires", sess.ExpiresAt)
	return sess, nil
}

func (m *SessionManager) loginOAuth(ctx context.Context) (*model.Session, error) {
	c := m.cfg.Credentials
	m.logger.Info("authenticating", "method", "oauth", "client_id", c.OAuthClientID)

	_, issuedAt := m.snapshot()
	grant, err := m.api.RequestClientToken(ctx, c.OAuthClientID, c.OAuthClientSecret)
	if err != nil {
		m.logger.Warn("oauth token request failed", "error", err)
		return nil, &model.AuthError{Op: "oauth token", Err: err}
	}

	sess := model.NewBearerSession(grant.AccessToken, grant.TokenType, grant.RefreshToken, issuedAt, grant.Expiry)
	if err := m.api.SignAppIn(ctx, sess); err != nil {
		m.logger.Warn("app sign-in failed", "error", err)
		return nil, &model.AuthError{Op: "sign app in", Err: err}
	}

	m.logger.Info("authenticated", "method", "oauth", "expires", sess.ExpiresAt)
	return sess, nil
}
