package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Coordinator runs the checkout protocol: resolve the account, place a
// request, fetch the credential. A conflicting request placed earlier is
// reused instead of failing the checkout.
type Coordinator struct {
	sessions  SessionSource
	directory *Directory
	api       driven.VaultAPI
	duration  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewCoordinator creates a Coordinator. duration is the checkout span sent
// with every request; zero uses model.DefaultRequestDuration.
func NewCoordinator(sessions SessionSource, directory *Directory, api driven.VaultAPI, duration time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if duration <= 0 {
		duration = model.DefaultRequestDuration
	}
	return &Coordinator{
		sessions:  sessions,
		directory: directory,
		api:       api,
		duration:  duration,
		logger:    logger,
		now:       time.Now,
	}
}

// PasswordByAccountID checks out the password of the account with the
// given id.
func (c *Coordinator) PasswordByAccountID(ctx context.Context, accountID int64) (*model.ManagedPassword, error) {
	if accountID <= 0 {
		return nil, model.InvalidArgumentf("managed account id must be positive, got %d", accountID)
	}

	account, err := c.directory.ResolveAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return c.checkout(ctx, account)
}

// PasswordByAccountName checks out the password of the account lookup
// resolves to.
func (c *Coordinator) PasswordByAccountName(ctx context.Context, lookup model.AccountLookup) (*model.ManagedPassword, error) {
	account, err := c.directory.ResolveAccountByName(ctx, lookup)
	if err != nil {
		return nil, err
	}
	return c.checkout(ctx, account)
}

// PasswordByRequestID fetches the credential of an existing request. The
// account, system and expiry of the result are left unset.
func (c *Coordinator) PasswordByRequestID(ctx context.Context, requestID string) (*model.ManagedPassword, error) {
	if requestID == "" {
		return nil, model.InvalidArgumentf("request id is required")
	}

	sess, err := c.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	password, err := c.api.FetchCredential(ctx, sess, requestID)
	if err != nil {
		return nil, err
	}
	return &model.ManagedPassword{Password: password, RequestID: requestID}, nil
}

// CreateRequest places a checkout without fetching the credential.
func (c *Coordinator) CreateRequest(ctx context.Context, req model.PasswordRequest) (*model.PasswordRequestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, err := c.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.api.CreateRequest(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("password request created", "request_id", result.RequestID, "account_id", req.AccountID)
	return result, nil
}

// CheckIn releases a checkout. reason may be empty.
func (c *Coordinator) CheckIn(ctx context.Context, requestID, reason string) error {
	if requestID == "" {
		return model.InvalidArgumentf("request id is required")
	}

	sess, err := c.sessions.EnsureSession(ctx)
	if err != nil {
		return err
	}

	if err := c.api.CheckIn(ctx, sess, requestID, reason); err != nil {
		return err
	}
	c.logger.Info("password checked in", "request_id", requestID)
	return nil
}

func (c *Coordinator) checkout(ctx context.Context, account *model.ManagedAccount) (*model.ManagedPassword, error) {
	req, err := model.NewPasswordRequest(account.ManagedSystemID, account.ManagedAccountID, c.duration, model.DefaultRequestReason)
	if err != nil {
		return nil, err
	}

	sess, err := c.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.api.CreateRequest(ctx, sess, req)
	if err != nil {
		if model.IsConflict(err) {
			return c.recoverConflict(ctx, sess, account, err)
		}
		return nil, err
	}
	c.logger.Info("password request created", "request_id", result.RequestID, "account_id", account.ManagedAccountID)

	expires := result.ExpirationDate
	if expires.IsZero() {
		// Bare-id answers carry no expiry; the vault grants what was asked.
		expires = c.now().Add(req.Duration())
	}

	password, err := c.api.FetchCredential(ctx, sess, result.RequestID)
	if err != nil {
		return nil, err
	}

	return &model.ManagedPassword{
		Password:       password,
		RequestID:      result.RequestID,
		AccountID:      account.ManagedAccountID,
		SystemID:       account.ManagedSystemID,
		ExpirationDate: expires,
	}, nil
}

// recoverConflict reuses the account's active request after the vault
// refused a new one. Without an active request the conflict is returned
// unchanged.
func (c *Coordinator) recoverConflict(ctx context.Context, sess *model.Session, account *model.ManagedAccount, conflict error) (*model.ManagedPassword, error) {
	c.logger.Info("conflict detected, looking up active request", "account_id", account.ManagedAccountID)

	active, err := c.api.ListActiveRequests(ctx, sess, account.ManagedAccountID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		c.logger.Warn("no active request found for conflicting checkout", "account_id", account.ManagedAccountID)
		return nil, conflict
	}

	existing := active[0]
	c.logger.Info("reusing active request", "request_id", existing.RequestID, "account_id", account.ManagedAccountID)

	password, err := c.api.FetchCredential(ctx, sess, existing.RequestID)
	if err != nil {
		return nil, err
	}

	return &model.ManagedPassword{
		Password:       password,
		RequestID:      existing.RequestID,
		AccountID:      account.ManagedAccountID,
		SystemID:       account.ManagedSystemID,
		ExpirationDate: existing.ExpirationDate,
	}, nil
}
