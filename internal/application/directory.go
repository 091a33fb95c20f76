package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Directory resolves managed systems and accounts. Arguments are validated
// before any session is requested.
type Directory struct {
	sessions SessionSource
	api      driven.VaultAPI
	logger   *slog.Logger
}

// NewDirectory creates a Directory. A nil logger uses slog.Default().
func NewDirectory(sessions SessionSource, api driven.VaultAPI, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{sessions: sessions, api: api, logger: logger}
}

// ResolveAccountByName finds a local account by system and account name, or
// a domain-linked account by domain and account name. The first match wins.
func (d *Directory) ResolveAccountByName(ctx context.Context, lookup model.AccountLookup) (*model.ManagedAccount, error) {
	if err := lookup.Validate(); err != nil {
		return nil, err
	}

	sess, err := d.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	d.logger.Info("resolving managed account",
		"account", lookup.QualifiedName(),
		"system", lookup.SystemName,
		"domain_linked", lookup.DomainLinked,
	)

	accounts, err := d.api.ListManagedAccounts(ctx, sess, driven.AccountQuery{
		SystemName:   lookup.SystemName,
		AccountName:  lookup.AccountName,
		DomainName:   lookup.DomainName,
		DomainLinked: lookup.DomainLinked,
	})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &model.APIError{
			Op:         "resolve managed account",
			StatusCode: http.StatusNotFound,
			Err:        fmt.Errorf("managed account %q not found", lookup.QualifiedName()),
		}
	}
	return &accounts[0], nil
}

// ResolveAccountByID fetches one account by its id.
func (d *Directory) ResolveAccountByID(ctx context.Context, accountID int64) (*model.ManagedAccount, error) {
	if accountID <= 0 {
		return nil, model.InvalidArgumentf("managed account id must be positive, got %d", accountID)
	}

	sess, err := d.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	return d.api.GetManagedAccount(ctx, sess, accountID)
}

// ListSystems returns every managed system, or only systemID when non-zero.
func (d *Directory) ListSystems(ctx context.Context, systemID int64) ([]model.ManagedSystem, error) {
	if systemID < 0 {
		return nil, model.InvalidArgumentf("managed system id must be positive, got %d", systemID)
	}

	sess, err := d.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	return d.api.ListManagedSystems(ctx, sess, systemID)
}

// ListAccounts returns managed accounts, optionally narrowed to one system
// and one account name. An account name filter requires a system id.
func (d *Directory) ListAccounts(ctx context.Context, systemID int64, accountName string) ([]model.ManagedAccount, error) {
	if systemID < 0 {
		return nil, model.InvalidArgumentf("managed system id must be positive, got %d", systemID)
	}
	if accountName != "" && systemID == 0 {
		return nil, model.InvalidArgumentf("system id is required when filtering by account name")
	}

	sess, err := d.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	return d.api.ListManagedAccounts(ctx, sess, driven.AccountQuery{
		SystemID:    systemID,
		AccountName: accountName,
	})
}
