package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwsafe/internal/application"
	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

func TestResolveAccountByName_Validation(t *testing.T) {
	tests := []struct {
		name   string
		lookup model.AccountLookup
	}{
		{name: "missing account", lookup: model.AccountLookup{SystemName: "db01"}},
		{name: "local without system", lookup: model.AccountLookup{AccountName: "root"}},
		{name: "domain linked without domain", lookup: model.AccountLookup{AccountName: "svc", DomainLinked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockVaultAPI{}
			dir := application.NewDirectory(newStaticSessions(), api, nil)

			_, err := dir.ResolveAccountByName(context.Background(), tt.lookup)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
			assert.Empty(t, api.Calls())
		})
	}
}

func TestResolveAccountByName_DomainLinked(t *testing.T) {
	api := &mockVaultAPI{
		listAccounts: func(_ context.Context, q driven.AccountQuery) ([]model.ManagedAccount, error) {
			assert.True(t, q.DomainLinked)
			assert.Equal(t, "CORP", q.DomainName)
			assert.Equal(t, "svc", q.AccountName)
			return []model.ManagedAccount{
				{ManagedAccountID: 1, AccountName: "svc"},
				{ManagedAccountID: 2, AccountName: "svc"},
			}, nil
		},
	}
	dir := application.NewDirectory(newStaticSessions(), api, nil)

	acct, err := dir.ResolveAccountByName(context.Background(), model.AccountLookup{
		AccountName:  "svc",
		DomainName:   "CORP",
		DomainLinked: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), acct.ManagedAccountID)
}

func TestResolveAccountByName_NotFound(t *testing.T) {
	api := &mockVaultAPI{
		listAccounts: func(context.Context, driven.AccountQuery) ([]model.ManagedAccount, error) {
			return []model.ManagedAccount{}, nil
		},
	}
	dir := application.NewDirectory(newStaticSessions(), api, nil)

	_, err := dir.ResolveAccountByName(context.Background(), model.AccountLookup{AccountName: "x", SystemName: "y"})
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
}

func TestListAccounts_Validation(t *testing.T) {
	api := &mockVaultAPI{}
	dir := application.NewDirectory(newStaticSessions(), api, nil)
	ctx := context.Background()

	_, err := dir.ListAccounts(ctx, 0, "root")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = dir.ListAccounts(ctx, -1, "")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = dir.ListSystems(ctx, -3)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = dir.ResolveAccountByID(ctx, 0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	assert.Empty(t, api.Calls())
}

func TestListAccounts_PassesFilters(t *testing.T) {
	api := &mockVaultAPI{
		listAccounts: func(_ context.Context, q driven.AccountQuery) ([]model.ManagedAccount, error) {
			assert.Equal(t, driven.AccountQuery{SystemID: 4, AccountName: "root"}, q)
			return []model.ManagedAccount{{ManagedAccountID: 9}}, nil
		},
	}
	dir := application.NewDirectory(newStaticSessions(), api, nil)

	accounts, err := dir.ListAccounts(context.Background(), 4, "root")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestListSystems(t *testing.T) {
	api := &mockVaultAPI{
		listSystems: func(_ context.Context, systemID int64) ([]model.ManagedSystem, error) {
			assert.Zero(t, systemID)
			return []model.ManagedSystem{{ManagedSystemID: 1}, {ManagedSystemID: 2}}, nil
		},
	}
	dir := application.NewDirectory(newStaticSessions(), api, nil)

	systems, err := dir.ListSystems(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, systems, 2)
}

func TestSecretService(t *testing.T) {
	id := uuid.New()
	api := &mockVaultAPI{
		getSecret: func(_ context.Context, got uuid.UUID) (*model.Secret, error) {
			if got != id {
				return nil, nil
			}
			return &model.Secret{ID: id, Title: "t"}, nil
		},
		findSecret: func(_ context.Context, title string) (*model.Secret, error) {
			assert.Equal(t, "API Token", title)
			return nil, nil
		},
	}
	svc := application.NewSecretService(newStaticSessions(), api)
	ctx := context.Background()

	secret, err := svc.GetSecretByID(ctx, id.String())
	require.NoError(t, err)
	require.NotNil(t, secret)
	assert.Equal(t, id, secret.ID)

	missing, err := svc.GetSecretByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := svc.GetSecretByTitle(ctx, "API Token")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.GetSecretByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = svc.GetSecretByTitle(ctx, "  ")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
