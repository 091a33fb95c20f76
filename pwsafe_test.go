package pwsafe_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwsafe"
)

// fakeVault serves the subset of the vault API the client uses, with one
// system (6, db01) holding one account (5, root).
type fakeVault struct {
	authCalls   atomic.Int32
	checkedOut  atomic.Bool
	checkedIn   atomic.Bool
	signedOut   atomic.Bool
	mu          sync.Mutex
	lastRequest map[string]any
}

func (f *fakeVault) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	authorized := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "PS-Auth key=k; runas=svc" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /api/Auth", authorized(func(w http.ResponseWriter, _ *http.Request) {
		f.authCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("POST /api/Auth/SignOut", authorized(func(w http.ResponseWriter, _ *http.Request) {
		f.signedOut.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("GET /api/ManagedSystems", authorized(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{{"ManagedSystemId": 6, "SystemName": "db01"}})
	}))
	mux.HandleFunc("GET /api/ManagedAccounts", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("systemName") != "db01" || r.URL.Query().Get("accountName") != "root" {
			writeJSON(w, []any{})
			return
		}
		writeJSON(w, map[string]any{"AccountId": 5, "SystemId": 6, "AccountName": "root", "SystemName": "db01"})
	}))
	mux.HandleFunc("GET /api/ManagedAccounts/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "5" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"ManagedAccountId": 5, "ManagedSystemId": 6, "AccountName": "root"})
	}))
	mux.HandleFunc("POST /api/Requests", authorized(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastRequest = body
		f.mu.Unlock()

		if !f.checkedOut.CompareAndSwap(false, true) {
			http.Error(w, "already checked out", http.StatusConflict)
			return
		}
		_, _ = io.WriteString(w, "77")
	}))
	mux.HandleFunc("GET /api/Requests", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "active" || !f.checkedOut.Load() {
			writeJSON(w, []any{})
			return
		}
		writeJSON(w, []map[string]any{{
			"RequestId":      77,
			"AccountId":      5,
			"ExpirationDate": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}})
	}))
	mux.HandleFunc("GET /api/Credentials/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "77" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `"s3cr3t"`)
	}))
	mux.HandleFunc("PUT /api/Requests/{id}/CheckIn", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "77" {
			http.Error(w, "no such request", http.StatusNotFound)
			return
		}
		f.checkedIn.Store(true)
		f.checkedOut.Store(false)
		w.WriteHeader(http.StatusNoContent)
	}))
	return mux
}

func newTestClient(t *testing.T) (*pwsafe.Client, *fakeVault) {
	t.Helper()

	fv := &fakeVault{}
	server := httptest.NewServer(fv.handler(t))
	t.Cleanup(server.Close)

	opts := pwsafe.DefaultOptions()
	opts.BaseURL = server.URL + "/api"
	opts.APIKey = "k"
	opts.RunAsUsername = "svc"

	client, err := pwsafe.New(opts, pwsafe.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, fv
}

func TestNew_ValidatesOptions(t *testing.T) {
	_, err := pwsafe.New(pwsafe.DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, pwsafe.ErrInvalidArgument)
}

func TestCheckoutLifecycle(t *testing.T) {
	client, fv := newTestClient(t)
	ctx := context.Background()

	pw, err := client.GetManagedAccountPasswordByName(ctx, pwsafe.AccountLookup{AccountName: "root", SystemName: "db01"})
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", pw.Password.Reveal())
	assert.Equal(t, "77", pw.RequestID)
	assert.Equal(t, int64(5), pw.AccountID)
	assert.Equal(t, int64(6), pw.SystemID)
	assert.False(t, pw.IsExpired(time.Now()))

	fv.mu.Lock()
	assert.EqualValues(t, 6, fv.lastRequest["SystemId"])
	assert.Equal(t, "API Password Request", fv.lastRequest["Reason"])
	fv.mu.Unlock()

	// The account is now checked out; a second checkout reuses the request.
	again, err := client.GetManagedAccountPasswordByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "77", again.RequestID)
	assert.Equal(t, "s3cr3t", again.Password.Reveal())

	byRequest, err := client.GetManagedAccountPasswordByRequestID(ctx, "77")
	require.NoError(t, err)
	assert.Zero(t, byRequest.AccountID)

	require.NoError(t, client.CheckInPassword(ctx, "77", "done"))
	assert.True(t, fv.checkedIn.Load())

	err = client.CheckInPassword(ctx, "78", "")
	require.Error(t, err)
	assert.True(t, pwsafe.IsNotFound(err))

	assert.Equal(t, int32(1), fv.authCalls.Load(), "one session serves every call")
}

func TestDirectory(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	systems, err := client.GetManagedSystems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "db01", systems[0].SystemName)

	acct, err := client.GetManagedAccountByName(ctx, pwsafe.AccountLookup{AccountName: "root", SystemName: "db01"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), acct.ManagedAccountID)
	assert.Equal(t, int64(6), acct.ManagedSystemID)

	_, err = client.GetManagedAccountByName(ctx, pwsafe.AccountLookup{AccountName: "nobody", SystemName: "db01"})
	require.Error(t, err)
	assert.True(t, pwsafe.IsNotFound(err))

	_, err = client.GetManagedAccounts(ctx, 0, "root")
	assert.ErrorIs(t, err, pwsafe.ErrInvalidArgument)
}

func TestAuthenticationFailure(t *testing.T) {
	fv := &fakeVault{}
	server := httptest.NewServer(fv.handler(t))
	t.Cleanup(server.Close)

	opts := pwsafe.DefaultOptions()
	opts.BaseURL = server.URL + "/api"
	opts.APIKey = "wrong"
	opts.RunAsUsername = "svc"

	client, err := pwsafe.New(opts)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetManagedSystems(context.Background(), 0)
	require.Error(t, err)

	var authErr *pwsafe.AuthError
	require.ErrorAs(t, err, &authErr)
	var apiErr *pwsafe.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.NotContains(t, err.Error(), "wrong", "the api key must not leak into errors")
}

func TestSignOutAndClose(t *testing.T) {
	client, fv := newTestClient(t)
	ctx := context.Background()

	// Without a session, sign-out is a local no-op.
	require.NoError(t, client.SignOut(ctx))
	assert.False(t, fv.signedOut.Load())

	_, err := client.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, client.SignOut(ctx))
	assert.True(t, fv.signedOut.Load())

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.GetManagedSystems(ctx, 0)
	assert.ErrorIs(t, err, pwsafe.ErrClientClosed)
}
