package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// --- Mock implementations ---

// mockVaultAPI implements driven.VaultAPI with overridable funcs. Unset
// funcs succeed with zero values.
type mockVaultAPI struct {
	probeAPIKey        func(ctx context.Context, authorization string) error
	requestClientToken func(ctx context.Context, clientID, clientSecret string) (*driven.TokenGrant, error)
	signAppIn          func(ctx context.Context, sess *model.Session) error
	signOut            func(ctx context.Context, sess *model.Session) error
	listSystems        func(ctx context.Context, systemID int64) ([]model.ManagedSystem, error)
	listAccounts       func(ctx context.Context, q driven.AccountQuery) ([]model.ManagedAccount, error)
	getAccount         func(ctx context.Context, accountID int64) (*model.ManagedAccount, error)
	createRequest      func(ctx context.Context, req model.PasswordRequest) (*model.PasswordRequestResult, error)
	listActive         func(ctx context.Context, accountID int64) ([]model.PasswordRequestResult, error)
	fetchCredential    func(ctx context.Context, requestID string) (model.Sensitive, error)
	checkIn            func(ctx context.Context, requestID, reason string) error
	getSecret          func(ctx context.Context, id uuid.UUID) (*model.Secret, error)
	findSecret         func(ctx context.Context, title string) (*model.Secret, error)

	mu    sync.Mutex
	calls []string
}

var _ driven.VaultAPI = (*mockVaultAPI)(nil)

func (m *mockVaultAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockVaultAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockVaultAPI) ProbeAPIKey(ctx context.Context, authorization string) error {
	m.record("ProbeAPIKey")
	if m.probeAPIKey != nil {
		return m.probeAPIKey(ctx, authorization)
	}
	return nil
}

func (m *mockVaultAPI) RequestClientToken(ctx context.Context, clientID, clientSecret string) (*driven.TokenGrant, error) {
	m.record("RequestClientToken")
	if m.requestClientToken != nil {
		return m.requestClientToken(ctx, clientID, clientSecret)
	}
	return &driven.TokenGrant{AccessToken: "tok", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (m *mockVaultAPI) SignAppIn(ctx context.Context, sess *model.Session) error {
	m.record("SignAppIn")
	if m.signAppIn != nil {
		return m.signAppIn(ctx, sess)
	}
	return nil
}

func (m *mockVaultAPI) SignOut(ctx context.Context, sess *model.Session) error {
	m.record("SignOut")
	if m.signOut != nil {
		return m.signOut(ctx, sess)
	}
	return nil
}

func (m *mockVaultAPI) ListManagedSystems(ctx context.Context, _ *model.Session, systemID int64) ([]model.ManagedSystem, error) {
	m.record("ListManagedSystems")
	if m.listSystems != nil {
		return m.listSystems(ctx, systemID)
	}
	return nil, nil
}

func (m *mockVaultAPI) ListManagedAccounts(ctx context.Context, _ *model.Session, q driven.AccountQuery) ([]model.ManagedAccount, error) {
	m.record("ListManagedAccounts")
	if m.listAccounts != nil {
		return m.listAccounts(ctx, q)
	}
	return nil, nil
}

func (m *mockVaultAPI) GetManagedAccount(ctx context.Context, _ *model.Session, accountID int64) (*model.ManagedAccount, error) {
	m.record("GetManagedAccount")
	if m.getAccount != nil {
		return m.getAccount(ctx, accountID)
	}
	return &model.ManagedAccount{ManagedAccountID: accountID}, nil
}

func (m *mockVaultAPI) CreateRequest(ctx context.Context, _ *model.Session, req model.PasswordRequest) (*model.PasswordRequestResult, error) {
	m.record("CreateRequest")
	if m.createRequest != nil {
		return m.createRequest(ctx, req)
	}
	return &model.PasswordRequestResult{RequestID: "r-new"}, nil
}

func (m *mockVaultAPI) ListActiveRequests(ctx context.Context, _ *model.Session, accountID int64) ([]model.PasswordRequestResult, error) {
	m.record("ListActiveRequests")
	if m.listActive != nil {
		return m.listActive(ctx, accountID)
	}
	return nil, nil
}

func (m *mockVaultAPI) FetchCredential(ctx context.Context, _ *model.Session, requestID string) (model.Sensitive, error) {
	m.record("FetchCredential")
	if m.fetchCredential != nil {
		return m.fetchCredential(ctx, requestID)
	}
	return "pw", nil
}

func (m *mockVaultAPI) CheckIn(ctx context.Context, _ *model.Session, requestID, reason string) error {
	m.record("CheckIn")
	if m.checkIn != nil {
		return m.checkIn(ctx, requestID, reason)
	}
	return nil
}

func (m *mockVaultAPI) GetSecret(ctx context.Context, _ *model.Session, id uuid.UUID) (*model.Secret, error) {
	m.record("GetSecret")
	if m.getSecret != nil {
		return m.getSecret(ctx, id)
	}
	return nil, nil
}

func (m *mockVaultAPI) FindSecretByTitle(ctx context.Context, _ *model.Session, title string) (*model.Secret, error) {
	m.record("FindSecretByTitle")
	if m.findSecret != nil {
		return m.findSecret(ctx, title)
	}
	return nil, nil
}

// staticSessions always hands out the same session, or err.
type staticSessions struct {
	sess *model.Session
	err  error
}

func (s staticSessions) EnsureSession(context.Context) (*model.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sess, nil
}

func newStaticSessions() staticSessions {
	return staticSessions{sess: model.NewKeySession("k", "u", "", time.Now())}
}

// mockCheckoutStore is an in-memory driven.CheckoutStore.
type mockCheckoutStore struct {
	records   map[string]model.CheckoutRecord
	recordErr error
}

var _ driven.CheckoutStore = (*mockCheckoutStore)(nil)

func newMockCheckoutStore() *mockCheckoutStore {
	return &mockCheckoutStore{records: make(map[string]model.CheckoutRecord)}
}

func (m *mockCheckoutStore) Record(_ context.Context, rec model.CheckoutRecord) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records[rec.RequestID] = rec
	return nil
}

func (m *mockCheckoutStore) MarkCheckedIn(_ context.Context, requestID string, at time.Time) error {
	rec, ok := m.records[requestID]
	if !ok {
		return nil
	}
	rec.CheckedInAt = &at
	m.records[requestID] = rec
	return nil
}

func (m *mockCheckoutStore) GetByRequestID(_ context.Context, requestID string) (*model.CheckoutRecord, error) {
	rec, ok := m.records[requestID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *mockCheckoutStore) ListOpen(_ context.Context) ([]model.CheckoutRecord, error) {
	var open []model.CheckoutRecord
	for _, r := range m.records {
		if r.IsOpen() {
			open = append(open, r)
		}
	}
	return open, nil
}
