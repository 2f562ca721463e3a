package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workgroup/workgroup-client/internal/client/client"
	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/client/sessionstore"
	"github.com/workgroup/workgroup-client/internal/common"
	"github.com/workgroup/workgroup-client/internal/logging"
)

// ---- fakes ----

// fakeClient implements client.Client for session manager tests.
type fakeClient struct {
	mu sync.Mutex

	AuthenticateRet *models.Session
	AuthenticateErr error
	FetchRet        *models.Session
	FetchErr        error
	FetchGate       chan struct{}
	DeleteErr       error

	LastAuthEmail    string
	LastAuthPassword string
	LastDeleteID     string

	authCalls   int32
	fetchCalls  int32
	deleteCalls int32
}

func (f *fakeClient) Authenticate(ctx context.Context, email, password string) (*models.Session, error) {
	atomic.AddInt32(&f.authCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastAuthEmail, f.LastAuthPassword = email, password
	if f.AuthenticateErr != nil {
		return nil, f.AuthenticateErr
	}
	return f.AuthenticateRet.Clone(), nil
}

func (f *fakeClient) FetchByID(ctx context.Context, id string) (*models.Session, error) {
	atomic.AddInt32(&f.fetchCalls, 1)
	if f.FetchGate != nil {
		<-f.FetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	return f.FetchRet.Clone(), nil
}

func (f *fakeClient) DeleteByID(ctx context.Context, id string) error {
	atomic.AddInt32(&f.deleteCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastDeleteID = id
	return f.DeleteErr
}

func (f *fakeClient) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (f *fakeClient) CreateAccount(ctx context.Context, name, email, password string) (*models.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) ListUsers(ctx context.Context) ([]*models.Session, error) {
	return nil, nil
}

func (f *fakeClient) Close() error { return nil }

// flakyStore wraps a MemoryStore and fails selected operations.
type flakyStore struct {
	*sessionstore.MemoryStore
	LoadErr  error
	SaveErr  error
	ClearErr error
}

func (s *flakyStore) Load(ctx context.Context) (*models.Session, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.MemoryStore.Load(ctx)
}

func (s *flakyStore) Save(ctx context.Context, session *models.Session) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	return s.MemoryStore.Save(ctx, session)
}

func (s *flakyStore) Clear(ctx context.Context) error {
	if s.ClearErr != nil {
		return s.ClearErr
	}
	return s.MemoryStore.Clear(ctx)
}

// ---- helpers ----

var errDiskFull = errors.New("disk full")

func newStore() *flakyStore {
	return &flakyStore{MemoryStore: sessionstore.NewMemoryStore()}
}

func newManager(t *testing.T, st sessionstore.Store, fc *fakeClient) SessionManager {
	t.Helper()
	m := NewSessionManager(context.Background(), st, fc, logging.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.WaitReady(ctx))
	return m
}

func stored(t *testing.T, st *flakyStore) *models.Session {
	t.Helper()
	s, err := st.MemoryStore.Load(context.Background())
	require.NoError(t, err)
	return s
}

func seeded(t *testing.T, s *models.Session) *flakyStore {
	t.Helper()
	st := newStore()
	require.NoError(t, st.MemoryStore.Save(context.Background(), s))
	return st
}

// ---- initialization ----

func TestNewSessionManager_RestoresStoredSession(t *testing.T) {
	st := seeded(t, &models.Session{ID: "1", Name: "Ana", Email: "Ana@X.com"})
	m := newManager(t, st, &fakeClient{})

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "ana@x.com", m.Session().Email)
}

func TestNewSessionManager_EmptyStoreIsAnonymous(t *testing.T) {
	m := newManager(t, newStore(), &fakeClient{})
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.Session())
}

func TestNewSessionManager_LoadFailureIsAnonymous(t *testing.T) {
	st := newStore()
	st.LoadErr = common.ErrPersistence
	m := newManager(t, st, &fakeClient{})
	assert.Equal(t, StateAnonymous, m.State())

	corrupt := newStore()
	corrupt.SetRaw([]byte(`{"name":"no id here"}`))
	m = newManager(t, corrupt, &fakeClient{})
	assert.Equal(t, StateAnonymous, m.State())
}

// blockingStore holds Load until released.
type blockingStore struct {
	*sessionstore.MemoryStore
	release chan struct{}
}

func (s *blockingStore) Load(ctx context.Context) (*models.Session, error) {
	<-s.release
	return s.MemoryStore.Load(ctx)
}

func TestNewSessionManager_InitializingUntilLoaded(t *testing.T) {
	st := &blockingStore{MemoryStore: sessionstore.NewMemoryStore(), release: make(chan struct{})}
	m := NewSessionManager(context.Background(), st, &fakeClient{}, logging.NewNop())

	assert.Equal(t, StateInitializing, m.State())
	select {
	case <-m.Ready():
		t.Fatal("ready before the store answered")
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, m.WaitReady(ctx), context.DeadlineExceeded)

	close(st.release)
	<-m.Ready()
	assert.Equal(t, StateAnonymous, m.State())
}

// ---- login ----

func TestLogin_Success_PersistsCanonicalSession(t *testing.T) {
	fc := &fakeClient{AuthenticateRet: &models.Session{ID: "7", Name: "João", Email: "Joao@Example.COM"}}
	st := newStore()
	m := newManager(t, st, fc)

	s, err := m.Login(context.Background(), "  JOAO@example.com ", "Passw0rd!")
	require.NoError(t, err)

	assert.Equal(t, "joao@example.com", fc.LastAuthEmail, "credentials are sent canonicalized")
	assert.Equal(t, "Passw0rd!", fc.LastAuthPassword)

	want := &models.Session{ID: "7", Name: "João", Email: "joao@example.com"}
	assert.Equal(t, want, s)
	assert.Equal(t, want, stored(t, st))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, want, m.Session())
}

func TestLogin_ServerOmitsEmail_FallsBackToSubmitted(t *testing.T) {
	fc := &fakeClient{AuthenticateRet: &models.Session{ID: "7", Name: "João"}}
	st := newStore()
	m := newManager(t, st, fc)

	s, err := m.Login(context.Background(), "Joao@Example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "joao@example.com", s.Email)
	assert.Equal(t, "joao@example.com", stored(t, st).Email)
}

func TestLogin_Failures_LeaveStateUntouched(t *testing.T) {
	prev := &models.Session{ID: "1", Name: "Ana", Email: "ana@x.com"}

	tests := []struct {
		name     string
		fc       *fakeClient
		saveErr  error
		wantKind error
		wantMsg  string
	}{
		{
			name:     "server message surfaces verbatim",
			fc:       &fakeClient{AuthenticateErr: &client.ResponseError{StatusCode: 401, Message: "Senha incorreta"}},
			wantKind: common.ErrAuthenticationFailed,
			wantMsg:  "Senha incorreta",
		},
		{
			name:     "empty body gets generic message",
			fc:       &fakeClient{AuthenticateErr: &client.ResponseError{StatusCode: 400}},
			wantKind: common.ErrAuthenticationFailed,
			wantMsg:  common.MsgInvalidCredentials,
		},
		{
			name:     "transport failure",
			fc:       &fakeClient{AuthenticateErr: errors.Join(client.ErrUnavailable, errors.New("connection refused"))},
			wantKind: common.ErrNetworkFailure,
			wantMsg:  common.MsgNetworkRetry,
		},
		{
			name:     "server error is not a credentials problem",
			fc:       &fakeClient{AuthenticateErr: &client.ResponseError{StatusCode: 502, Message: "<html>Bad Gateway</html>"}},
			wantKind: common.ErrNetworkFailure,
			wantMsg:  common.MsgNetworkRetry,
		},
		{
			name:     "response without id",
			fc:       &fakeClient{AuthenticateRet: &models.Session{Name: "ghost"}},
			wantKind: common.ErrAuthenticationFailed,
		},
		{
			name:     "store write failure",
			fc:       &fakeClient{AuthenticateRet: &models.Session{ID: "2", Email: "bob@x.com"}},
			saveErr:  errDiskFull,
			wantKind: common.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := seeded(t, prev)
			before := st.Raw()
			m := newManager(t, st, tt.fc)
			st.SaveErr = tt.saveErr

			s, err := m.Login(context.Background(), "bob@x.com", "pw")
			assert.Nil(t, s)
			require.ErrorIs(t, err, tt.wantKind)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}

			assert.Equal(t, before, st.Raw(), "stored bytes must not change")
			assert.Equal(t, StateAuthenticated, m.State())
			assert.Equal(t, prev, m.Session())
		})
	}
}

func TestLogin_FromAnonymous_FailureStaysAnonymous(t *testing.T) {
	st := newStore()
	m := newManager(t, st, &fakeClient{AuthenticateErr: &client.ResponseError{StatusCode: 401}})

	_, err := m.Login(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, st.Raw())
}

func TestLogin_ReturnedSessionIsACopy(t *testing.T) {
	fc := &fakeClient{AuthenticateRet: &models.Session{ID: "7", Email: "a@x.com"}}
	m := newManager(t, newStore(), fc)

	s, err := m.Login(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	s.Name = "mutated by the UI"

	assert.Empty(t, m.Session().Name)
}

func TestLogin_ConcurrentCallsSerialize_LastWriterWins(t *testing.T) {
	st := newStore()
	fc := &fakeClient{AuthenticateRet: &models.Session{ID: "1", Email: "a@x.com"}}
	m := newManager(t, st, fc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Login(context.Background(), "a@x.com", "pw")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 8, atomic.LoadInt32(&fc.authCalls))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, m.Session(), stored(t, st))
}

// ---- adopt ----

func TestAdopt(t *testing.T) {
	st := newStore()
	m := newManager(t, st, &fakeClient{})
	ctx := context.Background()

	_, err := m.Adopt(ctx, &models.Session{Name: "no id"})
	require.ErrorIs(t, err, common.ErrInvalidState)
	assert.Equal(t, StateAnonymous, m.State())

	s, err := m.Adopt(ctx, &models.Session{ID: "9", Email: " New@X.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", s.Email)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, s, stored(t, st))
}

// ---- logout ----

func TestLogout_AlwaysEndsAnonymous(t *testing.T) {
	for _, clearErr := range []error{nil, errDiskFull} {
		st := seeded(t, &models.Session{ID: "1", Email: "a@x.com"})
		m := newManager(t, st, &fakeClient{})
		st.ClearErr = clearErr

		m.Logout(context.Background())

		assert.Equal(t, StateAnonymous, m.State())
		assert.Nil(t, m.Session())
		if clearErr == nil {
			assert.Nil(t, st.Raw())
		}
	}
}

func TestLogout_CancelledContextStillSignsOut(t *testing.T) {
	st := seeded(t, &models.Session{ID: "1", Email: "a@x.com"})
	m := newManager(t, st, &fakeClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Logout(ctx)

	assert.Equal(t, StateAnonymous, m.State())
}

// ---- delete account ----

func TestDeleteAccount_RequiresAuthentication(t *testing.T) {
	fc := &fakeClient{}
	m := newManager(t, newStore(), fc)

	err := m.DeleteAccount(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidState)
	assert.Zero(t, atomic.LoadInt32(&fc.deleteCalls), "no network call while anonymous")
}

func TestDeleteAccount_Success(t *testing.T) {
	st := seeded(t, &models.Session{ID: "42", Email: "a@x.com"})
	fc := &fakeClient{}
	m := newManager(t, st, fc)

	require.NoError(t, m.DeleteAccount(context.Background()))
	assert.Equal(t, "42", fc.LastDeleteID)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, st.Raw())
}

func TestDeleteAccount_Failure_Propagates(t *testing.T) {
	prev := &models.Session{ID: "42", Email: "a@x.com"}

	tests := []struct {
		name     string
		err      error
		wantKind error
		wantMsg  string
	}{
		{"server message", &client.ResponseError{StatusCode: 403, Message: "not allowed"}, common.ErrRequestRejected, "not allowed"},
		{"generic message", &client.ResponseError{StatusCode: 400}, common.ErrRequestRejected, common.MsgRequestFailed},
		{"server error", &client.ResponseError{StatusCode: 503, Message: "<html>Service Unavailable</html>"}, common.ErrNetworkFailure, common.MsgNetworkRetry},
		{"network", errors.Join(client.ErrUnavailable, errors.New("timeout")), common.ErrNetworkFailure, common.MsgNetworkRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := seeded(t, prev)
			m := newManager(t, st, &fakeClient{DeleteErr: tt.err})

			err := m.DeleteAccount(context.Background())
			require.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, StateAuthenticated, m.State())
			assert.Equal(t, prev, stored(t, st))
		})
	}
}

// ---- refresh from store ----

func TestRefreshFromStore(t *testing.T) {
	st := newStore()
	m := newManager(t, st, &fakeClient{})
	ctx := context.Background()

	require.NoError(t, st.MemoryStore.Save(ctx, &models.Session{ID: "5", Email: "E@x.com"}))
	s := m.RefreshFromStore(ctx)
	require.NotNil(t, s)
	assert.Equal(t, "e@x.com", s.Email)
	assert.Equal(t, StateAuthenticated, m.State())

	require.NoError(t, st.MemoryStore.Clear(ctx))
	assert.Nil(t, m.RefreshFromStore(ctx))
	assert.Equal(t, StateAnonymous, m.State())

	require.NoError(t, st.MemoryStore.Save(ctx, &models.Session{ID: "5"}))
	st.LoadErr = errDiskFull
	assert.Nil(t, m.RefreshFromStore(ctx), "failures collapse to no session")
	assert.Equal(t, StateAnonymous, m.State())
}

// ---- refetch from remote ----

func TestRefetchFromRemote_Success(t *testing.T) {
	st := seeded(t, &models.Session{ID: "42", Name: "Old", Email: "a@x.com"})
	fc := &fakeClient{FetchRet: &models.Session{ID: "42", Name: "New", Email: "A@X.com"}}
	m := newManager(t, st, fc)

	s := m.RefetchFromRemote(context.Background())
	want := &models.Session{ID: "42", Name: "New", Email: "a@x.com"}
	assert.Equal(t, want, s)
	assert.Equal(t, want, m.Session())
	assert.Equal(t, want, stored(t, st))
}

func TestRefetchFromRemote_FailuresKeepCachedSession(t *testing.T) {
	prev := &models.Session{ID: "42", Name: "Old", Email: "a@x.com"}

	t.Run("not found", func(t *testing.T) {
		st := seeded(t, prev)
		m := newManager(t, st, &fakeClient{FetchErr: &client.ResponseError{StatusCode: 404}})
		assert.Equal(t, prev, m.RefetchFromRemote(context.Background()))
		assert.Equal(t, StateAuthenticated, m.State())
	})

	t.Run("network", func(t *testing.T) {
		st := seeded(t, prev)
		m := newManager(t, st, &fakeClient{FetchErr: client.ErrUnavailable})
		assert.Equal(t, prev, m.RefetchFromRemote(context.Background()))
	})

	t.Run("store write", func(t *testing.T) {
		st := seeded(t, prev)
		m := newManager(t, st, &fakeClient{FetchRet: &models.Session{ID: "42", Name: "New"}})
		st.SaveErr = errDiskFull
		assert.Equal(t, prev, m.RefetchFromRemote(context.Background()))
		assert.Equal(t, prev, m.Session())
		assert.Equal(t, prev, stored(t, st))
	})
}

func TestRefetchFromRemote_Anonymous(t *testing.T) {
	fc := &fakeClient{}
	m := newManager(t, newStore(), fc)
	assert.Nil(t, m.RefetchFromRemote(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&fc.fetchCalls))
}

func TestRefetchFromRemote_DiscardedAfterLogout(t *testing.T) {
	st := seeded(t, &models.Session{ID: "42", Email: "a@x.com"})
	fc := &fakeClient{FetchRet: &models.Session{ID: "42", Name: "New"}, FetchGate: make(chan struct{})}
	m := newManager(t, st, fc)

	done := make(chan *models.Session)
	go func() { done <- m.RefetchFromRemote(context.Background()) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&fc.fetchCalls) == 1 }, time.Second, time.Millisecond)
	m.Logout(context.Background())
	close(fc.FetchGate)

	assert.Nil(t, <-done)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, st.Raw(), "a late refresh must not resurrect the session")
}

func TestRefetchFromRemote_ConcurrentCallsShareOneRequest(t *testing.T) {
	st := seeded(t, &models.Session{ID: "42", Email: "a@x.com"})
	fc := &fakeClient{FetchRet: &models.Session{ID: "42", Name: "New"}, FetchGate: make(chan struct{})}
	m := newManager(t, st, fc)

	var wg sync.WaitGroup
	results := make([]*models.Session, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.RefetchFromRemote(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&fc.fetchCalls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fc.FetchGate)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&fc.fetchCalls), int32(4))
	for _, r := range results {
		assert.Equal(t, "New", r.Name)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
