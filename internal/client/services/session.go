// Package services contains application services for the Work Group client.
// This file defines the session manager: the single owner of the
// authenticated-user state, kept in sync with the durable session store.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/workgroup/workgroup-client/internal/client/client"
	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/client/sessionstore"
	"github.com/workgroup/workgroup-client/internal/common"
	"github.com/workgroup/workgroup-client/internal/logging"
)

// State is the lifecycle state of the session manager.
type State int

const (
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SessionManager owns the current session.
//
// Contract:
//   - Ready is closed once the session has been restored from the store;
//     every operation waits for it before doing anything else.
//   - Login and DeleteAccount express user intent and return failures as
//     *common.Error values matching the common sentinels.
//   - Logout always ends anonymous.
//   - RefreshFromStore and RefetchFromRemote are best-effort and never fail.
//   - Session returns a copy; callers never share the manager's value.
type SessionManager interface {
	Ready() <-chan struct{}
	WaitReady(ctx context.Context) error
	State() State
	Session() *models.Session

	Login(ctx context.Context, email, password string) (*models.Session, error)
	Adopt(ctx context.Context, s *models.Session) (*models.Session, error)
	Logout(ctx context.Context)
	DeleteAccount(ctx context.Context) error
	RefreshFromStore(ctx context.Context) *models.Session
	RefetchFromRemote(ctx context.Context) *models.Session
}

// sessionManager serializes every mutating operation through opMu, so two
// mutations never interleave: a second Login waits for the first one and its
// result becomes the new truth. mu guards the state fields for readers.
type sessionManager struct {
	store  sessionstore.Store
	client client.Client
	log    logging.Logger

	ready chan struct{}
	opMu  sync.Mutex
	group singleflight.Group

	mu      sync.RWMutex
	state   State
	current *models.Session
}

// NewSessionManager returns a manager in StateInitializing and starts
// restoring the persisted session in the background. ctx bounds the restore.
func NewSessionManager(ctx context.Context, store sessionstore.Store, c client.Client, log logging.Logger) SessionManager {
	m := &sessionManager{
		store:  store,
		client: c,
		log:    log.With("component", "session"),
		ready:  make(chan struct{}),
		state:  StateInitializing,
	}
	go m.restore(ctx)
	return m
}

func (m *sessionManager) restore(ctx context.Context) {
	defer close(m.ready)

	m.opMu.Lock()
	defer m.opMu.Unlock()

	s := m.load(ctx)
	m.set(s)
	if s != nil {
		m.log.Info(ctx, "session restored", "user_id", s.ID)
	} else {
		m.log.Debug(ctx, "no stored session")
	}
}

// load reads the store, collapsing any failure into "no session".
func (m *sessionManager) load(ctx context.Context) *models.Session {
	s, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn(ctx, "stored session unusable, continuing anonymous", "error", err)
		return nil
	}
	if s == nil {
		return nil
	}
	s.Normalize("")
	return s
}

func (m *sessionManager) set(s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		m.state = StateAnonymous
		m.current = nil
		return
	}
	m.state = StateAuthenticated
	m.current = s
}

func (m *sessionManager) snapshot() (State, *models.Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.current
}

func (m *sessionManager) Ready() <-chan struct{} {
	return m.ready
}

func (m *sessionManager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	default:
	}
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *sessionManager) State() State {
	st, _ := m.snapshot()
	return st
}

func (m *sessionManager) Session() *models.Session {
	_, s := m.snapshot()
	return s.Clone()
}

// begin waits for initialization and takes the mutation lock.
func (m *sessionManager) begin(ctx context.Context) error {
	if err := m.WaitReady(ctx); err != nil {
		return err
	}
	m.opMu.Lock()
	return nil
}

// Login authenticates with canonicalized credentials, persists the returned
// session, and only then switches to it. Nothing changes on failure.
func (m *sessionManager) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if err := m.begin(ctx); err != nil {
		return nil, err
	}
	defer m.opMu.Unlock()

	canonical := models.CanonicalEmail(email)

	s, err := m.client.Authenticate(ctx, canonical, password)
	if err != nil {
		m.log.Info(ctx, "login failed", "email", canonical, "error", err)
		return nil, loginError(err)
	}
	s.Normalize(canonical)
	if err := s.Validate(); err != nil {
		m.log.Warn(ctx, "login response without id", "email", canonical)
		return nil, common.NewError(common.ErrAuthenticationFailed, "the server returned an incomplete account")
	}

	if err := m.commit(ctx, s); err != nil {
		return nil, err
	}
	m.log.Info(ctx, "logged in", "user_id", s.ID)
	return s.Clone(), nil
}

// Adopt makes s, obtained from a registration-confirmation flow, the current
// session under the same persistence contract as Login.
func (m *sessionManager) Adopt(ctx context.Context, s *models.Session) (*models.Session, error) {
	if err := m.begin(ctx); err != nil {
		return nil, err
	}
	defer m.opMu.Unlock()

	if s == nil || s.Validate() != nil {
		return nil, common.NewError(common.ErrInvalidState, "cannot adopt a session without an id")
	}
	s = s.Clone()
	s.Normalize("")

	if err := m.commit(ctx, s); err != nil {
		return nil, err
	}
	m.log.Info(ctx, "session adopted", "user_id", s.ID)
	return s.Clone(), nil
}

// commit persists s and switches to it. A store failure leaves the current
// state untouched.
func (m *sessionManager) commit(ctx context.Context, s *models.Session) error {
	if err := m.store.Save(ctx, s); err != nil {
		m.log.Error(ctx, "could not persist session", "user_id", s.ID, "error", err)
		return common.NewError(common.ErrPersistence, "could not save your session on this device")
	}
	m.set(s)
	return nil
}

// Logout clears the store and always ends anonymous. Readiness is awaited
// without a deadline so a cancelled ctx cannot leave the user signed in.
func (m *sessionManager) Logout(ctx context.Context) {
	<-m.ready
	m.opMu.Lock()
	defer m.opMu.Unlock()

	_, prev := m.snapshot()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "could not clear stored session", "error", err)
	}
	m.set(nil)
	if prev != nil {
		m.log.Info(ctx, "logged out", "user_id", prev.ID)
	}
}

// DeleteAccount deletes the current account remotely, then signs out.
func (m *sessionManager) DeleteAccount(ctx context.Context) error {
	if err := m.begin(ctx); err != nil {
		return err
	}
	defer m.opMu.Unlock()

	st, cur := m.snapshot()
	if st != StateAuthenticated {
		return common.NewError(common.ErrInvalidState, "you need to be signed in to delete your account")
	}

	if err := m.client.DeleteByID(ctx, cur.ID); err != nil {
		m.log.Warn(ctx, "account deletion failed", "user_id", cur.ID, "error", err)
		return requestError(err)
	}

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "could not clear stored session", "error", err)
	}
	m.set(nil)
	m.log.Info(ctx, "account deleted", "user_id", cur.ID)
	return nil
}

// RefreshFromStore re-reads the store and adopts whatever it holds. Store
// failures count as "no session".
func (m *sessionManager) RefreshFromStore(ctx context.Context) *models.Session {
	if err := m.begin(ctx); err != nil {
		_, cur := m.snapshot()
		return cur.Clone()
	}
	defer m.opMu.Unlock()

	s := m.load(ctx)
	m.set(s)
	return s.Clone()
}

// RefetchFromRemote reloads the current account from the server. Any failure
// keeps the cached session. Concurrent calls share one request.
func (m *sessionManager) RefetchFromRemote(ctx context.Context) *models.Session {
	if err := m.WaitReady(ctx); err != nil {
		return m.Session()
	}

	st, cur := m.snapshot()
	if st != StateAuthenticated {
		return nil
	}

	v, _, _ := m.group.Do(cur.ID, func() (any, error) {
		return m.refetch(ctx, cur), nil
	})
	return v.(*models.Session).Clone()
}

func (m *sessionManager) refetch(ctx context.Context, prev *models.Session) *models.Session {
	fresh, err := m.client.FetchByID(ctx, prev.ID)
	if err != nil {
		m.log.Info(ctx, "background refresh failed, keeping cached session", "user_id", prev.ID, "error", err)
		_, cur := m.snapshot()
		return cur
	}
	if fresh.ID == "" {
		fresh.ID = prev.ID
	}
	fresh.Normalize(prev.Email)

	m.opMu.Lock()
	defer m.opMu.Unlock()

	// The user may have logged out or switched accounts while the request
	// was in flight.
	_, cur := m.snapshot()
	if cur == nil || cur.ID != prev.ID {
		m.log.Debug(ctx, "discarding refresh for a session that is no longer current", "user_id", prev.ID)
		return cur
	}

	if err := m.store.Save(ctx, fresh); err != nil {
		m.log.Warn(ctx, "could not persist refreshed session", "user_id", prev.ID, "error", err)
		return cur
	}
	m.set(fresh)
	return fresh
}

// loginError maps an Authenticate failure to the user-facing taxonomy. A 5xx
// answer is a network failure like an unreachable server; its body is not shown.
func loginError(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return common.NewError(common.ErrNetworkFailure, common.MsgNetworkRetry)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := client.ServerMessage(err)
	if msg == "" {
		msg = common.MsgInvalidCredentials
	}
	return common.NewError(common.ErrAuthenticationFailed, msg)
}

// requestError maps a failure of a user-intent request other than login.
func requestError(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return common.NewError(common.ErrNetworkFailure, common.MsgNetworkRetry)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := client.ServerMessage(err)
	if msg == "" {
		msg = common.MsgRequestFailed
	}
	return common.NewError(common.ErrRequestRejected, msg)
}
