package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/workgroup/workgroup-client/internal/client/client"
	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/common"
	"github.com/workgroup/workgroup-client/internal/latest"
	"github.com/workgroup/workgroup-client/internal/logging"
)

// DefaultDebounce is how long the email field must stay unchanged before its
// uniqueness is checked.
const DefaultDebounce = 600 * time.Millisecond

// Service is the part of the identity service the form talks to.
type Service interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, name, email, password string) (*models.Session, error)
}

// Scheduler runs f once after d. The returned stop func prevents f from
// running if it has not started yet.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func timerScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type Option func(*Form)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(f *Form) { f.debounce = d }
}

// WithScheduler replaces the timer used for debouncing.
func WithScheduler(s Scheduler) Option {
	return func(f *Form) { f.schedule = s }
}

// Status is a snapshot of the draft and its derived flags.
type Status struct {
	Name  string
	Email string

	NameValid  bool
	EmailValid bool
	Password   PasswordCriteria

	EmailInUse bool
	Checking   bool
	CheckError bool
	Submitting bool

	SubmitEligible bool
}

// Form is a registration draft. All methods are safe for concurrent use.
//
// Uniqueness checks are keyed by canonical email. A check result is applied
// only while its email is still the one in the field; the last successfully
// checked email keeps its answer so returning to it needs no new request.
type Form struct {
	svc      Service
	log      logging.Logger
	debounce time.Duration
	schedule Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	name     string
	email    string
	password string

	emailInUse bool
	checkError bool
	submitting bool
	closed     bool

	guard    latest.Guard[string]
	inflight map[string]int

	pendingSeq  uint64
	pendingStop func() bool

	confirmed      string
	confirmedInUse bool
	hasConfirmed   bool

	changed chan struct{}
}

// NewForm returns an empty draft. ctx bounds every uniqueness check; Close
// cancels it.
func NewForm(ctx context.Context, svc Service, log logging.Logger, opts ...Option) *Form {
	f := &Form{
		svc:      svc,
		log:      log.With("component", "registration"),
		debounce: DefaultDebounce,
		schedule: timerScheduler,
		inflight: make(map[string]int),
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.ctx, f.cancel = context.WithCancel(ctx)
	return f
}

// notifyLocked wakes everyone blocked in WaitIdle.
func (f *Form) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *Form) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	f.notifyLocked()
}

func (f *Form) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = password
	f.notifyLocked()
}

// SetEmail records an edit of the email field and, when the new value is
// well formed, schedules its uniqueness check.
func (f *Form) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.notifyLocked()

	f.email = email
	if f.closed {
		return
	}
	key := models.CanonicalEmail(email)

	if cur, ok := f.guard.Current(); ok && cur == key {
		// Same canonical value; only retry a check that failed.
		if f.pendingStop != nil || f.inflight[key] > 0 || !f.checkError {
			return
		}
	}

	f.guard.Observe(key)
	f.stopPendingLocked()
	f.emailInUse = false
	f.checkError = false

	if !EmailFormatValid(key) {
		return
	}

	if f.hasConfirmed && f.confirmed == key {
		f.emailInUse = f.confirmedInUse
		return
	}

	if f.inflight[key] > 0 {
		// The earlier request for this email is still running and its
		// answer is fresh again.
		return
	}

	f.pendingSeq++
	seq := f.pendingSeq
	f.pendingStop = f.schedule(f.debounce, func() { f.dispatch(seq, key) })
}

func (f *Form) stopPendingLocked() {
	if f.pendingStop != nil {
		f.pendingStop()
		f.pendingStop = nil
	}
	f.pendingSeq++
}

// dispatch runs when the field has been stable for the debounce period.
func (f *Form) dispatch(seq uint64, key string) {
	f.mu.Lock()
	if f.closed || seq != f.pendingSeq {
		f.mu.Unlock()
		return
	}
	f.pendingStop = nil
	t := f.guard.Issue(key)
	f.inflight[key]++
	ctx := f.ctx
	f.mu.Unlock()

	f.log.Debug(ctx, "checking email", "email", key)
	exists, err := f.svc.CheckEmailExists(ctx, key)

	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.notifyLocked()

	f.inflight[key]--
	if f.inflight[key] <= 0 {
		delete(f.inflight, key)
	}

	if f.closed || !f.guard.Fresh(t) {
		f.log.Debug(ctx, "discarding stale email check", "email", key)
		return
	}
	if err != nil {
		f.log.Warn(ctx, "email check failed", "email", key, "error", err)
		f.checkError = true
		return
	}

	f.emailInUse = exists
	f.checkError = false
	f.confirmed, f.confirmedInUse, f.hasConfirmed = key, exists, true
}

func (f *Form) checkingLocked() bool {
	if f.pendingStop != nil {
		return true
	}
	key, ok := f.guard.Current()
	return ok && f.inflight[key] > 0
}

func (f *Form) statusLocked() Status {
	s := Status{
		Name:       f.name,
		Email:      f.email,
		NameValid:  NameValid(f.name),
		EmailValid: EmailFormatValid(f.email),
		Password:   CheckPassword(f.password),
		EmailInUse: f.emailInUse,
		Checking:   f.checkingLocked(),
		CheckError: f.checkError,
		Submitting: f.submitting,
	}
	s.SubmitEligible = s.NameValid && s.EmailValid && s.Password.Valid() &&
		!s.Checking && !s.EmailInUse && !s.Submitting && !f.closed
	return s
}

// Status returns the current draft state.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

// WaitIdle blocks until no uniqueness check is pending or running for the
// current email.
func (f *Form) WaitIdle(ctx context.Context) error {
	for {
		f.mu.Lock()
		if !f.checkingLocked() {
			f.mu.Unlock()
			return nil
		}
		ch := f.changed
		f.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Register submits the draft. The name is trimmed and the email canonicalized
// before sending. On success the draft is cleared and the new account's
// session is returned.
func (f *Form) Register(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	st := f.statusLocked()
	if !st.SubmitEligible {
		f.mu.Unlock()
		return nil, common.NewError(common.ErrInvalidState, "the form is not ready to submit")
	}
	f.submitting = true
	name := strings.TrimSpace(f.name)
	key := models.CanonicalEmail(f.email)
	password := f.password
	f.notifyLocked()
	f.mu.Unlock()

	s, err := f.svc.CreateAccount(ctx, name, key, password)

	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.notifyLocked()
	f.submitting = false

	if err != nil {
		return nil, f.registerErrorLocked(ctx, key, err)
	}

	if s != nil {
		s.Normalize(key)
	}
	if s == nil || s.Validate() != nil {
		f.log.Warn(ctx, "create account response without id", "email", key)
		return nil, common.NewError(common.ErrRequestRejected, "the server returned an incomplete account")
	}

	f.log.Info(ctx, "account created", "user_id", s.ID)
	f.resetLocked()
	return s, nil
}

func (f *Form) registerErrorLocked(ctx context.Context, key string, err error) error {
	switch {
	case errors.Is(err, client.ErrConflict):
		// The uniqueness check can lose a race with another registrant.
		f.confirmed, f.confirmedInUse, f.hasConfirmed = key, true, true
		if cur, ok := f.guard.Current(); ok && cur == key {
			f.emailInUse = true
			f.checkError = false
		}
		f.log.Info(ctx, "email taken at submit", "email", key)
		return common.NewError(common.ErrConflict, common.MsgEmailTaken)
	case errors.Is(err, client.ErrUnavailable):
		f.log.Warn(ctx, "create account failed", "error", err)
		return common.NewError(common.ErrNetworkFailure, common.MsgNetworkRetry)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	f.log.Warn(ctx, "create account rejected", "error", err)
	msg := client.ServerMessage(err)
	if msg == "" {
		msg = common.MsgRequestFailed
	}
	return common.NewError(common.ErrRequestRejected, msg)
}

func (f *Form) resetLocked() {
	f.stopPendingLocked()
	f.name, f.email, f.password = "", "", ""
	f.emailInUse, f.checkError = false, false
	f.guard.Reset()
	f.confirmed, f.confirmedInUse, f.hasConfirmed = "", false, false
}

// Close discards the draft. Pending checks never run and running ones are
// cancelled; their results are dropped.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.stopPendingLocked()
	f.guard.Reset()
	f.cancel()
	f.notifyLocked()
}
