// Package session owns "who is logged in" for one browsing context.
//
// A Store is created per client with its own durable storage and
// authentication collaborator. Every state transition is committed in a
// single locked step, so observers never see IsAuthenticated without a
// CurrentUser or the reverse.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/ports"
)

// DefaultRestoreTimeout bounds how long a store may stay initializing.
const DefaultRestoreTimeout = 5 * time.Second

// Restore outcomes, as reported to Metrics.
const (
	RestoreRestored = "restored"
	RestoreEmpty    = "empty"
	RestoreCorrupt  = "corrupt"
	RestoreFailed   = "failed"
	RestoreTimeout  = "timeout"
	RestoreRevoked  = "revoked"
)

// Attempt results, as reported to Metrics.
const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultPersistence = "persistence_failure"
	ResultSuperseded  = "superseded"
	ResultRejected    = "rejected"
)

const (
	opLogin  = "login"
	opSignup = "signup"
)

// Messages shown to the user when the real cause must stay internal.
const (
	MsgPersistence  = "could not save your session, please retry"
	msgLoginFailed  = "Login failed"
	msgSignupFailed = "Signup failed"
)

// Metrics receives session outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveRestore(outcome string)
	ObserveAttempt(op, result string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRestore(string)         {}
func (nopMetrics) ObserveAttempt(string, string) {}

// Option configures a Store.
type Option func(*Store)

// WithRestoreTimeout overrides DefaultRestoreTimeout. Non-positive values are ignored.
func WithRestoreTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.restoreTimeout = d
		}
	}
}

// WithTokenValidator makes Restore check the stored token. A token the
// validator rejects discards the stored session; any other validator error
// keeps the stored user. On success the validator's record replaces it.
func WithTokenValidator(v ports.TokenValidator) Option {
	return func(s *Store) { s.validator = v }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Store is the single source of truth for one client's session.
//
// Concurrent Login/Signup calls are not blocked. The most recently issued
// attempt wins: an attempt that resolves after a newer attempt or a Logout
// neither persists nor commits and returns domain.ErrAttemptSuperseded.
//
// Observers registered with Subscribe are called synchronously after each
// commit and must not call Login, Signup, Logout or ClearError themselves.
type Store struct {
	storage        ports.DurableStorage
	auth           ports.AuthService
	validator      ports.TokenValidator
	restoreTimeout time.Duration
	log            zerolog.Logger
	metrics        Metrics

	// notifyMu serialises commit+notify so observers see commits in order.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    domain.Snapshot
	seq      uint64 // bumped by every login/signup attempt and by logout

	// persistMu makes the storage write of a successful attempt and a logout
	// mutually exclusive.
	persistMu sync.Mutex

	restoreOnce sync.Once
	ready       chan struct{}

	obsMu     sync.Mutex
	observers map[int]func(domain.Snapshot)
	nextObs   int
}

// New returns a store in its boot state: initializing, nobody logged in.
func New(storage ports.DurableStorage, auth ports.AuthService, opts ...Option) *Store {
	s := &Store{
		storage:        storage,
		auth:           auth,
		restoreTimeout: DefaultRestoreTimeout,
		log:            zerolog.Nop(),
		metrics:        nopMetrics{},
		state:          domain.Snapshot{IsInitializing: true},
		ready:          make(chan struct{}),
		observers:      make(map[int]func(domain.Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Ready is closed once initialization has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe registers fn for every committed change and returns a func
// that unregisters it.
func (s *Store) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

type restoreResult struct {
	user    *domain.User
	outcome string
	err     error
}

// Restore loads a previously persisted session. Only the first call does
// anything. It always ends initialization within the restore timeout,
// regardless of whether the storage read ever returns.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() { s.restore(ctx) })
}

func (s *Store) restore(ctx context.Context) {
	s.mu.RLock()
	startSeq := s.seq
	s.mu.RUnlock()

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan restoreResult, 1)
	go func() { done <- s.readSession(readCtx) }()

	timer := time.NewTimer(s.restoreTimeout)
	defer timer.Stop()

	var res restoreResult
	select {
	case res = <-done:
	case <-timer.C:
		res = restoreResult{outcome: RestoreTimeout}
	case <-ctx.Done():
		res = restoreResult{outcome: RestoreFailed, err: ctx.Err()}
	}

	switch res.outcome {
	case RestoreRestored:
		s.log.Debug().Int64("user_id", res.user.ID).Str("role", res.user.Role.String()).Msg("session restored")
	case RestoreTimeout:
		s.log.Warn().Dur("timeout", s.restoreTimeout).Msg("session restore timed out, continuing unauthenticated")
	case RestoreFailed, RestoreCorrupt, RestoreRevoked:
		s.log.Warn().Err(res.err).Str("outcome", res.outcome).Msg("session restore failed, continuing unauthenticated")
	default:
		s.log.Debug().Msg("no stored session found")
	}
	s.metrics.ObserveRestore(res.outcome)

	s.commit(func(st *domain.Snapshot) bool {
		st.IsInitializing = false
		// A logout issued while restoring wins over whatever was read.
		if res.user != nil && s.seq == startSeq {
			st.CurrentUser = res.user
			st.IsAuthenticated = true
		}
		return true
	})
	close(s.ready)
}

// readSession reads both durable entries. Absent or undecodable entries are
// cleared so a half-written session cannot linger.
func (s *Store) readSession(ctx context.Context) restoreResult {
	rawUser, hasUser, err := s.storage.Get(ctx, ports.StorageKeyUser)
	if err != nil {
		return restoreResult{outcome: RestoreFailed, err: fmt.Errorf("read user: %w", err)}
	}
	token, hasToken, err := s.storage.Get(ctx, ports.StorageKeyToken)
	if err != nil {
		return restoreResult{outcome: RestoreFailed, err: fmt.Errorf("read token: %w", err)}
	}

	if !hasUser && !hasToken {
		return restoreResult{outcome: RestoreEmpty}
	}
	if !hasUser || !hasToken || rawUser == "" || token == "" {
		s.clearPartial(ctx)
		return restoreResult{outcome: RestoreEmpty}
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.clearPartial(ctx)
		return restoreResult{outcome: RestoreCorrupt, err: fmt.Errorf("decode user: %w", err)}
	}
	if !user.Role.Valid() {
		s.clearPartial(ctx)
		return restoreResult{outcome: RestoreCorrupt, err: fmt.Errorf("decode user: %w", domain.ErrInvalidRole)}
	}
	if s.validator == nil {
		return restoreResult{user: &user, outcome: RestoreRestored}
	}

	current, err := s.validator.ValidateToken(ctx, token)
	switch {
	case err == nil && current != nil && current.Role.Valid():
		return restoreResult{user: current, outcome: RestoreRestored}
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrUserNotFound):
		s.clearPartial(ctx)
		return restoreResult{outcome: RestoreRevoked, err: err}
	default:
		s.log.Warn().Err(err).Msg("token validation unavailable, keeping stored session")
		return restoreResult{user: &user, outcome: RestoreRestored}
	}
}

// Login authenticates with the given credentials and persists the session.
// On failure LastError is set and the same failure is returned as a
// *domain.AuthError.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var precheck error
	if strings.TrimSpace(email) == "" || password == "" {
		precheck = domain.ErrEmptyCredentials
	}
	return s.authenticate(ctx, opLogin, precheck, func(ctx context.Context) (*domain.AuthResult, error) {
		return s.auth.Login(ctx, email, password)
	})
}

// Signup registers a new account and persists the resulting session. It has
// the same contract as Login.
func (s *Store) Signup(ctx context.Context, data domain.SignupData) (*domain.User, error) {
	var precheck error
	if strings.TrimSpace(data.Email) == "" || data.Password == "" {
		precheck = domain.ErrEmptyCredentials
	}
	return s.authenticate(ctx, opSignup, precheck, func(ctx context.Context) (*domain.AuthResult, error) {
		return s.auth.Signup(ctx, data)
	})
}

func (s *Store) authenticate(
	ctx context.Context,
	op string,
	precheck error,
	call func(context.Context) (*domain.AuthResult, error),
) (*domain.User, error) {
	seq, err := s.begin()
	if err != nil {
		s.metrics.ObserveAttempt(op, ResultRejected)
		return nil, &domain.AuthError{Op: op, Message: err.Error(), Err: err}
	}

	var res *domain.AuthResult
	if precheck != nil {
		err = precheck
	} else {
		res, err = call(ctx)
	}
	if err == nil {
		err = checkResult(res)
	}
	if err != nil {
		s.log.Debug().Err(err).Str("op", op).Msg("authentication rejected")
		return nil, s.fail(seq, op, err, ResultFailure)
	}

	return s.establish(ctx, seq, op, res)
}

// begin starts an attempt: busy, previous error cleared.
func (s *Store) begin() (uint64, error) {
	var (
		seq uint64
		err error
	)
	s.commit(func(st *domain.Snapshot) bool {
		if st.IsInitializing {
			err = domain.ErrSessionInitializing
			return false
		}
		s.seq++
		seq = s.seq
		st.IsBusy = true
		st.LastError = ""
		return true
	})
	return seq, err
}

func checkResult(res *domain.AuthResult) error {
	switch {
	case res == nil || res.User == nil:
		return fmt.Errorf("%w: response carried no user", domain.ErrAuthUnavailable)
	case res.Token == "":
		return fmt.Errorf("%w: response carried no token", domain.ErrAuthUnavailable)
	case !res.User.Role.Valid():
		return fmt.Errorf("%w: %w", domain.ErrAuthUnavailable, domain.ErrInvalidRole)
	}
	return nil
}

// establish writes both durable keys, then commits the authenticated state.
// The session is not considered established unless both writes succeed.
func (s *Store) establish(ctx context.Context, seq uint64, op string, res *domain.AuthResult) (*domain.User, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if !s.isCurrent(seq) {
		s.metrics.ObserveAttempt(op, ResultSuperseded)
		return nil, superseded(op)
	}

	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, s.fail(seq, op, fmt.Errorf("%w: encode user: %v", domain.ErrPersistence, err), ResultPersistence)
	}
	if err := s.storage.Set(ctx, ports.StorageKeyUser, string(raw)); err != nil {
		s.clearStorage(ctx)
		return nil, s.fail(seq, op, fmt.Errorf("%w: %v", domain.ErrPersistence, err), ResultPersistence)
	}
	if err := s.storage.Set(ctx, ports.StorageKeyToken, res.Token); err != nil {
		s.clearStorage(ctx)
		return nil, s.fail(seq, op, fmt.Errorf("%w: %v", domain.ErrPersistence, err), ResultPersistence)
	}

	user := res.User.Clone()
	committed := s.commit(func(st *domain.Snapshot) bool {
		if s.seq != seq {
			return false
		}
		st.CurrentUser = user
		st.IsAuthenticated = true
		st.IsBusy = false
		st.LastError = ""
		return true
	})
	if !committed {
		// A newer attempt started while we were writing; it owns the storage now.
		s.clearStorage(ctx)
		s.metrics.ObserveAttempt(op, ResultSuperseded)
		return nil, superseded(op)
	}

	s.metrics.ObserveAttempt(op, ResultSuccess)
	s.log.Info().Int64("user_id", user.ID).Str("role", user.Role.String()).Str("op", op).Msg("session established")
	return user.Clone(), nil
}

// fail commits the failure of attempt seq and returns the error for the caller.
// Durable storage is left alone: a previously persisted session survives a
// failed attempt and comes back on the next restore.
func (s *Store) fail(seq uint64, op string, cause error, result string) error {
	authErr := &domain.AuthError{Op: op, Message: failureMessage(op, cause), Err: cause}
	if errors.Is(cause, domain.ErrPersistence) || errors.Is(cause, domain.ErrAuthUnavailable) {
		s.log.Warn().Err(cause).Str("op", op).Msg("authentication attempt failed")
	}
	committed := s.commit(func(st *domain.Snapshot) bool {
		if s.seq != seq {
			return false
		}
		st.CurrentUser = nil
		st.IsAuthenticated = false
		st.IsBusy = false
		st.LastError = authErr.Message
		return true
	})
	if !committed {
		s.metrics.ObserveAttempt(op, ResultSuperseded)
		return superseded(op)
	}
	s.metrics.ObserveAttempt(op, result)
	return authErr
}

// userFacing are the failures whose own text is shown to the user.
var userFacing = []error{
	domain.ErrEmptyCredentials,
	domain.ErrInvalidCredentials,
	domain.ErrUserNotFound,
	domain.ErrUserExists,
	domain.ErrAccountDisabled,
	domain.ErrForbiddenRole,
	domain.ErrInvalidRole,
	domain.ErrInvalidToken,
}

func failureMessage(op string, err error) string {
	generic := msgLoginFailed
	if op == opSignup {
		generic = msgSignupFailed
	}

	switch {
	case errors.Is(err, domain.ErrPersistence):
		return MsgPersistence
	case errors.Is(err, domain.ErrAuthUnavailable):
		return generic
	}

	var um domain.UserMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
		return generic
	}
	for _, known := range userFacing {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return generic
}

func superseded(op string) error {
	return &domain.AuthError{Op: op, Message: domain.ErrAttemptSuperseded.Error(), Err: domain.ErrAttemptSuperseded}
}

// Logout clears durable storage and resets the session. It never fails;
// storage errors are logged. In-flight attempts become superseded.
func (s *Store) Logout(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.clearStorage(ctx)
	s.commit(func(st *domain.Snapshot) bool {
		s.seq++
		st.CurrentUser = nil
		st.IsAuthenticated = false
		st.IsBusy = false
		st.LastError = ""
		return true
	})
	s.log.Debug().Msg("session cleared")
}

// ClearError forgets the last login/signup failure.
func (s *Store) ClearError() {
	s.commit(func(st *domain.Snapshot) bool {
		if st.LastError == "" {
			return false
		}
		st.LastError = ""
		return true
	})
}

func (s *Store) clearStorage(ctx context.Context) {
	if err := s.storage.Delete(ctx, ports.StorageKeyUser, ports.StorageKeyToken); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear session storage")
	}
}

// clearPartial is clearStorage for the restore path. Once the restore has
// timed out the read context is cancelled and whatever is stored now belongs
// to a later login.
func (s *Store) clearPartial(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.clearStorage(ctx)
}

func (s *Store) isCurrent(seq uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq == seq
}

// commit applies fn under the state lock and, when fn reports a change,
// notifies observers with the new snapshot.
func (s *Store) commit(fn func(*domain.Snapshot) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snap := s.copyLocked()
	s.mu.Unlock()

	for _, obs := range s.observerList() {
		cp := snap
		cp.CurrentUser = snap.CurrentUser.Clone()
		obs(cp)
	}
	return true
}

func (s *Store) observerList() []func(domain.Snapshot) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	out := make([]func(domain.Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		out = append(out, fn)
	}
	return out
}

func (s *Store) copyLocked() domain.Snapshot {
	snap := s.state
	snap.CurrentUser = s.state.CurrentUser.Clone()
	return snap
}

// IsAuthError reports whether err came from a login/signup attempt and
// returns its user-facing message.
func IsAuthError(err error) (string, bool) {
	var ae *domain.AuthError
	if errors.As(err, &ae) {
		return ae.Message, true
	}
	return "", false
}
