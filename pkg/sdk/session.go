package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "nutria/sdk/session"

// State is the lifecycle state of a Session.
type State int

const (
	// StateSignedOut means no identity is installed.
	StateSignedOut State = iota
	// StateSigningIn means a login is waiting on the authentication service.
	StateSigningIn
	// StateSignedIn means exactly one identity is installed.
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed_out"
	case StateSigningIn:
		return "signing_in"
	case StateSignedIn:
		return "signed_in"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Change describes a session transition delivered to observers.
// Identity is nil unless State is StateSignedIn.
type Change struct {
	State    State
	Identity *Identity
}

// Observer is notified after every session transition.
type Observer func(Change)

// IdentityReader exposes the current identity. Session implements it;
// the Access Gate and feature code depend only on this.
type IdentityReader interface {
	CurrentIdentity() *Identity
}

// Session is the process-wide holder of at most one current identity.
//
// It is the only writer of its SessionStore. Create one at startup with NewSession,
// call Restore, and pass it to whatever needs to read or change the signed-in principal.
//
// Logins are single-flight by contract: the UI must not issue a second login while one is
// pending. If it happens anyway, or if Logout runs while a login is pending, the older
// login's outcome is discarded when it resolves.
type Session struct {
	auth   Authenticator
	store  *SessionStore
	logger *slog.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	state      State
	identity   *Identity
	creds      *Credentials
	generation uint64

	observersMu  sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger (default slog.Default()).
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) SessionOption {
	return func(s *Session) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// NewSession creates a signed-out session that authenticates through auth and persists into store.
func NewSession(auth Authenticator, store *SessionStore, opts ...SessionOption) *Session {
	s := &Session{
		auth:      auth,
		store:     store,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		state:     StateSignedOut,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentIdentity returns a copy of the signed-in identity, or nil when signed out.
func (s *Session) CurrentIdentity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.Clone()
}

// Credentials returns a copy of the session token, or nil when signed out.
func (s *Session) Credentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Can evaluates capability against the current identity.
func (s *Session) Can(capability string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Evaluate(s.identity, capability)
}

// Subscribe registers fn for every subsequent transition and returns a function that
// removes it. Observers run synchronously on the goroutine that caused the transition,
// after the session lock is released.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn

	return func() {
		s.observersMu.Lock()
		defer s.observersMu.Unlock()
		delete(s.observers, id)
	}
}

// Restore rehydrates the identity from durable storage without any network call.
// It only acts on a signed-out session and reports whether the session is signed in afterwards.
func (s *Session) Restore(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != StateSignedOut {
		signedIn := s.state == StateSignedIn
		s.mu.Unlock()
		return signedIn
	}

	record := s.store.Load(ctx)
	if record == nil {
		s.mu.Unlock()
		s.logger.Debug("no stored session to restore")
		return false
	}

	s.identity = record.Identity
	s.creds = record.Credentials
	s.state = StateSignedIn
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("session restored", "principal_id", record.Identity.ID)
	s.notify(change)
	return true
}

// Login authenticates req and installs the resulting identity.
//
// Entering SigningIn clears both copies of any previous session, so a process that dies
// mid-login restarts signed out. The durable record is written before the signed-in state
// becomes visible. On any failure the durable record is cleared, the session ends signed out,
// and a *LoginError is returned.
// If Logout or a newer Login ran while this call was waiting, the outcome is discarded and
// ErrLoginSuperseded is returned without touching the session.
func (s *Session) Login(ctx context.Context, req LoginRequest) (*Identity, error) {
	attemptID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "session.Login", trace.WithAttributes(
		attribute.String("login.attempt_id", attemptID),
	))
	defer span.End()

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.signOutLocked(ctx)
	s.state = StateSigningIn
	change := s.changeLocked()
	s.mu.Unlock()
	s.notify(change)

	s.logger.Debug("login started", "attempt_id", attemptID, "generation", generation)

	var identity *Identity
	result, err := s.auth.Authenticate(ctx, req)
	if err == nil {
		identity, err = checkAuthResult(result)
	}

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		s.logger.Info("discarding superseded login", "attempt_id", attemptID, "generation", generation)
		superseded := loginError(ErrLoginSuperseded, "", nil)
		recordSpanError(span, superseded)
		return nil, superseded
	}

	if err != nil {
		le := asLoginError(err)
		s.signOutLocked(ctx)
		change := s.changeLocked()
		s.mu.Unlock()

		s.logger.Warn("login failed", "attempt_id", attemptID, "error", le)
		recordSpanError(span, le)
		s.notify(change)
		return nil, le
	}

	if err := s.store.Save(ctx, identity, result.Credentials); err != nil {
		s.signOutLocked(ctx)
		change := s.changeLocked()
		s.mu.Unlock()

		s.logger.Error("failed to persist session", "attempt_id", attemptID, "error", err)
		recordSpanError(span, err)
		s.notify(change)
		return nil, fmt.Errorf("persist session: %w", err)
	}

	creds := *result.Credentials
	s.identity = identity
	s.creds = &creds
	s.state = StateSignedIn
	change = s.changeLocked()
	identity = identity.Clone()
	s.mu.Unlock()

	span.SetAttributes(attribute.String("principal.id", identity.ID))
	s.logger.Info("login succeeded", "attempt_id", attemptID, "principal_id", identity.ID)
	s.notify(change)
	return identity, nil
}

// Logout clears the durable record and the in-memory identity. It never fails:
// a storage error is logged and the in-memory session is signed out regardless.
// Any login still in flight is superseded.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	wasSignedOut := s.state == StateSignedOut
	s.signOutLocked(ctx)
	change := s.changeLocked()
	s.mu.Unlock()

	if wasSignedOut {
		return
	}
	s.logger.Info("logged out")
	s.notify(change)
}

// signOutLocked clears both copies of the session. Caller holds s.mu.
// The durable clear ignores cancellation: a login that failed because its context was
// cancelled must still not leave the previous record behind.
func (s *Session) signOutLocked(ctx context.Context) {
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}
	s.identity = nil
	s.creds = nil
	s.state = StateSignedOut
}

func (s *Session) changeLocked() Change {
	return Change{State: s.state, Identity: s.identity.Clone()}
}

func (s *Session) notify(change Change) {
	s.observersMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.observersMu.Unlock()

	for _, fn := range observers {
		fn(change)
	}
}

// checkAuthResult validates an authentication result and returns the identity to install.
func checkAuthResult(result *AuthResult) (*Identity, error) {
	if result == nil || result.Identity == nil {
		return nil, loginError(ErrMalformedResponse, "authentication result has no identity", nil)
	}
	identity, err := result.Identity.Normalized()
	if err != nil {
		return nil, loginError(ErrMalformedResponse, "authentication result", err)
	}
	if result.Credentials == nil || result.Credentials.AccessToken == "" {
		return nil, loginError(ErrMalformedResponse, "authentication result has no session token", nil)
	}
	return identity, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
