package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/models"
	"github.com/SigNoz/storefront-client/internal/storage"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrIncompleteAuth is returned when a successful auth response lacks the
// access token or the user.
var ErrIncompleteAuth = errors.New("auth response missing token or user")

// Session is a snapshot of the authentication state.
// Authenticated is true exactly when both Token and User are set.
type Session struct {
	Token         string
	User          *models.User
	Authenticated bool
}

// SessionEventType names a session transition.
type SessionEventType int

const (
	EventLogin SessionEventType = iota + 1
	EventLogout
	EventInvalidated
)

func (t SessionEventType) String() string {
	switch t {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// SessionEvent is delivered to subscribers after each transition.
type SessionEvent struct {
	Type   SessionEventType
	User   *models.User
	Reason string
}

const subscriberBuffer = 16

// SessionStore owns the token and user record and mirrors them into
// persisted storage.
type SessionStore struct {
	client  *api.Client
	store   storage.Store
	metrics *metrics.AppMetrics
	logger  *zerolog.Logger

	mu       sync.Mutex
	token    string
	user     *models.User
	loading  bool
	errMsg   string
	verified chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan SessionEvent
	nextSub int
}

// NewSessionStore creates a session store and installs it on client as the
// bearer token source and the unauthorized hook.
func NewSessionStore(client *api.Client, store storage.Store, m *metrics.AppMetrics, logger *zerolog.Logger) *SessionStore {
	if m == nil {
		m = metrics.NewNoop()
	}
	s := &SessionStore{
		client:   client,
		store:    store,
		metrics:  m,
		logger:   logging.Component(logger, "session"),
		verified: closedChan(),
		subs:     map[int]chan SessionEvent{},
	}
	client.SetTokenSource(s.Token)
	client.OnUnauthorized(func(ctx context.Context, token string) {
		// a rejected request only speaks for the token it carried
		if token == "" {
			return
		}
		s.invalidateToken(ctx, token, "request rejected with 401")
	})
	return s
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Restore loads persisted credentials. With both slots present the session is
// authenticated immediately and the token is verified against /auth/me in the
// background; WaitVerified blocks until that check completes.
func (s *SessionStore) Restore(ctx context.Context) error {
	token, tokErr := s.store.Get(ctx, storage.SlotToken)
	raw, userErr := s.store.Get(ctx, storage.SlotUser)
	if tokErr != nil && !errors.Is(tokErr, storage.ErrNotFound) {
		return tokErr
	}
	if userErr != nil && !errors.Is(userErr, storage.ErrNotFound) {
		return userErr
	}

	if token == "" && raw == "" {
		return nil
	}

	var user models.User
	if token == "" || raw == "" || json.Unmarshal([]byte(raw), &user) != nil || user.ID == 0 {
		s.logger.Warn().Msg("discarding incomplete or unreadable persisted session")
		return s.store.Delete(ctx, storage.SlotToken, storage.SlotUser)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.verified = done
	s.mu.Unlock()

	s.logger.Debug().Str("user", user.Username).Str("token", logging.Redact(token)).Msg("session restored")

	go func() {
		defer close(done)
		if _, err := s.client.Me(context.WithoutCancel(ctx)); err != nil {
			s.logger.Info().Err(err).Msg("restored session failed verification")
			s.invalidateToken(ctx, token, "verification failed")
		}
	}()
	return nil
}

// WaitVerified blocks until the background check started by Restore is done.
func (s *SessionStore) WaitVerified(ctx context.Context) error {
	s.mu.Lock()
	ch := s.verified
	s.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login exchanges credentials for a session. On failure the previous state is
// kept and the error message is recorded.
func (s *SessionStore) Login(ctx context.Context, username, password string) error {
	s.begin()
	resp, err := s.client.Login(ctx, models.LoginRequest{Username: username, Password: password})
	if err == nil {
		err = checkAuth(resp)
	}
	s.metrics.RecordOutcome(ctx, s.metrics.LoginsTotal, "login", err == nil)
	if err != nil {
		s.fail(api.Message(err, "Login failed"))
		return err
	}
	s.establish(ctx, resp)
	return nil
}

// Register creates an account and signs it in.
func (s *SessionStore) Register(ctx context.Context, req models.RegisterRequest) error {
	s.begin()
	resp, err := s.client.Register(ctx, req)
	if err == nil {
		err = checkAuth(resp)
	}
	s.metrics.RecordOutcome(ctx, s.metrics.LoginsTotal, "register", err == nil)
	if err != nil {
		s.fail(api.Message(err, "Registration failed"))
		return err
	}
	s.establish(ctx, resp)
	return nil
}

func checkAuth(resp *models.AuthResponse) error {
	if resp == nil || resp.AccessToken == "" || resp.User == nil || resp.User.ID == 0 {
		return ErrIncompleteAuth
	}
	return nil
}

func (s *SessionStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *SessionStore) fail(msg string) {
	s.mu.Lock()
	s.loading = false
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *SessionStore) establish(ctx context.Context, resp *models.AuthResponse) {
	s.persist(ctx, resp.AccessToken, resp.User)

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = resp.User
	s.loading = false
	s.errMsg = ""
	s.mu.Unlock()

	s.logger.Info().Str("user", userName(resp.User)).Msg("signed in")
	s.publish(SessionEvent{Type: EventLogin, User: resp.User})
}

// Logout forgets the session locally first, then tells the server. Errors
// from the server notification are logged only.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	token, user := s.token, s.user
	s.token = ""
	s.user = nil
	s.loading = false
	s.errMsg = ""
	s.mu.Unlock()

	s.clearPersisted(ctx)
	s.publish(SessionEvent{Type: EventLogout, User: user})

	if token == "" {
		return
	}
	if _, err := s.client.Logout(ctx, token); err != nil {
		s.logger.Debug().Err(err).Msg("logout notification failed")
	}
}

// Invalidate drops the current session after the server rejected it. It is
// idempotent: only the first call for an authenticated session has effect.
// It reports whether it cleared anything.
func (s *SessionStore) Invalidate(ctx context.Context, reason string) bool {
	return s.invalidateToken(ctx, "", reason)
}

// invalidateToken clears the session if it is still authenticated and, when
// token is set, still holds that token.
func (s *SessionStore) invalidateToken(ctx context.Context, token, reason string) bool {
	s.mu.Lock()
	if s.token == "" || (token != "" && s.token != token) {
		s.mu.Unlock()
		return false
	}
	user := s.user
	s.token = ""
	s.user = nil
	s.loading = false
	s.mu.Unlock()

	s.clearPersisted(ctx)
	s.metrics.SessionInvalidations.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("reason", reason),
	})...))
	s.logger.Warn().Str("reason", reason).Str("user", userName(user)).Msg("session invalidated")
	s.publish(SessionEvent{Type: EventInvalidated, User: user, Reason: reason})
	return true
}

// SetUser replaces the user record of the current session.
func (s *SessionStore) SetUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("set user: nil user")
	}
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.user = user
	s.mu.Unlock()

	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, storage.SlotUser, string(raw))
}

func (s *SessionStore) persist(ctx context.Context, token string, user *models.User) {
	raw, err := json.Marshal(user)
	if err == nil {
		err = s.store.Set(ctx, storage.SlotToken, token)
	}
	if err == nil {
		err = s.store.Set(ctx, storage.SlotUser, string(raw))
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session")
	}
}

func (s *SessionStore) clearPersisted(ctx context.Context) {
	if err := s.store.Delete(context.WithoutCancel(ctx), storage.SlotToken, storage.SlotUser); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear persisted session")
	}
}

// Session returns a snapshot of the current state.
func (s *SessionStore) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{
		Token:         s.token,
		User:          s.user,
		Authenticated: s.token != "" && s.user != nil,
	}
}

func (s *SessionStore) IsAuthenticated() bool { return s.Session().Authenticated }

// Token returns the bearer token, or "" when signed out.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Err returns the last login or registration error message.
func (s *SessionStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *SessionStore) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// Loading reports whether a login or registration is in flight.
func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// TokenExpiry reads the exp claim of the current token without verifying
// its signature. It is informational only.
func (s *SessionStore) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subscribe returns a channel of session events and a function that ends the
// subscription. Events are dropped for subscribers that fall behind.
func (s *SessionStore) Subscribe() (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, subscriberBuffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *SessionStore) publish(ev SessionEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn().Stringer("event", ev.Type).Msg("session subscriber is full, event dropped")
		}
	}
}

func userName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
