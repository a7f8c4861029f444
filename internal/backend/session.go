package backend

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// Session holds the identity-provider bearer token shared by every
// collaborator and schedules a refresh callback shortly before the
// token expires.
//
// The token is decoded without signature verification: Homedeck is a
// client of the identity provider, not a verifier, and only needs the
// exp claim for scheduling.
type Session struct {
	mu        sync.Mutex
	token     string
	leeway    time.Duration
	timer     *time.Timer
	onRefresh func()
	logger    *logging.Logger
}

// NewSession creates a session that requests a refresh leeway before
// token expiry.
func NewSession(leeway time.Duration, logger *logging.Logger) *Session {
	return &Session{
		leeway: leeway,
		logger: logger.With("component", "session"),
	}
}

// SetOnRefresh registers the callback invoked when the current token
// approaches expiry. The callback runs on a timer goroutine and should
// obtain a fresh token and call SetToken again.
func (s *Session) SetOnRefresh(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

// SetToken installs a new bearer token and reschedules the refresh.
// Tokens without a readable exp claim are stored but never trigger a
// refresh; the failure is logged, not surfaced.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.stopTimerLocked()

	if token == "" {
		return
	}

	exp, err := tokenExpiry(token)
	if err != nil {
		s.logger.Warn("token expiry unreadable, refresh not scheduled", "error", err)
		return
	}

	wait := time.Until(exp) - s.leeway
	if wait < 0 {
		wait = 0
	}
	s.timer = time.AfterFunc(wait, s.refresh)
	s.logger.Debug("token refresh scheduled", "in", wait.String())
}

// Token returns the current bearer token, empty after Clear.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Clear drops the token and cancels any scheduled refresh. Called on
// logout so no collaborator sends a stale credential.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.stopTimerLocked()
}

func (s *Session) refresh() {
	s.mu.Lock()
	fn := s.onRefresh
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// tokenExpiry extracts the exp claim from a JWT without verifying it.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, jwt.ErrTokenRequiredClaimMissing
	}
	return exp.Time, nil
}
