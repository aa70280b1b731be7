package auth

import (
	"context"
	"sync"
)

// Session is the client-side session state machine over
// {user, loading, error}. It mirrors the provider's session-change
// events and exposes login/register/logout with humanized errors.
type Session struct {
	provider Provider

	mu      sync.RWMutex
	user    *User
	loading bool
	lastErr string

	unsubscribe func()
}

// NewSession creates a session in the initial loading state.
func NewSession(p Provider) *Session {
	return &Session{provider: p, loading: true}
}

// Start subscribes to provider session-change events. The subscription
// replays the current state immediately, which clears loading.
// Call Close when the enclosing scope exits.
func (s *Session) Start() {
	s.unsubscribe = s.provider.Subscribe(func(u *User) {
		s.mu.Lock()
		s.user = u
		s.loading = false
		s.mu.Unlock()
	})
}

// Close tears down the provider subscription.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// CurrentUser returns the signed-in user, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UID returns the signed-in user's id, or "" when signed out.
func (s *Session) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.UID
}

// Loading reports whether the initial session state is still unknown or
// an auth operation is in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the humanized message of the last failed operation.
func (s *Session) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError resets the stored error.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Login signs in with email and password. On failure the humanized
// message is stored and the original error returned.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.beginOp()
	defer s.endOp()

	_, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.setError(err)
		return err
	}
	return nil
}

// Register creates an account (display name included) and signs in.
func (s *Session) Register(ctx context.Context, data RegisterData) error {
	s.beginOp()
	defer s.endOp()

	_, err := s.provider.SignUp(ctx, data)
	if err != nil {
		s.setError(err)
		return err
	}
	return nil
}

// Logout signs out. Unlike Login/Register it does not toggle loading.
func (s *Session) Logout(ctx context.Context) error {
	s.ClearError()
	if err := s.provider.SignOut(ctx); err != nil {
		s.setError(err)
		return err
	}
	return nil
}

func (s *Session) beginOp() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Session) endOp() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastErr = HumanizeError(err)
	s.mu.Unlock()
}
