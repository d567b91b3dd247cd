package client

import (
	"context"
	"net/http"
	"sync"
)

// SessionState is a snapshot of the signed-in user.
type SessionState struct {
	User          *User
	Authenticated bool
	Loading       bool
}

// Session owns the current user and the token lifecycle.
type Session struct {
	api    *API
	notify Notifier

	mu    sync.RWMutex
	state SessionState
}

func NewSession(api *API, notify Notifier) *Session {
	if notify == nil {
		notify = discardNotifier{}
	}
	s := &Session{api: api, notify: notify, state: SessionState{Loading: true}}
	api.OnUnauthorized(s.reset)
	return s
}

// State returns a copy of the current session state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	if state.User != nil {
		u := *state.User
		state.User = &u
	}
	return state
}

// Init resolves a persisted token into a profile. A token that no longer
// works is discarded.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.api.tokens.Load()
	if err != nil {
		s.reset()
		return err
	}
	if token == "" {
		s.reset()
		return nil
	}

	var out struct {
		User User `json:"user"`
	}
	if _, err := s.api.do(ctx, http.MethodGet, "/api/auth/profile", nil, nil, &out); err != nil {
		_ = s.api.tokens.Clear()
		s.reset()
		if IsUnauthorized(err) {
			return nil
		}
		return err
	}
	s.setUser(&out.User)
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) Result {
	return s.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "Login failed", "Login successful!")
}

func (s *Session) Register(ctx context.Context, name, email, password string) Result {
	return s.authenticate(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "Registration failed", "Registration successful!")
}

func (s *Session) authenticate(ctx context.Context, path string, body any, failure, success string) Result {
	var out struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	if _, err := s.api.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return s.failed(err, failure)
	}
	if err := s.api.tokens.Save(out.Token); err != nil {
		return s.failed(err, failure)
	}
	s.setUser(&out.User)
	s.notify.Notify(LevelSuccess, success)
	return Result{Success: true}
}

// Logout clears the local session even when the server call fails.
func (s *Session) Logout(ctx context.Context) Result {
	_, err := s.api.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	_ = s.api.tokens.Clear()
	s.reset()
	s.notify.Notify(LevelSuccess, "Logged out successfully")
	if err != nil {
		return Result{Success: true, Message: Message(err, "")}
	}
	return Result{Success: true}
}

// ProfileUpdate changes only the non-nil fields.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) Result {
	var out struct {
		User User `json:"user"`
	}
	if _, err := s.api.do(ctx, http.MethodPut, "/api/auth/profile", nil, update, &out); err != nil {
		return s.failed(err, "Profile update failed")
	}
	s.setUser(&out.User)
	s.notify.Notify(LevelSuccess, "Profile updated successfully!")
	return Result{Success: true}
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) Result {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	if _, err := s.api.do(ctx, http.MethodPut, "/api/auth/change-password", nil, body, nil); err != nil {
		return s.failed(err, "Password change failed")
	}
	s.notify.Notify(LevelSuccess, "Password changed successfully!")
	return Result{Success: true}
}

func (s *Session) failed(err error, fallback string) Result {
	msg := Message(err, fallback)
	s.notify.Notify(LevelError, msg)
	return Result{Success: false, Message: msg}
}

func (s *Session) setUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionState{User: u, Authenticated: true}
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionState{}
}
