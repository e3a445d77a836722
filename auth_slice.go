package main

import (
	"context"
	"errors"
	"log"
	"time"
)

// AuthState is the session. The user counts as authenticated exactly when a
// token is present.
type AuthState struct {
	User      *User
	Token     string
	IsLoading bool
	Error     string
}

func (s AuthState) IsAuthenticated() bool {
	return s.Token != ""
}

func (s *AuthState) pending() {
	s.IsLoading = true
	s.Error = ""
}

func (s *AuthState) rejected(err error) {
	s.IsLoading = false
	s.Error = err.Error()
}

func (s *AuthState) authenticated(res AuthResult) {
	user := res.User
	s.User = &user
	s.Token = res.Token
	s.IsLoading = false
	s.Error = ""
}

func (s *AuthState) loggedOut() {
	s.User = nil
	s.Token = ""
	s.IsLoading = false
	s.Error = ""
}

// expired ends the session because the server no longer accepts its token.
func (s *AuthState) expired(err error) {
	s.loggedOut()
	s.Error = err.Error()
}

func (s *Store) ClearAuthError() {
	s.update(func(st *State) { st.Auth.Error = "" })
}

// SetCredentials installs a session obtained elsewhere.
func (s *Store) SetCredentials(user User, token string) {
	s.update(func(st *State) {
		st.Auth.authenticated(AuthResult{User: user, Token: token})
	})
}

func authAbort(st *State) { st.Auth.IsLoading = false }

func (s *Store) Login(ctx context.Context, email, password string) *Task {
	var res AuthResult
	return s.dispatch(ctx, thunk{
		name:    "auth/login",
		pending: func(st *State) { st.Auth.pending() },
		run: func(ctx context.Context) (func(*State), error) {
			var err error
			res, err = s.api.Login(ctx, email, password)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Auth.authenticated(res) }, nil
		},
		rejected: func(st *State, err error) { st.Auth.rejected(err) },
		abort:    authAbort,
		after:    func(ctx context.Context) { s.storeToken(ctx, res.Token) },
	})
}

func (s *Store) Register(ctx context.Context, name, email, password string) *Task {
	var res AuthResult
	return s.dispatch(ctx, thunk{
		name:    "auth/register",
		pending: func(st *State) { st.Auth.pending() },
		run: func(ctx context.Context) (func(*State), error) {
			var err error
			res, err = s.api.Register(ctx, name, email, password)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Auth.authenticated(res) }, nil
		},
		rejected: func(st *State, err error) { st.Auth.rejected(err) },
		abort:    authAbort,
		after:    func(ctx context.Context) { s.storeToken(ctx, res.Token) },
	})
}

func (s *Store) Logout(ctx context.Context) *Task {
	return s.dispatch(ctx, thunk{
		name:    "auth/logout",
		pending: func(st *State) { st.Auth.pending() },
		run: func(ctx context.Context) (func(*State), error) {
			return func(st *State) { st.Auth.loggedOut() }, nil
		},
		rejected: func(st *State, err error) { st.Auth.rejected(err) },
		abort:    authAbort,
		after:    s.forgetToken,
	})
}

// RestoreSession re-derives the user behind the persisted token. A token the
// API no longer accepts is discarded.
func (s *Store) RestoreSession(ctx context.Context) *Task {
	token := s.Auth().Token
	return s.dispatch(ctx, thunk{
		name:    "auth/restore",
		pending: func(st *State) { st.Auth.pending() },
		run: func(ctx context.Context) (func(*State), error) {
			if token == "" {
				return func(st *State) { st.Auth.IsLoading = false }, nil
			}
			user, err := s.api.CurrentUser(ctx, token)
			if errors.Is(err, ErrUnauthorized) {
				s.forgetToken(ctx)
			}
			if err != nil {
				return nil, err
			}
			return func(st *State) {
				st.Auth.authenticated(AuthResult{User: user, Token: token})
			}, nil
		},
		rejected: func(st *State, err error) {
			if errors.Is(err, ErrUnauthorized) {
				st.Auth.expired(err)
				return
			}
			st.Auth.rejected(err)
		},
		abort: authAbort,
	})
}

// ExpireSession logs out when the stored token has passed its expiry and
// expiry is enforced. It reports whether the session was ended.
func (s *Store) ExpireSession(ctx context.Context, now time.Time) bool {
	if !s.api.enforceExpiry {
		return false
	}

	token := s.Auth().Token
	if token == "" {
		return false
	}
	claims, err := parseToken(token)
	if err == nil && !claims.expired(now) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A login that landed since the token was read keeps its session.
	if s.state.Auth.Token != token {
		return false
	}
	s.state.Auth.expired(ErrTokenExpired)
	s.forgetToken(ctx)

	log.Printf("session expired, logged out")
	return true
}

func (s *Store) storeToken(ctx context.Context, token string) {
	if err := s.kv.SetItem(context.WithoutCancel(ctx), tokenKey, token); err != nil {
		log.Printf("WARNING: storing token: %v", err)
	}
}
