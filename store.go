package main

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// State is the whole application state, one field per slice.
type State struct {
	Auth     AuthState
	Posts    PostsState
	Comments CommentsState
	Theme    ThemeState
}

func (st State) clone() State {
	if st.Auth.User != nil {
		u := *st.Auth.User
		st.Auth.User = &u
	}
	st.Posts.Posts = slices.Clone(st.Posts.Posts)
	if st.Posts.CurrentPost != nil {
		p := *st.Posts.CurrentPost
		st.Posts.CurrentPost = &p
	}
	st.Comments.Comments = slices.Clone(st.Comments.Comments)
	return st
}

// Store holds application state and runs the asynchronous operations that
// change it. Every operation moves its slice through pending and then
// fulfilled or rejected.
type Store struct {
	api *API
	kv  KeyValueStore

	mu       sync.Mutex
	state    State
	inflight map[uuid.UUID]*Task
}

// NewStore builds the initial state: the persisted token and theme are read
// from kv; the user behind the token is filled in by RestoreSession.
func NewStore(ctx context.Context, api *API, kv KeyValueStore) *Store {
	s := &Store{
		api:      api,
		kv:       kv,
		inflight: make(map[uuid.UUID]*Task),
	}
	s.state.Posts = initialPostsState()
	s.state.Theme = loadTheme(ctx, kv)

	token, found, err := kv.GetItem(ctx, tokenKey)
	if err != nil {
		log.Printf("WARNING: reading stored token: %v", err)
	}
	if found {
		s.state.Auth.Token = token
	}

	return s
}

// State returns a snapshot that is safe to read after the call.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Auth() AuthState {
	return s.State().Auth
}

func (s *Store) update(reduce func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reduce(&s.state)
}

// Task is one in-flight operation, identified by a request id.
type Task struct {
	ID   uuid.UUID
	Name string

	store  *Store
	cancel context.CancelFunc
	abort  func(*State)
	done   chan struct{}
	err    error
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the task's failure, valid after Done is closed.
func (t *Task) Err() error {
	return t.err
}

func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Cancel drops the task: its context is cancelled, its slice stops loading,
// and whatever it produces afterwards is discarded.
func (t *Task) Cancel() {
	t.store.drop(t)
	t.cancel()
}

func (s *Store) drop(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[t.ID]; !ok {
		return
	}
	delete(s.inflight, t.ID)
	if t.abort != nil {
		t.abort(&s.state)
	}
}

// thunk describes an asynchronous operation in terms of its reducers.
type thunk struct {
	name     string
	pending  func(*State)
	run      func(ctx context.Context) (func(*State), error)
	rejected func(*State, error)
	abort    func(*State)
	// after runs once the fulfilled result has been applied. A dropped
	// task never reaches it.
	after func(ctx context.Context)
}

func (s *Store) dispatch(ctx context.Context, th thunk) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:     uuid.New(),
		Name:   th.name,
		store:  s,
		cancel: cancel,
		abort:  th.abort,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if th.pending != nil {
		th.pending(&s.state)
	}
	s.inflight[t.ID] = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		defer cancel()

		fulfilled, err := th.run(ctx)
		if errors.Is(err, ErrTokenExpired) {
			s.forgetToken(ctx)
		}

		if !s.settle(t, th, fulfilled, err) {
			return
		}
		if err == nil && th.after != nil {
			th.after(ctx)
		}
	}()

	return t
}

// settle applies the outcome of t unless t was dropped in the meantime. It
// reports whether the outcome was applied.
func (s *Store) settle(t *Task, th thunk, fulfilled func(*State), err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[t.ID]; !ok {
		log.Printf("%s %s: dropped, ignoring result", t.Name, t.ID)
		t.err = ErrTaskCancelled
		return false
	}
	delete(s.inflight, t.ID)

	if err != nil {
		t.err = err
		if errors.Is(err, ErrTokenExpired) {
			s.state.Auth.expired(err)
		}
		if th.rejected != nil {
			th.rejected(&s.state, err)
		}
		return true
	}
	if fulfilled != nil {
		fulfilled(&s.state)
	}
	return true
}

// forgetToken removes the persisted bearer token. Failures are logged.
func (s *Store) forgetToken(ctx context.Context) {
	if err := s.kv.RemoveItem(context.WithoutCancel(ctx), tokenKey); err != nil {
		log.Printf("WARNING: removing stored token: %v", err)
	}
}

// InFlight reports how many tasks have not settled or been dropped.
func (s *Store) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
