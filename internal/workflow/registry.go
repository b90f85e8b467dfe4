package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/larder/pkg/lifecycle"
)

// Sessions creates, finds and ends workflow sessions. Sessions never share
// capture or recommendation state.
type Sessions struct {
	rt *Runtime

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions(rt *Runtime) *Sessions {
	rt.Logger = rt.Logger.With("system", "workflow")
	return &Sessions{
		rt:       rt,
		sessions: make(map[string]*Session),
	}
}

// Start registers a shutdown hook that closes every open session.
func (r *Sessions) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		n := r.CloseAll()
		r.rt.Logger.Info("workflow sessions closed", "count", n)
	})
	return nil
}

// Runtime exposes the collaborators shared by all sessions.
func (r *Sessions) Runtime() *Runtime {
	return r.rt
}

// Create loads the user's profile and daily burn and opens a session.
func (r *Sessions) Create(ctx context.Context, username string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	user, err := r.rt.Users.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	burn, err := r.rt.Users.DailyBurn(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("daily burn: %w", err)
	}

	s := newSession(uuid.NewString(), *user, burn, r.rt)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	s.logger.Info("session started")
	return s, nil
}

// Get returns the open session with id.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// End closes the session with id and forgets it.
func (r *Sessions) End(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	return nil
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll ends every open session and returns how many were closed.
func (r *Sessions) CloseAll() int {
	r.mu.Lock()
	open := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range open {
		wg.Go(s.Close)
	}
	wg.Wait()
	return len(open)
}
