package workflow

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/energy"
	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/internal/users"
)

// Snapshot is a read-only copy of session state.
type Snapshot struct {
	ID              string             `json:"id"`
	Username        string             `json:"username"`
	State           State              `json:"state"`
	CameraActive    bool               `json:"camera_active"`
	Capture         *capture.Event     `json:"capture,omitempty"`
	Detected        []string           `json:"detected"`
	Manual          []string           `json:"manual"`
	Selection       []string           `json:"selection"`
	Recommendations *RecommendationSet `json:"recommendations,omitempty"`
	Needs           energy.Needs       `json:"needs"`
	StartedAt       time.Time          `json:"started_at"`
}

type reply struct {
	outcome Outcome
	err     error
}

type job struct {
	ctx   context.Context
	event Event
	reply chan reply
}

type handlerFunc func(ctx context.Context, ev Event, out *Outcome) error

// Session is the private state of one user's interaction. Events run one at
// a time on the session's own goroutine; the mutex only guards reads made
// from other goroutines.
type Session struct {
	id        string
	user      users.User
	burn      float64
	startedAt time.Time
	rt        *Runtime
	logger    *slog.Logger
	handlers  map[EventKind]handlerFunc

	mu           sync.RWMutex
	state        State
	cameraActive bool
	capture      *capture.Event
	detected     []string
	manual       []string
	recs         *RecommendationSet
	version      int

	queue     chan job
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newSession(id string, user users.User, burn float64, rt *Runtime) *Session {
	s := &Session{
		id:        id,
		user:      user,
		burn:      burn,
		startedAt: rt.now(),
		rt:        rt,
		logger:    rt.Logger.With("session", id, "user", user.Username),
		state:     StateIdle,
		queue:     make(chan job, rt.Config.QueueDepth),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	s.handlers = map[EventKind]handlerFunc{
		EventCapture:   s.onCapture,
		EventSelection: s.onSelection,
		EventSearch:    s.onSearch,
		EventSave:      s.onSave,
		EventCamera:    s.onCamera,
	}

	go s.run()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) User() users.User {
	return s.user
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch queues ev behind any earlier events and waits for its outcome.
// If ctx ends first Dispatch returns ctx.Err(); the queued event still runs
// with the cancelled context.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	j := job{ctx: ctx, event: ev, reply: make(chan reply, 1)}

	select {
	case <-s.done:
		return Outcome{}, ErrSessionClosed
	default:
	}

	select {
	case s.queue <- j:
	case <-s.done:
		return Outcome{}, ErrSessionClosed
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.outcome, r.err
	case <-s.stopped:
		select {
		case r := <-j.reply:
			return r.outcome, r.err
		default:
			return Outcome{}, ErrSessionClosed
		}
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Capture stores an image from source and runs detection on it.
func (s *Session) Capture(ctx context.Context, source capture.Source, image []byte) (Outcome, error) {
	return s.Dispatch(ctx, CaptureEvent(source, bytes.NewReader(image)))
}

// Select replaces the manual ingredient selection.
func (s *Session) Select(ctx context.Context, ingredients []string) (Outcome, error) {
	return s.Dispatch(ctx, SelectionEvent(ingredients))
}

// FindRecipes ranks recipes for the effective selection.
func (s *Session) FindRecipes(ctx context.Context) (Outcome, error) {
	return s.Dispatch(ctx, SearchEvent())
}

// SaveRecipe records the nutrition facts of a displayed recipe.
func (s *Session) SaveRecipe(ctx context.Context, recipeID int64) (Outcome, error) {
	return s.Dispatch(ctx, SaveEvent(recipeID))
}

// SetCamera switches the camera on or off; nil toggles it.
func (s *Session) SetCamera(ctx context.Context, active *bool) (Outcome, error) {
	return s.Dispatch(ctx, CameraEvent(active))
}

// Selection returns the effective ingredient selection.
func (s *Session) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ingredients.Reconcile(s.detected, s.rt.Vocabulary, s.manual)
}

// Recommendations returns the current recommendation set, or nil.
func (s *Session) Recommendations() *RecommendationSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:              s.id,
		Username:        s.user.Username,
		State:           s.state,
		CameraActive:    s.cameraActive,
		Capture:         s.capture,
		Detected:        nonNil(s.detected),
		Manual:          nonNil(s.manual),
		Selection:       ingredients.Reconcile(s.detected, s.rt.Vocabulary, s.manual),
		Recommendations: s.recs,
		Needs:           energy.Estimate(s.user.Profile(), s.burn, s.rt.now()),
		StartedAt:       s.startedAt,
	}
	return snap
}

// Energy recomputes the user's energy needs from a fresh daily burn figure.
func (s *Session) Energy(ctx context.Context) (energy.Needs, error) {
	burn, err := s.rt.Users.DailyBurn(ctx, s.user.ID)
	if err != nil {
		return energy.Needs{}, fmt.Errorf("daily burn: %w", err)
	}

	s.mu.Lock()
	s.burn = burn
	s.mu.Unlock()

	return energy.Estimate(s.user.Profile(), burn, s.rt.now()), nil
}

// Close stops the session goroutine and clears interaction state. Events
// still queued fail with ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped

		s.mu.Lock()
		s.capture = nil
		s.detected = nil
		s.manual = nil
		s.recs = nil
		s.state = StateIdle
		s.mu.Unlock()

		s.logger.Info("session closed")
	})
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case j := <-s.queue:
			s.handle(j)
		case <-s.done:
			for {
				select {
				case j := <-s.queue:
					j.reply <- reply{err: ErrSessionClosed}
				default:
					return
				}
			}
		}
	}
}

func (s *Session) handle(j job) {
	h, ok := s.handlers[j.event.Kind]
	if !ok {
		j.reply <- reply{err: fmt.Errorf("%w: %q", ErrUnknownEvent, j.event.Kind)}
		return
	}

	if err := j.ctx.Err(); err != nil {
		j.reply <- reply{err: err}
		return
	}

	out := Outcome{Kind: j.event.Kind, Notices: []Notice{}}
	if err := h(j.ctx, j.event, &out); err != nil {
		s.logger.Warn("event rejected", "kind", j.event.Kind, "error", err)
		j.reply <- reply{err: err}
		return
	}

	out.Session = s.Snapshot()
	j.reply <- reply{outcome: out}
}

// setState moves to the given state if the transition table allows it.
// Only the session goroutine calls setState.
func (s *Session) setState(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkTransition(s.state, to); err != nil {
		return err
	}
	s.logger.Debug("state change", "from", s.state, "to", to)
	s.state = to
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return slices.Clone(v)
}
