package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/detection"
	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/internal/nutrition"
	"github.com/JaimeStill/larder/internal/recipes"
	"github.com/JaimeStill/larder/internal/users"
	"github.com/JaimeStill/larder/internal/workflow"
)

var errDown = errors.New("service down")

type fakeCapturer struct {
	mu  sync.Mutex
	n   int
	err error
}

func (f *fakeCapturer) Begin(ctx context.Context, source capture.Source, data io.Reader) (capture.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return capture.Event{}, f.err
	}
	if source != capture.SourceSample {
		if data == nil {
			return capture.Event{}, capture.ErrEmptyImage
		}
		if b, _ := io.ReadAll(data); len(b) == 0 {
			return capture.Event{}, capture.ErrEmptyImage
		}
	}

	f.n++
	id := fmt.Sprintf("20240615_093005_%06x", f.n)
	return capture.Event{
		ID:            id,
		Source:        source,
		RawKey:        "fridge_images/" + id + ".jpg",
		AnnotatedKey:  "fridge_images/output/" + id + "_bbox.jpg",
		RawPath:       "/data/fridge_images/" + id + ".jpg",
		AnnotatedPath: "/data/fridge_images/output/" + id + "_bbox.jpg",
	}, nil
}

type fakeDetector struct {
	mu     sync.Mutex
	labels [][]string
	calls  int
	err    error
}

func (f *fakeDetector) Detect(ctx context.Context, rawKey, annotatedKey string) (detection.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return detection.Result{}, fmt.Errorf("%w: %v", detection.ErrUnavailable, f.err)
	}
	labels := f.labels[min(f.calls, len(f.labels)-1)]
	f.calls++
	return detection.Result{Labels: labels, AnnotatedPath: "/data/" + annotatedKey}, nil
}

type fakeRanker struct {
	mu       sync.Mutex
	results  [][]recipes.Recipe
	calls    int
	queries  [][]string
	err      error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeRanker) Rank(ctx context.Context, ingredients []string) ([]recipes.Recipe, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, ingredients)
	if f.err != nil {
		return nil, fmt.Errorf("%w: %v", recipes.ErrRankingUnavailable, f.err)
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r, nil
}

type fakeImages struct {
	missing map[int64]bool
	err     error
}

func (f *fakeImages) ImageURL(ctx context.Context, id int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.missing[id] {
		return "", nil
	}
	return fmt.Sprintf("https://img.example/%d.jpg", id), nil
}

type fakeUsers struct {
	users map[string]users.User
	burns map[int64]float64
	err   error
}

func (f *fakeUsers) GetUser(ctx context.Context, username string) (*users.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) DailyBurn(ctx context.Context, userID int64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.burns[userID], nil
}

type fakeNutrition struct {
	mu      sync.Mutex
	entries []nutrition.Entry
	err     error
}

func (f *fakeNutrition) AddPDV(ctx context.Context, userID int64, facts nutrition.Facts) (*nutrition.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	e := nutrition.Entry{ID: int64(len(f.entries) + 1), UserID: userID, Facts: facts}
	f.entries = append(f.entries, e)
	return &e, nil
}

func (f *fakeNutrition) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fixture struct {
	captures  *fakeCapturer
	detector  *fakeDetector
	ranker    *fakeRanker
	images    *fakeImages
	users     *fakeUsers
	nutrition *fakeNutrition
	sessions  *workflow.Sessions
}

func ptr(f float64) *float64 { return &f }

func bytesOf(s string) io.Reader { return strings.NewReader(s) }

func makeRecipes(ids ...int64) []recipes.Recipe {
	out := make([]recipes.Recipe, len(ids))
	for i, id := range ids {
		out[i] = recipes.Recipe{
			ID:       id,
			Name:     fmt.Sprintf("Recipe %d", id),
			Grade:    recipes.GradeB,
			Calories: ptr(float64(100 * id)),
			Protein:  ptr(12),
		}
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		captures: &fakeCapturer{},
		detector: &fakeDetector{labels: [][]string{{"apple", "car", "milk"}}},
		ranker:   &fakeRanker{results: [][]recipes.Recipe{makeRecipes(1, 2, 3)}},
		images:   &fakeImages{},
		users: &fakeUsers{
			users: map[string]users.User{
				"ana": {ID: 7, Username: "ana", Weight: ptr(60), Height: ptr(165), BirthDate: "1990-07-01", Gender: "F"},
			},
			burns: map[int64]float64{7: 450},
		},
		nutrition: &fakeNutrition{},
	}

	cfg := workflow.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("config: %v", err)
	}

	f.sessions = workflow.NewSessions(&workflow.Runtime{
		Captures:   f.captures,
		Detector:   f.detector,
		Ranker:     f.ranker,
		Images:     f.images,
		Users:      f.users,
		Nutrition:  f.nutrition,
		Vocabulary: ingredients.DefaultVocabulary(),
		Config:     cfg,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() { f.sessions.CloseAll() })

	return f
}

func (f *fixture) session(t *testing.T) *workflow.Session {
	t.Helper()
	s, err := f.sessions.Create(context.Background(), "ana")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return s
}
