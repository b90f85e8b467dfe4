package nutrition

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/larder/internal/users"
	"github.com/JaimeStill/larder/pkg/pagination"
	"github.com/JaimeStill/larder/pkg/routes"
)

type stubUsers map[string]int64

func (s stubUsers) GetUser(ctx context.Context, username string) (*users.User, error) {
	id, ok := s[username]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &users.User{ID: id, Username: username}, nil
}

type stubHistory struct {
	userID int64
	page   pagination.PageRequest
}

func (s *stubHistory) AddPDV(ctx context.Context, userID int64, facts Facts) (*Entry, error) {
	return nil, nil
}

func (s *stubHistory) History(ctx context.Context, userID int64, page pagination.PageRequest) (*pagination.PageResult[Entry], error) {
	s.userID, s.page = userID, page
	cal := 250.0
	entries := []Entry{{ID: 1, UserID: userID, Facts: Facts{Calories: &cal}}}
	result := pagination.NewPageResult(entries, 1, page.Page, page.PageSize)
	return &result, nil
}

func TestHandlerHistory(t *testing.T) {
	sys := &stubHistory{}
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(sys, stubUsers{"ana": 7}, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)

	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/users/ana/nutrition?page=2&page_size=5&sort=-calories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	if sys.userID != 7 || sys.page.Page != 2 || sys.page.PageSize != 5 || len(sys.page.Sort) != 1 {
		t.Errorf("request passed through: user %d page %+v", sys.userID, sys.page)
	}

	var body pagination.PageResult[Entry]
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || *body.Data[0].Calories != 250 {
		t.Errorf("data: %+v", body.Data)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/users/nobody/nutrition", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: got %d, want 404", rec.Code)
	}
}

type entryRow struct {
	values []any
}

func (r entryRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *sql.NullFloat64:
			if v, ok := r.values[i].(float64); ok {
				*p = sql.NullFloat64{Float64: v, Valid: true}
			} else {
				*p = sql.NullFloat64{}
			}
		}
	}
	return nil
}

func TestScanEntry(t *testing.T) {
	logged := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	row := entryRow{values: []any{
		int64(4), int64(7), logged,
		410.0, 18.0, nil, 22.0, 35.0, nil, 12.0,
	}}

	e, err := scanEntry(row)
	if err != nil {
		t.Fatalf("scanEntry() error = %v", err)
	}

	if e.ID != 4 || e.UserID != 7 || !e.LoggedAt.Equal(logged) {
		t.Errorf("identity: %+v", e)
	}
	if *e.Calories != 410 || *e.TotalFat != 18 || *e.Sodium != 22 || *e.Protein != 35 || *e.Carbohydrates != 12 {
		t.Errorf("facts: %+v", e.Facts)
	}
	if e.Sugar != nil || e.SaturatedFat != nil {
		t.Error("NULL columns should stay absent")
	}
}
