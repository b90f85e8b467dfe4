package recipes_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/larder/internal/recipes"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseIngredients(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"quoted list", `["eggs", "whole milk", "butter"]`, []string{"eggs", "whole milk", "butter"}},
		{"bare list", "eggs, milk", []string{"eggs", "milk"}},
		{"single", `["salt"]`, []string{"salt"}},
		{"empty", "", []string{}},
		{"empty brackets", "[]", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recipes.ParseIngredients(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("ParseIngredients(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRecipeURL(t *testing.T) {
	got := recipes.RecipeURL("Easy Banana Bread", 12345)
	want := "https://www.food.com/recipe/easy-banana-bread-12345"
	if got != want {
		t.Errorf("RecipeURL() = %s, want %s", got, want)
	}
}

func TestGrade(t *testing.T) {
	g, err := recipes.ParseGrade(" b ")
	if err != nil || g != recipes.GradeB {
		t.Fatalf("ParseGrade(b) = %s, %v", g, err)
	}
	if g.Label() != "B (yellow)" {
		t.Errorf("Label() = %s", g.Label())
	}
	if _, err := recipes.ParseGrade("F"); !errors.Is(err, recipes.ErrInvalidRecipe) {
		t.Errorf("ParseGrade(F) error = %v, want ErrInvalidRecipe", err)
	}
}

func rankServer(t *testing.T, rows []map[string]any, gotIngredients *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rank" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Ingredients []string `json:"ingredients"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if gotIngredients != nil {
			*gotIngredients = req.Ingredients
		}
		json.NewEncoder(w).Encode(map[string]any{"recipes": rows})
	}))
}

func TestRankPreservesOrderAndOptionalFields(t *testing.T) {
	rows := []map[string]any{
		{"id": 3, "name": "Omelette", "grade": "a", "calories": 250.5, "total_fat_PDV": 20.0, "ingredients_list": `["eggs"]`},
		{"id": 1, "name": "Milkshake", "grade": "E", "sugar_PDV": 80.0},
		{"id": 0, "name": "No id", "grade": "A"},
		{"id": 4, "name": "", "grade": "A"},
		{"id": 5, "name": "Bad grade", "grade": "Z"},
		{"id": "six", "name": "Bad id type", "grade": "A"},
		{"id": 7.5, "name": "Fractional id", "grade": "A"},
		{"id": 8.0, "name": "Float fields", "grade": "B", "minutes": 30.0},
	}

	var sent []string
	srv := rankServer(t, rows, &sent)
	defer srv.Close()

	c := recipes.NewRankingClient(srv.URL, time.Second, discard())
	got, err := c.Rank(context.Background(), []string{"eggs", "milk"})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if !slices.Equal(sent, []string{"eggs", "milk"}) {
		t.Errorf("sent ingredients: got %v", sent)
	}
	if len(got) != 3 {
		t.Fatalf("recipes: got %d, want 3 valid rows", len(got))
	}
	if got[0].ID != 3 || got[1].ID != 1 || got[2].ID != 8 {
		t.Errorf("order: got ids %d, %d, %d; want 3, 1, 8", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[2].Minutes != 30 {
		t.Errorf("minutes: got %d, want 30", got[2].Minutes)
	}
	if got[0].Grade != recipes.GradeA {
		t.Errorf("grade should be normalised, got %s", got[0].Grade)
	}
	if got[0].Calories == nil || *got[0].Calories != 250.5 {
		t.Errorf("calories: got %v", got[0].Calories)
	}
	if got[0].Sugar != nil {
		t.Errorf("absent sugar should stay nil, got %v", *got[0].Sugar)
	}
	if got[1].Calories != nil || got[1].Sugar == nil {
		t.Errorf("second row optional fields wrong: calories=%v sugar=%v", got[1].Calories, got[1].Sugar)
	}
}

func TestRankEmptyInputSkipsService(t *testing.T) {
	c := recipes.NewRankingClient("http://127.0.0.1:1", time.Second, discard())
	got, err := c.Rank(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Rank(nil) = %v, %v; want empty, nil", got, err)
	}
}

func TestRankAcceptsAnySuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `{"recipes":[{"id":2,"name":"Toast","grade":"C","minutes":5}]}`)
	}))
	defer srv.Close()

	got, err := recipes.NewRankingClient(srv.URL, time.Second, discard()).
		Rank(context.Background(), []string{"bread"})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 || got[0].Minutes != 5 {
		t.Errorf("recipes: %+v", got)
	}
}

func TestRankUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "index offline", http.StatusServiceUnavailable)
		}},
		{"malformed", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := recipes.NewRankingClient(srv.URL, time.Second, discard()).
				Rank(context.Background(), []string{"eggs"})
			if !errors.Is(err, recipes.ErrRankingUnavailable) {
				t.Errorf("Rank() error = %v, want ErrRankingUnavailable", err)
			}
			if recipes.MapHTTPStatus(err) != http.StatusBadGateway {
				t.Errorf("MapHTTPStatus() = %d, want 502", recipes.MapHTTPStatus(err))
			}
		})
	}
}

func TestImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/7":
			json.NewEncoder(w).Encode(map[string]string{"url": "https://img.example/7.jpg"})
		case "/images/8":
			http.NotFound(w, r)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := recipes.NewImageClient(srv.URL+"/", time.Second, discard())

	tests := []struct {
		id      int64
		want    string
		wantErr error
	}{
		{7, "https://img.example/7.jpg", nil},
		{8, "", nil},
		{9, "", recipes.ErrImageUnavailable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.id), func(t *testing.T) {
			got, err := c.ImageURL(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ImageURL() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
