package ingredients_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/pkg/routes"
)

func TestReconcile(t *testing.T) {
	vocab := ingredients.NewVocabulary("apple", "banana", "milk")

	tests := []struct {
		name     string
		detected []string
		manual   []string
		want     []string
	}{
		{"drops out-of-vocabulary labels", []string{"apple", "car"}, nil, []string{"apple"}},
		{"manual replaces detection", []string{"apple"}, []string{"banana"}, []string{"banana"}},
		{"keeps detection order", []string{"milk", "apple"}, nil, []string{"milk", "apple"}},
		{"keeps duplicates", []string{"apple", "apple", "banana"}, nil, []string{"apple", "apple", "banana"}},
		{"nothing detected", nil, nil, []string{}},
		{"manual without detection", nil, []string{"milk"}, []string{"milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ingredients.Reconcile(tt.detected, vocab, tt.manual)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Reconcile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcileDoesNotAliasManual(t *testing.T) {
	manual := []string{"banana"}
	got := ingredients.Reconcile(nil, ingredients.DefaultVocabulary(), manual)
	got[0] = "changed"

	if manual[0] != "banana" {
		t.Error("Reconcile should return a copy of the manual selection")
	}
}

func TestDefaultVocabulary(t *testing.T) {
	v := ingredients.DefaultVocabulary()

	if v.Len() != 30 {
		t.Errorf("len: got %d, want 30", v.Len())
	}
	for _, label := range []string{"apple", "chicken_breast", "tomato"} {
		if !v.Contains(label) {
			t.Errorf("vocabulary should contain %s", label)
		}
	}
	if v.Contains("car") {
		t.Error("vocabulary should not contain car")
	}
	if labels := v.Labels(); labels[0] != "apple" || labels[len(labels)-1] != "tomato" {
		t.Errorf("labels should keep display order, got %v", labels)
	}
}

func TestNewVocabularyDeduplicates(t *testing.T) {
	v := ingredients.NewVocabulary("milk", " milk ", "", "eggs")
	if got := v.Labels(); !slices.Equal(got, []string{"milk", "eggs"}) {
		t.Errorf("Labels() = %v, want [milk eggs]", got)
	}
}

func TestValidate(t *testing.T) {
	v := ingredients.DefaultVocabulary()

	got, err := v.Validate([]string{" eggs", "milk"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !slices.Equal(got, []string{"eggs", "milk"}) {
		t.Errorf("Validate() = %v", got)
	}

	_, err = v.Validate([]string{"eggs", "car"})
	if !errors.Is(err, ingredients.ErrUnknownIngredient) {
		t.Errorf("Validate(car) error = %v, want ErrUnknownIngredient", err)
	}
	if ingredients.MapHTTPStatus(err) != http.StatusBadRequest {
		t.Errorf("MapHTTPStatus() = %d, want 400", ingredients.MapHTTPStatus(err))
	}
}

func TestHandlerList(t *testing.T) {
	h := ingredients.NewHandler(ingredients.NewVocabulary("eggs", "milk"), slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/vocabulary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var body struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(body.Ingredients, []string{"eggs", "milk"}) {
		t.Errorf("ingredients: got %v", body.Ingredients)
	}
}
