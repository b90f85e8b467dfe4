// Package ingredients reconciles detected ingredient labels with the fixed
// selection vocabulary and a user's manual choices.
package ingredients

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

var (
	ErrUnknownIngredient = errors.New("ingredient is not in the vocabulary")
)

// MapHTTPStatus maps ingredient errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnknownIngredient) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var defaultLabels = []string{
	"apple", "banana", "beef", "blueberries", "bread", "butter", "carrot",
	"cheese", "chicken", "chicken_breast", "chocolate", "corn", "eggs",
	"flour", "goat_cheese", "green_beans", "ground_beef", "ham", "heavy_cream",
	"lime", "milk", "mushrooms", "onion", "potato", "shrimp", "spinach",
	"strawberries", "sugar", "sweet_potato", "tomato",
}

// Vocabulary is the ordered set of ingredients a user may select.
type Vocabulary struct {
	labels []string
	index  map[string]struct{}
}

// NewVocabulary builds a vocabulary from labels, dropping blanks and repeats
// while keeping first-seen order.
func NewVocabulary(labels ...string) Vocabulary {
	v := Vocabulary{index: make(map[string]struct{}, len(labels))}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, seen := v.index[l]; seen {
			continue
		}
		v.index[l] = struct{}{}
		v.labels = append(v.labels, l)
	}
	return v
}

// DefaultVocabulary returns the built-in selection vocabulary.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(defaultLabels...)
}

func (v Vocabulary) Contains(label string) bool {
	_, ok := v.index[label]
	return ok
}

// Labels returns a copy of the vocabulary in display order.
func (v Vocabulary) Labels() []string {
	return slices.Clone(v.labels)
}

func (v Vocabulary) Len() int {
	return len(v.labels)
}

// Validate checks that every manual entry is part of the vocabulary and
// returns the entries with surrounding whitespace removed.
func (v Vocabulary) Validate(manual []string) ([]string, error) {
	out := make([]string, 0, len(manual))
	for _, m := range manual {
		m = strings.TrimSpace(m)
		if !v.Contains(m) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownIngredient, m)
		}
		out = append(out, m)
	}
	return out, nil
}

// Filter returns the ordered subsequence of detected labels that belong to
// the vocabulary. Repeated labels are kept.
func (v Vocabulary) Filter(detected []string) []string {
	out := make([]string, 0, len(detected))
	for _, d := range detected {
		if v.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// Reconcile returns the effective selection: manual when it is non-empty,
// otherwise the vocabulary members of detected in detection order.
func Reconcile(detected []string, vocabulary Vocabulary, manual []string) []string {
	if len(manual) > 0 {
		return slices.Clone(manual)
	}
	return vocabulary.Filter(detected)
}
