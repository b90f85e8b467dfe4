package ingredients

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/larder/pkg/handlers"
	"github.com/JaimeStill/larder/pkg/routes"
)

// Handler serves the selectable ingredient vocabulary.
type Handler struct {
	vocabulary Vocabulary
	logger     *slog.Logger
}

func NewHandler(vocabulary Vocabulary, logger *slog.Logger) *Handler {
	return &Handler{
		vocabulary: vocabulary,
		logger:     logger.With("handler", "vocabulary"),
	}
}

// Routes returns the route group definition for vocabulary endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/vocabulary",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

// List returns the vocabulary in display order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string][]string{
		"ingredients": h.vocabulary.Labels(),
	})
}
