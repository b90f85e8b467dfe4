package nutrition

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/larder/internal/users"
	"github.com/JaimeStill/larder/pkg/handlers"
	"github.com/JaimeStill/larder/pkg/pagination"
	"github.com/JaimeStill/larder/pkg/routes"
)

// UserFinder resolves a username to its stored account.
type UserFinder interface {
	GetUser(ctx context.Context, username string) (*users.User, error)
}

// Handler exposes a user's nutrition history over HTTP.
type Handler struct {
	sys        System
	users      UserFinder
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(sys System, finder UserFinder, logger *slog.Logger, pageCfg pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		users:      finder,
		logger:     logger.With("handler", "nutrition"),
		pagination: pageCfg,
	}
}

// Routes returns the route group definition for nutrition history.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/users",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{username}/nutrition", Handler: h.History},
		},
	}
}

// History lists saved entries. Query parameters: page, page_size, sort.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), r.PathValue("username"))
	if err != nil {
		handlers.RespondError(w, h.logger, users.MapHTTPStatus(err), err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.History(r.Context(), user.ID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
