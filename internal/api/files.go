package api

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/larder/pkg/handlers"
	"github.com/JaimeStill/larder/pkg/routes"
	"github.com/JaimeStill/larder/pkg/storage"
)

// filesHandler serves stored capture images, raw and annotated, by storage key.
type filesHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newFilesHandler(store storage.System, logger *slog.Logger) *filesHandler {
	return &filesHandler{
		store:  store,
		logger: logger.With("handler", "files"),
	}
}

func (h *filesHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/files",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.find},
		},
	}
}

func (h *filesHandler) find(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Open(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	br := bufio.NewReader(body)
	head, _ := br.Peek(512)

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, br); err != nil {
		h.logger.Warn("file stream interrupted", "key", key, "error", err)
	}
}
