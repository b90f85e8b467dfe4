package workflow

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/detection"
	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/internal/nutrition"
	"github.com/JaimeStill/larder/internal/recipes"
	"github.com/JaimeStill/larder/internal/users"
	"github.com/JaimeStill/larder/pkg/handlers"
	"github.com/JaimeStill/larder/pkg/routes"
)

// Handler exposes sessions over HTTP.
type Handler struct {
	sessions      *Sessions
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(sessions *Sessions, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sessions:      sessions,
		logger:        logger.With("handler", "sessions"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.End},
			{Method: "GET", Pattern: "/{id}/energy", Handler: h.Energy},
			{Method: "POST", Pattern: "/{id}/captures", Handler: h.Capture},
			{Method: "POST", Pattern: "/{id}/captures/sample", Handler: h.CaptureSample},
			{Method: "PUT", Pattern: "/{id}/selection", Handler: h.Select},
			{Method: "PUT", Pattern: "/{id}/camera", Handler: h.Camera},
			{Method: "POST", Pattern: "/{id}/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{id}/recipes/{recipeID}/save", Handler: h.Save},
			{Method: "GET", Pattern: "/{id}/recipes/{recipeID}/image", Handler: h.Image},
		},
	}
}

type createRequest struct {
	Username string `json:"username"`
}

type selectionRequest struct {
	Ingredients []string `json:"ingredients"`
}

type cameraRequest struct {
	Active *bool `json:"active"`
}

var (
	errInvalidBody     = errors.New("invalid request body")
	errInvalidRecipeID = errors.New("invalid recipe id")
	errMissingImage    = errors.New("multipart field \"image\" is required")
)

// Create starts a session for the given username.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[createRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}

	s, err := h.sessions.Create(r.Context(), req.Username)
	if err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, s.Snapshot())
}

// Find returns the session snapshot.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, s.Snapshot())
}

// End closes the session.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type energyResponse struct {
	BMR       float64 `json:"bmr"`
	DailyBurn float64 `json:"daily_burn"`
	TDEE      float64 `json:"tdee"`
	Age       int     `json:"age"`
	Guidance  string  `json:"guidance"`
}

// Energy returns BMR, daily burn and TDEE for the session user.
func (h *Handler) Energy(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	needs, err := s.Energy(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, energyResponse{
		BMR:       needs.BMR,
		DailyBurn: needs.DailyBurn,
		TDEE:      needs.TDEE,
		Age:       needs.Age,
		Guidance:  needs.Guidance(),
	})
}

// Capture accepts a multipart upload with an "image" file and a "source"
// field of camera or upload, then runs detection.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, capture.ErrImageTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}

	source, err := capture.ParseSource(r.FormValue("source"))
	if err != nil || source == capture.SourceSample {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, capture.ErrInvalidSource)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errMissingImage)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}
	if err := capture.CheckImage(data); err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}

	out, err := s.Capture(r.Context(), source, data)
	h.respondOutcome(w, out, err)
}

// CaptureSample runs detection on the configured sample image.
func (h *Handler) CaptureSample(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out, err := s.Capture(r.Context(), capture.SourceSample, nil)
	h.respondOutcome(w, out, err)
}

// Select replaces the manual ingredient selection.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	req, err := handlers.DecodeJSON[selectionRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}

	out, err := s.Select(r.Context(), req.Ingredients)
	h.respondOutcome(w, out, err)
}

// Camera sets the camera state, or toggles it when "active" is omitted.
func (h *Handler) Camera(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req cameraRequest
	if r.ContentLength != 0 {
		if req, ok = h.decodeCamera(w, r); !ok {
			return
		}
	}

	out, err := s.SetCamera(r.Context(), req.Active)
	h.respondOutcome(w, out, err)
}

func (h *Handler) decodeCamera(w http.ResponseWriter, r *http.Request) (cameraRequest, bool) {
	req, err := handlers.DecodeJSON[cameraRequest](r)
	if err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidBody)
		return req, false
	}
	return req, true
}

// Search ranks recipes for the current selection.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out, err := s.FindRecipes(r.Context())
	h.respondOutcome(w, out, err)
}

// Save records the nutrition facts of a displayed recipe.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	out, err := s.SaveRecipe(r.Context(), id)
	h.respondOutcome(w, out, err)
}

type imageResponse struct {
	RecipeID int64  `json:"recipe_id"`
	URL      string `json:"url,omitempty"`
	Link     string `json:"link"`
}

// Image resolves the image URL of a displayed recipe. A recipe without an
// image returns an empty url.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	url, err := s.ImageURL(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}

	recipe, _ := s.Recommendations().find(id)
	handlers.RespondJSON(w, http.StatusOK, imageResponse{
		RecipeID: id,
		URL:      url,
		Link:     recipe.URL(),
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return nil, false
	}
	return s, true
}

func (h *Handler) recipeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("recipeID"), 10, 64)
	if err != nil || id <= 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRecipeID)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondOutcome(w http.ResponseWriter, out Outcome, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, out)
}

// statusOf consults each domain's status mapping and returns the first
// specific status.
func statusOf(err error) int {
	mappers := []func(error) int{
		MapHTTPStatus,
		capture.MapHTTPStatus,
		ingredients.MapHTTPStatus,
		users.MapHTTPStatus,
		detection.MapHTTPStatus,
		recipes.MapHTTPStatus,
		nutrition.MapHTTPStatus,
	}
	for _, m := range mappers {
		if status := m(err); status != http.StatusInternalServerError {
			return status
		}
	}
	return http.StatusInternalServerError
}
