package workflow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/detection"
	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/internal/nutrition"
	"github.com/JaimeStill/larder/internal/recipes"
	"github.com/JaimeStill/larder/internal/users"
)

// Capturer begins capture events.
type Capturer interface {
	Begin(ctx context.Context, source capture.Source, data io.Reader) (capture.Event, error)
}

// Runtime bundles the collaborators sessions need. It is built by the
// composition code from infrastructure and domain systems.
type Runtime struct {
	Captures   Capturer
	Detector   detection.Detector
	Ranker     recipes.Ranker
	Images     recipes.ImageFinder
	Users      users.System
	Nutrition  nutrition.Recorder
	Vocabulary ingredients.Vocabulary
	Config     Config
	Logger     *slog.Logger
	Now        func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now()
}
