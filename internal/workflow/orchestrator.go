package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/nutrition"
	"github.com/JaimeStill/larder/internal/recipes"
)

func (s *Session) onCapture(ctx context.Context, ev Event, out *Outcome) error {
	if ev.Source == capture.SourceCamera && !s.cameraActiveNow() {
		return ErrCameraInactive
	}
	if err := checkTransition(s.State(), StateCapturing); err != nil {
		return err
	}

	ce, err := s.rt.Captures.Begin(ctx, ev.Source, ev.Image)
	if err != nil {
		if errors.Is(err, capture.ErrCaptureFailed) {
			s.logger.Error("capture failed", "source", ev.Source, "error", err)
			out.notify(LevelError, CodeCaptureFailed, "The image could not be saved. Please try again.")
			return nil
		}
		return err
	}

	if err := s.setState(StateCapturing); err != nil {
		return err
	}
	s.mu.Lock()
	s.capture = &ce
	s.detected = nil
	s.mu.Unlock()

	res, err := s.rt.Detector.Detect(ctx, ce.RawKey, ce.AnnotatedKey)
	if err != nil {
		s.logger.Warn("detection unavailable", "capture", ce.ID, "error", err)
		out.notify(LevelWarning, CodeDetectionUnavailable,
			"Ingredient detection is unavailable. Retry or choose ingredients manually.")
		return nil
	}

	if err := s.setState(StateDetected); err != nil {
		return err
	}
	s.mu.Lock()
	s.detected = slices.Clone(res.Labels)
	s.mu.Unlock()

	out.Detection = &res
	out.notify(LevelInfo, CodeDetected, fmt.Sprintf("Detected %d ingredient(s).", len(res.Labels)))

	return s.setState(StateSelecting)
}

func (s *Session) onSelection(ctx context.Context, ev Event, out *Outcome) error {
	manual, err := s.rt.Vocabulary.Validate(ev.Ingredients)
	if err != nil {
		return err
	}
	if err := s.setState(StateSelecting); err != nil {
		return err
	}

	s.mu.Lock()
	s.manual = manual
	s.mu.Unlock()
	return nil
}

func (s *Session) onSearch(ctx context.Context, ev Event, out *Outcome) error {
	selection := s.Selection()
	if len(selection) == 0 {
		out.notify(LevelWarning, CodeEmptySelection, ErrEmptySelection.Error())
		return nil
	}

	prior := s.State()
	if err := s.setState(StateQuerying); err != nil {
		return err
	}

	ranked, err := s.rt.Ranker.Rank(ctx, selection)
	if err != nil {
		s.logger.Warn("ranking unavailable", "error", err)
		out.notify(LevelError, CodeRankingUnavailable,
			"Recipe search is unavailable. Previous results are kept.")
		return s.setState(prior)
	}

	if len(ranked) == 0 {
		out.notify(LevelInfo, CodeNoMatches, "No recipes match the selected ingredients.")
		return s.setState(StateDisplaying)
	}

	top := ranked[:min(len(ranked), s.rt.Config.TopN)]

	s.mu.Lock()
	s.version++
	set := &RecommendationSet{
		Version:   s.version,
		Query:     slices.Clone(selection),
		Recipes:   slices.Clone(top),
		CreatedAt: s.rt.now(),
	}
	s.recs = set
	s.mu.Unlock()

	out.notify(LevelInfo, CodeRecipesFound, fmt.Sprintf("Found a top-%d of matching recipes.", len(top)))

	if s.rt.Images != nil {
		images, err := s.lookupImages(ctx, set.Recipes)
		out.Images = images
		if err != nil {
			s.logger.Warn("image lookup failed", "error", err)
			out.notify(LevelInfo, CodeImagesUnavailable, "Some recipe images could not be loaded.")
		}
	}

	return s.setState(StateDisplaying)
}

func (s *Session) onSave(ctx context.Context, ev Event, out *Outcome) error {
	s.mu.RLock()
	recs, state := s.recs, s.state
	s.mu.RUnlock()

	if recs == nil {
		return ErrNoRecommendations
	}
	recipe, ok := recs.find(ev.RecipeID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrRecipeNotFound, ev.RecipeID)
	}
	if err := checkTransition(state, StateSaving); err != nil {
		return err
	}

	if err := s.setState(StateSaving); err != nil {
		return err
	}

	entry, err := s.rt.Nutrition.AddPDV(ctx, s.user.ID, factsOf(recipe))
	if err != nil {
		s.logger.Error("save recipe failed", "recipe", recipe.ID, "error", err)
		out.notify(LevelError, CodePersistenceFailure,
			fmt.Sprintf("%s could not be added to your plan.", recipe.Name))
	} else {
		out.Entry = entry
		out.notify(LevelInfo, CodeSaved, fmt.Sprintf("%s added to your plan.", recipe.Name))
	}

	return s.setState(state)
}

func (s *Session) onCamera(ctx context.Context, ev Event, out *Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.CameraActive != nil {
		s.cameraActive = *ev.CameraActive
	} else {
		s.cameraActive = !s.cameraActive
	}
	return nil
}

func (s *Session) cameraActiveNow() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameraActive
}

// ImageURL resolves the image of a recipe in the current results.
// An empty string means the service has no image for it.
func (s *Session) ImageURL(ctx context.Context, recipeID int64) (string, error) {
	recs := s.Recommendations()
	if recs == nil {
		return "", ErrNoRecommendations
	}
	if _, ok := recs.find(recipeID); !ok {
		return "", fmt.Errorf("%w: %d", ErrRecipeNotFound, recipeID)
	}
	if s.rt.Images == nil {
		return "", nil
	}
	return s.rt.Images.ImageURL(ctx, recipeID)
}

func factsOf(r recipes.Recipe) nutrition.Facts {
	return nutrition.Facts{
		Calories:      r.Calories,
		TotalFat:      r.TotalFat,
		Sugar:         r.Sugar,
		Sodium:        r.Sodium,
		Protein:       r.Protein,
		SaturatedFat:  r.SaturatedFat,
		Carbohydrates: r.Carbohydrates,
	}
}
