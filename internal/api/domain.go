package api

import (
	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/detection"
	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/internal/nutrition"
	"github.com/JaimeStill/larder/internal/recipes"
	"github.com/JaimeStill/larder/internal/users"
	"github.com/JaimeStill/larder/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Vocabulary ingredients.Vocabulary
	Users      users.System
	Nutrition  nutrition.System
	Sessions   *workflow.Sessions
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	cfg := runtime.Config
	db := runtime.Database.Connection()

	captures := capture.New(
		runtime.Storage,
		capture.Config{
			CaptureDir:  cfg.Workflow.CaptureDir,
			OutputDir:   cfg.Workflow.OutputDir,
			SampleImage: cfg.Workflow.SampleImage,
		},
		runtime.Logger,
	)

	detector := detection.New(
		cfg.Detection.URL,
		cfg.Detection.TimeoutDuration(),
		runtime.Storage,
		runtime.Logger,
	)

	vocabulary := ingredients.DefaultVocabulary()
	usersSys := users.New(db, runtime.Logger)
	nutritionSys := nutrition.New(db, runtime.Logger, cfg.API.Pagination)

	sessions := workflow.NewSessions(&workflow.Runtime{
		Captures:   captures,
		Detector:   detector,
		Ranker:     recipes.NewRankingClient(cfg.Ranking.URL, cfg.Ranking.TimeoutDuration(), runtime.Logger),
		Images:     recipes.NewImageClient(cfg.Images.URL, cfg.Images.TimeoutDuration(), runtime.Logger),
		Users:      usersSys,
		Nutrition:  nutritionSys,
		Vocabulary: vocabulary,
		Config:     cfg.Workflow,
		Logger:     runtime.Logger,
	})

	return &Domain{
		Vocabulary: vocabulary,
		Users:      usersSys,
		Nutrition:  nutritionSys,
		Sessions:   sessions,
	}
}
