// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/larder/internal/config"
	"github.com/JaimeStill/larder/internal/infrastructure"
	"github.com/JaimeStill/larder/pkg/middleware"
	"github.com/JaimeStill/larder/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The session registry is registered with the lifecycle so open sessions are
// closed on shutdown.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := domain.Sessions.Start(runtime.Lifecycle); err != nil {
		return nil, fmt.Errorf("sessions start failed: %w", err)
	}

	mux := http.NewServeMux()
	patterns := registerRoutes(mux, domain, runtime)
	runtime.Logger.Info("routes registered", "count", len(patterns))

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
