package api

import (
	"net/http"

	"github.com/JaimeStill/larder/internal/ingredients"
	"github.com/JaimeStill/larder/internal/nutrition"
	"github.com/JaimeStill/larder/internal/workflow"
	"github.com/JaimeStill/larder/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) []string {
	return routes.Register(
		mux,
		ingredients.NewHandler(domain.Vocabulary, runtime.Logger).Routes(),
		workflow.NewHandler(domain.Sessions, runtime.Logger, runtime.Config.API.MaxUploadSizeBytes()).Routes(),
		nutrition.NewHandler(domain.Nutrition, domain.Users, runtime.Logger, runtime.Config.API.Pagination).Routes(),
		newFilesHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
