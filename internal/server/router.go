package server

import (
	"context"
	"net/http"

	"formulab/internal/handlers"
	applog "formulab/internal/log"
)

type route struct {
	pattern string
	handler http.HandlerFunc
}

func routes() []route {
	return []route{
		{"/healthz", handlers.Health},
		{"/app/api/ingredients", handlers.IngredientResource},
		{"/app/api/ingredients/", handlers.IngredientResource},
		{"/app/api/packagings", handlers.PackagingResource},
		{"/app/api/packagings/", handlers.PackagingResource},
		{"/app/api/recipes", handlers.RecipeResource},
		{"/app/api/recipes/", handlers.RecipeResource},
		{"/app/api/formulation/preview", handlers.FormulationPreview},
		{"/app/reports/technical-sheet", handlers.TechnicalSheet},
		{"/app/reports/batch", handlers.GenerateBatchSheet},
		{"/app/preferences", handlers.UpdatePreferences},
	}
}

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	for _, r := range routes() {
		mux.HandleFunc(r.pattern, r.handler)
		applog.Debug(context.Background(), "route registered", "path", r.pattern)
	}
	return mux
}
