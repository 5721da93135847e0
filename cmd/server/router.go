package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api"
	apiMiddleware "github.com/EytanA1983/Home-Organization-App-sub001/internal/api/middleware"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	recurrenceHandler := api.NewRecurrenceHandler(app.clock, app.logger)
	taskHandler := api.NewRecurringTaskHandler(app.recurringService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Rule endpoints need no store and no account.
		r.Post("/recurrence/validate", recurrenceHandler.Validate)
		r.Get("/recurrence/examples", recurrenceHandler.Examples)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/recurring-tasks", func(r chi.Router) {
				r.Post("/", taskHandler.CreateRecurringTask)
				r.Get("/", taskHandler.ListRecurringTasks)
				r.Get("/{id}", taskHandler.GetRecurringTask)
				r.Put("/{id}", taskHandler.UpdateRecurringTask)
				r.Delete("/{id}", taskHandler.DeleteRecurringTask)
				r.Get("/{id}/instances", taskHandler.ListInstances)
				r.Get("/{id}/occurrences", taskHandler.PreviewOccurrences)
				r.Post("/{id}/materialize", taskHandler.MaterializeRecurringTask)
			})

			r.Patch("/instances/{id}", taskHandler.UpdateInstance)
			r.Delete("/instances/{id}", taskHandler.DeleteInstance)
		})
	})

	r.Get("/health", app.health)

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// health reports whether the database is reachable.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		app.logger.Warn("health check failed", "error", err)
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
}
