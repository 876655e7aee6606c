package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/sheepify-api/internal/api"
	apiMiddleware "github.com/phrazzld/sheepify-api/internal/api/middleware"
	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/metrics"
)

// requestTimeout bounds every API request.
const requestTimeout = 30 * time.Second

// setupRouter builds the chi router with every route and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	authHandler := api.NewAuthHandler(app.accountService, app.logger)
	sessionHandler := api.NewSessionHandler(app.sleepService, app.logger)
	currencyHandler := api.NewCurrencyHandler(app.currencyService, app.logger)
	collectibleHandler := api.NewCollectibleHandler(app.inventoryService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// Public
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/account", authHandler.Me)

			r.Post("/sessions", sessionHandler.Start)
			r.Get("/sessions", sessionHandler.List)
			r.Get("/sessions/active", sessionHandler.GetActive)
			r.Get("/sessions/stats", sessionHandler.Stats)
			r.Post("/sessions/{id}/complete", sessionHandler.Complete)
			r.Post("/sessions/{id}/cancel", sessionHandler.Cancel)

			r.Get("/currency/balance", currencyHandler.Balance)
			r.Post("/currency/collect", currencyHandler.Collect)
			r.Get("/currency/transactions", currencyHandler.Transactions)
			r.Post("/currency/purchase", currencyHandler.Purchase)

			r.Get("/collectibles", collectibleHandler.List)
			r.Get("/collectibles/{id}", collectibleHandler.Get)
			r.Patch("/collectibles/{id}", collectibleHandler.Update)

			if app.leaderboard != nil {
				leaderboardHandler := api.NewLeaderboardHandler(app.leaderboard, app.logger)
				r.Get("/leaderboard", leaderboardHandler.Top)
				r.Get("/leaderboard/me", leaderboardHandler.Me)
			}
		})
	})

	r.Get("/health", app.health)
	r.Handle("/metrics", metrics.Handler())

	return r
}

// health reports whether the database is reachable.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
