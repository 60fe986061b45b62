package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps, broker *Broker) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Get("/docs", handleSwaggerUI())
	r.Get("/docs/*", handleSwaggerUI())
	r.Get("/healthz", handleHealth(logger, deps.Checks))
	r.Get("/ws/leaderboards", handleLeaderboardFeed(logger, deps.Scores, broker))

	r.Get("/api/locations", handleListLocations())

	r.Route("/api/leaderboards/{type}", func(r chi.Router) {
		r.Use(challengeTypeMiddleware)
		r.Get("/", handleListScores(deps.Scores, deps.Cache))
		r.With(syncTokenMiddleware(deps.SyncTokenHash)).
			Post("/", handleSubmitScore(logger, deps.Scores, deps.Cache, broker))
		r.Get("/events", handleScoreEvents(broker))
	})
}
