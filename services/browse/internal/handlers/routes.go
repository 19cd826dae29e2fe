package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/anime-browse/internal/platform/analytics"
	"github.com/example/anime-browse/services/browse/internal/jikan"
)

type Deps struct {
	Provider     jikan.Provider
	Analytics    *analytics.Publisher
	Logger       *zap.Logger
	AdminEnabled bool
}

// Register mounts the browse API on r.
func Register(r chi.Router, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	p := d.Provider

	r.Route("/v1", func(r chi.Router) {
		r.Get("/anime/top", TopAnime(p))
		r.Get("/anime/{id}", GetAnime(p, d.Analytics))
		r.Get("/anime/{id}/characters", GetCharacters(p))
		r.Get("/anime/{id}/recommendations", GetRecommendations(p))

		r.Get("/seasons/now", SeasonNow(p))
		r.Get("/seasons/upcoming", SeasonUpcoming(p))
		r.Get("/seasons/{year}/{season}", SeasonArchive(p))

		r.Get("/search", Search(p, d.Analytics))
		r.Get("/browse", Browse(p, d.Analytics))

		if d.AdminEnabled {
			r.Post("/admin/cache/clear", ClearCache(p, d.Logger))
		}
	})
}
