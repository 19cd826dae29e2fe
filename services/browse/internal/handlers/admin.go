package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/anime-browse/internal/platform/api"
	"github.com/example/anime-browse/internal/platform/httpserver"
	"github.com/example/anime-browse/services/browse/internal/jikan"
)

// ClearCache drops every cached upstream response.
func ClearCache(p jikan.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		p.ClearCache()
		log.Info("cache cleared via admin route", zap.String("request_id", rid))
		api.WriteJSON(w, http.StatusOK, map[string]any{"cleared": true})
	}
}
