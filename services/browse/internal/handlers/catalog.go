package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/anime-browse/internal/platform/analytics"
	"github.com/example/anime-browse/internal/platform/api"
	"github.com/example/anime-browse/internal/platform/httpserver"
	"github.com/example/anime-browse/services/browse/internal/jikan"
)

func TopAnime(p jikan.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		page, limit := pageParams(r)
		resp, err := p.TopAnime(r.Context(), page, limit, r.URL.Query().Get("filter"))
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		writeResponse(w, rid, resp)
	}
}

func SeasonNow(p jikan.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		page, limit := pageParams(r)
		resp, err := p.SeasonalAnime(r.Context(), page, limit)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		writeResponse(w, rid, resp)
	}
}

func SeasonUpcoming(p jikan.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		page, limit := pageParams(r)
		resp, err := p.UpcomingAnime(r.Context(), page, limit)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		writeResponse(w, rid, resp)
	}
}

// SeasonArchive serves /v1/seasons/{year}/{season}. Year and season are
// validated by the query service.
func SeasonArchive(p jikan.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil {
			api.BadRequest(w, "INVALID_ARGUMENT", "year must be an integer", rid, nil)
			return
		}
		page, _ := pageParams(r)
		resp, err := p.AnimeBySeason(r.Context(), year, jikan.Season(chi.URLParam(r, "season")), page)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		writeResponse(w, rid, resp)
	}
}

func GetAnime(p jikan.Provider, pub *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		resp, err := p.AnimeByID(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		props := map[string]any{"anime_id": id}
		if a, err := resp.Anime(); err == nil {
			props["title"] = a.BestTitle()
		}
		pub.Publish(analytics.SubjectCatalogAnimeViewed, "anime_viewed", props)
		writeResponse(w, rid, resp)
	}
}

func GetCharacters(p jikan.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		resp, err := p.Characters(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		writeResponse(w, rid, resp)
	}
}

func GetRecommendations(p jikan.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid, "id")
		if !ok {
			return
		}
		resp, err := p.Recommendations(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		writeResponse(w, rid, resp)
	}
}
