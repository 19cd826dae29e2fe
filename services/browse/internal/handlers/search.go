package handlers

import (
	"net/http"
	"strings"

	"github.com/example/anime-browse/internal/platform/analytics"
	"github.com/example/anime-browse/internal/platform/httpserver"
	"github.com/example/anime-browse/services/browse/internal/jikan"
)

func searchParams(r *http.Request) jikan.SearchParams {
	q := r.URL.Query()
	page, limit := pageParams(r)
	return jikan.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Page:     page,
		Limit:    limit,
		Genres:   splitIDs(q.Get("genres")),
		MinScore: parseFloat(q.Get("min_score"), 0),
		OrderBy:  q.Get("order_by"),
		Sort:     q.Get("sort"),
		Status:   q.Get("status"),
		Type:     q.Get("type"),
	}
}

func Search(p jikan.Provider, pub *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		sp := searchParams(r)
		resp, err := p.Search(r.Context(), sp)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		publishSearch(pub, sp, resp)
		writeResponse(w, rid, resp)
	}
}

// Browse serves the combined grid: the listing picked by ?mode unless any
// search filter is set, in which case the filtered search wins.
func Browse(p jikan.Provider, pub *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		mode, err := jikan.ParseBrowseMode(r.URL.Query().Get("mode"))
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		sp := searchParams(r)
		q := jikan.NewQuery(mode, sp)
		resp, err := p.Browse(r.Context(), q, sp.Page)
		if err != nil {
			writeUpstreamError(w, rid, err)
			return
		}
		if q.IsSearching() {
			publishSearch(pub, sp, resp)
		} else {
			pub.Publish(analytics.SubjectBrowseListed, "browse_listed", map[string]any{
				"mode": string(q.Mode()),
				"page": sp.Page,
			})
		}
		writeResponse(w, rid, resp)
	}
}

func publishSearch(pub *analytics.Publisher, sp jikan.SearchParams, resp *jikan.Response) {
	pub.Publish(analytics.SubjectSearchPerformed, "search_performed", map[string]any{
		"query":     sp.Query,
		"genres":    sp.Genres,
		"min_score": sp.MinScore,
		"total":     resp.Pagination.TotalItems(),
	})
}
