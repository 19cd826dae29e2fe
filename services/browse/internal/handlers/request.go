package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/anime-browse/internal/platform/api"
)

// maxLimit caps page sizes accepted from clients; upstream rejects larger ones.
const maxLimit = 25

// parseInt returns def for a missing or malformed value and clamps the rest.
func parseInt(v string, def, min, max int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if i < min {
		return min
	}
	if max > 0 && i > max {
		return max
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// splitIDs parses a comma separated list of genre ids, dropping junk.
func splitIDs(v string) []int {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}

// pathID reads a positive integer URL parameter. On failure it writes a 400
// response and returns false.
func pathID(w http.ResponseWriter, r *http.Request, rid, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ARGUMENT", name+" must be a positive integer", rid, nil)
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	return parseInt(q.Get("page"), 0, 0, 0), parseInt(q.Get("limit"), 0, 0, maxLimit)
}
