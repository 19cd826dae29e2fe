package jikan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/anime-browse/services/browse/internal/reqcache"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 24
	DefaultTopFilter = "bypopularity"
	DefaultOrderBy   = "score"
	DefaultSort      = "desc"
)

// Top anime filters understood by upstream. Other values are passed through.
const (
	FilterAiring       = "airing"
	FilterUpcoming     = "upcoming"
	FilterByPopularity = "bypopularity"
	FilterFavorite     = "favorite"
)

type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// ParseSeason accepts a season name in any case.
func ParseSeason(s string) (Season, error) {
	switch Season(strings.ToLower(strings.TrimSpace(s))) {
	case Winter:
		return Winter, nil
	case Spring:
		return Spring, nil
	case Summer:
		return Summer, nil
	case Fall:
		return Fall, nil
	}
	return "", invalidArg("unknown season %q", s)
}

// SearchParams are the user-facing search filters. Zero values mean "not set".
// The safe-for-work flag is not configurable: it is always sent as true.
type SearchParams struct {
	Query    string
	Page     int
	Limit    int
	Genres   []int
	MinScore float64
	OrderBy  string
	Sort     string
	Status   string
	Type     string
}

// Active reports whether any narrowing filter is set. Paging and ordering
// alone do not make a search.
func (p SearchParams) Active() bool {
	return strings.TrimSpace(p.Query) != "" || joinIDs(p.Genres) != "" || p.MinScore > 0
}

func (p SearchParams) params() reqcache.Params {
	out := reqcache.Params{
		"q":        strings.TrimSpace(p.Query),
		"page":     pageOr(p.Page),
		"limit":    limitOr(p.Limit),
		"genres":   joinIDs(p.Genres),
		"order_by": stringOr(p.OrderBy, DefaultOrderBy),
		"sort":     stringOr(p.Sort, DefaultSort),
		"status":   strings.TrimSpace(p.Status),
		"type":     strings.TrimSpace(p.Type),
		"sfw":      true,
	}
	if p.MinScore > 0 {
		out["min_score"] = p.MinScore
	}
	return out
}

// TopAnime lists top anime by filter (default bypopularity).
func (c *Client) TopAnime(ctx context.Context, page, limit int, filter string) (*Response, error) {
	return c.get(ctx, "/top/anime", reqcache.Params{
		"page":   pageOr(page),
		"limit":  limitOr(limit),
		"filter": stringOr(filter, DefaultTopFilter),
	})
}

// SeasonalAnime lists anime airing this season.
func (c *Client) SeasonalAnime(ctx context.Context, page, limit int) (*Response, error) {
	return c.get(ctx, "/seasons/now", reqcache.Params{
		"page":  pageOr(page),
		"limit": limitOr(limit),
	})
}

func (c *Client) AnimeBySeason(ctx context.Context, year int, season Season, page int) (*Response, error) {
	if year <= 0 {
		return nil, invalidArg("year must be positive, got %d", year)
	}
	s, err := ParseSeason(string(season))
	if err != nil {
		return nil, err
	}
	return c.get(ctx, fmt.Sprintf("/seasons/%d/%s", year, s), reqcache.Params{
		"page": pageOr(page),
	})
}

func (c *Client) UpcomingAnime(ctx context.Context, page, limit int) (*Response, error) {
	return c.get(ctx, "/seasons/upcoming", reqcache.Params{
		"page":  pageOr(page),
		"limit": limitOr(limit),
	})
}

// Search issues a filtered search. With no filters it still goes upstream and
// returns the unfiltered list ordered by score.
func (c *Client) Search(ctx context.Context, p SearchParams) (*Response, error) {
	return c.get(ctx, "/anime", p.params())
}

// AnimeByID returns the full record of one anime.
func (c *Client) AnimeByID(ctx context.Context, id int) (*Response, error) {
	if id <= 0 {
		return nil, invalidArg("anime id must be positive, got %d", id)
	}
	return c.get(ctx, "/anime/"+strconv.Itoa(id)+"/full", nil)
}

func (c *Client) Recommendations(ctx context.Context, id int) (*Response, error) {
	if id <= 0 {
		return nil, invalidArg("anime id must be positive, got %d", id)
	}
	return c.get(ctx, "/anime/"+strconv.Itoa(id)+"/recommendations", nil)
}

func (c *Client) Characters(ctx context.Context, id int) (*Response, error) {
	if id <= 0 {
		return nil, invalidArg("anime id must be positive, got %d", id)
	}
	return c.get(ctx, "/anime/"+strconv.Itoa(id)+"/characters", nil)
}

func pageOr(p int) int {
	if p <= 0 {
		return DefaultPage
	}
	return p
}

func limitOr(l int) int {
	if l <= 0 {
		return DefaultLimit
	}
	return l
}

func stringOr(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			parts = append(parts, strconv.Itoa(id))
		}
	}
	return strings.Join(parts, ",")
}
