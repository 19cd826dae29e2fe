package jikan

import (
	"context"
	"strings"
)

// BrowseMode is a fixed listing shown when no search filter is active.
type BrowseMode string

const (
	ModePopular  BrowseMode = "popular"
	ModeTopRated BrowseMode = "top_rated"
	ModeSeasonal BrowseMode = "seasonal"
	ModeUpcoming BrowseMode = "upcoming"
)

// ParseBrowseMode maps a mode name to a BrowseMode; "" means popular.
func ParseBrowseMode(s string) (BrowseMode, error) {
	switch m := BrowseMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePopular, nil
	case ModePopular, ModeTopRated, ModeSeasonal, ModeUpcoming:
		return m, nil
	}
	return "", invalidArg("unknown browse mode %q", s)
}

// Query is either Browsing(mode) or Searching(filters). Build it once with
// NewQuery and hand it to Browse instead of re-deriving "is search active"
// at every call site.
type Query struct {
	mode    BrowseMode
	filters *SearchParams
}

func Browsing(mode BrowseMode) Query {
	return Query{mode: mode}
}

func Searching(filters SearchParams) Query {
	return Query{filters: &filters}
}

// NewQuery returns Searching(filters) when any narrowing filter is set,
// otherwise Browsing(mode).
func NewQuery(mode BrowseMode, filters SearchParams) Query {
	if filters.Active() {
		return Searching(filters)
	}
	return Browsing(mode)
}

func (q Query) IsSearching() bool { return q.filters != nil }

func (q Query) Mode() BrowseMode { return q.mode }

// Filters returns the search filters; ok is false in browsing mode.
func (q Query) Filters() (SearchParams, bool) {
	if q.filters == nil {
		return SearchParams{}, false
	}
	return *q.filters, true
}

// Browse runs q for the given page with the default page size.
func (c *Client) Browse(ctx context.Context, q Query, page int) (*Response, error) {
	if f, ok := q.Filters(); ok {
		f.Page = page
		f.Limit = DefaultLimit
		return c.Search(ctx, f)
	}
	switch q.mode {
	case ModePopular, "":
		return c.TopAnime(ctx, page, DefaultLimit, FilterByPopularity)
	case ModeTopRated:
		return c.TopAnime(ctx, page, DefaultLimit, FilterFavorite)
	case ModeSeasonal:
		return c.SeasonalAnime(ctx, page, DefaultLimit)
	case ModeUpcoming:
		return c.UpcomingAnime(ctx, page, DefaultLimit)
	}
	return nil, invalidArg("unknown browse mode %q", q.mode)
}
