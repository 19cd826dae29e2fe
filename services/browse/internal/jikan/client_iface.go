package jikan

import "context"

// Provider is the port handlers use to read anime data.
type Provider interface {
	TopAnime(ctx context.Context, page, limit int, filter string) (*Response, error)
	SeasonalAnime(ctx context.Context, page, limit int) (*Response, error)
	AnimeBySeason(ctx context.Context, year int, season Season, page int) (*Response, error)
	UpcomingAnime(ctx context.Context, page, limit int) (*Response, error)
	Search(ctx context.Context, p SearchParams) (*Response, error)
	Browse(ctx context.Context, q Query, page int) (*Response, error)
	AnimeByID(ctx context.Context, id int) (*Response, error)
	Recommendations(ctx context.Context, id int) (*Response, error)
	Characters(ctx context.Context, id int) (*Response, error)
	ClearCache()
}

var _ Provider = (*Client)(nil)
