package config

import (
	"errors"
	"net/url"
	"time"

	"github.com/example/anime-browse/internal/platform/config"
)

type Config struct {
	JikanBaseURL      string
	UpstreamTimeout   time.Duration
	UpstreamRPS       int
	UpstreamUserAgent string

	CacheMaxEntries        int
	CacheInvalidateSubject string

	AdminEnabled   bool
	RateLimitRPS   float64
	RateLimitBurst int

	MetricsExporter string
}

func Load() (Config, error) {
	cfg := Config{
		JikanBaseURL:           config.String("JIKAN_BASE_URL", "https://api.jikan.moe/v4"),
		UpstreamTimeout:        config.Duration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRPS:            config.Int("UPSTREAM_RPS", 0),
		UpstreamUserAgent:      config.String("UPSTREAM_USER_AGENT", "anime-browse/1.0"),
		CacheMaxEntries:        config.Int("CACHE_MAX_ENTRIES", 0),
		CacheInvalidateSubject: config.String("CACHE_INVALIDATE_SUBJECT", "browse.cache.invalidate"),
		AdminEnabled:           config.Bool("ADMIN_ENABLED", false),
		RateLimitRPS:           config.Float("RATE_LIMIT_RPS", 10),
		RateLimitBurst:         config.Int("RATE_LIMIT_BURST", 20),
		MetricsExporter:        config.String("METRICS_EXPORTER", "prometheus"),
	}
	u, err := url.Parse(cfg.JikanBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, errors.New("JIKAN_BASE_URL must be an absolute http(s) URL")
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 1
	}
	return cfg, nil
}
