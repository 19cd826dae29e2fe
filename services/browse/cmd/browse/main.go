package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/example/anime-browse/internal/platform/analytics"
	"github.com/example/anime-browse/internal/platform/config"
	"github.com/example/anime-browse/internal/platform/httpserver"
	"github.com/example/anime-browse/internal/platform/logging"
	"github.com/example/anime-browse/internal/platform/metrics"
	"github.com/example/anime-browse/internal/platform/natsconn"
	"github.com/example/anime-browse/internal/platform/run"
	browseconfig "github.com/example/anime-browse/services/browse/internal/config"
	"github.com/example/anime-browse/services/browse/internal/handlers"
	browsehttp "github.com/example/anime-browse/services/browse/internal/http"
	"github.com/example/anime-browse/services/browse/internal/jikan"
	"github.com/example/anime-browse/services/browse/internal/ratelimit"
	"github.com/example/anime-browse/services/browse/internal/reqcache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	svcCfg, err := browseconfig.Load()
	if err != nil {
		log.Error("load browse config", zap.Error(err))
		run.Exit(1)
	}

	runner := run.New(log)

	mp, err := metrics.Setup(cfg.ServiceName, svcCfg.MetricsExporter)
	if err != nil {
		log.Error("init metrics", zap.Error(err))
		run.Exit(1)
	}
	otel.SetMeterProvider(mp.MeterProvider)
	runner.OnShutdown(mp.Shutdown)

	cache := reqcache.New(
		reqcache.WithMaxEntries(svcCfg.CacheMaxEntries),
		reqcache.WithLogger(log.Named("reqcache")),
		reqcache.WithMeter(otel.Meter("reqcache")),
	)

	// NATS is optional: without it the cache is only cleared in-process and
	// analytics are dropped.
	var pub *analytics.Publisher
	var nc *nats.Conn
	nc, err = natsconn.Connect(natsconn.Options{Name: cfg.ServiceName, Logger: log})
	switch {
	case errors.Is(err, natsconn.ErrDisabled):
		log.Info("nats disabled")
	case err != nil:
		log.Error("connect nats", zap.Error(err))
		run.Exit(1)
	default:
		runner.OnShutdown(func(context.Context) error { return nc.Drain() })
		if _, err := cache.SubscribeInvalidation(nc, svcCfg.CacheInvalidateSubject); err != nil {
			log.Error("subscribe cache invalidation", zap.Error(err))
			run.Exit(1)
		}
		js, err := nc.JetStream()
		if err != nil {
			log.Warn("jetstream unavailable, analytics disabled", zap.Error(err))
		} else {
			pub = analytics.New(js, log.Named("analytics"))
		}
	}

	limiter := ratelimit.NewRPS(svcCfg.UpstreamRPS)
	runner.OnShutdown(func(context.Context) error {
		limiter.Stop()
		return nil
	})

	client := jikan.New(svcCfg.JikanBaseURL, cache,
		jikan.WithHTTPClient(&http.Client{Timeout: svcCfg.UpstreamTimeout}),
		jikan.WithUserAgent(svcCfg.UpstreamUserAgent),
		jikan.WithLimiter(limiter),
		jikan.WithLogger(log.Named("jikan")),
	)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		Logger: log,
		ReadyFunc: func() error {
			if nc != nil && !nc.IsConnected() {
				return errors.New("nats not connected")
			}
			return nil
		},
	})
	if mp.Handler != nil {
		r.Handle("/metrics", mp.Handler)
	}

	rl := browsehttp.NewRateLimiter(svcCfg.RateLimitRPS, svcCfg.RateLimitBurst)
	r.Group(func(r chi.Router) {
		r.Use(rl.Middleware)
		handlers.Register(r, handlers.Deps{
			Provider:     client,
			Analytics:    pub,
			Logger:       log,
			AdminEnabled: svcCfg.AdminEnabled,
		})
	})

	srv := httpserver.New(httpserver.Options{
		Addr:         cfg.HTTP.Addr,
		ServiceName:  cfg.ServiceName,
		Router:       r,
		WriteTimeout: svcCfg.UpstreamTimeout + 5*time.Second,
	})
	runner.OnShutdown(srv.Shutdown)

	code := runner.WithSignals(func(context.Context) error {
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
