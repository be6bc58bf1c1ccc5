package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kochabx/stepviz/app"
	"github.com/kochabx/stepviz/config"
	"github.com/kochabx/stepviz/engine/exec"
	"github.com/kochabx/stepviz/log"
	"github.com/kochabx/stepviz/session"
	"github.com/kochabx/stepviz/store/memo"
	"github.com/kochabx/stepviz/store/redis"
	stephttp "github.com/kochabx/stepviz/transport/http"
	"github.com/kochabx/stepviz/transport/http/api"
	"github.com/kochabx/stepviz/transport/http/metrics"
	"github.com/kochabx/stepviz/transport/http/middleware"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the log level when the config file changes")
	return cmd
}

func serve(ctx context.Context, opts *rootOptions, watch bool) error {
	var (
		settings config.Settings
		logger   *log.Logger
		cfg      *config.Config
	)
	cfg, err := opts.load(&settings, config.WithOnChange(func() {
		cfg.Read(func() { applyLogLevel(logger, settings.Log.Level) })
	}))
	if err != nil {
		return err
	}

	logger, err = log.NewFromConfig(settings.Log)
	if err != nil {
		return err
	}
	log.SetGlobalLogger(logger)

	if watch {
		if err := cfg.Watch(); err != nil {
			logger.Warn().Err(err).Msg("config watch disabled")
		}
	}

	catalog, err := settings.Catalog()
	if err != nil {
		return err
	}
	eng, err := exec.New(settings.Engine, exec.WithLogger(logger))
	if err != nil {
		return err
	}
	store, err := newMemo(ctx, settings.Cache, logger)
	if err != nil {
		return err
	}
	registry, err := session.NewRegistry(settings.Session, session.WithRegistryLogger(logger))
	if err != nil {
		return err
	}

	prom := metrics.New()
	prom.WithSessionGauge(registry.Len)

	gin.SetMode(settings.Server.Mode)
	router := gin.New()
	router.Use(
		middleware.Recovery(middleware.RecoveryConfig{StackTrace: true, Logger: logger}),
		middleware.GinLoggerWithConfig(middleware.LoggerConfig{
			SkipPaths: []string{"/health", "/metrics"},
			Logger:    logger,
		}),
		middleware.Cors(settings.Server.AllowOrigins...),
		prom.Middleware(),
	)

	api.New(registry, eng, catalog,
		api.WithDefaults(api.Defaults{
			Mask:  settings.Defaults.Mask,
			Curve: settings.Defaults.Curve,
			Hash:  settings.Defaults.Hash,
		}),
		api.WithSessionOptions(session.WithMemo(store), session.WithObserver(prom)),
		api.WithWebSocket(settings.Server.WebSocket, settings.Server.AllowOrigins...),
		api.WithLogger(logger),
	).Register(router)

	server := stephttp.NewServer(settings.Server.Addr, router,
		stephttp.WithMeta(stephttp.Meta{Name: "stepviz"}),
		stephttp.WithLogger(logger),
		stephttp.WithMetricsOptions(prom, stephttp.MetricsOption{
			Enabled:                   settings.Server.Metrics,
			EnabledGoCollector:        true,
			EnabledBuildInfoCollector: true,
		}),
		stephttp.WithHealthOptions(stephttp.HealthOption{Enabled: true}),
		stephttp.WithTimeoutOptions(stephttp.TimeoutOption{
			Read:  settings.Server.ReadTimeout,
			Write: settings.Server.WriteTimeout,
		}),
	)

	application := app.New(
		app.WithContext(ctx),
		app.WithLogger(logger),
		app.WithShutdownTimeout(settings.Server.ShutdownTimeout),
		app.WithServers(server, registry),
		app.WithClose("logger", func(context.Context) error { return logger.Close() }, 0),
		app.WithClose("memo", func(context.Context) error { return store.Close() }, 0),
	)

	logger.Info().
		Str("addr", settings.Server.Addr).
		Str("engine", settings.Engine.Command).
		Str("cache", settings.Cache.Backend).
		Strs("curves", catalog.Names()).
		Str("version", version).
		Msg("starting stepviz")
	return application.Start()
}

// newMemo builds the engine result cache selected by cfg.Backend.
func newMemo(ctx context.Context, cfg config.CacheConfig, logger *log.Logger) (memo.Store, error) {
	switch cfg.Backend {
	case "redis":
		client, err := redis.New(ctx, &cfg.Redis, redis.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return memo.NewRedis(client, cfg.Prefix, cfg.TTL), nil
	case "local":
		return memo.NewLocal(cfg.LocalBytes), nil
	default:
		return memo.Nop{}, nil
	}
}

func applyLogLevel(logger *log.Logger, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		logger.Warn().Str("level", level).Msg("ignoring invalid log level")
		return
	}
	log.SetGlobalLevel(lvl)
	logger.Info().Str("level", lvl.String()).Msg("log level updated")
}
