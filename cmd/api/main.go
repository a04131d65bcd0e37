package main

import (
	"context"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"magiceraser/internal/editor"
	"magiceraser/internal/history"
	"magiceraser/internal/http/handlers"
	httpapi "magiceraser/internal/http/httpapi"
	"magiceraser/internal/infra"
	"magiceraser/internal/infra/credentials"
	"magiceraser/internal/infra/geoip"
	"magiceraser/internal/mask"
	restgenai "magiceraser/internal/providers/genai"
	"magiceraser/internal/providers/genaisdk"
	"magiceraser/internal/providers/synthetic"
	"magiceraser/internal/session"
	"magiceraser/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// persistence is optional; without a database history is not recorded
	var (
		recorder history.Recorder = history.NopRecorder{}
		creds    *credentials.Store
	)
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		pg := history.NewPGRecorder(runner)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare schema")
		}
		recorder = pg
		creds = credentials.NewStore(runner)
	} else {
		logger.Info().Msg("DATABASE_URL not set; attempt history disabled")
	}

	apiKey, keySource, err := creds.ResolveGeminiAPIKey(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load stored gemini api key")
	}

	ed, err := newEditor(ctx, cfg, apiKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.EditProvider).Msg("failed to configure editor")
	}
	logger.Info().Str("editor", ed.Name()).Str("key_source", keySource).Msg("editor configured")

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	if closer, ok := resolver.(io.Closer); ok {
		defer closer.Close()
	}

	rasterizer, err := mask.NewRasterizer(cfg.MaskFilter)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid mask filter")
	}
	sessions := session.NewManager(session.Config{
		ContainerWidth: cfg.DefaultContainerWidth,
		Brush:          cfg.DefaultBrushSize,
		Rasterizer:     rasterizer,
	})

	app := handlers.NewApp(sessions, ed, logger).WithContext(context.WithoutCancel(ctx))
	app.History = recorder
	app.Store = store
	app.EditTimeout = cfg.EditTimeout
	app.MaxUploadBytes = cfg.MaxUploadBytes
	app.AllowedOrigins = cfg.CORSAllowedOrigins

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   geoip.LookupFunc(resolver),
	})
	server := infra.NewHTTPServer(cfg, router)

	go sweep(ctx, sessions, cfg.SessionTTL, logger)

	logger.Info().Msgf("API listening on %s", server.Addr())
	if err := server.Run(ctx, cfg.HTTPIdleTimeout); err != nil {
		logger.Error().Err(err).Msg("http server stopped with error")
	}
	app.Wait()
	logger.Info().Msg("server stopped")
}

func newEditor(ctx context.Context, cfg *infra.Config, apiKey string, logger zerolog.Logger) (editor.Editor, error) {
	switch cfg.EditProvider {
	case infra.ProviderSynthetic:
		return synthetic.New(logger), nil
	case infra.ProviderGenAI:
		return genaisdk.New(ctx, genaisdk.Options{
			APIKey: apiKey,
			// the SDK appends its own API version
			BaseURL: strings.TrimSuffix(strings.TrimRight(cfg.GeminiBaseURL, "/"), "/v1beta"),
			Model:   cfg.GeminiModel,
			Logger:  logger,
		})
	default:
		if apiKey == "" {
			logger.Warn().Msg("GEMINI_API_KEY is empty; submissions will fail with an auth error")
		}
		return restgenai.NewClient(restgenai.Options{
			APIKey:  apiKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Logger:  &logger,
		})
	}
}

func sweep(ctx context.Context, sessions *session.Manager, ttl time.Duration, logger zerolog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ttl); n > 0 {
				logger.Debug().Int("evicted", n).Int("live", sessions.Len()).Msg("sessions swept")
			}
		}
	}
}
