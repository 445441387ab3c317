package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Roshan0411/medlearn-ai/internal/ai"
	"github.com/Roshan0411/medlearn-ai/internal/fallback"
	"github.com/Roshan0411/medlearn-ai/internal/httpapi"
	"github.com/Roshan0411/medlearn-ai/internal/lesson"
	"github.com/Roshan0411/medlearn-ai/internal/media"
	"github.com/Roshan0411/medlearn-ai/internal/platform/cache"
	"github.com/Roshan0411/medlearn-ai/internal/platform/config"
	"github.com/Roshan0411/medlearn-ai/internal/platform/database"
	"github.com/Roshan0411/medlearn-ai/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	handler, cleanup, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Lesson creation waits on two generation calls and audio synthesis.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newApp wires storage, AI providers, media and the lesson service into the
// HTTP handler. cleanup releases connections.
func newApp(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	store, events, checks, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	closers = append(closers, closeStore)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting to cache: %w", err)
		}
		closers = append(closers, func() { c.Close() })
		store = lesson.NewCachedStore(store, c, cfg.Cache.TTL)
		checks = append(checks, httpapi.Check{Name: "cache", Checker: c})
		slog.Info("session cache enabled", "ttl", cfg.Cache.TTL)
	}

	fb, err := fallback.Load(cfg.FallbackPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	enricher, err := newEnricher(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var gen lesson.ContentGenerator
	generationTimeout := cfg.AI.Timeout
	if router := newAIRouter(cfg); router.HasProvider() {
		g, err := lesson.NewAIGenerator(router, "")
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		gen = g
		// Each provider gets the full per-call timeout.
		generationTimeout = cfg.AI.Timeout * time.Duration(len(router.Names()))
		checks = append(checks, httpapi.Check{Name: "ai", Checker: router, Optional: true})
		slog.Info("AI providers configured", "providers", router.Names())
	} else {
		slog.Warn("no AI provider configured, serving fallback lessons")
	}

	svc, err := lesson.NewService(lesson.ServiceConfig{
		Generator:         gen,
		Enricher:          enricher,
		Store:             store,
		Events:            events,
		Fallback:          fb,
		GenerationTimeout: generationTimeout,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	handler := httpapi.NewRouter(svc, httpapi.Options{
		FrontendURL:   cfg.CORS.FrontendURL,
		StaticDir:     cfg.Media.StaticDir,
		ExportEnabled: cfg.ExportEnabled,
		Checks:        checks,
	})
	return handler, cleanup, nil
}

// openStore picks the session store from the database URL.
func openStore(ctx context.Context, cfg *config.Config) (lesson.Store, lesson.EventLogger, []httpapi.Check, func(), error) {
	driver, err := database.DriverFor(cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	switch driver {
	case database.DriverPostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		store, err := lesson.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		events, err := lesson.NewPostgresEventLogger(ctx, db.Pool)
		if err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		slog.Info("session store ready", "driver", driver)
		return store, events, []httpapi.Check{{Name: "database", Checker: db}}, db.Close, nil

	case database.DriverSQLite:
		db, err := database.OpenSQLite(ctx, database.SQLitePath(cfg.Database.URL))
		if err != nil {
			return nil, nil, nil, nil, err
		}
		store, err := lesson.NewSQLiteStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		slog.Info("session store ready", "driver", driver, "path", database.SQLitePath(cfg.Database.URL))
		return store, lesson.NopEventLogger{}, []httpapi.Check{{Name: "database", Checker: store}}, func() { db.Close() }, nil

	default:
		slog.Warn("using in-memory session store, sessions are lost on restart")
		store := lesson.NewMemoryStore()
		return store, lesson.NopEventLogger{}, []httpapi.Check{{Name: "database", Checker: store}}, func() {}, nil
	}
}

// newAIRouter registers configured providers in fallback order. Each
// attempt is bounded by the configured AI timeout.
func newAIRouter(cfg *config.Config) *ai.Router {
	router := ai.NewRouter(ai.WithAttemptTimeout(cfg.AI.Timeout))
	client := ai.WithHTTPClient(&http.Client{Timeout: cfg.AI.Timeout})

	if cfg.AI.HuggingFace.Token != "" {
		router.Register(ai.NewHuggingFaceProvider(cfg.AI.HuggingFace.Token,
			ai.WithBaseURL(cfg.AI.HuggingFace.BaseURL),
			ai.WithDefaultModel(cfg.AI.HuggingFace.Model),
			client,
		))
	}
	if cfg.AI.OpenAI.APIKey != "" {
		router.Register(ai.NewOpenAIProvider(cfg.AI.OpenAI.APIKey, client))
	}
	if cfg.AI.OpenRouter.APIKey != "" {
		router.Register(ai.NewOpenRouterProvider(cfg.AI.OpenRouter.APIKey, client))
	}
	if cfg.AI.Ollama.Enabled {
		router.Register(ai.NewOllamaProvider(cfg.AI.Ollama.URL, client))
	}
	return router
}

func newEnricher(cfg *config.Config) (*media.Enricher, error) {
	images, err := media.NewImages(cfg.Media.ImageBaseURL, cfg.Media.PlaceholderBaseURL)
	if err != nil {
		return nil, err
	}

	opts := []media.EnricherOption{
		media.WithAudioTimeout(cfg.TTS.Timeout),
		media.WithAudioURLPrefix(httpapi.StaticPrefix + "/audio"),
	}
	if cfg.TTS.GoogleAPIKey != "" {
		opts = append(opts, media.WithSynthesizer(media.NewGoogleTTS(cfg.TTS.GoogleAPIKey,
			media.WithVoice(cfg.TTS.Voice, cfg.TTS.LanguageCode),
			media.WithTTSHTTPClient(&http.Client{Timeout: cfg.TTS.Timeout}),
		)))
	} else {
		slog.Warn("no TTS key configured, slides will have no audio")
	}
	return media.NewEnricher(images, cfg.Media.AudioDir(), opts...)
}
