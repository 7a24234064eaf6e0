// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/mediasite-go/internal/cache"
	"github.com/olegiv/mediasite-go/internal/client"
	"github.com/olegiv/mediasite-go/internal/config"
	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/form"
	"github.com/olegiv/mediasite-go/internal/handler"
	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/imaging"
	"github.com/olegiv/mediasite-go/internal/logging"
	"github.com/olegiv/mediasite-go/internal/manager"
	"github.com/olegiv/mediasite-go/internal/middleware"
	"github.com/olegiv/mediasite-go/internal/preview"
	"github.com/olegiv/mediasite-go/internal/render"
	"github.com/olegiv/mediasite-go/internal/scheduler"
	"github.com/olegiv/mediasite-go/internal/schema"
	"github.com/olegiv/mediasite-go/internal/session"
	"github.com/olegiv/mediasite-go/internal/store"
	"github.com/olegiv/mediasite-go/internal/version"
	"github.com/olegiv/mediasite-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = version.DevVersion
	appGitCommit = version.Unknown
	appBuildTime = version.Unknown
)

// Cache key prefixes. The translation memo and the image previews share a
// Redis instance but never a key space.
const (
	memoCachePrefix    = "i18n:"
	previewCachePrefix = "preview:"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "mediasite - media company website and admin console\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_BACKEND_URL           REST backend base URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_SESSION_SECRET        Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_DB_PATH               SQLite database path (default: ./data/mediasite.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_SERVER_PORT           Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_ENV                   Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_TRANSLATE_PROVIDER    Content translator: http|openai|none (default: http)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDIASITE_REDIS_URL             Redis URL for the translation memo and previews (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	memo, memoRedis := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix + memoCachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = memo.Close() }()

	previewCache, _ := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix + previewCachePrefix,
		DefaultTTL:      preview.DefaultTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = previewCache.Close() }()
	slog.Info("caches initialized", "redis", memoRedis)

	previews := preview.New(previewCache,
		preview.WithProcessor(imaging.NewProcessor(320, 320)),
		preview.WithLogger(logger))

	api, err := client.New(cfg.BackendURL, client.WithLogger(logger),
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	providerOpts := []i18n.ProviderOption{
		i18n.WithMemoTTL(cfg.CacheTTLDuration()),
		i18n.WithProviderLogger(logger),
	}
	switch cfg.TranslateProvider {
	case config.TranslateHTTP:
		providerOpts = append(providerOpts, i18n.WithTranslator(
			i18n.NewHTTPTranslator(cfg.TranslateURL, cfg.TranslateRPS, nil)))
	case config.TranslateOpenAI:
		t, err := i18n.NewOpenAITranslator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return fmt.Errorf("creating translator: %w", err)
		}
		providerOpts = append(providerOpts, i18n.WithTranslator(t))
	}
	provider := i18n.NewProvider(store.New(db), memo, providerOpts...)

	ctx := context.Background()
	if err := provider.Restore(ctx); err != nil {
		slog.Warn("language restore failed, using default", "error", err)
	}
	slog.Info("language restored", "language", provider.Language(), "translator", cfg.TranslateProvider)

	sessionManager := session.New(db, cfg.IsDevelopment())

	sched := scheduler.New(db, logger, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	managers := handler.NewManagers(handler.DefaultManagerCapacity, handler.DefaultManagerIdle,
		func(s *schema.Schema, lang string) *manager.Manager {
			return manager.New(s, api.Resource(s.Collection),
				form.Deps{Previews: previews, Uploader: api}, lang,
				manager.WithLogger(logger))
		}, logger)
	defer managers.Purge()

	adminHandler := handler.NewAdminHandler(renderer, sessionManager, managers, provider, previews, logger)
	eventsHandler := handler.NewEventsHandler(db, renderer, provider, logger)
	frontendHandler := handler.NewFrontendHandler(renderer, api, provider, logger)
	healthHandler := handler.NewHealthHandler(db, provider, info)
	seoHandler := handler.NewSEOHandler(frontendHandler, cfg.SiteURL, cfg.RobotsDisallowAll)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment(), origin(cfg.BackendURL))))
	r.Use(middleware.RequestPath)

	// Health check routes answer before the language is restored
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Ready(provider))
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))
		r.Use(middleware.AuthToken(cfg.AuthCookie))
		r.Use(middleware.Language(provider))

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Get(handler.RouteEvents, eventsHandler.List)
			adminHandler.Routes(r)
		})
		frontendHandler.Routes(r)
		seoHandler.Routes(r)
		r.NotFound(frontendHandler.NotFound)
	})
	slog.Info("routes registered", "entities", len(entity.All()))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads and slow backends
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Normalize().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// origin returns scheme://host of raw, or "" when it does not parse.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
