package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/reddex/internal/api"
	"github.com/iconidentify/reddex/internal/api/handler"
	"github.com/iconidentify/reddex/internal/config"
	"github.com/iconidentify/reddex/internal/embed"
	"github.com/iconidentify/reddex/internal/media"
	"github.com/iconidentify/reddex/internal/reddit"
	"github.com/iconidentify/reddex/internal/scrape"
	"github.com/iconidentify/reddex/internal/service"
	"github.com/iconidentify/reddex/internal/video"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reddex %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting reddex",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Operational event log
	eventSvc, err := service.NewEventService(cfg.Events, logger)
	if err != nil {
		logger.Error("failed to init event service", "error", err)
		os.Exit(1)
	}

	// Upstream collaborators
	client := reddit.NewClient(cfg.Upstream)
	scraper := scrape.NewScraper(cfg.Upstream)
	streamAPI := embed.NewStreamAPI(cfg.Upstream)

	// Pipeline
	resolver := video.NewResolver(scraper, cfg.Upstream.BaseURL, logger)
	registry := media.NewRegistry(cfg.Media, client, resolver, logger)
	dispatcher := embed.NewDispatcher(scraper, streamAPI, cfg.Embed.AncestorOrigins, logger)
	compiler := embed.NewCompiler(registry, dispatcher, cfg.Server.PublicBase, cfg.Upstream.BaseURL, cfg.Embed.GalleryLimit)
	embedSvc := service.NewEmbedService(client, resolver, compiler, eventSvc, logger)

	// Initialize handlers
	embedHandler := handler.NewEmbedHandler(embedSvc, cfg.Embed, cfg.Upstream.BaseURL, logger)
	mediaHandler := handler.NewMediaHandler(registry, logger)
	healthHandler := handler.NewHealthHandler(Version)
	eventHandler := handler.NewEventHandler(eventSvc, logger)

	// Setup router
	router := api.NewRouter(embedHandler, mediaHandler, healthHandler, eventHandler, cfg.Server.APIKey)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := eventSvc.Close(); err != nil {
		logger.Error("event service close error", "error", err)
	}

	logger.Info("shutdown complete")
}
