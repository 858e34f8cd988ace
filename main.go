package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/handlers"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/middleware"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/startup"
	"photo-catalog/internal/syncer"
	"photo-catalog/internal/thumbs"
	"photo-catalog/internal/watcher"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	ctx := context.Background()
	store, err := catalog.New(ctx, config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to open catalog: %v", err)
	}
	defer store.Close()

	cache, err := thumbs.New(config.ThumbnailDir)
	if err != nil {
		logging.Fatal("Failed to initialize thumbnail cache: %v", err)
	}
	if err := thumbs.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go image decoding: %v", err)
	}
	defer thumbs.ShutdownVips()

	scan := scanner.New(scanner.NewPathNormalizer(config.FoldCasePaths))
	engine := syncer.New(store, scan, cache, config.ThumbnailSize)

	watch, err := watcher.New(store, scan, cache, config.ThumbnailSize)
	if err != nil {
		logging.Fatal("Failed to start file watcher: %v", err)
	}
	defer watch.Close()

	// Keep connection pool metrics fresh.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			store.UpdateDBMetrics()
		}
	}()

	h := handlers.New(store, engine, watch, cache, scan)

	router := mux.NewRouter()
	if config.MetricsEnabled {
		router.Use(middleware.Metrics)
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	h.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      middleware.Logger(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // event streams run for the length of a sync
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, watch, store)

	logging.Info("Listening on :%s (started in %v)", config.Port, time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, watch *watcher.Watcher, store *catalog.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := watch.Close(); err != nil {
		logging.Warn("Watcher shutdown error: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	if err := store.Close(); err != nil {
		logging.Warn("Catalog close error: %v", err)
	}
	logging.Info("Shutdown complete")
}
