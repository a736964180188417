package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ilds/internal/api"
	"ilds/internal/buildinfo"
	"ilds/internal/config"
	"ilds/internal/metrics"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvDeps, err := api.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer func() { _ = srvDeps.Close() }()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srvDeps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start congestion worker
	if cfg.CongestionInterval > 0 {
		srvDeps.Sweeper.Start()
		log.Printf("congestion: sweeping every %s model=%s", cfg.CongestionInterval, cfg.CongestionModel)
	}

	go func() {
		log.Printf("API listening on %s %s", cfg.Addr(), buildinfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
