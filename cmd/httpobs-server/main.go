package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"httpobs/internal/api"
	"httpobs/internal/config"
	"httpobs/internal/database"
	"httpobs/internal/retriever"
	"httpobs/internal/scanner"
	"httpobs/internal/site"
	"httpobs/internal/tech"
	"httpobs/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersion())
		return
	}

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Debug, false)

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Error("opening database failed", "path", cfg.Database, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var detector *tech.Detector
	if cfg.TechDetect {
		detector, err = tech.NewDetector()
		if err != nil {
			logger.Error("technology detection unavailable", "error", err)
			os.Exit(1)
		}
	}

	opts := retriever.DefaultOptions()
	opts.ScanTimeout = time.Duration(cfg.ScanTimeoutSeconds) * time.Second
	opts.UserAgent = cfg.UserAgent
	opts.PerHostRate = float64(cfg.RateLimit)

	r := retriever.New(opts, logger)
	defer r.Close()

	resolver := &site.Resolver{AllowPrivateTargets: cfg.AllowPrivateTargets}
	scans := scanner.New(r, resolver, db, detector, logger)

	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second
	server := api.New(scans, db, cfg.BaseURL, cooldown, logger)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shut down cleanly on interrupt, letting in-flight scans finish.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down gracefully...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
		cancel()
	}()

	logger.Info("listening", "addr", cfg.Listen, "version", version.GetShortVersion())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-ctx.Done()
}
