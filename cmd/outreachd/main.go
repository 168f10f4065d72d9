package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/outreach-gate/internal/outreach/common/clock"
	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/config"
	"github.com/haukened/outreach-gate/internal/outreach/gateways/httpapi"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
	blbloom "github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/bloom"
	blbolt "github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/bolt"
	bllru "github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/lru"
	"github.com/haukened/outreach-gate/internal/outreach/repos/boltdb"
	"github.com/haukened/outreach-gate/internal/outreach/repos/seed"
	srbolt "github.com/haukened/outreach-gate/internal/outreach/repos/sendrule/bolt"
	wrbolt "github.com/haukened/outreach-gate/internal/outreach/repos/workrecord/bolt"
	"github.com/haukened/outreach-gate/internal/outreach/services/gate"
)

const (
	version = "0.1.0-dev"
	appName = "outreachd"

	defaultReadTimeout     = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the outreach API server.
type Application struct {
	config *config.AppConfig
	db     *bbolt.DB
	server *http.Server
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":        appName,
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.Log.Level,
		"port":       cfg.HTTP.Port,
		"db":         cfg.DB.Path,
		"timezone":   cfg.Gate.Timezone,
		"cache_size": cfg.Blocklist.CacheSize,
	}, "Starting outreach gate")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}
	log.Info(nil, "Outreach gate stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load gate timezone: %w", err)
	}
	clk := clock.RealClock{Location: loc}
	logger := log.GetLogger()

	db, err := boltdb.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	blockRepo, err := buildBlocklist(cfg, db, clk, logger.Named("blocklist"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ruleStore := srbolt.New(db)
	sendGate := gate.NewSendGate(gate.SendGateOptions{
		Rules:    ruleStore,
		Clock:    clk,
		Location: loc,
		Logger:   logger.Named("sendgate"),
	})
	sendRules := gate.NewSendRules(ruleStore, clk, logger.Named("sendrules"))
	workRecords := gate.NewWorkRecords(wrbolt.New(db), sendGate, clk, logger.Named("workrecords"))

	if cfg.Seed.Dir != "" {
		if err := applySeeds(cfg.Seed.Dir, blockRepo, sendRules, logger.Named("seed")); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	router := httpapi.NewRouter(httpapi.Options{
		Blocklist:   blockRepo,
		SendRules:   sendRules,
		WorkRecords: workRecords,
		Logger:      logger.Named("http"),
		Dev:         cfg.Env == "dev",
	})

	return &Application{
		config: cfg,
		db:     db,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           router,
			ReadHeaderTimeout: defaultReadTimeout,
		},
	}, nil
}

// buildBlocklist composes the pattern store with the optional prefilter.
func buildBlocklist(cfg *config.AppConfig, db *bbolt.DB, clk clock.Clock, logger log.Logger) (blocklist.Repository, error) {
	opts := blocklist.Options{
		Store:  blbolt.New(db),
		FPRate: cfg.Blocklist.FPRate,
		Clock:  clk,
		Logger: logger,
	}
	if cfg.Blocklist.CacheSize > 0 {
		cache, err := bllru.New(cfg.Blocklist.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create blocklist snapshot cache: %w", err)
		}
		opts.Cache = cache
		opts.Factory = blbloom.NewFactory()
		log.Info(map[string]any{"size": cfg.Blocklist.CacheSize, "fp_rate": cfg.Blocklist.FPRate}, "Blocklist prefilter configured")
	} else {
		log.Info(map[string]any{"disabled": true}, "Blocklist prefilter disabled")
	}
	return blocklist.NewRepository(opts), nil
}

// applySeeds loads the seed directory and writes it into the stores.
func applySeeds(dir string, bl blocklist.Repository, rules *gate.SendRules, logger log.Logger) error {
	seeds, err := seed.LoadSeedDirectory(dir)
	if err != nil {
		return fmt.Errorf("failed to load seeds: %w", err)
	}
	sum, err := seed.Apply(context.Background(), seeds, bl, rules, logger)
	if err != nil {
		return fmt.Errorf("failed to apply seeds: %w", err)
	}
	log.Info(map[string]any{
		"dir":              dir,
		"lists":            sum.Lists,
		"patterns_added":   sum.PatternsAdded,
		"send_rules_added": sum.SendRulesAdded,
	}, "Seeds applied")
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down and closes the database.
func (app *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(map[string]any{"address": app.server.Addr}, "HTTP server started")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = app.db.Close()
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(nil, "Shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err, "timeout": defaultShutdownTimeout}, "Error during HTTP shutdown")
	}
	if err := app.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	log.Info(nil, "Graceful shutdown completed")
	return nil
}
