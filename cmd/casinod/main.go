package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"casino-maintenance-backend/config"
	"casino-maintenance-backend/internal/api"
	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/db"
	"casino-maintenance-backend/internal/logger"
	"casino-maintenance-backend/internal/metrics"
	"casino-maintenance-backend/internal/mw"
	"casino-maintenance-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Setup(os.Stderr, slog.LevelInfo).Error("failed to load configuration",
			slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.SetupDefault(os.Stdout, cfg.Log.SlogLevel())
	log.Info("configuration loaded", slog.String("path", configPath))

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	appStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	log.Info("data store initialized", slog.String("driver", cfg.Database.Driver))

	issuer, err := auth.NewTokenIssuer([]byte(cfg.Auth.SecretKey), cfg.Auth.Issuer, nil)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(appStore, auth.NewBcryptHasher(cfg.Auth.BcryptCost), issuer, cfg.Auth.AccessTokenTTL, nil, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if admin := cfg.Auth.BootstrapAdmin; admin.Enabled() {
		created, err := authSvc.EnsureAdmin(ctx, admin.Username, admin.Email, admin.Password)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin user: %w", err)
		}
		if created {
			log.Info("admin user created", slog.String("username", admin.Username))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	router, err := api.NewRouter(api.Deps{
		Store:             appStore,
		Auth:              authSvc,
		Logger:            log,
		Metrics:           collector,
		Gatherer:          reg,
		CredentialLimiter: mw.NewIPRateLimiter(rate.Limit(cfg.Server.LoginRatePerSec), cfg.Server.LoginBurst, 0),
		TrustedProxies:    cfg.Server.TrustedProxies,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	log.Info("server gracefully stopped")
	return nil
}

func openStore(cfg *config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory store; data is lost on exit")
		return store.NewMemoryStore(), nil
	}
	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store.NewGormStore(gormDB), nil
}
