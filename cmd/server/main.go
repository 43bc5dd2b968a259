package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-payroll/internal/config"
	"github.com/diewo77/go-payroll/internal/db"
	"github.com/diewo77/go-payroll/internal/logging"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/payout"
	"github.com/diewo77/go-payroll/internal/policy"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(logging.Config(cfg.Log))
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}

	dbConn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			logger.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		logger.Info("seeding completed")
		return
	}

	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed")
	}

	// Seed default profiles and permissions
	if err := db.Seed(dbConn); err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	var publisher payout.Publisher = payout.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = payout.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("publishing payout drafts", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	reg := metrics.NewRegistry()
	routerCfg := policy.NewRouterConfig(dbConn, policy.Deps{
		Metrics:   reg,
		Logger:    logger,
		Publisher: publisher,
		Location:  cfg.App.Location(),
	})
	appHandler := NewApp(dbConn, routerCfg, reg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(logger, appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev, "timezone", cfg.App.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("server stopped gracefully")
}

// withLogging tags each request with an id and logs it once served.
func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		reqLog := logger.With("request_id", id)
		next.ServeHTTP(w, r.WithContext(logging.WithContext(r.Context(), reqLog)))
		reqLog.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
