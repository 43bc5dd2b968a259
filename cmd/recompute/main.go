// Command recompute rebuilds the lines of every stored payroll period from
// the current order ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/diewo77/go-payroll/internal/config"
	"github.com/diewo77/go-payroll/internal/db"
	"github.com/diewo77/go-payroll/internal/logging"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/repository"
	"github.com/diewo77/go-payroll/internal/services"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
)

var quietFlag = flag.Bool("quiet", false, "Do not draw a progress bar")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(logging.Config(cfg.Log))
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}

	conn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos := repository.NewRepositories(conn)
	periods := services.NewPeriodManager(repos.Orders, repos.Vendors, repos.Periods,
		metrics.NewRegistry(), cfg.App.Location(), logger)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if *quietFlag {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("recomputing periods"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}

	n, err := periods.RecomputeAll(ctx, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		logger.Error("recompute failed", "recomputed", n, "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d period(s) recomputed\n", n)
}
