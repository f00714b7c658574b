package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/essay-ingest/internal/common"
	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/analytics"
	"github.com/dtnitsch/essay-ingest/pkg/db"
	"github.com/dtnitsch/essay-ingest/pkg/fetcher"
	pipeline "github.com/dtnitsch/essay-ingest/pkg/ingest"
	"github.com/dtnitsch/essay-ingest/pkg/manifest"
	"github.com/dtnitsch/essay-ingest/pkg/metrics"
	"github.com/dtnitsch/essay-ingest/pkg/storage"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

// IngestAction runs one ingestion pass and prints its report.
// A failed run exits 1; a committed or no-op run exits 0 even with per-essay failures.
func IngestAction(c *cli.Context) error {
	logger := common.Logger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	format, err := manifest.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var detector *analytics.LanguageDetector
	if cfg.DetectLang {
		detector = analytics.NewLanguageDetector()
	}

	opts := []pipeline.Option{}
	ledger, err := db.Open(cfg.Ledger())
	if err != nil {
		logger.Warn("Run ledger unavailable, continuing without it", "path", cfg.Ledger(), "error", err)
	} else {
		defer ledger.Close()
		opts = append(opts, pipeline.WithRecorder(ledger))
	}

	p := pipeline.New(
		fetcher.NewFetcher(fetcher.OptionsFromConfig(cfg), logger),
		store.NewFileStore(cfg.DataDir),
		analytics.New(detector),
		logger,
		opts...,
	)

	report, runErr := p.Run(ctx, pipeline.OptionsFromConfig(cfg, c.Bool("force")))
	publish(cfg, report, logger)

	if err := manifest.Render(c.App.Writer, report, format); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if runErr != nil {
		return cli.Exit("", 1)
	}
	return nil
}

// publish writes the optional report file and metrics textfile. Failures are logged only.
func publish(cfg *models.Config, report *models.RunReport, logger *slog.Logger) {
	if cfg.ReportDir != "" {
		s := &storage.Storage{}
		path, err := manifest.WriteReport(s, cfg.ReportDir, report)
		if err != nil {
			logger.Warn("Failed to write run report", "dir", cfg.ReportDir, "error", err)
		} else {
			logger.Info("Run report written", "file", manifest.DescribeFile(s, path))
		}
	}

	if cfg.MetricsFile != "" {
		m := metrics.New()
		m.Observe(report)
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", "file", cfg.MetricsFile, "error", err)
		}
	}
}
