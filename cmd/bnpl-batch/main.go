package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
	"github.com/joseph-ayodele/bnpl-tracker/internal/export"
	"github.com/joseph-ayodele/bnpl-tracker/internal/ingest"
	repo "github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of .txt/.eml reminders (reads stdin when empty)")
		modeStr = flag.String("mode", "", "extraction mode: legacy or scored (defaults to config)")
		out     = flag.String("out", "", "write an XLSX schedule workbook to this path")
		persist = flag.Bool("persist", false, "store the batch and its payments in the configured database")
		inmem   = flag.Bool("inmem", false, "use an in-memory SQLite database when persisting")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	if *modeStr == "" {
		*modeStr = cfg.Extraction.DefaultMode
	}
	mode, ok := constants.ParseMode(*modeStr)
	if !ok {
		printError("Error: --mode must be one of %v\n", constants.Modes)
		os.Exit(1)
	}

	ctx := context.Background()

	text, err := readInput(ctx, *dir, int64(cfg.Extraction.MaxInputBytes), logger)
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	processor := core.NewProcessor(logger,
		core.WithWorkers(cfg.Extraction.Workers),
		core.WithPreviewLength(cfg.Extraction.PreviewLength),
		core.WithLocation(cfg.Location()),
	)
	start := time.Now()
	res, err := processor.Process(ctx, text, mode)
	if err != nil {
		logger.Error("failed to process batch", "error", err)
		os.Exit(1)
	}

	var scheduleRepo repo.ScheduleRepository
	if *persist {
		dbCfg := repo.ConfigFrom(cfg.Database)
		if *inmem {
			dbCfg.DSN = ":memory:"
		}
		db, err := repo.Open(ctx, dbCfg, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close(logger)
		if err := repo.Migrate(ctx, db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		scheduleRepo = repo.NewScheduleRepository(db, logger)
		id := uuid.New()
		if err := scheduleRepo.SaveBatch(ctx, id, res); err != nil {
			logger.Error("failed to save batch", "error", err)
			os.Exit(1)
		}
		logger.Info("batch stored", "batch_id", id)
	}

	if *out != "" {
		xlsx, err := export.NewService(scheduleRepo, logger).ExportSchedulesXLSX(res)
		if err != nil {
			logger.Error("failed to export schedules", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch processing complete",
		"mode", mode,
		"fragments", len(res.Results),
		"successes", res.Count(entity.KindSuccess),
		"unrecognized", res.Count(entity.KindUnrecognizedProvider),
		"failures", res.Count(entity.KindExtractionFailure),
		"providers", len(res.SchedulesByProvider),
		"elapsed_ms", time.Since(start).Milliseconds(),
		"output", *out,
	)
	for _, p := range constants.Providers() {
		sch, ok := res.SchedulesByProvider[p]
		if !ok {
			continue
		}
		fmt.Printf("%-9s payments=%d total=%s remaining=%s upcoming=%d\n",
			p, len(sch.Payments), sch.TotalAmount, sch.RemainingAmount, len(sch.Upcoming))
	}
}

func readInput(ctx context.Context, dir string, maxBytes int64, logger *slog.Logger) (string, error) {
	if dir == "" {
		r := io.Reader(os.Stdin)
		if maxBytes > 0 {
			r = io.LimitReader(os.Stdin, maxBytes+1)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
		}
		return string(data), nil
	}

	results, stats, err := ingest.NewFSIngestor(maxBytes, logger).IngestDirectory(ctx, dir, true)
	if err != nil {
		return "", err
	}
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("skipped file", "path", r.SourcePath, "error", r.Err)
		}
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return ingest.JoinTexts(results), nil
}
