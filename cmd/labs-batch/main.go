package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/export"
	"github.com/joseph-ayodele/labs-tracker/internal/ingest"
	"github.com/joseph-ayodele/labs-tracker/internal/pipeline"
	repo "github.com/joseph-ayodele/labs-tracker/internal/repository"
	"github.com/joseph-ayodele/labs-tracker/internal/services/labs"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dbPath  = flag.String("db", "", "SQLite database path (defaults to SQLITE_PATH)")
		dir     = flag.String("dir", "", "directory to process lab reports from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		user    = flag.String("user", "local", "user id the results are stored under")
		workers = flag.Int("workers", 2, "number of files extracted in parallel")
		noDedup = flag.Bool("no-dedup", false, "re-extract files already processed")
		watch   = flag.Bool("watch", false, "keep running and extract new files as they appear")
		fromStr = flag.String("from", "", "from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "lab-results.xlsx")
	}

	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	path := cfg.Database.SQLitePath
	if *dbPath != "" {
		path = *dbPath
	}
	if *inmem {
		path = ":memory:"
	}
	store, err := repo.OpenSQLite(ctx, path, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	proc := pipeline.NewFromConfig(cfg, logger)
	labsSvc := labs.NewService(proc, logger, labs.WithStore(store, store))
	exportSvc := export.NewService(store, store, logger)

	ingestor := ingest.NewFSIngestor(labsSvc, logger)
	ingestor.Workers = *workers
	ingestor.SkipDuplicates = !*noDedup
	ingestor.MaxFileBytes = cfg.Server.MaxUploadBytes
	if cfg.Pipeline.AcquisitionTimeout > 0 {
		ingestor.FileTimeout = 2 * cfg.Pipeline.AcquisitionTimeout
	}

	logger.Info("starting ingestion", "dir", *dir, "user", *user)
	results, stats, err := ingestor.IngestDirectory(ctx, *user, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	summary := json.NewEncoder(os.Stdout)
	summary.SetIndent("", "  ")
	_ = summary.Encode(map[string]any{"stats": stats, "files": results})

	if err := writeExport(ctx, exportSvc, *user, from, to, *out); err != nil {
		logger.Error("failed to export", "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", *out)

	if !*watch {
		return
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{*dir},
		Debounce:   2 * time.Second,
		SkipHidden: true,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for new reports", "dir", *dir)
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping watcher")
			return
		case err, ok := <-errs:
			if ok {
				logger.Warn("watcher error", "error", err)
			}
		case p, ok := <-events:
			if !ok {
				return
			}
			fileCtx, cancel := context.WithTimeout(ctx, ingestor.FileTimeout)
			r, err := ingestor.IngestPath(fileCtx, *user, p)
			cancel()
			if err != nil {
				logger.Error("extraction failed", "path", p, "stage", common.StageOf(err), "error", err)
				continue
			}
			logger.Info("file extracted", "path", p, "results", r.Results, "deduplicated", r.Deduplicated)
			if err := writeExport(ctx, exportSvc, *user, from, to, *out); err != nil {
				logger.Error("failed to export", "error", err)
			}
		}
	}
}

func writeExport(ctx context.Context, svc *export.Service, user string, from, to *time.Time, out string) error {
	xlsx, err := svc.ExportLabsXLSX(ctx, user, from, to)
	if err != nil {
		return err
	}
	return os.WriteFile(out, xlsx, 0o644)
}
