package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/async"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
)

// FSIngestor reads lab reports from the local filesystem.
type FSIngestor struct {
	Labs           LabExtractor
	SkipDuplicates bool
	Workers        int
	FileTimeout    time.Duration
	MaxFileBytes   int64
	logger         *slog.Logger
}

func NewFSIngestor(l LabExtractor, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Labs:           l,
		SkipDuplicates: true,
		Workers:        2,
		FileTimeout:    3 * time.Minute,
		MaxFileBytes:   20 << 20,
		logger:         logger,
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, userID string, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	out.FileExt = ext
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, common.NewStageError(constants.StageValidation, common.CodeUnsupportedFileType,
			fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrUnsupportedFileType)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, err
	}
	if i.MaxFileBytes > 0 && info.Size() > i.MaxFileBytes {
		return out, common.NewStageError(constants.StageValidation, common.CodeValidation,
			fmt.Sprintf("file is larger than %d bytes", i.MaxFileBytes), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("read error", "path", abs, "error", err)
		return out, err
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	if i.SkipDuplicates {
		id, dup, err := i.Labs.FindDuplicate(ctx, userID, data)
		if err != nil {
			return out, err
		}
		if dup {
			i.logger.Info("skipping processing (duplicate)", "path", abs, "file_id", id)
			out.FileID = id.String()
			out.Deduplicated = true
			return out, nil
		}
	}

	res, err := i.Labs.Extract(ctx, userID, ocr.Document{
		Data:     data,
		MIMEType: constants.MIMEFromExt(ext),
		Filename: filepath.Base(abs),
	})
	out.FileID = res.FileID.String()
	if err != nil {
		return out, err
	}
	out.Results = len(res.Results)
	out.NoText = res.NoText
	if res.NoText {
		out.Err = common.ErrNoTextFound.Error()
	}
	out.Placeholder = res.Placeholder
	out.NeedsReview = res.NeedsReview
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and extracts every
// matching file on a worker queue. Results come back sorted by path with aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	userID string,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		mu      sync.Mutex
		results []IngestionResult
		stats   DirStats
	)
	record := func(r IngestionResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			r.Err = common.MessageOf(err)
			r.Stage = string(common.StageOf(err))
			stats.Failed++
		case r.Deduplicated:
			stats.Succeeded++
			stats.Deduplicated++
		case r.NoText:
			stats.Succeeded++
			stats.NoText++
		default:
			stats.Succeeded++
		}
		results = append(results, r)
	}

	q := async.NewProcessorQueue(async.HandlerFunc(func(jobCtx context.Context, job async.Job) error {
		r, err := i.IngestPath(jobCtx, job.UserID, job.Path)
		record(r, err)
		return err
	}), i.logger, async.WithWorkers(i.Workers), async.WithProcessTimeout(i.FileTimeout))

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		mu.Lock()
		stats.Scanned++
		mu.Unlock()
		if walkErr != nil {
			record(IngestionResult{SourcePath: path}, walkErr)
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		mu.Lock()
		stats.Matched++
		mu.Unlock()

		return q.Enqueue(ctx, async.Job{Path: path, UserID: userID})
	})
	q.Shutdown(context.WithoutCancel(ctx))

	sort.Slice(results, func(a, b int) bool { return results[a].SourcePath < results[b].SourcePath })
	if walkErr != nil {
		return results, stats, fmt.Errorf("walk: %w", walkErr)
	}
	i.logger.Info("directory ingest completed",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
