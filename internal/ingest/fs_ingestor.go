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
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

// FSIngestor reads reminder files from the local filesystem. Files whose
// content hash was already seen by this ingestor are reported as deduplicated.
type FSIngestor struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	MaxBytes    int64               // 0 -> unlimited
	logger      *slog.Logger

	mu   sync.Mutex
	seen map[string]string // hash hex -> first path
}

func NewFSIngestor(maxBytes int64, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{MaxBytes: maxBytes, logger: logger, seen: map[string]string{}}
}

var _ Ingestor = (*FSIngestor)(nil)

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext, i.AllowedExts) {
		i.logger.Warn("ingest.skip.unsupported", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if i.MaxBytes > 0 && info.Size() > i.MaxBytes {
		return out, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), i.MaxBytes)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	if !utf8.Valid(data) {
		return out, errors.New("file is not valid UTF-8 text")
	}

	sum := sha256.Sum256(data)
	hexHash := hex.EncodeToString(sum[:])

	i.mu.Lock()
	first, dup := i.seen[hexHash]
	if !dup {
		i.seen[hexHash] = abs
	}
	i.mu.Unlock()

	out = IngestionResult{
		SourceFile: entity.SourceFile{
			SourcePath:  abs,
			ContentHash: sum[:],
			Filename:    filepath.Base(abs),
			FileExt:     ext,
			FileSize:    len(data),
			Text:        string(data),
		},
		HashHex:      hexHash,
		Deduplicated: dup,
	}
	if dup {
		i.logger.Info("ingest.dedup", "path", abs, "first", first, "hash", hexHash[:12])
	} else {
		i.logger.Debug("ingest.ok", "path", abs, "bytes", len(data))
	}
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourceFile: entity.SourceFile{SourcePath: path}, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path), i.AllowedExts) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourceFile: entity.SourceFile{SourcePath: path}, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("ingest.dir.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
