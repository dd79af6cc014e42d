package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/batch"
)

// AllowedExt checks ext against allow, or the default txt/eml set when allow is nil.
func AllowedExt(ext string, allow map[string]struct{}) bool {
	if allow == nil {
		allow = constants.AllowedExtensions
	}
	_, ok := allow[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}

// JoinTexts rebuilds one pasted batch from ingested files, skipping
// duplicates and failures, in the order given.
func JoinTexts(results []IngestionResult) string {
	var parts []string
	for _, r := range results {
		if r.Err != "" || r.Deduplicated || strings.TrimSpace(r.Text) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(r.Text))
	}
	return strings.Join(parts, "\n"+batch.Delimiter+"\n")
}
