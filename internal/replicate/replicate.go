// Package replicate copies a record's primary artifact into the library
// folder of every additional category the record belongs to.
package replicate

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/mjott/hackshelf/internal/checksum"
	"github.com/mjott/hackshelf/internal/library"
	"github.com/mjott/hackshelf/internal/models"
)

// Modes for multi-category handling.
const (
	ModePrimaryOnly = "primary_only"
	ModeCopyAll     = "copy_all"
)

// Replicator places verified copies of primary artifacts into additional
// category locations. All paths are relative to the library root.
type Replicator struct {
	lib     library.Provider
	enabled bool
	mode    string
	logger  *slog.Logger
}

// New creates a Replicator. When enabled is false or mode is
// ModePrimaryOnly, Replicate is a no-op.
func New(lib library.Provider, enabled bool, mode string, logger *slog.Logger) *Replicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replicator{lib: lib, enabled: enabled, mode: mode, logger: logger}
}

// DestDir returns the library-relative directory for a category and tier:
// "<Category>/<NN-Tier>". The tier prefix keeps folders ordered by
// difficulty on disk.
func DestDir(category, tier string) string {
	return path.Join(category, models.TierFolder(tier))
}

// Replicate copies the record's primary artifact into the directory of
// each category after the first, keeping the filename. It returns the
// library-relative paths of the copies that succeeded.
//
// A record without a materialized artifact is skipped silently (some
// records never get one). Individual copy failures are logged and do not
// abort the remaining categories; the caller persists whatever succeeded
// onto the record's additional paths.
func (r *Replicator) Replicate(rec *models.Record) []string {
	if !r.enabled || r.mode != ModeCopyAll {
		return nil
	}
	if len(rec.Categories) <= 1 {
		return nil
	}
	if rec.Path == "" || !r.lib.Exists(rec.Path) {
		return nil
	}

	filename := filepath.Base(rec.Path)
	var created []string
	for _, category := range rec.Categories[1:] {
		dst := path.Join(DestDir(category, rec.Tier), filename)
		if dst == rec.Path {
			continue
		}
		if err := r.copyVerified(rec.Path, dst); err != nil {
			r.logger.Warn("replicate: copy failed",
				slog.String("id", rec.ID),
				slog.String("category", category),
				slog.String("dst", dst),
				slog.String("error", err.Error()))
			continue
		}
		r.logger.Info("replicate: copied",
			slog.String("id", rec.ID),
			slog.String("dst", dst))
		created = append(created, dst)
	}
	return created
}

// copyVerified copies src to dst and confirms the duplicate's checksum
// matches the source before reporting success.
func (r *Replicator) copyVerified(src, dst string) error {
	if err := r.lib.Copy(src, dst); err != nil {
		return err
	}

	absSrc, err := r.lib.Abs(src)
	if err != nil {
		return err
	}
	absDst, err := r.lib.Abs(dst)
	if err != nil {
		return err
	}
	srcSum, err := checksum.SumFile(absSrc)
	if err != nil {
		return err
	}
	dstSum, err := checksum.SumFile(absDst)
	if err != nil {
		return err
	}
	if srcSum != dstSum {
		_ = r.lib.Delete(dst)
		return fmt.Errorf("replicate: checksum mismatch for %s", dst)
	}
	return nil
}
