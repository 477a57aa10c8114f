// Package store is the date-partitioned file layout:
// <root>/<YYYY-MM-DD>/<filename>.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/logger"
)

// ErrEmptyPayload is returned when asked to persist zero bytes
var ErrEmptyPayload = errors.New("refusing to persist empty payload")

// tempSuffix marks in-flight writes; the inspector never counts them
const tempSuffix = ".part"

// staleAfter is the age a temp file must reach before Sweep treats it as
// abandoned. A live write finishes well within it.
const staleAfter = time.Hour

// Store reads and writes the local file tree
// ⭐ SSOT: 로컬 파일 경로 규칙은 이 패키지에서만
type Store struct {
	root       string
	staleAfter time.Duration
	logger     *logger.Logger
}

// New creates a store rooted at dir
func New(dir string, log *logger.Logger) *Store {
	return &Store{
		root:       dir,
		staleAfter: staleAfter,
		logger:     log.WithField("module", "store"),
	}
}

// Root returns the output directory
func (s *Store) Root() string {
	return s.root
}

// Dir returns the folder for a date
func (s *Store) Dir(date contracts.TradingDate) string {
	return filepath.Join(s.root, date.String())
}

// Path returns the local path for a target
func (s *Store) Path(date contracts.TradingDate, kind contracts.FileKind) string {
	return filepath.Join(s.Dir(date), kind.Filename(date))
}

// ExistsNonEmpty reports a regular file with at least one byte
func (s *Store) ExistsNonEmpty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Missing lists kinds that are absent or zero-length for date, in the
// canonical kind order. A zero-length file is what an interrupted
// download leaves behind, so it counts as absent.
func (s *Store) Missing(date contracts.TradingDate) []contracts.FileKind {
	var missing []contracts.FileKind
	for _, kind := range contracts.AllKinds {
		if !s.ExistsNonEmpty(s.Path(date, kind)) {
			missing = append(missing, kind)
		}
	}
	return missing
}

// AtomicWrite persists body for a target and returns the bytes written.
// The payload lands in a temp file next to the destination, is synced,
// then renamed into place, so a crash never leaves a partial file under
// the final name.
func (s *Store) AtomicWrite(date contracts.TradingDate, kind contracts.FileKind, body []byte) (int64, error) {
	if len(body) == 0 {
		return 0, ErrEmptyPayload
	}

	dir := s.Dir(date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dest := s.Path(date, kind)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+"-*"+tempSuffix)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	n, err := tmp.Write(body)
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if n != len(body) {
		cleanup()
		return 0, fmt.Errorf("short write to %s: %d of %d bytes", tmpName, n, len(body))
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":  dest,
		"bytes": n,
	}).Debug("File persisted")

	return int64(n), nil
}

// DateCoverage is the local state of one date folder
type DateCoverage struct {
	Date    contracts.TradingDate `json:"date"`
	Present []string              `json:"present"`
	Missing []string              `json:"missing"`
	Bytes   int64                 `json:"bytes"`
}

// Complete reports that all kinds are present
func (c DateCoverage) Complete() bool {
	return len(c.Missing) == 0
}

// Coverage inspects every date in [from, to], newest first
func (s *Store) Coverage(from, to contracts.TradingDate) []DateCoverage {
	var out []DateCoverage
	for d := to; !d.Before(from); d = d.AddDays(-1) {
		cov := DateCoverage{Date: d}
		for _, kind := range contracts.AllKinds {
			info, err := os.Stat(s.Path(d, kind))
			if err == nil && info.Mode().IsRegular() && info.Size() > 0 {
				cov.Present = append(cov.Present, kind.String())
				cov.Bytes += info.Size()
				continue
			}
			cov.Missing = append(cov.Missing, kind.String())
		}
		out = append(out, cov)
	}
	return out
}

// Sweep removes temp files left by interrupted writes and returns how
// many were deleted. Temp files younger than staleAfter may belong to a
// concurrent run and are left alone. A missing root is not an error.
func (s *Store) Sweep() (int, error) {
	removed := 0
	cutoff := time.Now().Add(-s.staleAfter)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), tempSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Swept interrupted downloads")
	}
	return removed, nil
}
