package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"applanding/common"
	"applanding/logger"
)

// ScanReport lists what a legacy scan did, by file name
type ScanReport struct {
	Generated []string
	Skipped   []string
	Failed    []string
}

// Scanner backfills WebP derivatives for raster files in a flat directory
type Scanner struct {
	fs        afero.Fs
	processor *common.Processor
	exts      []string
}

// NewScanner creates a scanner looking at files with one of exts
func NewScanner(fs afero.Fs, p *common.Processor, exts []string) *Scanner {
	return &Scanner{
		fs:        fs,
		processor: p,
		exts:      lo.Map(exts, func(e string, _ int) string { return strings.ToLower(e) }),
	}
}

// Scan derives a .webp sibling for every top-level raster file that has
// none. Originals are never modified. A missing directory is not an error.
func (s *Scanner) Scan(dir string) (ScanReport, error) {
	var report ScanReport

	entries, err := afero.ReadDir(s.fs, dir)
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return report, err
	}

	logger.Logger.Info().Str("dir", dir).Msg("🕰️ Scanning for legacy assets to optimize...")

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !s.Wants(name) {
			continue
		}

		if _, ok := s.Derive(dir, name); ok {
			report.Generated = append(report.Generated, name)
		} else if s.HasDerivative(dir, name) {
			report.Skipped = append(report.Skipped, name)
		} else {
			report.Failed = append(report.Failed, name)
		}
	}

	return report, nil
}

// Wants tells whether name has one of the scanned extensions
func (s *Scanner) Wants(name string) bool {
	return lo.Contains(s.exts, strings.ToLower(filepath.Ext(name)))
}

// DerivativeName is name with its extension swapped for .webp
func DerivativeName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + common.DerivedExt
}

// HasDerivative reports whether dir/name already has a .webp sibling
func (s *Scanner) HasDerivative(dir, name string) bool {
	ok, err := afero.Exists(s.fs, filepath.Join(dir, DerivativeName(name)))
	return err == nil && ok
}

// Derive generates the derivative of dir/name unless it exists. ok is
// true only when a new file was written; failures are logged.
func (s *Scanner) Derive(dir, name string) (string, bool) {
	dst := filepath.Join(dir, DerivativeName(name))
	if s.HasDerivative(dir, name) {
		return dst, false
	}

	if err := s.processor.Derive(filepath.Join(dir, name), dst); err != nil {
		logger.Logger.Error().Err(err).Str("file", name).Msg("⚠️ Failed to optimize legacy asset")
		_ = s.fs.Remove(dst)
		return dst, false
	}

	logger.Logger.Info().Str("file", name).Str("webp", filepath.Base(dst)).Msg("✨ Generated WebP for legacy asset")
	return dst, true
}
