package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/afero"

	"applanding/common"
	"applanding/logger"
)

// Screenshot is one accepted portrait image
type Screenshot struct {
	Index     int // 1-based acceptance order
	SourceURL string
	Width     int
	Height    int
	Files     common.Result
}

// ScreenshotSet holds at most the selector limit of portrait screenshots
type ScreenshotSet []Screenshot

// Selector picks portrait screenshots and writes them to a fresh directory
type Selector struct {
	fs         afero.Fs
	downloader Downloader
	processor  *common.Processor
	dir        string
	limit      int
}

// NewSelector creates a selector writing into dir
func NewSelector(fs afero.Fs, d Downloader, p *common.Processor, dir string, limit int) *Selector {
	return &Selector{fs: fs, downloader: d, processor: p, dir: dir, limit: limit}
}

// Select walks urls in order and keeps images taller than wide until the
// limit is reached. Candidates after that are never downloaded. The
// target directory is replaced as a whole when urls is not empty.
func (s *Selector) Select(ctx context.Context, urls []string) (ScreenshotSet, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	// a cancelled run keeps the previous set
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.fs.RemoveAll(s.dir); err != nil {
		return nil, fmt.Errorf("failed to clear screenshot directory: %w", err)
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	logger.Logger.Info().Msg("🖼️ Processing screenshots (filtering for portrait)...")

	var set ScreenshotSet
	for i, u := range urls {
		if len(set) >= s.limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return set, err
		}

		shot, ok, err := s.candidate(ctx, u, len(set)+1)
		if err != nil {
			logger.Logger.Error().Err(err).Int("index", i).Str("url", u).Msg("⚠️ Error processing screenshot")
			continue
		}
		if !ok {
			logger.Logger.Info().Int("width", shot.Width).Int("height", shot.Height).Msg("🗑️ Discarded non-portrait screenshot")
			continue
		}

		logger.Logger.Info().
			Str("name", fmt.Sprintf("screen%d", shot.Index)).
			Int("width", shot.Width).
			Int("height", shot.Height).
			Msg("✅ Processed portrait screenshot")
		set = append(set, shot)
	}

	if len(set) == 0 {
		logger.Logger.Warn().Msg("⚠️ No valid portrait screenshots found. You may need to upload one manually.")
	}

	return set, nil
}

// candidate reports ok=false for a landscape or square image
func (s *Selector) candidate(ctx context.Context, url string, index int) (Screenshot, bool, error) {
	shot := Screenshot{Index: index, SourceURL: url}

	buf, err := s.downloader.Download(ctx, url)
	if err != nil {
		return shot, false, err
	}

	shot.Width, shot.Height, err = common.Dimensions(bytes.NewReader(buf))
	if err != nil {
		return shot, false, err
	}

	if !IsPortrait(shot.Width, shot.Height) {
		return shot, false, nil
	}

	shot.Files, err = s.processor.Process(buf, url, s.dir, fmt.Sprintf("screen%d", index), common.ProcessOptions{})
	if err != nil {
		// the slot is reused by the next candidate
		_ = s.fs.Remove(shot.Files.OriginalPath)
		_ = s.fs.Remove(shot.Files.DerivedPath)
		return shot, false, err
	}

	return shot, true, nil
}

// IsPortrait is true when the image is strictly taller than wide
func IsPortrait(width, height int) bool {
	return height > width
}
