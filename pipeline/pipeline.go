package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"applanding/common"
	"applanding/config"
	"applanding/fetcher"
	"applanding/logger"
)

// Downloader fetches a URL into memory
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Builder builds the site once the config is patched
type Builder interface {
	Build(ctx context.Context) error
}

// Options toggles optional steps of a run
type Options struct {
	SkipScreenshots bool
	SkipLegacy      bool
	Builder         Builder // nil skips the build
}

// Summary is what a run produced
type Summary struct {
	App         *fetcher.AppRecord
	Icon        *common.Result
	Screenshots ScreenshotSet
	Legacy      ScanReport
	Changes     []common.PatchChange
}

// Runner fetches a listing and updates the site assets and config
type Runner struct {
	cfg        *config.Config
	fs         afero.Fs
	provider   fetcher.Provider
	downloader Downloader
	processor  *common.Processor
}

// NewRunner wires the pipeline steps together
func NewRunner(cfg *config.Config, fs afero.Fs, provider fetcher.Provider, downloader Downloader) *Runner {
	return &Runner{
		cfg:        cfg,
		fs:         fs,
		provider:   provider,
		downloader: downloader,
		processor:  common.NewProcessor(fs, cfg.Images.Quality),
	}
}

// Run performs every step for appID. A failed fetch, a failure to create
// the assets directory and cancellation of ctx are returned; the remaining
// steps log their errors and carry on. Once ctx is done no further step
// starts, so the site config is left untouched.
func (r *Runner) Run(ctx context.Context, appID string, opts Options) (*Summary, error) {
	logger.Logger.Info().Str("app", appID).Msg("🔍 Fetching data from Google Play...")

	app, err := r.provider.App(ctx, fetcher.Query{
		AppID:   appID,
		Lang:    r.cfg.Store.Lang,
		Country: r.cfg.Store.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch app data: %w", err)
	}

	logger.Logger.Info().Str("title", app.Title).Msg("📱 Found app")
	sum := &Summary{App: app}

	if err := r.fs.MkdirAll(r.cfg.AssetsPath(), 0755); err != nil {
		return sum, fmt.Errorf("failed to create assets directory: %w", err)
	}

	if app.Icon != "" {
		logger.Logger.Info().Msg("🖼️ Processing App Icon...")
		size := r.cfg.Images.IconSize
		sum.Icon = r.processURL(ctx, app.Icon, r.cfg.AssetsPath(), r.cfg.Site.IconName, common.ProcessOptions{
			Resize: &common.Size{Width: size, Height: size},
		})
	}
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run interrupted after icon: %w", err)
	}

	if !opts.SkipScreenshots {
		sel := NewSelector(r.fs, r.downloader, r.processor, r.cfg.ScreenshotPath(), r.cfg.Images.MaxScreenshots)
		set, err := sel.Select(ctx, app.Screenshots)
		if err != nil {
			logger.Logger.Error().Err(err).Msg("⚠️ Screenshot processing stopped")
		}
		sum.Screenshots = set
	}
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run interrupted after screenshots: %w", err)
	}

	if !opts.SkipLegacy {
		report, err := NewScanner(r.fs, r.processor, r.cfg.Images.LegacyExts).Scan(r.cfg.AssetsPath())
		if err != nil {
			logger.Logger.Error().Err(err).Msg("⚠️ Legacy asset scan failed")
		}
		sum.Legacy = report
	}
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run interrupted before config update: %w", err)
	}

	sum.Changes = r.updateConfig(app)

	if opts.Builder != nil {
		if err := opts.Builder.Build(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("❌ Site build failed")
		}
	}

	return sum, nil
}

// processURL downloads url and stores it as original + derivative.
// Any failure is logged with the url and yields nil.
func (r *Runner) processURL(ctx context.Context, url, dir, base string, opts common.ProcessOptions) *common.Result {
	buf, err := r.downloader.Download(ctx, url)
	if err != nil {
		logger.Logger.Error().Err(err).Str("url", url).Msg("⚠️ Failed to process image")
		return nil
	}

	res, err := r.processor.Process(buf, url, dir, base, opts)
	if err != nil {
		logger.Logger.Error().Err(err).Str("url", url).Msg("⚠️ Failed to process image")
		return nil
	}

	logger.Logger.Info().Str("path", res.OriginalPath).Msg("✅ Saved Original")
	logger.Logger.Info().Str("path", res.DerivedPath).Msg("✨ Saved Optimized")
	return &res
}

// Fields maps a listing onto the site config keys, in patch order
func Fields(cfg *config.Config, app *fetcher.AppRecord) []common.Field {
	var price any = app.PriceText
	switch {
	case app.Free:
		price = cfg.Labels.Free
	case app.PriceText == "" && app.Price != 0:
		price = app.Price
	}

	return []common.Field{
		{Key: "app_name", Value: app.Title},
		{Key: "app_description", Value: app.Summary},
		{Key: "playstore_link", Value: app.URL},
		{Key: "app_price", Value: price},
		{Key: "app_icon", Value: cfg.IconRef()},
		{Key: "developer_name", Value: app.Developer},
		{Key: "your_name", Value: app.Developer},
		{Key: "page_title", Value: app.Title},
		{Key: "changelog_title", Value: cfg.Labels.ChangelogTitle},
		{Key: "latest_changes", Value: app.RecentChanges},
	}
}

func (r *Runner) updateConfig(app *fetcher.AppRecord) []common.PatchChange {
	path := r.cfg.ConfigPath()

	site, err := common.LoadSiteConfig(r.fs, path)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("❌ Error updating config")
		return nil
	}

	logger.Logger.Info().Str("file", path).Msg("📝 Updating site config...")

	changes := site.Apply(Fields(r.cfg, app), r.cfg.Patch.Appendable)
	for _, c := range changes {
		switch c.Kind {
		case common.PatchAppended:
			logger.Logger.Info().Str("key", c.Key).Msg("➕ Added new key")
		case common.PatchSkipped:
			logger.Logger.Debug().Str("key", c.Key).Msg("key has no line and is not appendable, left out")
		}
	}

	if err := site.Valid(); err != nil {
		logger.Logger.Warn().Err(err).Msg("⚠️ Patched config does not parse as YAML, writing it anyway")
	}

	if err := site.Save(); err != nil {
		logger.Logger.Error().Err(err).Msg("❌ Error updating config")
		return changes
	}

	logger.Logger.Info().Str("file", path).Msg("✅ Updated site config successfully.")
	return changes
}

// IsNotFound tells whether a fetch error means the app does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, fetcher.ErrAppNotFound) || strings.Contains(strings.ToLower(fmt.Sprint(err)), "not found")
}
