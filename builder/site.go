package builder

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"applanding/config"
	"applanding/logger"
)

// SiteBuilder runs the static site generator in the site directory
type SiteBuilder struct {
	cfg *config.Config
}

// NewSiteBuilder creates a new site builder
func NewSiteBuilder(cfg *config.Config) *SiteBuilder {
	return &SiteBuilder{cfg: cfg}
}

// Build runs the configured build command, e.g. "bundle exec jekyll build"
func (b *SiteBuilder) Build(ctx context.Context) error {
	if len(b.cfg.Build.Command) == 0 {
		return fmt.Errorf("build.command is empty")
	}

	siteDir, err := filepath.Abs(b.cfg.Site.Dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute site path: %w", err)
	}

	name, args := b.cfg.Build.Command[0], b.cfg.Build.Command[1:]
	logger.Logger.Info().Str("cmd", strings.Join(b.cfg.Build.Command, " ")).Str("dir", siteDir).Msg("🔨 Building site...")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = siteDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Logger.Error().Str("output", string(output)).Msg("Site build error")
		return fmt.Errorf("site build failed: %w", err)
	}

	logger.Logger.Info().Msg("Site build successful")
	return nil
}
