package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the tool config looked up when --config is not given
const DefaultPath = "applanding.yaml"

// Config represents the tool configuration
type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Store  StoreConfig  `yaml:"store"`
	Images ImagesConfig `yaml:"images"`
	Labels LabelsConfig `yaml:"labels"`
	Patch  PatchConfig  `yaml:"patch"`
	Build  BuildConfig  `yaml:"build"`
}

type SiteConfig struct {
	Dir           string `yaml:"dir"`
	ConfigFile    string `yaml:"config_file"`
	AssetsDir     string `yaml:"assets_dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	IconName      string `yaml:"icon_name"`
}

type StoreConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Lang      string        `yaml:"lang"`
	Country   string        `yaml:"country"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ImagesConfig struct {
	Quality        int      `yaml:"quality"`
	IconSize       int      `yaml:"icon_size"`
	MaxScreenshots int      `yaml:"max_screenshots"`
	LegacyExts     []string `yaml:"legacy_exts"`
}

type LabelsConfig struct {
	Free           string `yaml:"free"`
	ChangelogTitle string `yaml:"changelog_title"`
}

type PatchConfig struct {
	// Appendable keys may be added to the site config when missing.
	// Every other key without an existing line is left out.
	Appendable []string `yaml:"appendable"`
}

type BuildConfig struct {
	Command []string `yaml:"command"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Dir:           ".",
			ConfigFile:    "_config.yml",
			AssetsDir:     "assets",
			ScreenshotDir: "screenshot",
			IconName:      "appicon",
		},
		Store: StoreConfig{
			BaseURL:   "https://play.google.com",
			Lang:      "es",
			Country:   "mx",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		Images: ImagesConfig{
			Quality:        80,
			IconSize:       512,
			MaxScreenshots: 5,
			LegacyExts:     []string{".png", ".jpg", ".jpeg"},
		},
		Labels: LabelsConfig{
			Free:           "Gratis",
			ChangelogTitle: "Novedades",
		},
		Patch: PatchConfig{
			Appendable: []string{"changelog_title", "latest_changes"},
		},
		Build: BuildConfig{
			Command: []string{"bundle", "exec", "jekyll", "build"},
		},
	}
}

// Load reads the configuration file on top of the defaults.
// A missing file is only an error when it was asked for explicitly.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !required:
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.Site.ConfigFile == "" {
		return fmt.Errorf("site.config_file is required")
	}
	if c.Site.AssetsDir == "" {
		return fmt.Errorf("site.assets_dir is required")
	}
	if c.Site.IconName == "" {
		return fmt.Errorf("site.icon_name is required")
	}
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store.base_url is required")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be within 1..100, got %d", c.Images.Quality)
	}
	if c.Images.IconSize <= 0 {
		return fmt.Errorf("images.icon_size must be positive")
	}
	if c.Images.MaxScreenshots <= 0 {
		return fmt.Errorf("images.max_screenshots must be positive")
	}
	for _, ext := range c.Images.LegacyExts {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("images.legacy_exts: %q must start with a dot", ext)
		}
	}
	return nil
}

// ConfigPath returns the site config file path
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Site.Dir, c.Site.ConfigFile)
}

// AssetsPath returns the asset directory path
func (c *Config) AssetsPath() string {
	return filepath.Join(c.Site.Dir, c.Site.AssetsDir)
}

// ScreenshotPath returns the screenshot directory path
func (c *Config) ScreenshotPath() string {
	return filepath.Join(c.AssetsPath(), c.Site.ScreenshotDir)
}

// IconRef is the icon path as the site refers to it, always the WebP derivative
func (c *Config) IconRef() string {
	return filepath.ToSlash(filepath.Join(c.Site.AssetsDir, c.Site.IconName+".webp"))
}
