package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"applanding/builder"
	"applanding/config"
	"applanding/fetcher"
	"applanding/logger"
	"applanding/pipeline"
)

var opts struct {
	Config  string `short:"c" long:"config" env:"APPLANDING_CONFIG" description:"tool config file (default: applanding.yaml if present)"`
	SiteDir string `long:"site-dir" env:"APPLANDING_SITE_DIR" description:"site root holding _config.yml and assets/"`
	Lang    string `long:"lang" env:"APPLANDING_LANG" description:"store language"`
	Country string `long:"country" env:"APPLANDING_COUNTRY" description:"store country"`

	SkipScreenshots bool `long:"skip-screenshots" description:"keep the current screenshot set"`
	SkipLegacy      bool `long:"skip-legacy" description:"do not backfill webp for existing assets"`
	Build           bool `long:"build" description:"build the site after patching the config"`
	Strict          bool `long:"strict" description:"exit with a non-zero code when the app cannot be fetched"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"turn on debug logging"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"plain console output"`

	Args struct {
		AppID string `positional-arg-name:"app-id" description:"store package name, e.g. com.package.name"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	p := flags.NewParser(&opts, flags.Default)
	p.Usage = "[OPTIONS] <com.package.name>"
	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	level := "info"
	if opts.Debug {
		level = "debug"
	}
	logger.Init(level, opts.NoColor)

	cfg, err := loadConfig()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetcher.NewClient(fetcher.ClientOptions{
		UserAgent: cfg.Store.UserAgent,
		Lang:      cfg.Store.Lang,
		Timeout:   cfg.Store.Timeout,
		Logger:    logger.Logger,
	})
	provider := fetcher.NewGooglePlay(client, cfg.Store.BaseURL)

	runOpts := pipeline.Options{
		SkipScreenshots: opts.SkipScreenshots,
		SkipLegacy:      opts.SkipLegacy,
	}
	if opts.Build {
		runOpts.Builder = builder.NewSiteBuilder(cfg)
	}

	runner := pipeline.NewRunner(cfg, afero.NewOsFs(), provider, client)
	if _, err := runner.Run(ctx, opts.Args.AppID, runOpts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Logger.Warn().Err(err).Msg("🛑 Interrupted, site config left untouched")
			os.Exit(1)
		}
		logger.Logger.Error().Err(err).Msg("❌ Error fetching app data")
		if pipeline.IsNotFound(err) {
			logger.Logger.Info().Msg("💡 Tip: Double check the package name and ensure the app is available in the selected store.")
		}
		if opts.Strict {
			os.Exit(1)
		}
		return
	}

	fmt.Println("\n🎉 Done! Now run 'bundle exec jekyll serve' to review changes.")
}

func loadConfig() (*config.Config, error) {
	path, required := config.DefaultPath, false
	if opts.Config != "" {
		path, required = opts.Config, true
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	if opts.SiteDir != "" {
		cfg.Site.Dir = opts.SiteDir
	}
	if opts.Lang != "" {
		cfg.Store.Lang = opts.Lang
	}
	if opts.Country != "" {
		cfg.Store.Country = opts.Country
	}

	return cfg, cfg.Validate()
}
