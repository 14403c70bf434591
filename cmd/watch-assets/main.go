package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"applanding/common"
	"applanding/config"
	"applanding/logger"
	"applanding/pipeline"
	"applanding/watcher"
)

var opts struct {
	Config  string `short:"c" long:"config" env:"APPLANDING_CONFIG" description:"tool config file"`
	SiteDir string `long:"site-dir" env:"APPLANDING_SITE_DIR" description:"site root holding assets/"`
	Debug   bool   `long:"dbg" env:"DEBUG" description:"turn on debug logging"`
	NoColor bool   `long:"no-color" env:"NO_COLOR" description:"plain console output"`
}

// parseArgs loads an optional .env, then flags and their env fallbacks
func parseArgs(args []string) error {
	_ = godotenv.Load()
	_, err := flags.ParseArgs(&opts, args)
	return err
}

func main() {
	if err := parseArgs(os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	level := "info"
	if opts.Debug {
		level = "debug"
	}
	logger.Init(level, opts.NoColor)

	path, required := config.DefaultPath, false
	if opts.Config != "" {
		path, required = opts.Config, true
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load config")
	}
	if opts.SiteDir != "" {
		cfg.Site.Dir = opts.SiteDir
	}

	fs := afero.NewOsFs()
	scanner := pipeline.NewScanner(fs, common.NewProcessor(fs, cfg.Images.Quality), cfg.Images.LegacyExts)

	// catch up with whatever landed while nobody was watching
	if _, err := scanner.Scan(cfg.AssetsPath()); err != nil {
		logger.Logger.Error().Err(err).Msg("Initial scan failed")
	}

	w, err := watcher.NewWatcher(cfg.AssetsPath(), scanner)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create watcher")
	}
	if err := w.Start(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start watcher")
	}

	fmt.Println("Press Ctrl+C to stop")

	go func() {
		for event := range w.Events() {
			logger.Logger.Debug().Str("source", event.Source).Str("webp", event.Derivative).Msg("derived")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info().Msg("Shutting down...")
	w.Stop()
}
