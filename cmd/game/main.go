package main

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mkarren/voidbelt/internal/config"
	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop"
)

func main() {
	cfg, err := config.LoadGame()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	settings, preset, err := resolveEnvironment(cfg.EnvFile, cfg.Quality, cfg.Preset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Stdout belongs to the game; logs go to a file or nowhere.
	logger := zap.NewNop()
	if cfg.LogFile != "" {
		logCfg := zap.NewDevelopmentConfig()
		logCfg.OutputPaths = []string{cfg.LogFile}
		logCfg.ErrorOutputPaths = []string{cfg.LogFile}
		logger, err = logCfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	opts := loop.Options{
		Env:      settings,
		Preset:   preset,
		Username: cfg.Callsign,
		Logger:   logger,
	}
	if err := loop.Run(reader, os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

// resolveEnvironment builds the environment settings from the configured
// overlay file, quality override and preset name.
func resolveEnvironment(file, quality, preset string) (env.Settings, env.Preset, error) {
	settings := env.DefaultSettings()
	if file != "" {
		var err error
		settings, err = env.LoadSettings(file)
		if err != nil {
			return settings, "", fmt.Errorf("load settings: %w", err)
		}
	}
	if quality != "" {
		q, err := env.ParseQuality(quality)
		if err != nil {
			return settings, "", err
		}
		settings.Quality = q
	}
	return settings, env.Preset(preset), nil
}
