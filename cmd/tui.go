package cmd

import (
	"fmt"
	"log/slog"

	"github.com/matheuskafuri/summaries/internal/auth"
	"github.com/matheuskafuri/summaries/internal/backend"
	"github.com/matheuskafuri/summaries/internal/browser"
	"github.com/matheuskafuri/summaries/internal/cache"
	"github.com/matheuskafuri/summaries/internal/config"
	"github.com/matheuskafuri/summaries/internal/logctx"
	"github.com/matheuskafuri/summaries/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logger, closer, err := logctx.OpenFile(config.LogPath(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	db, err := cache.Open(config.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	provider := auth.NewFirebase(auth.FirebaseOpts{
		APIKey: cfg.Firebase.APIKey,
		Store:  db,
		Logger: logger,
	})
	if err := provider.Restore(); err != nil {
		logger.Warn("session_restore_failed", slog.String("err", err.Error()))
	}

	logger.Info("starting",
		slog.String("version", version),
		slog.String("backend", cfg.BackendURL),
		slog.Bool("auth_enabled", cfg.AuthEnabled()),
	)

	return tui.Run(tui.RunOpts{
		Auth:        provider,
		API:         backend.New(cfg.BackendURL, cfg.RequestTimeoutDuration()),
		Store:       db,
		OpenURL:     browser.Open,
		Location:    cfg.Location(),
		Timeout:     cfg.RequestTimeoutDuration(),
		Threshold:   cfg.Threshold(),
		AuthEnabled: cfg.AuthEnabled(),
		Logger:      logger,
	})
}
