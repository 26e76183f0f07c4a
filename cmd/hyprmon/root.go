// Package main provides the CLI entrypoint for hyprmon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyprmon/hyprmon/internal/config"
	"github.com/hyprmon/hyprmon/internal/daemon"
	"github.com/hyprmon/hyprmon/internal/hyprctl"
	"github.com/hyprmon/hyprmon/internal/singleton"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		configPath string
		verbose    bool
		hook       bool
		watch      bool
	}
	logger *slog.Logger
)

// rootCmd applies the declared monitor layout once, then optionally keeps it
// reconciled against config edits and hotplug events.
var rootCmd = &cobra.Command{
	Use:   "hyprmon",
	Short: "Declarative monitor layout for Hyprland",
	Long: `hyprmon keeps a running Hyprland session's monitor layout consistent with a
declarative configuration: monitors are described relative to each other
("side is right-of main, aligned top") and hyprmon derives and applies the
absolute positions through hyprctl.

Without flags the layout is applied once. With --watch the config file is
polled for changes; with --hook hyprmon additionally listens to Hyprland's
event socket and re-applies the layout on monitor hotplug.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&globalOpts.configPath, "config", "c", "",
		"Path to config file (default: ~/.config/hyprmon/config.yaml)")
	rootCmd.Flags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.Flags().BoolVar(&globalOpts.hook, "hook", false,
		"Listen to Hyprland events and re-apply the configuration on monitor hotplug")
	rootCmd.Flags().BoolVarP(&globalOpts.watch, "watch", "w", false,
		"Watch the config file for changes and re-apply the configuration (implied by --hook)")
}

func run(cmd *cobra.Command, args []string) error {
	setupLogger()

	// Ensure only one instance runs at a time.
	singleton.Kill(logger)

	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	path = expandHome(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	client := hyprctl.NewClient(logger)
	notifier := daemon.NewNotifier(logger)
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		ConfigPath: path,
		Logger:     logger,
		Enumerate:  client.Monitors,
		Apply:      client.ApplyMonitor,
		Notify:     notifier.Send,
		Subscribe: func(ctx context.Context) (<-chan hyprctl.Event, error) {
			return hyprctl.Subscribe(ctx, logger)
		},
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := reconciler.ApplyOnce(ctx); err != nil {
		return err
	}

	if !globalOpts.hook && !globalOpts.watch {
		return nil
	}
	if globalOpts.hook {
		logger.Info("running in hook mode, listening to events")
	}
	return reconciler.Run(ctx, globalOpts.hook)
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
