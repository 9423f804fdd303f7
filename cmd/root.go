package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/runtime"
)

var (
	// Global flags
	flagLogLevel   = 0
	flagConfigPath string
	flagLogPath    string
	flagDryRun     bool
	flagFilterName string

	// Global vars
	log         = logger.GetLogger("app")
	initialized bool
)

var rootCmd = &cobra.Command{
	Use:   "qbrecon",
	Short: "Reconcile torrent categories and trackers",
	Long: `A CLI tool that reconciles a torrent client's queue: it assigns missing categories
from tracker domains, renames categories, migrates tracker announce domains and
pauses or resumes torrents by storage drive.`,
	Version: runtime.Version,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Parse persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", defaultConfigPath("config.yaml"), "Config file")
	rootCmd.PersistentFlags().StringVarP(&flagLogPath, "log", "l", "", "Log file")
	rootCmd.PersistentFlags().CountVarP(&flagLogLevel, "verbose", "v", "Verbose level")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Dry run mode")
	rootCmd.PersistentFlags().StringVar(&flagFilterName, "filter", "", "Filter to use instead of client")
}

func defaultConfigPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}

	p := filepath.Join(dir, "qbrecon", name)
	if _, err := os.Stat(p); err != nil {
		return name
	}
	return p
}

func initCore(showAppInfo bool) {
	// Init Logging
	if err := logger.Init(logger.Config{
		File:      flagLogPath,
		Verbosity: flagLogLevel,
	}); err != nil {
		log.WithError(err).Fatal("Failed to initialize logging")
	}

	// Init Config
	if err := config.Init(flagConfigPath); err != nil {
		log.WithError(err).Fatal("Failed to initialize config")
	}

	// Show App Info
	if showAppInfo {
		showUsing()
	}
}

func showUsing() {
	log.Infof("Using %s = %s (%s@%s)", "VERSION", runtime.Version, runtime.GitCommit, runtime.Timestamp)
	config.ShowUsing()
	if flagLogPath != "" {
		log.Infof("Using %s = %q", "LOG", flagLogPath)
	}
	if flagDryRun {
		log.Warn("Dry-run enabled, no changes will be sent to the client")
	}
	log.Info("------------------")
}
