package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/notification"
	"github.com/luckylittle/qbrecon/pkg/reconcile"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

var (
	flagMigrateOld       string
	flagMigrateNew       string
	flagMigrateDeleteOld bool
	flagMigrateCategory  string
	flagMigrateEvery     time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-tracker [CLIENT]",
	Short: "Move torrents from an old tracker announce domain to a new one",
	Long: `This command can be used to add a tracker on --new for every torrent announcing to --old,
optionally removing the old tracker once the new one was added. With --category only torrents
in that category are migrated, using their full tracker list.`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("migrate")

		s := newSession(ctx, log, clientNameArg(args))

		mode := reconcile.ModeTrackerMigration
		if flagMigrateCategory != "" {
			mode = reconcile.ModeTrackerMigrationByCategory
		}

		params := reconcile.Params{
			Migration: tracker.MigrationSpec{
				OldDomain: flagMigrateOld,
				NewDomain: flagMigrateNew,
				DeleteOld: flagMigrateDeleteOld,
			},
			Category: flagMigrateCategory,
			Match:    matchPolicy(log),
		}

		runPasses(ctx, log, flagMigrateEvery, func(ctx context.Context) error {
			start := time.Now()
			report, err := s.runner.RunPass(ctx, mode, params)
			return s.completePass(ctx, log, "Migrate Tracker", notification.ActionMigrate, report, start, err)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&flagMigrateOld, "old", "", "Tracker domain to migrate from")
	migrateCmd.Flags().StringVar(&flagMigrateNew, "new", "", "Tracker domain to migrate to")
	migrateCmd.Flags().BoolVar(&flagMigrateDeleteOld, "delete-old", false, "Remove the old tracker after adding the new one")
	migrateCmd.Flags().StringVar(&flagMigrateCategory, "category", "", "Only migrate torrents in this category")
	migrateCmd.Flags().DurationVar(&flagMigrateEvery, "every", 0, "Repeat the pass at this interval until interrupted")

	_ = migrateCmd.MarkFlagRequired("old")
	_ = migrateCmd.MarkFlagRequired("new")
}
