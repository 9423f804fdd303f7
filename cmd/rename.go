package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/notification"
	"github.com/luckylittle/qbrecon/pkg/reconcile"
)

var (
	flagRenameMatch    string
	flagRenameTo       string
	flagRenameContains bool
	flagRenameEvery    time.Duration
)

var renameCmd = &cobra.Command{
	Use:   "rename-category [CLIENT]",
	Short: "Move torrents from matching categories to a new category",
	Long: `This command can be used to rename categories in bulk: every torrent whose category starts
with --match (or contains it, with --contains) is moved to the --to category.`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("rename")

		s := newSession(ctx, log, clientNameArg(args))
		params := reconcile.Params{
			RenameMatch:    flagRenameMatch,
			RenameTarget:   flagRenameTo,
			RenameContains: flagRenameContains,
			CreateMissing:  config.Config.CreateMissingCategories,
		}

		runPasses(ctx, log, flagRenameEvery, func(ctx context.Context) error {
			start := time.Now()
			report, err := s.runner.RunPass(ctx, reconcile.ModeCategoryRename, params)
			return s.completePass(ctx, log, "Rename Category", notification.ActionRename, report, start, err)
		})
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)

	renameCmd.Flags().StringVar(&flagRenameMatch, "match", "", "Category prefix to match")
	renameCmd.Flags().StringVar(&flagRenameTo, "to", "", "Category to move matching torrents to")
	renameCmd.Flags().BoolVar(&flagRenameContains, "contains", false, "Match categories containing --match anywhere")
	renameCmd.Flags().DurationVar(&flagRenameEvery, "every", 0, "Repeat the pass at this interval until interrupted")

	_ = renameCmd.MarkFlagRequired("match")
	_ = renameCmd.MarkFlagRequired("to")
}
