package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/luckylittle/qbrecon/pkg/category"
	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/notification"
	"github.com/luckylittle/qbrecon/pkg/reconcile"
)

var (
	flagCategorizeSource string
	flagCategorizeEvery  time.Duration
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize [CLIENT]",
	Short: "Assign categories to uncategorized torrents from their trackers",
	Long: `This command can be used to assign a category to every torrent without one, using the first
configured category whose tracker domains match one of the torrent's trackers.`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("categorize")

		source, err := category.ParseSource(flagCategorizeSource)
		if err != nil {
			log.WithError(err).Fatal("Failed parsing classification source")
		}

		rules := categoryRules()
		if len(rules) == 0 {
			log.Fatal("No categories configured")
		}
		log.Infof("Loaded %d category rules: %v", len(rules), rules.Names())

		s := newSession(ctx, log, clientNameArg(args))
		params := reconcile.Params{
			Rules:         rules,
			Source:        source,
			Match:         matchPolicy(log),
			CreateMissing: config.Config.CreateMissingCategories,
		}

		runPasses(ctx, log, flagCategorizeEvery, func(ctx context.Context) error {
			start := time.Now()
			report, err := s.runner.RunPass(ctx, reconcile.ModeUncategorizedSweep, params)
			return s.completePass(ctx, log, "Categorize", notification.ActionCategorize, report, start, err)
		})
	},
}

func init() {
	rootCmd.AddCommand(categorizeCmd)

	categorizeCmd.Flags().StringVar(&flagCategorizeSource, "source", string(category.SourceTrackers),
		"Tracker information to classify from (trackers or summary)")
	categorizeCmd.Flags().DurationVar(&flagCategorizeEvery, "every", 0, "Repeat the pass at this interval until interrupted")
}
