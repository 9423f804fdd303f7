package cmd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/notification"
	"github.com/luckylittle/qbrecon/pkg/paths"
	"github.com/luckylittle/qbrecon/pkg/reconcile"
)

var flagDrive string

var pauseCmd = &cobra.Command{
	Use:   "pause [CLIENT]",
	Short: "Pause every torrent stored on a drive",
	Long:  `This command can be used to pause every torrent whose save path is on the drive given by --drive (e.g. "E").`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBulkAction(cmd, args, "pause", reconcile.ActionPauseTorrents, notification.ActionPause)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [CLIENT]",
	Short: "Resume every torrent stored on a drive",
	Long:  `This command can be used to resume every torrent whose save path is on the drive given by --drive (e.g. "E").`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBulkAction(cmd, args, "resume", reconcile.ActionResumeTorrents, notification.ActionResume)
	},
}

func runBulkAction(cmd *cobra.Command, args []string, name string, action reconcile.Action, notiAction notification.Action) {
	ctx := cmd.Context()
	start := time.Now()

	// init core
	if !initialized {
		initCore(true)
		initialized = true
	}

	// set log
	log := logger.GetLogger(name)

	s, report, err := bulkActionPass(ctx, log, clientNameArg(args), action, flagDrive)
	if errors.Is(err, context.Canceled) {
		log.Warn("Interrupted, reporting partial results")
	} else if err != nil {
		log.WithError(err).Fatalf("Failed to %s torrents on drive %q", name, flagDrive)
	}

	title := "Pause"
	if action == reconcile.ActionResumeTorrents {
		title = "Resume"
	}
	s.finishPass(context.WithoutCancel(ctx), log, title, notiAction, report, start)
}

// bulkActionPass checks the drive before anything is sent to the client, then
// connects and runs the bulk action.
func bulkActionPass(ctx context.Context, log *logrus.Entry, clientName string, action reconcile.Action,
	drive string) (*session, reconcile.Report, error) {
	if paths.NormalizeVolume(drive) == "" {
		return nil, reconcile.Report{Mode: action.String()}, errors.Wrap(reconcile.ErrUsage, "drive is required")
	}

	s := newSession(ctx, log, clientName)
	report, err := s.runner.BulkAction(ctx, action, drive)
	return s, report, err
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)

	for _, c := range []*cobra.Command{pauseCmd, resumeCmd} {
		c.Flags().StringVar(&flagDrive, "drive", "", "Drive letter the torrents are stored on")
		_ = c.MarkFlagRequired("drive")
	}
}
