package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/paths"
)

// Action is a bulk state change applied to every torrent on a drive.
type Action int

const (
	ActionPauseTorrents Action = iota + 1
	ActionResumeTorrents
)

func (a Action) String() string {
	switch a {
	case ActionPauseTorrents:
		return ActionPause
	case ActionResumeTorrents:
		return ActionResume
	}

	return "unknown"
}

// BulkAction pauses or resumes every torrent whose save path lives on the drive
// named by storagePrefix. Hashes are sent in batches; a failed batch is retried
// one hash at a time so a bad torrent only fails itself.
func (r *Runner) BulkAction(ctx context.Context, action Action, storagePrefix string) (Report, error) {
	report := Report{Mode: action.String()}
	start := time.Now()

	volume := paths.NormalizeVolume(storagePrefix)
	if volume == "" {
		return report, errors.Wrap(ErrUsage, "storage prefix is required")
	}

	var call func(context.Context, []string) error
	switch action {
	case ActionPauseTorrents:
		call = r.client.PauseTorrents
	case ActionResumeTorrents:
		call = r.client.ResumeTorrents
	default:
		return report, errors.Wrapf(ErrUsage, "unknown action: %d", int(action))
	}

	torrents, err := r.client.GetTorrents(ctx)
	if err != nil {
		return report, errors.Wrap(err, "fetch snapshot")
	}
	r.log.Infof("Retrieved %d torrents", len(torrents))

	selected := r.selectTorrents(torrents, &report, func(t *config.Torrent) bool {
		return paths.OnVolume(t.SavePath, volume)
	})
	report.Processed = len(selected)
	r.log.Infof("Found %d torrents on drive %s:", len(selected), volume)

	byHash := make(map[string]config.Torrent, len(selected))
	hashes := make([]string, 0, len(selected))
	for _, t := range selected {
		byHash[t.Hash] = t
		hashes = append(hashes, t.Hash)
	}
	outcome := func(h string) Outcome {
		t := byHash[h]
		return Outcome{Hash: h, Name: t.Name, Size: t.TotalBytes, Action: action.String()}
	}

	log := r.log.WithField("action", action.String())
	for len(hashes) > 0 {
		if err = ctx.Err(); err != nil {
			log.WithError(err).Warnf("Cancelled with %d torrents remaining", len(hashes))
			break
		}

		n := min(r.batchSize, len(hashes))
		batch := hashes[:n]
		hashes = hashes[n:]

		berr := r.mutate(log, func() error { return call(ctx, batch) })
		if berr == nil {
			for _, h := range batch {
				report.add(outcome(h))
			}
			log.Debugf("Applied %s to %d torrents", action, len(batch))
			continue
		}
		log.WithError(berr).Warnf("Failed applying %s to batch of %d torrents, retrying individually", action, len(batch))

		for _, h := range batch {
			o := outcome(h)
			if err := r.mutate(log, func() error { return call(ctx, []string{h}) }); err != nil {
				log.WithError(err).WithField("hash", h).Errorf("Failed applying %s to torrent: %q", action, o.Name)
				o.Err = err
			}
			report.add(o)
		}
	}

	log.Infof("Finished %s in %s: %d processed, %d mutated, %d failures", action,
		time.Since(start).Round(time.Millisecond), report.Processed, report.Mutated, report.Failed)

	return report, err
}
