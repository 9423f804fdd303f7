package reconcile

import (
	"context"

	"github.com/pkg/errors"

	"github.com/luckylittle/qbrecon/pkg/client"
	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

func (r *Runner) migrate(ctx context.Context, mode Mode, p Params, t *config.Torrent) *Outcome {
	log := r.log.WithField("hash", t.Hash)

	tc, ok := r.client.(client.TrackerInterface)
	if !ok {
		return &Outcome{Hash: t.Hash, Name: t.Name, Action: ActionMigrate, Err: client.ErrUnsupported}
	}

	// the global pass works from the snapshot summary, the per-category pass
	// from the torrent's full tracker list
	var existing []string
	if mode == ModeTrackerMigrationByCategory {
		trackers, err := tc.GetTrackers(ctx, t.Hash)
		if err != nil {
			log.WithError(err).Errorf("Failed retrieving trackers for torrent: %q", t.Name)
			return &Outcome{Hash: t.Hash, Name: t.Name, Action: ActionMigrate, Err: err}
		}
		existing = client.TrackerURLs(trackers)
	} else {
		existing = []string{t.TrackerSummary}
	}

	plan := tracker.PlanMigration(existing, p.Migration, p.Match)
	if !plan.Eligible() || plan.Empty() {
		if plan.AlreadyMigrated {
			log.Tracef("Torrent already migrated: %q", t.Name)
		}
		return nil
	}

	log.Info("-----")
	log.Infof("Migrating trackers of: %q", t.Name)
	if plan.ToAdd != "" {
		log.Infof("Add: %s", plan.ToAdd)
	}
	if plan.ToRemove != "" {
		log.Infof("Remove: %s", plan.ToRemove)
	}

	o := &Outcome{Hash: t.Hash, Name: t.Name, Action: ActionMigrate, From: plan.Source, To: plan.ToAdd}
	m := tracker.NewMigration(plan)
	for !m.Terminal() {
		op, url := m.Next()

		err := r.mutate(log, func() error {
			if op == tracker.OpAdd {
				return tc.AddTrackers(ctx, t.Hash, []string{url})
			}
			return tc.RemoveTrackers(ctx, t.Hash, []string{url})
		})
		if err != nil {
			log.WithError(err).WithField("op", op.String()).Errorf("Failed migrating trackers of torrent: %q", t.Name)
			o.Err = errors.Wrapf(err, "%s tracker", op)
		}

		if cerr := m.Complete(op, err); cerr != nil {
			o.Err = cerr
			break
		}
	}

	log.Debugf("Migration states: %v", m.Trail())
	if o.Err == nil {
		log.Info("Migrated")
	}
	return o
}
