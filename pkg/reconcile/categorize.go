package reconcile

import (
	"context"

	"github.com/scylladb/go-set/strset"

	"github.com/luckylittle/qbrecon/pkg/category"
	"github.com/luckylittle/qbrecon/pkg/client"
	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/evaluate"
)

func (r *Runner) categorize(ctx context.Context, p Params, t *config.Torrent) *Outcome {
	log := r.log.WithField("hash", t.Hash)

	urls, err := r.classifierInput(ctx, p.Source, t)
	if err != nil {
		log.WithError(err).Errorf("Failed retrieving trackers for torrent: %q", t.Name)
		return &Outcome{Hash: t.Hash, Name: t.Name, Action: ActionCategorize, Err: err}
	}

	name, ok := category.Classify(t, urls, p.Rules, p.Match)
	if !ok {
		log.Tracef("No category rule matched torrent: %q", t.Name)
		return nil
	}

	log.Info("-----")
	log.Infof("Categorizing: %q", t.Name)
	log.Infof("Category: %q", name)

	o := &Outcome{Hash: t.Hash, Name: t.Name, Action: ActionCategorize, From: t.Category, To: name}
	if err := r.mutate(log, func() error {
		return r.client.SetCategory(ctx, []string{t.Hash}, name)
	}); err != nil {
		log.WithError(err).Errorf("Failed setting category for torrent: %q", t.Name)
		o.Err = err
		return o
	}

	log.Info("Categorized")
	return o
}

// classifierInput returns the tracker urls fed to the classifier for t.
func (r *Runner) classifierInput(ctx context.Context, source category.Source, t *config.Torrent) ([]string, error) {
	if source == category.SourceSummary {
		return []string{t.TrackerSummary}, nil
	}

	tc, ok := r.client.(client.TrackerInterface)
	if !ok {
		return nil, client.ErrUnsupported
	}

	trackers, err := tc.GetTrackers(ctx, t.Hash)
	if err != nil {
		return nil, err
	}

	return category.EligibleTrackers(client.TrackerURLs(trackers)), nil
}

func (r *Runner) rename(ctx context.Context, p Params, t *config.Torrent) *Outcome {
	log := r.log.WithField("hash", t.Hash)

	log.Info("-----")
	log.Infof("Renaming category of: %q", t.Name)
	log.Infof("Category: %q -> %q", t.Category, p.RenameTarget)

	o := &Outcome{Hash: t.Hash, Name: t.Name, Action: ActionRename, From: t.Category, To: p.RenameTarget}
	if err := r.mutate(log, func() error {
		return r.client.SetCategory(ctx, []string{t.Hash}, p.RenameTarget)
	}); err != nil {
		log.WithError(err).Errorf("Failed renaming category for torrent: %q", t.Name)
		o.Err = err
		return o
	}

	log.Info("Renamed")
	return o
}

func categoryMatches(cat string, p Params) bool {
	return evaluate.CategoryMatches(cat, p.RenameMatch, p.RenameContains)
}

// wantedCategories lists the categories a pass of mode may assign.
func wantedCategories(mode Mode, p Params) []string {
	switch mode {
	case ModeUncategorizedSweep:
		return p.Rules.Names()
	case ModeCategoryRename:
		return []string{p.RenameTarget}
	}

	return nil
}

// ensureCategories creates the wanted categories the daemon does not know yet.
// Failures are logged only: the assignments that depend on them fail per torrent.
func (r *Runner) ensureCategories(ctx context.Context, wanted []string) {
	if len(wanted) == 0 {
		return
	}

	cc, ok := r.client.(client.CategoryCreator)
	if !ok {
		r.log.Warnf("Client %s cannot create categories, skipping", r.client.Type())
		return
	}

	existing, err := cc.GetCategories(ctx)
	if err != nil {
		r.log.WithError(err).Error("Failed retrieving categories")
		return
	}

	known := strset.New(existing...)
	created := 0
	for _, name := range wanted {
		if known.Has(name) {
			continue
		}
		known.Add(name)

		log := r.log.WithField("category", name)
		log.Infof("Creating missing category: %q", name)
		if err := r.mutate(log, func() error {
			return cc.CreateCategory(ctx, name)
		}); err != nil {
			log.WithError(err).Errorf("Failed creating category: %q", name)
			continue
		}
		created++
	}

	if created > 0 {
		r.log.Infof("Created %d missing categories", created)
	}
}
