package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/luckylittle/qbrecon/pkg/category"
	"github.com/luckylittle/qbrecon/pkg/client"
	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/expression"
	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

// ErrUsage marks an invocation missing a required parameter. Nothing is sent
// to the daemon when it is returned.
var ErrUsage = errors.New("invalid usage")

type Mode int

const (
	ModeUncategorizedSweep Mode = iota + 1
	ModeCategoryRename
	ModeTrackerMigration
	ModeTrackerMigrationByCategory
)

func (m Mode) String() string {
	switch m {
	case ModeUncategorizedSweep:
		return "categorize"
	case ModeCategoryRename:
		return "rename-category"
	case ModeTrackerMigration:
		return "migrate-tracker"
	case ModeTrackerMigrationByCategory:
		return "migrate-tracker-by-category"
	}

	return "unknown"
}

// Params carries the per-invocation inputs of a pass. Only the fields used by
// the selected Mode are read.
type Params struct {
	// categorize
	Rules  category.RuleSet
	Source category.Source

	// rename-category
	RenameMatch    string
	RenameTarget   string
	RenameContains bool

	// migrate-tracker
	Migration tracker.MigrationSpec
	Category  string

	Match         tracker.MatchFunc
	CreateMissing bool
}

/* Runner */

type Runner struct {
	client    client.Interface
	log       *logrus.Entry
	dryRun    bool
	workers   int
	batchSize int
	limiter   ratelimit.Limiter
	ignore    *expression.Expressions
}

type Option func(*Runner)

func WithLogger(log *logrus.Entry) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

func WithWorkers(workers int) Option {
	return func(r *Runner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

func WithBatchSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithRateLimit paces mutation calls to perSecond across all workers.
func WithRateLimit(perSecond int) Option {
	return func(r *Runner) {
		if perSecond > 0 {
			r.limiter = ratelimit.New(perSecond)
		}
	}
}

func WithIgnore(exp *expression.Expressions) Option {
	return func(r *Runner) {
		r.ignore = exp
	}
}

func New(c client.Interface, opts ...Option) *Runner {
	r := &Runner{
		client:    c,
		log:       logger.GetLogger("reconcile"),
		workers:   1,
		batchSize: 50,
		limiter:   ratelimit.NewUnlimited(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunPass fetches a fresh snapshot and applies mode to every selected torrent.
// Only pre-flight problems are returned as errors; per-torrent failures are
// recorded in the Report. A cancelled context stops dispatching and returns the
// partial report alongside ctx.Err().
func (r *Runner) RunPass(ctx context.Context, mode Mode, p Params) (Report, error) {
	report := Report{Mode: mode.String()}
	start := time.Now()

	if err := r.preflight(mode, &p); err != nil {
		return report, err
	}

	torrents, err := r.client.GetTorrents(ctx)
	if err != nil {
		return report, errors.Wrap(err, "fetch snapshot")
	}

	var size int64
	for _, t := range torrents {
		size += t.TotalBytes
	}
	r.log.Infof("Retrieved %d torrents (%s)", len(torrents), humanize.IBytes(uint64(size)))

	selected := r.selectTorrents(torrents, &report, func(t *config.Torrent) bool {
		return selects(mode, p, t)
	})

	if p.CreateMissing {
		r.ensureCategories(ctx, wantedCategories(mode, p))
	}

	outcomes, err := r.dispatch(ctx, selected, func(ctx context.Context, t *config.Torrent) *Outcome {
		switch mode {
		case ModeUncategorizedSweep:
			return r.categorize(ctx, p, t)
		case ModeCategoryRename:
			return r.rename(ctx, p, t)
		default:
			return r.migrate(ctx, mode, p, t)
		}
	})

	report.Processed = len(outcomes)
	for _, o := range outcomes {
		report.add(o)
	}

	r.log.Infof("Finished %s pass in %s: %d processed, %d mutated, %d failures, %d ignored",
		mode, time.Since(start).Round(time.Millisecond), report.Processed, report.Mutated, report.Failed,
		report.Ignored)

	return report, err
}

func (r *Runner) preflight(mode Mode, p *Params) error {
	if p.Match == nil {
		p.Match = tracker.DomainMatches
	}

	switch mode {
	case ModeUncategorizedSweep:
		if len(p.Rules) == 0 {
			return errors.Wrap(ErrUsage, "no category rules configured")
		}
		if p.Source == "" {
			p.Source = category.SourceTrackers
		}
		if p.Source == category.SourceTrackers {
			return r.requireTrackers(mode)
		}
		return nil

	case ModeCategoryRename:
		if p.RenameMatch == "" {
			return errors.Wrap(ErrUsage, "category match is required")
		}
		if p.RenameTarget == "" {
			return errors.Wrap(ErrUsage, "target category is required")
		}
		return nil

	case ModeTrackerMigration, ModeTrackerMigrationByCategory:
		if err := p.Migration.Validate(); err != nil {
			return errors.Wrap(ErrUsage, err.Error())
		}
		if mode == ModeTrackerMigrationByCategory && p.Category == "" {
			return errors.Wrap(ErrUsage, "category is required")
		}
		return r.requireTrackers(mode)
	}

	return errors.Wrapf(ErrUsage, "unknown mode: %d", int(mode))
}

func (r *Runner) requireTrackers(mode Mode) error {
	if _, ok := r.client.(client.TrackerInterface); !ok {
		return errors.Wrapf(client.ErrUnsupported, "%s requires tracker access, %s has none", mode, r.client.Type())
	}
	return nil
}

// selectTorrents returns the torrents matching sel in hash order, after
// applying the ignore filter.
func (r *Runner) selectTorrents(torrents map[string]config.Torrent, report *Report, sel func(*config.Torrent) bool) []config.Torrent {
	hashes := make([]string, 0, len(torrents))
	for h := range torrents {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	selected := make([]config.Torrent, 0, len(hashes))
	for _, h := range hashes {
		t := torrents[h]
		// the map key is authoritative
		t.Hash = h

		ignored, reason, err := r.ignore.Ignored(&t)
		if err != nil {
			r.log.WithError(err).WithField("hash", h).Errorf("Failed checking ignore filters for torrent: %q", t.Name)
			report.Ignored++
			continue
		} else if ignored {
			r.log.WithField("hash", h).Debugf("Ignoring torrent %q: %s", t.Name, reason)
			report.Ignored++
			continue
		}

		if sel(&t) {
			selected = append(selected, t)
		}
	}

	return selected
}

func selects(mode Mode, p Params, t *config.Torrent) bool {
	switch mode {
	case ModeUncategorizedSweep:
		return t.IsUncategorized()
	case ModeCategoryRename:
		return t.Category != p.RenameTarget && categoryMatches(t.Category, p)
	case ModeTrackerMigration:
		return true
	case ModeTrackerMigrationByCategory:
		return t.Category == p.Category
	}

	return false
}

// dispatch runs fn for every torrent through a bounded worker pool. The returned
// outcomes keep the order of torrents and stop at the first torrent not
// dispatched because ctx was cancelled.
func (r *Runner) dispatch(ctx context.Context, torrents []config.Torrent,
	fn func(context.Context, *config.Torrent) *Outcome) ([]Outcome, error) {

	outcomes := make([]Outcome, len(torrents))
	workerSem := make(chan struct{}, r.workers)
	wg := new(sync.WaitGroup)

	dispatched := 0
	var err error
	for i := range torrents {
		if err = ctx.Err(); err != nil {
			r.log.WithError(err).Warnf("Pass cancelled after %d of %d torrents", dispatched, len(torrents))
			break
		}

		workerSem <- struct{}{}
		wg.Add(1)
		dispatched++

		go func(i int) {
			defer func() {
				<-workerSem
				wg.Done()
			}()

			t := &torrents[i]
			if t.Hash == "" {
				outcomes[i] = Outcome{Name: t.Name, Action: ActionNone, Err: errors.New("torrent has no hash")}
				r.log.WithError(outcomes[i].Err).Errorf("Skipping malformed torrent: %q", t.Name)
				return
			}

			if o := fn(ctx, t); o != nil {
				outcomes[i] = *o
			} else {
				outcomes[i] = Outcome{Hash: t.Hash, Name: t.Name, Action: ActionNone}
			}
			outcomes[i].Size = t.TotalBytes
		}(i)
	}

	wg.Wait()
	return outcomes[:dispatched], err
}

// mutate paces and issues fn, or only logs it in dry-run mode.
func (r *Runner) mutate(log *logrus.Entry, fn func() error) error {
	if r.dryRun {
		log.Warn("Dry-run enabled, skipping...")
		return nil
	}

	r.limiter.Take()
	return fn()
}
