package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckylittle/qbrecon/pkg/category"
	"github.com/luckylittle/qbrecon/pkg/client"
	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/expression"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

var sweepRules = category.RuleSet{
	{Name: "A", Domains: []string{"alpha.org"}},
	{Name: "B", Domains: []string{"beta.net"}},
}

func sweepParams() Params {
	return Params{Rules: sweepRules, Source: category.SourceTrackers, Match: tracker.DomainMatches}
}

func TestRunPass_UncategorizedSweep(t *testing.T) {
	f := newFakeClient(
		config.Torrent{Hash: "h1", Name: "one"},
		config.Torrent{Hash: "h2", Name: "two", Category: "Movies"},
		config.Torrent{Hash: "h3", Name: "three"},
		config.Torrent{Hash: "h4", Name: "four"},
	)
	f.trackers["h1"] = []string{"** [DHT] **", "https://tracker.beta.net/announce"}
	f.trackers["h2"] = []string{"https://alpha.org/announce"}
	f.trackers["h3"] = []string{"udp://alpha.org:1337/announce"}
	f.trackers["h4"] = []string{"https://beta.net/a", "https://alpha.org/a"}

	report, err := New(f).RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Mutated)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, "B", f.torrents["h1"].Category)
	assert.Equal(t, "Movies", f.torrents["h2"].Category)
	assert.Equal(t, "", f.torrents["h3"].Category, "udp trackers are not classified")
	assert.Equal(t, "A", f.torrents["h4"].Category, "first rule wins")

	assert.Equal(t, []string{"category:h1", "category:h4"}, f.callsWithPrefix("category:"))
	assert.NotContains(t, f.Calls(), "trackers:h2", "categorized torrents are not inspected")
}

func TestRunPass_UncategorizedSweepIdempotent(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "h1"}, config.Torrent{Hash: "h2"})
	f.trackers["h1"] = []string{"https://alpha.org/announce"}
	f.trackers["h2"] = []string{"https://beta.net/announce"}

	r := New(f)
	first, err := r.RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Mutated)

	second, err := r.RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 0, second.Mutated)
	assert.Len(t, f.callsWithPrefix("category:"), 2)
}

func TestRunPass_UncategorizedSweepSummary(t *testing.T) {
	f := newFakeClient(
		config.Torrent{Hash: "h1", TrackerSummary: "https://alpha.org/announce"},
		config.Torrent{Hash: "h2", TrackerSummary: ""},
	)

	params := sweepParams()
	params.Source = category.SourceSummary

	report, err := New(basicClient{f}).RunPass(context.Background(), ModeUncategorizedSweep, params)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Mutated)
	assert.Equal(t, "A", f.torrents["h1"].Category)
	assert.Empty(t, f.callsWithPrefix("trackers:"))
}

func TestRunPass_PartialFailureIsolated(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "h1"}, config.Torrent{Hash: "h2"}, config.Torrent{Hash: "h3"})
	for _, h := range []string{"h1", "h2", "h3"} {
		f.trackers[h] = []string{"https://alpha.org/announce"}
	}
	f.fail["category:h2"] = errRemote

	report, err := New(f).RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Mutated)
	assert.Equal(t, 1, report.Failed)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "h2", failures[0].Hash)
	assert.ErrorIs(t, failures[0].Err, errRemote)
	assert.Equal(t, "A", f.torrents["h3"].Category)
}

func TestRunPass_TrackerFetchFailure(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "h1"}, config.Torrent{Hash: "h2"})
	f.trackers["h2"] = []string{"https://alpha.org/announce"}
	f.fail["trackers:h1"] = errRemote

	report, err := New(f).RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mutated)
	assert.Equal(t, 1, report.Failed)
}

func TestRunPass_MalformedTorrent(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "", Name: "no hash"}, config.Torrent{Hash: "h1"})
	f.trackers["h1"] = []string{"https://alpha.org/announce"}

	report, err := New(f).RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Mutated)
	assert.Equal(t, 1, report.Failed)
	assert.NotContains(t, f.Calls(), "trackers:")
}

func TestRunPass_Preflight(t *testing.T) {
	tests := []struct {
		name   string
		client func(*fakeClient) client.Interface
		mode   Mode
		params Params
		target error
	}{
		{
			name:   "unknown mode",
			mode:   Mode(42),
			target: ErrUsage,
		},
		{
			name:   "sweep without rules",
			mode:   ModeUncategorizedSweep,
			target: ErrUsage,
		},
		{
			name:   "rename without match",
			mode:   ModeCategoryRename,
			params: Params{RenameTarget: "TV"},
			target: ErrUsage,
		},
		{
			name:   "rename without target",
			mode:   ModeCategoryRename,
			params: Params{RenameMatch: "tv"},
			target: ErrUsage,
		},
		{
			name:   "migration without new domain",
			mode:   ModeTrackerMigration,
			params: Params{Migration: tracker.MigrationSpec{OldDomain: "old.org"}},
			target: ErrUsage,
		},
		{
			name: "migration by category without category",
			mode: ModeTrackerMigrationByCategory,
			params: Params{Migration: tracker.MigrationSpec{
				OldDomain: "old.org",
				NewDomain: "new.net",
			}},
			target: ErrUsage,
		},
		{
			name:   "tracker source without tracker access",
			client: func(f *fakeClient) client.Interface { return basicClient{f} },
			mode:   ModeUncategorizedSweep,
			params: sweepParams(),
			target: client.ErrUnsupported,
		},
		{
			name:   "migration without tracker access",
			client: func(f *fakeClient) client.Interface { return basicClient{f} },
			mode:   ModeTrackerMigration,
			params: Params{Migration: tracker.MigrationSpec{OldDomain: "old.org", NewDomain: "new.net"}},
			target: client.ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeClient(config.Torrent{Hash: "h1"})

			var c client.Interface = f
			if tt.client != nil {
				c = tt.client(f)
			}

			_, err := New(c).RunPass(context.Background(), tt.mode, tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Empty(t, f.Calls())
		})
	}
}

func TestRunPass_SnapshotFailure(t *testing.T) {
	f := newFakeClient()
	f.fail["snapshot:"] = errRemote

	_, err := New(f).RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, errRemote)
}

func TestRunPass_CategoryRename(t *testing.T) {
	f := newFakeClient(
		config.Torrent{Hash: "h1", Category: "tv-hd"},
		config.Torrent{Hash: "h2", Category: "tv-sd"},
		config.Torrent{Hash: "h3", Category: "hd-tv"},
		config.Torrent{Hash: "h4", Category: "tv"},
		config.Torrent{Hash: "h5", Category: ""},
	)

	params := Params{RenameMatch: "tv", RenameTarget: "tv"}
	report, err := New(f).RunPass(context.Background(), ModeCategoryRename, params)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Mutated)
	assert.Equal(t, []string{"category:h1", "category:h2"}, f.callsWithPrefix("category:"))
	assert.Equal(t, "hd-tv", f.torrents["h3"].Category)

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "tv-hd", report.Outcomes[0].From)
	assert.Equal(t, "tv", report.Outcomes[0].To)
}

func TestRunPass_CategoryRenameContains(t *testing.T) {
	f := newFakeClient(
		config.Torrent{Hash: "h1", Category: "hd-tv"},
		config.Torrent{Hash: "h2", Category: "movies"},
	)

	params := Params{RenameMatch: "tv", RenameTarget: "Series", RenameContains: true}
	report, err := New(f).RunPass(context.Background(), ModeCategoryRename, params)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Mutated)
	assert.Equal(t, "Series", f.torrents["h1"].Category)
	assert.Equal(t, "movies", f.torrents["h2"].Category)
}

func TestRunPass_CreateMissingCategories(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "h1"})
	f.trackers["h1"] = []string{"https://alpha.org/announce"}
	f.categories = []string{"B"}

	params := sweepParams()
	params.CreateMissing = true

	_, err := New(f).RunPass(context.Background(), ModeUncategorizedSweep, params)
	require.NoError(t, err)

	calls := f.Calls()
	assert.Contains(t, calls, "create:A")
	assert.NotContains(t, calls, "create:B")
	assert.Less(t, indexOf(calls, "create:A"), indexOf(calls, "category:h1"))
}

func TestRunPass_DryRun(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "h1"}, config.Torrent{Hash: "h2", Category: "tv-hd"})
	f.trackers["h1"] = []string{"https://alpha.org/announce"}

	r := New(f, WithDryRun(true))

	report, err := r.RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mutated)

	report, err = r.RunPass(context.Background(), ModeCategoryRename, Params{RenameMatch: "tv", RenameTarget: "TV"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mutated)

	assert.Empty(t, f.callsWithPrefix("category:"))
	assert.Equal(t, "", f.torrents["h1"].Category)
}

func TestRunPass_IgnoreFilter(t *testing.T) {
	f := newFakeClient(
		config.Torrent{Hash: "h1", Name: "keep.me"},
		config.Torrent{Hash: "h2", Name: "skip.me"},
	)
	f.trackers["h1"] = []string{"https://alpha.org/announce"}
	f.trackers["h2"] = []string{"https://alpha.org/announce"}

	exp, err := expression.Compile(&config.FilterConfiguration{Ignore: []string{`Name contains "skip"`}})
	require.NoError(t, err)

	report, err := New(f, WithIgnore(exp)).RunPass(context.Background(), ModeUncategorizedSweep, sweepParams())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ignored)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, []string{"category:h1"}, f.callsWithPrefix("category:"))
}

func TestRunPass_Cancelled(t *testing.T) {
	f := newFakeClient(config.Torrent{Hash: "h1"})
	f.trackers["h1"] = []string{"https://alpha.org/announce"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(f).RunPass(ctx, ModeUncategorizedSweep, sweepParams())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Processed)
	assert.Empty(t, f.callsWithPrefix("category:"))
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}
