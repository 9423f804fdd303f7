package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/luckylittle/qbrecon/pkg/config"
)

var errRemote = errors.New("remote failure")

// fakeClient is an in-memory client.TrackerInterface and client.CategoryCreator
// that records every mutation call.
type fakeClient struct {
	mu sync.Mutex

	torrents   map[string]config.Torrent
	trackers   map[string][]string
	categories []string

	// fail maps "op:hash" (or "op:*") to forced errors; batch calls use the
	// joined hashes as key
	fail map[string]error

	calls []string
}

func newFakeClient(torrents ...config.Torrent) *fakeClient {
	f := &fakeClient{
		torrents: make(map[string]config.Torrent),
		trackers: make(map[string][]string),
		fail:     make(map[string]error),
	}
	for _, t := range torrents {
		f.torrents[t.Hash] = t
	}
	return f
}

func (f *fakeClient) record(op string, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, op+":"+key)
	if err, ok := f.fail[op+":"+key]; ok {
		return err
	}
	if err, ok := f.fail[op+":*"]; ok {
		return err
	}
	return nil
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeClient) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeClient) Type() string {
	return "fake"
}

func (f *fakeClient) Connect(context.Context) error {
	return nil
}

func (f *fakeClient) GetTorrents(context.Context) (map[string]config.Torrent, error) {
	if err := f.record("snapshot", ""); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]config.Torrent, len(f.torrents))
	for h, t := range f.torrents {
		out[h] = t
	}
	return out, nil
}

func (f *fakeClient) SetCategory(_ context.Context, hashes []string, category string) error {
	key := strings.Join(hashes, ",")
	if err := f.record("category", key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, h := range hashes {
		t := f.torrents[h]
		t.Category = category
		f.torrents[h] = t
	}
	return nil
}

func (f *fakeClient) PauseTorrents(_ context.Context, hashes []string) error {
	return f.record("pause", strings.Join(hashes, ","))
}

func (f *fakeClient) ResumeTorrents(_ context.Context, hashes []string) error {
	return f.record("resume", strings.Join(hashes, ","))
}

func (f *fakeClient) GetTrackers(_ context.Context, hash string) ([]config.Tracker, error) {
	if err := f.record("trackers", hash); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []config.Tracker
	for _, u := range f.trackers[hash] {
		out = append(out, config.Tracker{URL: u})
	}
	return out, nil
}

func (f *fakeClient) AddTrackers(_ context.Context, hash string, urls []string) error {
	if err := f.record("add", hash); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.trackers[hash] = append(f.trackers[hash], urls...)
	return nil
}

func (f *fakeClient) RemoveTrackers(_ context.Context, hash string, urls []string) error {
	if err := f.record("remove", hash); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var kept []string
	for _, u := range f.trackers[hash] {
		remove := false
		for _, r := range urls {
			if u == r {
				remove = true
			}
		}
		if !remove {
			kept = append(kept, u)
		}
	}
	f.trackers[hash] = kept
	return nil
}

func (f *fakeClient) GetCategories(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.categories...), nil
}

func (f *fakeClient) CreateCategory(_ context.Context, name string) error {
	if err := f.record("create", name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.categories = append(f.categories, name)
	return nil
}

// basicClient only implements client.Interface, like the Deluge backend.
type basicClient struct {
	f *fakeClient
}

func (b basicClient) Type() string {
	return "basic"
}

func (b basicClient) Connect(ctx context.Context) error {
	return b.f.Connect(ctx)
}

func (b basicClient) GetTorrents(ctx context.Context) (map[string]config.Torrent, error) {
	return b.f.GetTorrents(ctx)
}

func (b basicClient) SetCategory(ctx context.Context, hashes []string, category string) error {
	return b.f.SetCategory(ctx, hashes, category)
}

func (b basicClient) PauseTorrents(ctx context.Context, hashes []string) error {
	return b.f.PauseTorrents(ctx, hashes)
}

func (b basicClient) ResumeTorrents(ctx context.Context, hashes []string) error {
	return b.f.ResumeTorrents(ctx, hashes)
}

func hashN(i int) string {
	return fmt.Sprintf("%040d", i)
}
