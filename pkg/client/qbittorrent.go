package client

import (
	"context"
	"fmt"
	"sort"
	"strings"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

/* Struct */

type QBittorrent struct {
	Url           *string `validate:"required"`
	User          string
	Password      string
	TLSSkipVerify bool `koanf:"tls_skip_verify"`

	// internal
	log        *logrus.Entry
	clientType string
	client     *qbit.Client
}

/* Initializer */

func NewQBittorrent(name string) (*QBittorrent, error) {
	tc := QBittorrent{
		log:        logger.GetLogger(name),
		clientType: "qBittorrent",
	}

	// load config
	if err := config.K.Unmarshal(fmt.Sprintf("clients%s%s", config.Delimiter, name), &tc); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// validate config
	if err := config.ValidateStruct(tc); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// init client
	tc.client = qbit.NewClient(qbit.Config{
		Host:          strings.TrimSuffix(*tc.Url, "/"),
		Username:      tc.User,
		Password:      tc.Password,
		TLSSkipVerify: tc.TLSSkipVerify,
		BasicUser:     tc.User,
		BasicPass:     tc.Password,
		Log:           nil,
	})

	return &tc, nil
}

/* Interface  */

func (c *QBittorrent) Type() string {
	return c.clientType
}

func (c *QBittorrent) Connect(context.Context) error {
	// login
	if err := c.client.Login(); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// retrieve api version
	apiVersion, err := c.client.GetWebAPIVersion()
	if err != nil {
		return fmt.Errorf("get api version: %w", err)
	}

	c.log.Debugf("API Version: %v", apiVersion)
	return nil
}

func (c *QBittorrent) GetTorrents(ctx context.Context) (map[string]config.Torrent, error) {
	// full snapshot, rid 0 never carries a delta
	c.log.Tracef("Retrieving torrents...")
	data, err := c.client.SyncMainDataCtx(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("get main data: %w", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(data.Torrents))

	torrents := make(map[string]config.Torrent, len(data.Torrents))
	for h, t := range data.Torrents {
		torrents[h] = torrentFromQbit(h, t)
	}

	return torrents, nil
}

func (c *QBittorrent) SetCategory(ctx context.Context, hashes []string, category string) error {
	if err := c.client.SetCategoryCtx(ctx, hashes, category); err != nil {
		return fmt.Errorf("set torrent category: %v: %w", category, err)
	}

	return nil
}

func (c *QBittorrent) PauseTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.PauseCtx(ctx, hashes); err != nil {
		return fmt.Errorf("pause torrents: %v: %w", hashes, err)
	}
	return nil
}

func (c *QBittorrent) ResumeTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.ResumeCtx(ctx, hashes); err != nil {
		return fmt.Errorf("resume torrents: %v: %w", hashes, err)
	}
	return nil
}

/* Trackers */

func (c *QBittorrent) GetTrackers(ctx context.Context, hash string) ([]config.Tracker, error) {
	ts, err := c.client.GetTorrentTrackersCtx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("get torrent trackers: %v: %w", hash, err)
	}

	return trackersFromQbit(ts), nil
}

func (c *QBittorrent) AddTrackers(ctx context.Context, hash string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	// addTrackers takes one url per line
	if err := c.client.AddTrackersCtx(ctx, hash, strings.Join(urls, "\n")); err != nil {
		return fmt.Errorf("add torrent trackers: %v: %w", urls, err)
	}

	return nil
}

func (c *QBittorrent) RemoveTrackers(ctx context.Context, hash string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	// removeTrackers takes urls separated by a pipe
	if err := c.client.RemoveTrackersCtx(ctx, hash, strings.Join(urls, "|")); err != nil {
		return fmt.Errorf("remove torrent trackers: %v: %w", urls, err)
	}

	return nil
}

/* Categories */

func (c *QBittorrent) GetCategories(ctx context.Context) ([]string, error) {
	cats, err := c.client.GetCategoriesCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}

	names := make([]string, 0, len(cats))
	for name := range cats {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (c *QBittorrent) CreateCategory(ctx context.Context, name string) error {
	if err := c.client.CreateCategoryCtx(ctx, name, ""); err != nil {
		return fmt.Errorf("create category: %v: %w", name, err)
	}

	return nil
}

/* Conversion */

// torrentFromQbit maps a sync/maindata torrent. The hash comes from the map key
// because maindata entries do not repeat it.
func torrentFromQbit(hash string, t qbit.Torrent) config.Torrent {
	tags := []string{}
	if t.Tags != "" {
		tags = strings.Split(t.Tags, ", ")
	}

	return config.Torrent{
		Hash:           hash,
		Name:           t.Name,
		Category:       t.Category,
		SavePath:       t.SavePath,
		State:          string(t.State),
		Tags:           tags,
		TotalBytes:     t.Size,
		TrackerSummary: t.Tracker,
		TrackerName:    tracker.ParseDomain(t.Tracker),
	}
}

func trackersFromQbit(ts []qbit.TorrentTracker) []config.Tracker {
	trackers := make([]config.Tracker, 0, len(ts))
	for _, t := range ts {
		trackers = append(trackers, config.Tracker{
			URL:     t.Url,
			Status:  int(t.Status),
			Message: t.Message,
		})
	}
	return trackers
}
