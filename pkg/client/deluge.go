package client

import (
	"context"
	"fmt"

	delugeclient "github.com/autobrr/go-deluge"
	"github.com/sirupsen/logrus"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/logger"
)

/* Struct */

type Deluge struct {
	Host     *string `validate:"required"`
	Port     *uint   `validate:"required"`
	Login    *string `validate:"required"`
	Password *string `validate:"required"`
	V2       bool

	// internal
	log        *logrus.Entry
	clientType string
	client     *delugeclient.LabelPlugin
	client1    *delugeclient.Client
	client2    *delugeclient.ClientV2
}

/* Initializer */

// NewDeluge builds a Deluge backend. Deluge exposes labels (used as categories)
// and a single tracker host per torrent, so it does not implement TrackerInterface.
func NewDeluge(name string) (*Deluge, error) {
	tc := Deluge{
		log:        logger.GetLogger(name),
		clientType: "Deluge",
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
	settings := delugeclient.Settings{
		Hostname: *tc.Host,
		Port:     *tc.Port,
		Login:    *tc.Login,
		Password: *tc.Password,
	}

	if tc.V2 {
		tc.client2 = delugeclient.NewV2(settings)
	} else {
		tc.client1 = delugeclient.NewV1(settings)
	}

	return &tc, nil
}

/* Interface  */

func (c *Deluge) Type() string {
	return c.clientType
}

func (c *Deluge) Connect(ctx context.Context) error {
	var err error

	// connect to deluge daemon
	c.log.Tracef("Connecting to %s:%d", *c.Host, *c.Port)

	if c.V2 {
		err = c.client2.Connect(ctx)
	} else {
		err = c.client1.Connect(ctx)
	}

	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// labels are served by the label plugin
	var lc *delugeclient.LabelPlugin

	if c.V2 {
		lc, err = c.client2.LabelPlugin(ctx)
	} else {
		lc, err = c.client1.LabelPlugin(ctx)
	}

	if err != nil {
		return fmt.Errorf("get label plugin: %w", err)
	}

	daemonVersion, err := lc.DaemonVersion(ctx)
	if err != nil {
		return fmt.Errorf("get daemon version: %w", err)
	}
	c.log.Debugf("Daemon Version: %v", daemonVersion)

	c.client = lc
	return nil
}

func (c *Deluge) GetTorrents(ctx context.Context) (map[string]config.Torrent, error) {
	// retrieve torrents from client
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.TorrentsStatus(ctx, delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, fmt.Errorf("get torrents: %w", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	// retrieve torrent labels
	labels, err := c.client.GetTorrentsLabels(delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, fmt.Errorf("get torrent labels: %w", err)
	}
	c.log.Tracef("Retrieved labels for %d torrents", len(labels))

	torrents := make(map[string]config.Torrent, len(t))
	for h, t := range t {
		torrents[h] = config.Torrent{
			Hash:       h,
			Name:       t.Name,
			Category:   labels[h],
			SavePath:   t.DownloadLocation,
			State:      t.State,
			Tags:       []string{},
			TotalBytes: t.TotalSize,
			// deluge only reports the host of the current tracker
			TrackerSummary: t.TrackerHost,
			TrackerName:    t.TrackerHost,
		}
	}

	return torrents, nil
}

func (c *Deluge) SetCategory(ctx context.Context, hashes []string, category string) error {
	for _, hash := range hashes {
		if err := c.client.SetTorrentLabel(ctx, hash, category); err != nil {
			return fmt.Errorf("set torrent label: %v: %v: %w", hash, category, err)
		}
	}

	return nil
}

func (c *Deluge) PauseTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.PauseTorrents(ctx, hashes...); err != nil {
		return fmt.Errorf("pause torrents: %v: %w", hashes, err)
	}

	return nil
}

func (c *Deluge) ResumeTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.ResumeTorrents(ctx, hashes...); err != nil {
		return fmt.Errorf("resume torrents: %v: %w", hashes, err)
	}

	return nil
}
