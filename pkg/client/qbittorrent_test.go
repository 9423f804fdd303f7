package client

import (
	"testing"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/stretchr/testify/assert"

	"github.com/luckylittle/qbrecon/pkg/config"
)

func TestTorrentFromQbit(t *testing.T) {
	torrent := torrentFromQbit("abcdef", qbit.Torrent{
		Name:     "Some.Release",
		Category: "",
		SavePath: `E:\Torrents`,
		State:    qbit.TorrentStateUploading,
		Tags:     "hd, remux",
		Size:     2048,
		Tracker:  "https://announce.tracker.org/abc/announce",
	})

	assert.Equal(t, config.Torrent{
		Hash:           "abcdef",
		Name:           "Some.Release",
		SavePath:       `E:\Torrents`,
		State:          "uploading",
		Tags:           []string{"hd", "remux"},
		TotalBytes:     2048,
		TrackerSummary: "https://announce.tracker.org/abc/announce",
		TrackerName:    "tracker.org",
	}, torrent)
	assert.True(t, torrent.IsUncategorized())
}

func TestTorrentFromQbit_NoTagsNoTracker(t *testing.T) {
	torrent := torrentFromQbit("abcdef", qbit.Torrent{Name: "x"})

	assert.Equal(t, []string{}, torrent.Tags)
	assert.Empty(t, torrent.TrackerSummary)
	assert.Empty(t, torrent.TrackerName)
}

func TestTrackersFromQbit(t *testing.T) {
	trackers := trackersFromQbit([]qbit.TorrentTracker{
		{Url: "** [DHT] **", Status: qbit.TrackerStatusDisabled},
		{Url: "https://tracker.org/announce", Status: qbit.TrackerStatusOK, Message: "ok"},
	})

	assert.Equal(t, []config.Tracker{
		{URL: "** [DHT] **", Status: int(qbit.TrackerStatusDisabled)},
		{URL: "https://tracker.org/announce", Status: int(qbit.TrackerStatusOK), Message: "ok"},
	}, trackers)
	assert.Equal(t, []string{"** [DHT] **", "https://tracker.org/announce"}, TrackerURLs(trackers))
}

func TestNewClient_UnknownType(t *testing.T) {
	_, err := NewClient("transmission", "default")
	assert.Error(t, err)
}
