package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckylittle/qbrecon/pkg/logger"
)

type webuiRequest struct {
	Path string
	Hash string
	URLs string
}

// newWebUI serves a qBittorrent WebUI that accepts every call and records the
// posted form of each request.
func newWebUI(t *testing.T) (*QBittorrent, func() []webuiRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		seen []webuiRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		mu.Lock()
		seen = append(seen, webuiRequest{Path: r.URL.Path, Hash: r.PostForm.Get("hash"), URLs: r.PostForm.Get("urls")})
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := &QBittorrent{
		log:        logger.GetLogger("test"),
		clientType: "qBittorrent",
		client:     qbit.NewClient(qbit.Config{Host: srv.URL}),
	}

	return c, func() []webuiRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]webuiRequest(nil), seen...)
	}
}

func TestQBittorrent_AddTrackers(t *testing.T) {
	c, seen := newWebUI(t)

	err := c.AddTrackers(context.Background(), "abc", []string{
		"https://new.org/a/announce",
		"https://new.org/b/announce",
	})
	require.NoError(t, err)

	assert.Equal(t, []webuiRequest{{
		Path: "/api/v2/torrents/addTrackers",
		Hash: "abc",
		URLs: "https://new.org/a/announce\nhttps://new.org/b/announce",
	}}, seen())
}

func TestQBittorrent_RemoveTrackers(t *testing.T) {
	c, seen := newWebUI(t)

	err := c.RemoveTrackers(context.Background(), "abc", []string{
		"https://old.org/a/announce",
		"https://old.org/b/announce",
	})
	require.NoError(t, err)

	assert.Equal(t, []webuiRequest{{
		Path: "/api/v2/torrents/removeTrackers",
		Hash: "abc",
		URLs: "https://old.org/a/announce|https://old.org/b/announce",
	}}, seen())
}

func TestQBittorrent_TrackersEmptyIsNoop(t *testing.T) {
	c, seen := newWebUI(t)

	require.NoError(t, c.AddTrackers(context.Background(), "abc", nil))
	require.NoError(t, c.RemoveTrackers(context.Background(), "abc", []string{}))
	assert.Empty(t, seen())
}
