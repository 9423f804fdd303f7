package client

import (
	"fmt"
	"strings"

	"github.com/luckylittle/qbrecon/pkg/config"
)

func NewClient(clientType string, clientName string) (Interface, error) {
	switch strings.ToLower(clientType) {
	case "qbittorrent":
		c, err := NewQBittorrent(clientName)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "deluge":
		c, err := NewDeluge(clientName)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	return nil, fmt.Errorf("client type not implemented: %q", clientType)
}

// TrackerURLs extracts the announce urls of trackers, preserving order.
func TrackerURLs(trackers []config.Tracker) []string {
	urls := make([]string, 0, len(trackers))
	for _, t := range trackers {
		urls = append(urls, t.URL)
	}
	return urls
}
