package client

import (
	"context"

	"github.com/pkg/errors"

	"github.com/luckylittle/qbrecon/pkg/config"
)

var ErrUnsupported = errors.New("operation not supported by client")

// Interface is the capability surface every backend provides.
type Interface interface {
	Type() string
	Connect(ctx context.Context) error
	GetTorrents(ctx context.Context) (map[string]config.Torrent, error)

	SetCategory(ctx context.Context, hashes []string, category string) error
	PauseTorrents(ctx context.Context, hashes []string) error
	ResumeTorrents(ctx context.Context, hashes []string) error
}

// TrackerInterface is implemented by backends exposing per-torrent tracker lists.
type TrackerInterface interface {
	Interface

	GetTrackers(ctx context.Context, hash string) ([]config.Tracker, error)
	AddTrackers(ctx context.Context, hash string, urls []string) error
	RemoveTrackers(ctx context.Context, hash string, urls []string) error
}

// CategoryCreator is implemented by backends that can create missing categories.
type CategoryCreator interface {
	GetCategories(ctx context.Context) ([]string, error)
	CreateCategory(ctx context.Context, name string) error
}
