package notification

import (
	"context"
	"time"
)

type Action int

const (
	ActionCategorize Action = iota + 1
	ActionRename
	ActionMigrate
	ActionPause
	ActionResume
)

type Sender interface {
	CanSend() bool
	Send(ctx context.Context, title string, description string, client string, runTime time.Duration, fields []Field, dryRun bool) error
	BuildField(action Action, options BuildOptions) Field
	Name() string
}

type Field struct {
	Name  string
	Value string
}

type BuildOptions struct {
	Name string
	Size int64

	// category or tracker before and after the change
	From string
	To   string

	Error string
}
