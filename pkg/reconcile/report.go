package reconcile

import (
	"fmt"
)

const (
	ActionNone       = "none"
	ActionCategorize = "categorize"
	ActionRename     = "rename"
	ActionMigrate    = "migrate"
	ActionPause      = "pause"
	ActionResume     = "resume"
)

// Outcome describes what happened to one torrent during a pass.
type Outcome struct {
	Hash   string
	Name   string
	Size   int64
	Action string
	From   string
	To     string
	Err    error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%s %s (%s)", o.Action, o.Hash, o.Name)
	if o.From != "" || o.To != "" {
		s += fmt.Sprintf(": %q -> %q", o.From, o.To)
	}
	if o.Err != nil {
		s += fmt.Sprintf(": %v", o.Err)
	}
	return s
}

// Report summarises a pass. Outcomes only lists torrents that were mutated, or
// would have been in dry-run, and torrents that failed.
type Report struct {
	Mode      string
	Processed int
	Mutated   int
	Failed    int
	Ignored   int
	Outcomes  []Outcome
}

func (r *Report) add(o Outcome) {
	switch {
	case o.Err != nil:
		r.Failed++
	case o.Action != ActionNone:
		r.Mutated++
	default:
		return
	}

	r.Outcomes = append(r.Outcomes, o)
}

// Failures returns the failed outcomes.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}
