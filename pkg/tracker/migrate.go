package tracker

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
)

var ErrInvalidTransition = errors.New("invalid migration transition")

type MigrationSpec struct {
	OldDomain string
	NewDomain string
	DeleteOld bool
}

func (s MigrationSpec) Validate() error {
	switch {
	case strings.TrimSpace(s.OldDomain) == "":
		return errors.New("old domain is required")
	case strings.TrimSpace(s.NewDomain) == "":
		return errors.New("new domain is required")
	case s.OldDomain == s.NewDomain:
		return errors.Errorf("old and new domain are identical: %q", s.OldDomain)
	}

	return nil
}

// Plan is the set of tracker operations needed to migrate one torrent.
type Plan struct {
	// Source is the old-domain tracker the plan was derived from.
	Source   string
	ToAdd    string
	ToRemove string

	// AlreadyMigrated is set when a new-domain tracker was present.
	AlreadyMigrated bool
}

func (p Plan) Eligible() bool {
	return p.Source != ""
}

func (p Plan) Empty() bool {
	return p.ToAdd == "" && p.ToRemove == ""
}

// PlanMigration computes the add/remove operations moving a torrent's trackers
// from spec.OldDomain to spec.NewDomain. The replacement is literal on the URL
// string. No add is planned when any tracker already belongs to the new domain.
func PlanMigration(existing []string, spec MigrationSpec, match MatchFunc) Plan {
	if match == nil {
		match = DomainMatches
	}

	if spec.Validate() != nil {
		return Plan{}
	}

	// when one domain contains the other, a url carrying both belongs to the longer one
	newContainsOld := strings.Contains(spec.NewDomain, spec.OldDomain)

	var plan Plan
	seen := strset.New()
	for _, u := range existing {
		if u == "" || seen.Has(u) {
			continue
		}
		seen.Add(u)

		isNew := match(u, spec.NewDomain) && (newContainsOld || !match(u, spec.OldDomain))
		if isNew {
			plan.AlreadyMigrated = true
			continue
		}

		if plan.Source == "" && match(u, spec.OldDomain) {
			plan.Source = u
		}
	}

	if plan.Source == "" {
		return plan
	}

	if !plan.AlreadyMigrated {
		plan.ToAdd = strings.ReplaceAll(plan.Source, spec.OldDomain, spec.NewDomain)
	}

	if spec.DeleteOld && (plan.ToAdd != "" || plan.AlreadyMigrated) {
		plan.ToRemove = plan.Source
	}

	return plan
}
