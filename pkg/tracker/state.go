package tracker

import "github.com/pkg/errors"

type State int

const (
	StatePendingAdd State = iota
	StateAdded
	StatePendingRemove
	StateDone
	StateAddFailed
	StateRemoveFailed
)

func (s State) String() string {
	switch s {
	case StatePendingAdd:
		return "pendingAdd"
	case StateAdded:
		return "added"
	case StatePendingRemove:
		return "pendingRemove"
	case StateDone:
		return "done"
	case StateAddFailed:
		return "addFailed"
	case StateRemoveFailed:
		return "removeFailed"
	}

	return "unknown"
}

type Op int

const (
	OpNone Op = iota
	OpAdd
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}

	return "none"
}

// Migration drives a single torrent's Plan. A remove can only be reached
// through a successful add, or directly when nothing needs adding.
type Migration struct {
	plan  Plan
	state State
	trail []State
}

func NewMigration(plan Plan) *Migration {
	m := &Migration{plan: plan}

	switch {
	case plan.ToAdd != "":
		m.set(StatePendingAdd)
	case plan.ToRemove != "":
		m.set(StatePendingRemove)
	default:
		m.set(StateDone)
	}

	return m
}

func (m *Migration) Plan() Plan {
	return m.plan
}

func (m *Migration) State() State {
	return m.state
}

// Trail returns every state the migration passed through, in order.
func (m *Migration) Trail() []State {
	out := make([]State, len(m.trail))
	copy(out, m.trail)
	return out
}

func (m *Migration) Terminal() bool {
	switch m.state {
	case StateDone, StateAddFailed, StateRemoveFailed:
		return true
	}

	return false
}

func (m *Migration) Failed() bool {
	return m.state == StateAddFailed || m.state == StateRemoveFailed
}

// Next returns the operation the caller must issue next, and its tracker url.
func (m *Migration) Next() (Op, string) {
	switch m.state {
	case StatePendingAdd:
		return OpAdd, m.plan.ToAdd
	case StatePendingRemove:
		return OpRemove, m.plan.ToRemove
	}

	return OpNone, ""
}

// Complete records the result of op and advances the migration.
func (m *Migration) Complete(op Op, err error) error {
	switch {
	case op == OpAdd && m.state == StatePendingAdd:
		if err != nil {
			m.set(StateAddFailed)
			return nil
		}

		m.set(StateAdded)
		if m.plan.ToRemove != "" {
			m.set(StatePendingRemove)
		} else {
			m.set(StateDone)
		}
		return nil

	case op == OpRemove && m.state == StatePendingRemove:
		if err != nil {
			m.set(StateRemoveFailed)
			return nil
		}

		m.set(StateDone)
		return nil
	}

	return errors.Wrapf(ErrInvalidTransition, "%s while %s", op, m.state)
}

func (m *Migration) set(s State) {
	m.state = s
	m.trail = append(m.trail, s)
}
