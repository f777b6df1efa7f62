package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/state"
)

// Route is the label a router selects.
type Route int

const (
	Continue Route = iota
	Reanalyze
)

func (r Route) String() string {
	switch r {
	case Continue:
		return "continue"
	case Reanalyze:
		return "reanalyze"
	default:
		return fmt.Sprintf("Route(%d)", int(r))
	}
}

// Router picks the next route after the source stage of a conditional edge.
// The returned partial is merged before control moves on.
type Router interface {
	Route(rec state.Record) (Route, state.Partial)
}

// QualityRouter loops back while the quality verdict asks for a rerun and the
// guard still allows it.
type QualityRouter struct {
	guard  RetryGuard
	logger *zap.Logger
}

func NewQualityRouter(guard RetryGuard, logger *zap.Logger) *QualityRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QualityRouter{guard: guard, logger: logger}
}

func (q *QualityRouter) Route(rec state.Record) (Route, state.Partial) {
	if rec.Quality == nil || !rec.Quality.NeedsRerun {
		return Continue, nil
	}

	if q.guard.Allow(rec.RetryCount) {
		q.logger.Info("quality gate triggered reanalysis",
			zap.Int("attempt", rec.RetryCount+1),
			zap.Int("max_attempts", q.guard.Max()),
			zap.Float64("confidence", rec.Quality.Confidence),
		)
		return Reanalyze, state.Partial{state.FieldRetryCount: rec.RetryCount + 1}
	}

	q.logger.Info("maximum reanalysis attempts reached, continuing with current results",
		zap.Int("attempts", rec.RetryCount),
	)

	verdict := *rec.Quality
	verdict.Exhausted = true
	return Continue, state.Partial{state.FieldQuality: &verdict}
}

// RouterState is the driver's position in the run.
type RouterState int

const (
	Running RouterState = iota
	AwaitingRoute
	Looping
	Continuing
	Terminated
)

func (s RouterState) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingRoute:
		return "awaiting_route"
	case Looping:
		return "looping"
	case Continuing:
		return "continuing"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("RouterState(%d)", int(s))
	}
}

var transitions = map[RouterState][]RouterState{
	Running:       {Running, AwaitingRoute, Terminated},
	AwaitingRoute: {Looping, Continuing},
	Looping:       {Running},
	Continuing:    {Running, Terminated},
	Terminated:    {},
}

// Machine tracks RouterState through a run and rejects illegal transitions.
type Machine struct {
	state RouterState
	stage string
	loops int
}

func NewMachine(entry string) *Machine {
	return &Machine{state: Running, stage: entry}
}

func (m *Machine) State() RouterState { return m.state }

// Stage returns the stage currently running or last run.
func (m *Machine) Stage() string { return m.stage }

// Loops returns how many times the machine went through Looping.
func (m *Machine) Loops() int { return m.loops }

func (m *Machine) move(to RouterState) error {
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal router transition %s -> %s", m.state, to)
}

// Enter starts the named stage.
func (m *Machine) Enter(stage string) error {
	if err := m.move(Running); err != nil {
		return err
	}
	m.stage = stage
	return nil
}

// Await marks that the finished stage has a conditional edge to resolve.
func (m *Machine) Await() error {
	return m.move(AwaitingRoute)
}

// Take applies the route chosen by the router.
func (m *Machine) Take(route Route) error {
	switch route {
	case Reanalyze:
		if err := m.move(Looping); err != nil {
			return err
		}
		m.loops++
		return nil
	case Continue:
		return m.move(Continuing)
	default:
		return fmt.Errorf("unknown route %s", route)
	}
}

func (m *Machine) Terminate() error {
	return m.move(Terminated)
}
