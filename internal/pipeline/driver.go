package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/state"
)

// Pipeline runs a compiled plan from its entry stage to End.
type Pipeline struct {
	name   string
	plan   *Plan
	exec   *Executor
	logger *zap.Logger
}

func New(name string, plan *Plan, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("pipeline", name))
	return &Pipeline{
		name:   name,
		plan:   plan,
		exec:   NewExecutor(logger),
		logger: logger,
	}
}

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) Plan() *Plan { return p.plan }

// Run drives initial through the plan and returns the final record. Fatal
// errors return an empty record; per-candidate and stage-local failures are
// accumulated in the record's error list instead.
func (p *Pipeline) Run(ctx context.Context, initial state.Record) (state.Record, error) {
	if err := validateInput(initial); err != nil {
		return state.Record{}, err
	}

	start := time.Now()
	rec := initial
	current := p.plan.entry
	machine := NewMachine(current)

	p.logger.Info("pipeline started",
		zap.Int("documents", len(initial.Documents)),
		zap.Strings("plan", p.plan.Stages()),
	)

	for {
		if err := ctx.Err(); err != nil {
			return state.Record{}, err
		}

		stage := p.plan.stage(current)
		next, err := p.exec.Execute(ctx, stage, rec)
		if err != nil {
			return state.Record{}, err
		}
		rec = next

		target, err := p.successor(machine, current, &rec)
		if err != nil {
			return state.Record{}, err
		}

		if target == End {
			if err := machine.Terminate(); err != nil {
				return state.Record{}, err
			}
			break
		}

		if err := machine.Enter(target); err != nil {
			return state.Record{}, err
		}
		current = target
	}

	p.logger.Info("pipeline finished",
		zap.Duration("duration", time.Since(start)),
		zap.Int("candidates", len(rec.Candidates)),
		zap.Int("reanalysis_loops", machine.Loops()),
		zap.Int("errors", len(rec.Errors)),
	)

	return rec, nil
}

func (p *Pipeline) successor(machine *Machine, current string, rec *state.Record) (string, error) {
	if to, ok := p.plan.next[current]; ok {
		return to, nil
	}

	cond := p.plan.cond
	if cond == nil || cond.from != current {
		return "", &GraphError{Stage: current, Reason: "no transition out of stage"}
	}

	if err := machine.Await(); err != nil {
		return "", err
	}

	route, partial := cond.router.Route(*rec)
	if len(partial) > 0 {
		merged, err := state.Apply(*rec, partial)
		if err != nil {
			return "", &StageError{Stage: current, Err: err}
		}
		*rec = merged
	}

	to, ok := cond.targets[route]
	if !ok {
		return "", &GraphError{Stage: current, Reason: fmt.Sprintf("router chose undeclared route %s", route)}
	}

	if err := machine.Take(route); err != nil {
		return "", err
	}

	p.logger.Debug("route selected",
		zap.String("from", current),
		zap.Stringer("route", route),
		zap.String("to", to),
	)

	return to, nil
}

func validateInput(rec state.Record) error {
	if strings.TrimSpace(rec.JobText) == "" {
		return fmt.Errorf("%w: job description is empty", ErrMissingInput)
	}
	if len(rec.Documents) == 0 {
		return fmt.Errorf("%w: no candidate documents", ErrMissingInput)
	}
	return nil
}
