package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/state"
)

// Stage is a named transformation of the record into a partial update.
type Stage interface {
	Name() string
	Run(ctx context.Context, rec state.Record) (state.Partial, error)
}

type stageFunc struct {
	name string
	fn   func(ctx context.Context, rec state.Record) (state.Partial, error)
}

// NewStage adapts a function into a Stage.
func NewStage(name string, fn func(ctx context.Context, rec state.Record) (state.Partial, error)) Stage {
	return &stageFunc{name: name, fn: fn}
}

func (s *stageFunc) Name() string { return s.name }

func (s *stageFunc) Run(ctx context.Context, rec state.Record) (state.Partial, error) {
	return s.fn(ctx, rec)
}

// Executor invokes stages and merges their output into the record.
type Executor struct {
	logger *zap.Logger
}

func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger}
}

// Execute runs the stage against rec. A non-fatal stage error is appended to
// the record's error list together with whatever partial the stage returned.
func (e *Executor) Execute(ctx context.Context, stage Stage, rec state.Record) (state.Record, error) {
	name := stage.Name()
	start := time.Now()
	e.logger.Debug("stage started", logger.Stage(name))

	partial, err := stage.Run(ctx, rec)
	if partial == nil {
		partial = state.Partial{}
	}

	if err != nil {
		if IsFatal(err) {
			return rec, &StageError{Stage: name, Err: err}
		}
		e.logger.Warn("stage failed, continuing", logger.Stage(name), zap.Error(err))
		partial, err = partial.Merge(state.Errors(fmt.Sprintf("%s: %v", name, err)))
		if err != nil {
			return rec, &StageError{Stage: name, Err: err}
		}
	}

	bookkeeping := state.Partial{
		state.FieldCurrentStage: name,
		state.FieldHistory:      []string{name},
	}
	partial, err = partial.Merge(bookkeeping)
	if err != nil {
		return rec, &StageError{Stage: name, Err: err}
	}

	next, err := state.Apply(rec, partial)
	if err != nil {
		return rec, &StageError{Stage: name, Err: err}
	}

	e.logger.Info("stage finished",
		logger.Stage(name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("errors", len(next.Errors)-len(rec.Errors)),
	)

	return next, nil
}
