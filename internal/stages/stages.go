// Package stages implements the screening stages and assembles them into the
// linear and extended pipelines.
package stages

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/enrichment"
	"github.com/spigell/screener/internal/extract"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/pipeline"
	"github.com/spigell/screener/internal/state"
	"github.com/spigell/screener/internal/tools"
)

const (
	Requirements = "requirements"
	Parse        = "parse"
	Tools        = "tools"
	Enrich       = "enrich"
	Skills       = "skills"
	Experience   = "experience"
	Education    = "education"
	Score        = "score"
	Quality      = "quality"
	Bias         = "bias"
	Salary       = "salary"
	ATS          = "ats"
	Report       = "report"
	Questions    = "questions"
)

// Deps aggregates the collaborators shared by all stages.
type Deps struct {
	Caller      *ai.Caller
	Extractor   extract.Extractor
	Coordinator *tools.Coordinator
	Enricher    *enrichment.Executor
	Logger      *zap.Logger
}

// Weights of the three score components. They are expected to sum to 1.
type Weights struct {
	Skills     float64
	Experience float64
	Education  float64
}

// Config holds the tunable policy of the stages.
type Config struct {
	Workers          int
	Weights          Weights
	QualityThreshold float64
	MaxRetries       int
}

const (
	DefaultWorkers          = 4
	DefaultQualityThreshold = 0.7
)

func DefaultConfig() Config {
	return Config{
		Workers:          DefaultWorkers,
		Weights:          Weights{Skills: 0.5, Experience: 0.3, Education: 0.2},
		QualityThreshold: DefaultQualityThreshold,
		MaxRetries:       pipeline.DefaultMaxRetries,
	}
}

// Set binds the stage implementations to their dependencies.
type Set struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func New(deps Deps, cfg Config) *Set {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.NewFiles(deps.Logger)
	}
	if deps.Coordinator == nil {
		deps.Coordinator = tools.NewCoordinator(deps.Caller, deps.Logger)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Set{deps: deps, cfg: cfg, logger: deps.Logger, now: time.Now}
}

// Stage returns the named stage bound to the set.
func (s *Set) Stage(name string) (pipeline.Stage, error) {
	fn, ok := map[string]func(context.Context, state.Record) (state.Partial, error){
		Requirements: s.requirements,
		Parse:        s.parse,
		Tools:        s.planTools,
		Enrich:       s.enrich,
		Skills:       s.skills,
		Experience:   s.experience,
		Education:    s.education,
		Score:        s.score,
		Quality:      s.quality,
		Bias:         s.bias,
		Salary:       s.salary,
		ATS:          s.ats,
		Report:       s.report,
		Questions:    s.questions,
	}[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", name)
	}
	return pipeline.NewStage(name, fn), nil
}

// llmFailed reports whether err is a real generation failure rather than the
// generator being switched off.
func llmFailed(err error) bool {
	return err != nil && !errors.Is(err, ai.ErrDisabled)
}

// candidateErrors formats per-candidate failures for the record's error list.
func candidateErrors[T any](stage string, items []T, name func(T) string, errs []error) []string {
	var out []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s: %v", stage, name(items[i]), err))
	}
	return out
}

func candidateName(c model.Candidate) string { return c.Name }

// forEachCandidate fans fn out over the record's candidates and returns the
// results in candidate order with the failures already formatted.
func forEachCandidate[R any](ctx context.Context, s *Set, stage string, rec state.Record, fn func(ctx context.Context, c model.Candidate) (R, error)) ([]R, []string, error) {
	results, errs, err := pipeline.FanOut(ctx, s.cfg.Workers, rec.Candidates, func(ctx context.Context, _ int, c model.Candidate) (R, error) {
		r, err := fn(ctx, c)
		if err != nil {
			s.logger.Warn("candidate step degraded", logger.Stage(stage), logger.Candidate(c.Name), zap.Error(err))
		}
		return r, err
	})
	if err != nil {
		return nil, nil, err
	}
	return results, candidateErrors(stage, rec.Candidates, candidateName, errs), nil
}

// withErrors adds msgs to partial when there are any.
func withErrors(partial state.Partial, msgs []string) state.Partial {
	if len(msgs) > 0 {
		partial[state.FieldErrors] = msgs
	}
	return partial
}

// jobOf never returns nil so stages can read requirements unconditionally.
func jobOf(rec state.Record) *model.JobRequirements {
	if rec.Job == nil {
		return &model.JobRequirements{}
	}
	return rec.Job
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
