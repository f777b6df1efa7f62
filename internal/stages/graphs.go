package stages

import (
	"fmt"

	"github.com/spigell/screener/internal/pipeline"
)

const (
	VariantLinear   = "linear"
	VariantExtended = "extended"
)

// Variants lists the supported pipeline variants.
var Variants = []string{VariantLinear, VariantExtended}

// Linear is the basic screening graph without enrichment or the quality loop.
func Linear(s *Set) (*pipeline.Plan, error) {
	return chain(s, []string{Requirements, Parse, Skills, Experience, Education, Score, Report, Questions}, nil)
}

// Extended adds tool planning, enrichment and the quality gate, which may send
// the run back to the experience assessment, followed by the bias, salary and
// ATS reviews.
func Extended(s *Set) (*pipeline.Plan, error) {
	loop := &loopEdge{
		from:      Quality,
		router:    pipeline.NewQualityRouter(pipeline.NewRetryGuard(s.cfg.MaxRetries), s.logger),
		reanalyze: Experience,
	}
	return chain(s, []string{
		Requirements, Parse, Tools, Enrich, Skills, Experience, Education, Score,
		Quality, Bias, Salary, ATS, Report, Questions,
	}, loop)
}

type loopEdge struct {
	from      string
	router    pipeline.Router
	reanalyze string
}

// chain declares names in order, linked one after another and ending in End.
// The loop source continues to its successor through the router instead.
func chain(s *Set, names []string, loop *loopEdge) (*pipeline.Plan, error) {
	g := pipeline.NewGraph()
	for _, name := range names {
		stage, err := s.Stage(name)
		if err != nil {
			return nil, err
		}
		if err := g.AddStage(stage); err != nil {
			return nil, err
		}
	}

	for i, name := range names {
		next := pipeline.End
		if i+1 < len(names) {
			next = names[i+1]
		}
		if loop != nil && name == loop.from {
			if err := g.AddConditionalEdge(name, loop.router, map[pipeline.Route]string{
				pipeline.Reanalyze: loop.reanalyze,
				pipeline.Continue:  next,
			}); err != nil {
				return nil, err
			}
			continue
		}
		if err := g.AddEdge(name, next); err != nil {
			return nil, err
		}
	}

	if err := g.SetEntry(names[0]); err != nil {
		return nil, err
	}
	return g.Compile()
}

// Build compiles the named variant into a runnable pipeline.
func Build(variant string, s *Set) (*pipeline.Pipeline, error) {
	var (
		plan *pipeline.Plan
		err  error
	)
	switch variant {
	case VariantLinear:
		plan, err = Linear(s)
	case VariantExtended:
		plan, err = Extended(s)
	default:
		return nil, fmt.Errorf("unknown pipeline variant %q, expected one of %v", variant, Variants)
	}
	if err != nil {
		return nil, fmt.Errorf("compile %s pipeline: %w", variant, err)
	}
	return pipeline.New(variant, plan, s.logger), nil
}
