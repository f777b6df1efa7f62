package stages

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/enrichment"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
	"github.com/spigell/screener/internal/tools"
)

func (s *Set) planTools(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	plans, _, err := forEachCandidate(ctx, s, Tools, rec, func(ctx context.Context, c model.Candidate) (model.ToolPlan, error) {
		if c.Placeholder {
			return model.ToolPlan{Priority: model.PriorityLow, Rationale: "profile could not be parsed"}, nil
		}
		return s.deps.Coordinator.Plan(ctx, c, job), nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.ToolPlan, len(plans))
	for i, c := range rec.Candidates {
		out[c.Name] = plans[i]
		s.logger.Debug("tools planned",
			logger.Candidate(c.Name),
			zap.Any("tools", plans[i].Tools),
			zap.Bool("fallback", plans[i].Fallback),
		)
	}
	return state.Partial{state.FieldToolPlans: out}, nil
}

func (s *Set) enrich(ctx context.Context, rec state.Record) (state.Partial, error) {
	if s.deps.Enricher == nil {
		s.logger.Info("enrichment is not configured, skipping")
		return state.Partial{state.FieldEnrichment: map[string]model.Enrichment{}}, nil
	}

	// one cache per invocation; repeated companies across candidates are looked up once
	cache := enrichment.NewCache()
	results, msgs, err := forEachCandidate(ctx, s, Enrich, rec, func(ctx context.Context, c model.Candidate) (model.Enrichment, error) {
		if c.Placeholder {
			return model.Enrichment{}, nil
		}
		plan, ok := rec.ToolPlans[c.Name]
		if !ok {
			plan = tools.FallbackPlan("no plan recorded")
		}
		enr, errs := s.deps.Enricher.Enrich(ctx, cache, c, plan)
		return enr, joinErrors(errs)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.Enrichment, len(results))
	for i, c := range rec.Candidates {
		out[c.Name] = results[i]
	}
	return withErrors(state.Partial{state.FieldEnrichment: out}, msgs), nil
}

// joinErrors folds lookup failures into one line for the record's error list.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return errors.New(strings.Join(msgs, "; "))
}
