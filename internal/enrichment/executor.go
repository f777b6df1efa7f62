package enrichment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/model"
)

const (
	maxCompanies = 3
	maxSkills    = 10
)

type CompanyLookup interface {
	Company(ctx context.Context, name string) (model.CompanyFacts, error)
}

type ProfileLookup interface {
	Profile(ctx context.Context, handle string) (model.ProfileFacts, error)
}

type SkillLookup interface {
	RelatedSkills(ctx context.Context, skill string) ([]string, error)
}

// Executor runs a candidate's tool plan through the cache.
type Executor struct {
	companies CompanyLookup
	profiles  ProfileLookup
	skills    SkillLookup
	timeout   time.Duration
	logger    *zap.Logger
}

// NewExecutor wires the lookups. A nil lookup makes its tool a no-op.
func NewExecutor(companies CompanyLookup, profiles ProfileLookup, skills SkillLookup, timeout time.Duration, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		companies: companies,
		profiles:  profiles,
		skills:    skills,
		timeout:   timeout,
		logger:    log,
	}
}

// Enrich executes plan for candidate. Lookups that fail are listed in
// Enrichment.Unavailable and returned as errors; they never abort the others.
func (e *Executor) Enrich(ctx context.Context, cache *Cache, candidate model.Candidate, plan model.ToolPlan) (model.Enrichment, []error) {
	var (
		out  model.Enrichment
		errs []error
	)
	log := e.logger.With(logger.Candidate(candidate.Name))

	fail := func(tool model.Tool, key string, err error) {
		log.Warn("lookup unavailable", zap.String("tool", string(tool)), zap.String("key", key), zap.Error(err))
		out.Unavailable = append(out.Unavailable, fmt.Sprintf("%s:%s", tool, key))
		errs = append(errs, fmt.Errorf("%s %q: %w", tool, key, err))
	}

	if plan.Has(model.CompanyLookup) && e.companies != nil {
		for _, name := range candidate.Companies(maxCompanies) {
			facts, hit, err := Lookup(ctx, cache, KindCompany, name, func(ctx context.Context) (model.CompanyFacts, error) {
				ctx, cancel := e.withTimeout(ctx)
				defer cancel()
				return e.companies.Company(ctx, name)
			})
			if err != nil {
				fail(model.CompanyLookup, name, err)
				continue
			}
			log.Debug("company resolved", zap.String("company", name), zap.Bool("cached", hit), zap.Bool("found", facts.Found))
			if out.Companies == nil {
				out.Companies = make(map[string]model.CompanyFacts)
			}
			out.Companies[name] = facts
		}
	}

	if plan.Has(model.ProfileLookup) && e.profiles != nil && candidate.GitHub != "" {
		handle := candidate.GitHub
		facts, _, err := Lookup(ctx, cache, KindProfile, handle, func(ctx context.Context) (model.ProfileFacts, error) {
			ctx, cancel := e.withTimeout(ctx)
			defer cancel()
			return e.profiles.Profile(ctx, handle)
		})
		if err != nil {
			fail(model.ProfileLookup, handle, err)
		} else {
			out.Profile = &facts
		}
	}

	if plan.Has(model.SkillLookup) && e.skills != nil {
		skills := candidate.Skills
		if len(skills) > maxSkills {
			skills = skills[:maxSkills]
		}
		for _, skill := range skills {
			related, _, err := Lookup(ctx, cache, KindSkill, skill, func(ctx context.Context) ([]string, error) {
				ctx, cancel := e.withTimeout(ctx)
				defer cancel()
				return e.skills.RelatedSkills(ctx, skill)
			})
			if err != nil {
				fail(model.SkillLookup, skill, err)
				continue
			}
			if len(related) == 0 {
				continue
			}
			if out.RelatedSkills == nil {
				out.RelatedSkills = make(map[string][]string)
			}
			out.RelatedSkills[skill] = related
		}
	}

	return out, errs
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
