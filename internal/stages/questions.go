package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/pipeline"
	"github.com/spigell/screener/internal/state"
)

const (
	questionedRanks = 5
	questionCount   = 10
)

const questionsSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {"type": "string"}
}`

type interviewee struct {
	candidate model.Candidate
	score     model.CandidateScore
}

func (s *Set) questions(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)

	var picked []interviewee
	for _, r := range firstN(rec.Ranked, questionedRanks) {
		i := rec.CandidateIndex(r.Score.Candidate)
		if i < 0 || rec.Candidates[i].Placeholder {
			continue
		}
		picked = append(picked, interviewee{candidate: rec.Candidates[i], score: r.Score})
	}

	results, errs, err := pipeline.FanOut(ctx, s.cfg.Workers, picked, func(ctx context.Context, _ int, p interviewee) ([]string, error) {
		return s.questionsFor(ctx, p, job)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(picked))
	for i, p := range picked {
		out[p.candidate.Name] = results[i]
	}
	msgs := candidateErrors(Questions, picked, func(p interviewee) string { return p.candidate.Name }, errs)
	return withErrors(state.Partial{state.FieldQuestions: out}, msgs), nil
}

func (s *Set) questionsFor(ctx context.Context, p interviewee, job *model.JobRequirements) ([]string, error) {
	c := p.candidate
	prompt := render("questions", map[string]string{
		"CANDIDATE": c.Name,
		"JOB_TITLE": orUnspecified(job.Title),
		"MATCHED":   orNone(p.score.Skill.MatchedMustHave),
		"MISSING":   orNone(p.score.Skill.MissingMustHave),
		"WORK":      workSummary(c.WorkExperience, nil, 3),
		"CONCERNS":  orNone(p.score.Concerns),
	})

	var generated []string
	if err := s.deps.Caller.JSON(ctx, Questions, prompt, questionsSchema, &generated); err != nil {
		if llmFailed(err) {
			return FallbackQuestions(c, job), fmt.Errorf("generation failed, using standard questions: %w", err)
		}
		return FallbackQuestions(c, job), nil
	}

	var out []string
	for _, q := range generated {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return FallbackQuestions(c, job), nil
	}
	return firstN(out, questionCount), nil
}

// FallbackQuestions are the ten standard questions, personalised where the
// profile allows.
func FallbackQuestions(c model.Candidate, job *model.JobRequirements) []string {
	skill := "the technologies"
	if len(c.Skills) > 0 {
		skill = c.Skills[0]
	}
	company := "your previous company"
	if companies := c.Companies(1); len(companies) > 0 {
		company = companies[0]
	}
	title := job.Title
	if title == "" {
		title = "this"
	}
	return []string{
		fmt.Sprintf("Tell me about your experience with %s mentioned in your resume.", skill),
		fmt.Sprintf("Can you walk me through a challenging project from your time at %s?", company),
		"How do you approach learning new technologies or skills?",
		fmt.Sprintf("What interests you about the %s role?", title),
		"Describe a time when you had to debug a complex technical issue.",
		"How do you handle working with tight deadlines?",
		"Tell me about a time you collaborated with a team on a technical project.",
		"What's your approach to code quality and testing?",
		"How do you stay updated with industry trends and new technologies?",
		"Can you describe your development workflow and tools you prefer?",
	}
}
