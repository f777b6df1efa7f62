package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const educationSchema = `{
  "type": "object",
  "required": ["meets_requirement"],
  "properties": {
    "meets_requirement": {"type": ["boolean", "string"]},
    "field_match": {"type": ["boolean", "string", "null"]},
    "degree_level_match": {"type": ["string", "null"]},
    "compensating_factors": {"type": ["array", "null"], "items": {"type": "string"}},
    "analysis": {"type": ["string", "null"]}
  }
}`

// EducationFacts is the verification outcome the education score is computed from.
type EducationFacts struct {
	MeetsRequirement    bool     `mapstructure:"meets_requirement"`
	FieldMatch          bool     `mapstructure:"field_match"`
	DegreeLevelMatch    string   `mapstructure:"degree_level_match"`
	CompensatingFactors []string `mapstructure:"compensating_factors"`
	Analysis            string   `mapstructure:"analysis"`
}

const (
	levelAbove   = "above"
	levelMeets   = "meets"
	levelBelow   = "below"
	levelUnknown = "unknown"
)

func (s *Set) education(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	scores, msgs, err := forEachCandidate(ctx, s, Education, rec, func(ctx context.Context, c model.Candidate) (model.EducationScore, error) {
		facts := VerifyEducation(c, job)
		if c.Placeholder {
			return ScoreEducation(c, job, facts), nil
		}

		prompt := render("education", map[string]string{
			"CANDIDATE":       c.Name,
			"JOB_TITLE":       orUnspecified(job.Title),
			"MIN_DEGREE":      orUnspecified(job.MinimumDegree),
			"DEGREE_REQUIRED": yesNo(job.DegreeRequired),
			"FIELDS":          orNone(job.FieldsOfStudy),
			"TOTAL_YEARS":     fmt.Sprintf("%.1f", c.TotalYears()),
			"EDUCATION":       educationSummary(c.Education),
		})
		var resp EducationFacts
		if err := s.deps.Caller.JSON(ctx, Education, prompt, educationSchema, &resp); err != nil {
			if llmFailed(err) {
				return ScoreEducation(c, job, facts), fmt.Errorf("verification failed, using degree levels: %w", err)
			}
			return ScoreEducation(c, job, facts), nil
		}
		if strings.TrimSpace(resp.Analysis) == "" {
			resp.Analysis = facts.Analysis
		}
		return ScoreEducation(c, job, resp), nil
	})
	if err != nil {
		return nil, err
	}
	return withErrors(state.Partial{state.FieldEducationScores: scores}, msgs), nil
}

// VerifyEducation compares degree levels and fields of study. Projects count
// as compensating factors.
func VerifyEducation(c model.Candidate, job *model.JobRequirements) EducationFacts {
	highest := c.HighestEducation()
	have := 0
	if highest != nil {
		have = model.DegreeLevel(highest.Degree)
	}
	want := model.DegreeLevel(job.MinimumDegree)

	facts := EducationFacts{DegreeLevelMatch: levelUnknown}
	switch {
	case want == 0:
		facts.MeetsRequirement = have > 0
	case have > want:
		facts.MeetsRequirement = true
		facts.DegreeLevelMatch = levelAbove
	case have == want:
		facts.MeetsRequirement = true
		facts.DegreeLevelMatch = levelMeets
	case have > 0:
		facts.DegreeLevelMatch = levelBelow
	}

	if highest != nil {
		subject := strings.ToLower(highest.Field + " " + highest.Degree)
		for _, field := range job.FieldsOfStudy {
			if f := strings.ToLower(strings.TrimSpace(field)); f != "" && strings.Contains(subject, f) {
				facts.FieldMatch = true
				break
			}
		}
	}

	for _, p := range firstN(c.Projects, 3) {
		facts.CompensatingFactors = append(facts.CompensatingFactors, "project: "+p.Name)
	}

	switch {
	case highest == nil:
		facts.Analysis = "No formal education listed."
	case facts.MeetsRequirement:
		facts.Analysis = fmt.Sprintf("%s meets the minimum degree requirement.", highest.Degree)
	default:
		facts.Analysis = fmt.Sprintf("%s does not meet the minimum degree requirement (%s).", highest.Degree, job.MinimumDegree)
	}
	return facts
}

// ScoreEducation awards 60 points for meeting the requirement (30 when no
// degree is required), 20 for the field and up to 20 for compensating
// factors, plus 10 for exceeding the required level.
func ScoreEducation(c model.Candidate, job *model.JobRequirements, facts EducationFacts) model.EducationScore {
	score := 0.0
	switch {
	case facts.MeetsRequirement:
		score += 60
	case !job.DegreeRequired:
		score += 30
	}
	if facts.FieldMatch {
		score += 20
	}
	score += min(20, float64(len(facts.CompensatingFactors))*7)
	if strings.EqualFold(facts.DegreeLevelMatch, levelAbove) {
		score += 10
	}

	out := model.EducationScore{
		Candidate:      c.Name,
		RequiredDegree: job.MinimumDegree,
		MeetsRequired:  facts.MeetsRequirement,
		FieldMatch:     facts.FieldMatch,
		Score:          round1(min(100, score)),
		Analysis:       facts.Analysis,
	}
	if highest := c.HighestEducation(); highest != nil {
		out.HighestDegree = highest.Degree
	}
	return out
}

func educationSummary(education []model.Education) string {
	if len(education) == 0 {
		return "No formal education listed."
	}
	lines := make([]string, 0, len(education))
	for _, e := range education {
		line := "- " + e.Degree
		if e.Field != "" {
			line += " in " + e.Field
		}
		if e.Institution != "" {
			line += ", " + e.Institution
		}
		if e.EndYear > 0 {
			line += fmt.Sprintf(" (%d)", e.EndYear)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No (preferred but not required)"
}
