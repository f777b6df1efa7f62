package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const experienceSchema = `{
  "type": "object",
  "required": ["relevant_years", "trajectory"],
  "properties": {
    "relevant_years": {"type": ["number", "string"]},
    "domain_match": {"type": ["boolean", "string", "null"]},
    "trajectory": {"type": "string"},
    "analysis": {"type": ["string", "null"]}
  }
}`

type experienceResponse struct {
	RelevantYears float64 `mapstructure:"relevant_years"`
	DomainMatch   bool    `mapstructure:"domain_match"`
	Trajectory    string  `mapstructure:"trajectory"`
	Analysis      string  `mapstructure:"analysis"`
}

const (
	TrajectoryUpward     = "upward"
	TrajectorySpecialist = "specialist"
	TrajectoryLateral    = "lateral"
	TrajectoryPivot      = "pivot"
	TrajectoryEarly      = "early-career"
	TrajectoryStagnant   = "stagnant"
	TrajectoryUnknown    = "unknown"
)

var trajectoryPoints = map[string]float64{
	TrajectoryUpward:     25,
	TrajectorySpecialist: 22,
	TrajectoryLateral:    18,
	TrajectoryPivot:      15,
	TrajectoryEarly:      12,
	TrajectoryStagnant:   8,
	TrajectoryUnknown:    10,
}

// verifiedCompanyBonus is added when at least one employer was verified.
const verifiedCompanyBonus = 3

var seniority = []struct {
	marker string
	level  int
}{
	{"intern", 0}, {"trainee", 0},
	{"junior", 1}, {"jr", 1},
	{"senior", 3}, {"sr", 3},
	{"lead", 4}, {"principal", 4}, {"staff", 4}, {"architect", 4},
	{"head", 5}, {"director", 5}, {"vp", 5}, {"cto", 5},
}

// ExperienceFacts are the judgement calls of the experience assessment.
type ExperienceFacts struct {
	RelevantYears float64
	DomainMatch   bool
	Trajectory    string
	Analysis      string
}

func (s *Set) experience(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	review := reviewNotes(rec.Quality)

	scores, msgs, err := forEachCandidate(ctx, s, Experience, rec, func(ctx context.Context, c model.Candidate) (model.ExperienceScore, error) {
		enr := rec.Enrichment[c.Name]
		facts := AssessExperience(c, job, enr)
		if c.Placeholder {
			return ScoreExperience(c, job, enr, facts), nil
		}

		prompt := render("experience", map[string]string{
			"CANDIDATE":      c.Name,
			"JOB_TITLE":      orUnspecified(job.Title),
			"REQUIRED_YEARS": fmt.Sprint(job.MinimumYears),
			"DOMAINS":        orNone(job.Domains),
			"SKILLS":         orNone(skillNames(job.Skills)),
			"TOTAL_YEARS":    fmt.Sprintf("%.1f", c.TotalYears()),
			"WORK":           workSummary(c.WorkExperience, enr.Companies, 5),
			"REVIEW":         review[c.Name],
		})
		var resp experienceResponse
		if err := s.deps.Caller.JSON(ctx, Experience, prompt, experienceSchema, &resp); err != nil {
			if llmFailed(err) {
				return ScoreExperience(c, job, enr, facts), fmt.Errorf("assessment failed, using rule-based facts: %w", err)
			}
			return ScoreExperience(c, job, enr, facts), nil
		}

		if resp.RelevantYears >= 0 {
			facts.RelevantYears = resp.RelevantYears
		}
		facts.DomainMatch = resp.DomainMatch
		if _, known := trajectoryPoints[strings.ToLower(resp.Trajectory)]; known {
			facts.Trajectory = strings.ToLower(resp.Trajectory)
		}
		if strings.TrimSpace(resp.Analysis) != "" {
			facts.Analysis = strings.TrimSpace(resp.Analysis)
		}
		return ScoreExperience(c, job, enr, facts), nil
	})
	if err != nil {
		return nil, err
	}
	return withErrors(state.Partial{state.FieldExperienceScores: scores}, msgs), nil
}

// reviewNotes passes the issues of a rerun verdict to the flagged candidates.
func reviewNotes(q *model.QualityCheck) map[string]string {
	notes := map[string]string{}
	if q == nil || !q.NeedsRerun || len(q.Issues) == 0 {
		return notes
	}
	for _, name := range q.Flagged {
		notes[name] = "\nA previous review questioned this assessment:\n- " + strings.Join(firstN(q.Issues, 5), "\n- ") + "\n"
	}
	return notes
}

// AssessExperience derives the experience facts from the profile. Roles count
// as relevant when their title, technologies or responsibilities mention a
// required skill, or when the employer's verified stack does.
func AssessExperience(c model.Candidate, job *model.JobRequirements, enr model.Enrichment) ExperienceFacts {
	total := c.TotalYears()
	facts := ExperienceFacts{RelevantYears: total, Trajectory: Trajectory(c)}

	skills := make([]string, 0, len(job.Skills))
	for _, s := range job.Skills {
		skills = append(skills, strings.ToLower(s.Name))
	}

	if len(c.WorkExperience) > 0 && len(skills) > 0 {
		var months int
		for _, w := range c.WorkExperience {
			text := strings.ToLower(w.Title + " " + strings.Join(w.Technologies, " ") + " " + strings.Join(w.Responsibilities, " "))
			if company := enr.Companies[w.Company]; company.Found {
				text += " " + strings.ToLower(strings.Join(company.TechStack, " "))
			}
			for _, skill := range skills {
				if strings.Contains(text, skill) {
					months += max(w.Months, 0)
					break
				}
			}
		}
		facts.RelevantYears = float64(months) / 12
		if total > 0 && facts.RelevantYears > total {
			facts.RelevantYears = total
		}
	}

	if len(job.Domains) > 0 {
		var b strings.Builder
		b.WriteString(strings.ToLower(c.Summary))
		for _, w := range c.WorkExperience {
			b.WriteString(" " + strings.ToLower(w.Title+" "+strings.Join(w.Responsibilities, " ")))
			if company := enr.Companies[w.Company]; company.Found {
				b.WriteString(" " + strings.ToLower(company.Industry))
			}
		}
		text := b.String()
		for _, d := range job.Domains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" && strings.Contains(text, d) {
				facts.DomainMatch = true
				break
			}
		}
	}
	return facts
}

// Trajectory reads the career direction from the titles of the work history,
// which is listed newest first.
func Trajectory(c model.Candidate) string {
	if len(c.WorkExperience) == 0 {
		return TrajectoryUnknown
	}
	if c.TotalYears() > 0 && c.TotalYears() < 2 {
		return TrajectoryEarly
	}
	if len(c.WorkExperience) == 1 {
		return TrajectorySpecialist
	}

	latest := titleLevel(c.WorkExperience[0].Title)
	earliest := titleLevel(c.WorkExperience[len(c.WorkExperience)-1].Title)
	switch {
	case latest > earliest:
		return TrajectoryUpward
	case latest < earliest:
		return TrajectoryPivot
	case len(c.Companies(0)) == 1 && c.TotalYears() >= 6:
		return TrajectoryStagnant
	default:
		return TrajectoryLateral
	}
}

// titleLevel ranks a job title; plain titles sit between junior and senior.
func titleLevel(title string) int {
	for _, word := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return r == ' ' || r == '.' || r == ',' || r == '-' || r == '/'
	}) {
		for _, s := range seniority {
			if word == s.marker {
				return s.level
			}
		}
	}
	return 2
}

// ScoreExperience turns the facts into points: 40 for years against the
// minimum, 35 for relevance and 25 for the trajectory.
func ScoreExperience(c model.Candidate, job *model.JobRequirements, enr model.Enrichment, facts ExperienceFacts) model.ExperienceScore {
	total := c.TotalYears()
	required := job.MinimumYears

	years := 40.0
	if required > 0 {
		years = min(40, total/float64(required)*40)
	}

	relevance := 0.0
	if total > 0 {
		relevance = min(facts.RelevantYears/total, 1) * 35
	}
	if facts.DomainMatch {
		relevance = min(35, relevance+5)
	}

	progression, ok := trajectoryPoints[facts.Trajectory]
	if !ok {
		progression = trajectoryPoints[TrajectoryUnknown]
	}

	bonus := 0.0
	for _, company := range enr.Companies {
		if company.Found {
			bonus = verifiedCompanyBonus
			break
		}
	}

	out := model.ExperienceScore{
		Candidate:     c.Name,
		TotalYears:    round1(total),
		RelevantYears: round1(facts.RelevantYears),
		RequiredYears: required,
		MeetsMinimum:  total >= float64(required),
		DomainMatch:   facts.DomainMatch,
		Trajectory:    facts.Trajectory,
		Score:         round1(min(100, years+relevance+progression+bonus)),
		Analysis:      facts.Analysis,
	}
	if out.Analysis == "" {
		out.Analysis = experienceAnalysis(out)
	}
	return out
}

func experienceAnalysis(e model.ExperienceScore) string {
	var b strings.Builder
	if e.MeetsMinimum {
		fmt.Fprintf(&b, "Meets the experience requirement with %.1f years (required: %d+). ", e.TotalYears, e.RequiredYears)
	} else {
		fmt.Fprintf(&b, "Below the experience requirement: %.1f years (required: %d+). ", e.TotalYears, e.RequiredYears)
	}
	fmt.Fprintf(&b, "Relevant experience: ~%.1f years. Career trajectory: %s.", e.RelevantYears, e.Trajectory)
	return b.String()
}
