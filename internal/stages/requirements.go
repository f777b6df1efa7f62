package stages

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/screener/internal/extract"
	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const requirementsSchema = `{
  "type": "object",
  "required": ["title", "must_have"],
  "properties": {
    "title": {"type": "string"},
    "must_have": {"type": "array", "items": {"type": "string"}},
    "nice_to_have": {"type": "array", "items": {"type": "string"}},
    "minimum_years": {"type": ["number", "string", "null"]},
    "domains": {"type": "array", "items": {"type": "string"}},
    "minimum_degree": {"type": ["string", "null"]},
    "degree_required": {"type": ["boolean", "string", "null"]},
    "fields_of_study": {"type": "array", "items": {"type": "string"}},
    "responsibilities": {"type": "array", "items": {"type": "string"}},
    "location": {"type": ["string", "null"]}
  }
}`

type requirementsResponse struct {
	Title            string   `mapstructure:"title"`
	MustHave         []string `mapstructure:"must_have"`
	NiceToHave       []string `mapstructure:"nice_to_have"`
	MinimumYears     int      `mapstructure:"minimum_years"`
	Domains          []string `mapstructure:"domains"`
	MinimumDegree    string   `mapstructure:"minimum_degree"`
	DegreeRequired   bool     `mapstructure:"degree_required"`
	FieldsOfStudy    []string `mapstructure:"fields_of_study"`
	Responsibilities []string `mapstructure:"responsibilities"`
	Location         string   `mapstructure:"location"`
}

var (
	yearsPattern    = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years|yrs)`)
	optionalMarkers = []string{"nice to have", "nice-to-have", "preferred", "bonus", "a plus", "is a plus", "desirable"}
	degreeNames     = []struct {
		marker string
		name   string
	}{
		{"phd", "PhD"}, {"doctorate", "PhD"},
		{"master", "Master"}, {"msc", "Master"},
		{"bachelor", "Bachelor"}, {"bsc", "Bachelor"}, {"b.s.", "Bachelor"},
	}
	fieldNames = []string{"computer science", "software engineering", "mathematics", "statistics", "physics", "electrical engineering", "data science"}
)

func (s *Set) requirements(ctx context.Context, rec state.Record) (state.Partial, error) {
	fallback := RequirementsFromText(rec.JobText)

	var resp requirementsResponse
	prompt := render("requirements", map[string]string{"JOB_TEXT": rec.JobText})
	err := s.deps.Caller.JSON(ctx, Requirements, prompt, requirementsSchema, &resp)
	if err != nil {
		partial := state.Partial{state.FieldJob: fallback}
		if llmFailed(err) {
			return partial, fmt.Errorf("structured extraction failed, using keyword scan: %w", err)
		}
		return partial, nil
	}

	job := resp.toJob(rec.JobText)
	if len(job.Skills) == 0 {
		job.Skills = fallback.Skills
	}
	if job.Title == "" {
		job.Title = fallback.Title
	}
	return state.Partial{state.FieldJob: job}, nil
}

func (r requirementsResponse) toJob(text string) *model.JobRequirements {
	job := &model.JobRequirements{
		Title:            strings.TrimSpace(r.Title),
		Description:      text,
		MinimumYears:     r.MinimumYears,
		Domains:          r.Domains,
		MinimumDegree:    strings.TrimSpace(r.MinimumDegree),
		DegreeRequired:   r.DegreeRequired,
		FieldsOfStudy:    r.FieldsOfStudy,
		Responsibilities: r.Responsibilities,
		Location:         strings.TrimSpace(r.Location),
	}
	seen := make(map[string]bool)
	add := func(names []string, p model.SkillPriority) {
		for _, name := range names {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			job.Skills = append(job.Skills, model.Skill{Name: name, Priority: p})
		}
	}
	add(r.MustHave, model.MustHave)
	add(r.NiceToHave, model.NiceToHave)
	return job
}

// RequirementsFromText builds requirements with a keyword scan of the job
// description. Skills on lines that read as optional become nice-to-have.
func RequirementsFromText(text string) *model.JobRequirements {
	job := &model.JobRequirements{Description: text}

	must := make(map[string]bool)
	nice := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if job.Title == "" {
			job.Title = trimmed
			if len(job.Title) > 100 {
				job.Title = job.Title[:100]
			}
			continue
		}
		lower := strings.ToLower(trimmed)

		optional := false
		for _, marker := range optionalMarkers {
			if strings.Contains(lower, marker) {
				optional = true
				break
			}
		}
		for _, skill := range extract.FindSkills(trimmed) {
			if optional {
				nice[skill] = true
			} else {
				must[skill] = true
			}
		}

		if m := yearsPattern.FindStringSubmatch(trimmed); m != nil && job.MinimumYears == 0 {
			job.MinimumYears, _ = strconv.Atoi(m[1])
		}
		if job.MinimumDegree == "" {
			for _, d := range degreeNames {
				if strings.Contains(lower, d.marker) {
					job.MinimumDegree = d.name
					job.DegreeRequired = !optional
					break
				}
			}
		}
		for _, field := range fieldNames {
			if strings.Contains(lower, field) && !containsFold(job.FieldsOfStudy, field) {
				job.FieldsOfStudy = append(job.FieldsOfStudy, field)
			}
		}
	}

	// keep the order of the vocabulary so the result is stable
	for _, skill := range extract.KnownSkills {
		switch {
		case must[skill]:
			job.Skills = append(job.Skills, model.Skill{Name: skill, Priority: model.MustHave})
		case nice[skill]:
			job.Skills = append(job.Skills, model.Skill{Name: skill, Priority: model.NiceToHave})
		}
	}
	return job
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
