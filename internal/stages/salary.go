package stages

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const (
	LevelJunior = "Junior"
	LevelMid    = "Mid-Level"
	LevelSenior = "Senior"
	LevelLead   = "Lead/Principal"
)

type band struct{ min, max int }

var salaryBands = map[string]band{
	LevelJunior: {60000, 85000},
	LevelMid:    {85000, 120000},
	LevelSenior: {120000, 180000},
	LevelLead:   {160000, 250000},
}

var locationMultipliers = []struct {
	city string
	mult float64
}{
	{"san francisco", 1.4},
	{"new york", 1.3},
	{"seattle", 1.25},
	{"austin", 1.1},
	{"boston", 1.2},
	{"remote", 1.0},
}

var industries = []struct {
	name     string
	keywords []string
	mult     float64
}{
	{"fintech", []string{"finance", "banking", "fintech"}, 1.2},
	{"healthcare", []string{"health", "healthcare", "medical", "clinical"}, 1.0},
	{"ai/ml", []string{"ai", "machine learning", "ml", "artificial intelligence"}, 1.15},
	{"startup", []string{"startup", "early stage"}, 0.9},
}

// premiumSkills are rewarded by the rule-based premium when no model is available.
var premiumSkills = []string{
	"kubernetes", "rust", "go", "tensorflow", "pytorch", "machine learning",
	"llm", "scala", "spark", "kafka", "terraform", "aws", "gcp",
}

const (
	maxSkillPremium     = 0.3
	premiumPerSkill     = 0.05
	minSalaryConfidence = 0.4
	salaryCurrency      = "USD"
)

const premiumSchema = `{
  "type": "object",
  "required": ["premium"],
  "properties": {
    "premium": {"type": ["number", "string"]},
    "reasoning": {"type": ["string", "null"]}
  }
}`

type premiumResponse struct {
	Premium   float64 `mapstructure:"premium"`
	Reasoning string  `mapstructure:"reasoning"`
}

func (s *Set) salary(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	industry, industryMult := Industry(rec.JobText)

	estimates, msgs, err := forEachCandidate(ctx, s, Salary, rec, func(ctx context.Context, c model.Candidate) (model.SalaryEstimate, error) {
		premium := RulePremium(c.Skills)
		if c.Placeholder || len(c.Skills) == 0 {
			return EstimateSalary(c, job, industry, industryMult, premium), nil
		}

		prompt := render("salary", map[string]string{
			"JOB_TITLE": orUnspecified(job.Title),
			"SKILLS":    strings.Join(firstN(c.Skills, 20), ", "),
		})
		var resp premiumResponse
		if err := s.deps.Caller.JSON(ctx, Salary, prompt, premiumSchema, &resp); err != nil {
			est := EstimateSalary(c, job, industry, industryMult, premium)
			if llmFailed(err) {
				return est, fmt.Errorf("premium analysis failed, using skill list: %w", err)
			}
			return est, nil
		}
		return EstimateSalary(c, job, industry, industryMult, clamp(resp.Premium, 0, maxSkillPremium)), nil
	})
	if err != nil {
		return nil, err
	}
	return withErrors(state.Partial{state.FieldSalaries: estimates}, msgs), nil
}

// EstimateSalary scales the band of the candidate's level by location,
// industry and skill premium.
func EstimateSalary(c model.Candidate, job *model.JobRequirements, industry string, industryMult, premium float64) model.SalaryEstimate {
	level := SeniorityLevel(c.TotalYears(), job.Title)
	b := salaryBands[level]
	location := c.Location
	if strings.TrimSpace(location) == "" {
		location = "Remote"
	}
	locMult := LocationMultiplier(location)
	mult := locMult * industryMult * (1 + premium)

	est := model.SalaryEstimate{
		Candidate:  c.Name,
		Level:      level,
		Min:        int(math.Round(float64(b.min) * mult)),
		Max:        int(math.Round(float64(b.max) * mult)),
		Currency:   salaryCurrency,
		Confidence: salaryConfidence(c),
	}
	est.Reasoning = fmt.Sprintf(
		"%s level with %.1f years of experience; location %s (x%.2f), %s industry (x%.2f), skills premium +%.0f%%.",
		level, c.TotalYears(), location, locMult, industry, industryMult, premium*100,
	)
	return est
}

// SeniorityLevel reads the level from the job title first and falls back to
// the candidate's years of experience.
func SeniorityLevel(years float64, title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return r == ' ' || r == '.' || r == ',' || r == '-' || r == '/' || r == '(' || r == ')'
	})
	has := func(markers ...string) bool {
		for _, m := range markers {
			if containsFold(words, m) {
				return true
			}
		}
		return false
	}
	switch {
	case has("lead", "principal", "staff"):
		return LevelLead
	case has("senior", "sr"):
		return LevelSenior
	case has("junior", "jr", "entry"):
		return LevelJunior
	}

	switch {
	case years < 2:
		return LevelJunior
	case years < 5:
		return LevelMid
	case years < 8:
		return LevelSenior
	default:
		return LevelLead
	}
}

func LocationMultiplier(location string) float64 {
	lower := strings.ToLower(location)
	for _, l := range locationMultipliers {
		if strings.Contains(lower, l.city) {
			return l.mult
		}
	}
	return 1.0
}

// Industry detects the industry from the job text. Single-word keywords must
// match a whole word.
func Industry(jobText string) (string, float64) {
	lower := strings.ToLower(jobText)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, ind := range industries {
		for _, kw := range ind.keywords {
			if strings.Contains(kw, " ") && strings.Contains(lower, kw) || containsFold(words, kw) {
				return ind.name, ind.mult
			}
		}
	}
	return "default", 1.0
}

// RulePremium grants 5% per premium skill, at most 30%.
func RulePremium(skills []string) float64 {
	var n int
	for _, p := range premiumSkills {
		if containsFold(skills, p) {
			n++
		}
	}
	return min(maxSkillPremium, premiumPerSkill*float64(n))
}

func salaryConfidence(c model.Candidate) float64 {
	conf := 1.0
	if c.TotalMonths == 0 {
		conf -= 0.2
	}
	if len(c.Skills) == 0 {
		conf -= 0.2
	}
	if strings.TrimSpace(c.Location) == "" {
		conf -= 0.1
	}
	if len(c.Education) == 0 {
		conf -= 0.1
	}
	return round2(max(minSalaryConfidence, conf))
}
