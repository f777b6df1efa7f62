package stages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const biasSchema = `{
  "type": "object",
  "properties": {
    "detected_biases": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["kind", "description"],
        "properties": {
          "kind": {"type": "string"},
          "severity": {"type": ["string", "null"]},
          "description": {"type": "string"},
          "recommendation": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

type biasResponse struct {
	Findings []model.BiasFinding `mapstructure:"detected_biases"`
}

var eliteUniversities = []string{
	"harvard", "stanford", "mit", "yale", "princeton",
	"oxford", "cambridge", "berkeley", "caltech",
}

var (
	masculineWords = []string{"aggressive", "competitive", "dominant", "ambitious"}
	ageWords       = []string{"digital native", "energetic", "recent graduate", "young"}
)

var severityPoints = map[model.Severity]float64{
	model.SeverityLow:    15,
	model.SeverityMedium: 30,
	model.SeverityHigh:   50,
}

const (
	strictExperienceYears = 7
	biasScoreGap          = 30
	eliteOverRepresented  = 1.5
)

func (s *Set) bias(ctx context.Context, rec state.Record) (state.Partial, error) {
	job := jobOf(rec)
	findings := DetectBias(rec.Candidates, rec.Ranked, job, rec.JobText)

	var stageErr error
	var resp biasResponse
	err := s.deps.Caller.JSON(ctx, Bias, s.biasPrompt(rec), biasSchema, &resp)
	switch {
	case err == nil:
		for _, f := range resp.Findings {
			f.Severity = normalizeSeverity(f.Severity)
			findings = append(findings, f)
		}
	case llmFailed(err):
		stageErr = fmt.Errorf("bias review failed, keeping rule findings: %w", err)
	}

	report := BiasReportOf(findings)
	s.logger.Info("bias review finished",
		zap.Float64("score", report.Score),
		zap.Int("findings", len(report.Findings)),
	)
	return state.Partial{state.FieldBias: report}, stageErr
}

// DetectBias runs the rule checks: elite education concentration at the top,
// strict experience requirements, loaded wording in the job text and a large
// spread between the best and worst totals.
func DetectBias(candidates []model.Candidate, ranked []model.RankedCandidate, job *model.JobRequirements, jobText string) []model.BiasFinding {
	var findings []model.BiasFinding

	if f, ok := eliteConcentration(candidates, ranked); ok {
		findings = append(findings, f)
	}

	if job.MinimumYears >= strictExperienceYears {
		findings = append(findings, model.BiasFinding{
			Kind:           "experience",
			Severity:       model.SeverityLow,
			Description:    fmt.Sprintf("Strict experience requirement (%d+ years) may exclude capable candidates", job.MinimumYears),
			Recommendation: "Consider whether the experience requirement could be relaxed for strong skill matches",
		})
	}

	text := strings.ToLower(jobText + " " + job.Title + " " + strings.Join(job.Responsibilities, " "))
	masculine := countWords(text, masculineWords)
	age := countWords(text, ageWords)
	if masculine >= 2 || age >= 1 {
		var found []string
		if masculine >= 2 {
			found = append(found, "masculine-coded wording")
		}
		if age >= 1 {
			found = append(found, "age-related wording")
		}
		findings = append(findings, model.BiasFinding{
			Kind:           "language",
			Severity:       model.SeverityMedium,
			Description:    "Job description contains " + strings.Join(found, " and "),
			Recommendation: "Use neutral, inclusive wording in the job description",
		})
	}

	if len(ranked) >= 2 {
		top, bottom := ranked[0].Score.Total, ranked[len(ranked)-1].Score.Total
		if gap := top - bottom; gap > biasScoreGap {
			findings = append(findings, model.BiasFinding{
				Kind:           "score_distribution",
				Severity:       model.SeverityLow,
				Description:    fmt.Sprintf("Large spread between highest and lowest score (%.1f points)", gap),
				Recommendation: "Check that the lowest-ranked candidates were assessed on complete profiles",
			})
		}
	}
	return findings
}

func eliteConcentration(candidates []model.Candidate, ranked []model.RankedCandidate) (model.BiasFinding, bool) {
	if len(candidates) == 0 || len(ranked) == 0 {
		return model.BiasFinding{}, false
	}
	elite := make(map[string]bool, len(candidates))
	var total int
	for _, c := range candidates {
		if attendedElite(c) {
			elite[c.Name] = true
			total++
		}
	}

	top := firstN(ranked, 3)
	var inTop int
	for _, r := range top {
		if elite[r.Score.Candidate] {
			inTop++
		}
	}
	if inTop == 0 {
		return model.BiasFinding{}, false
	}

	overall := float64(total) / float64(len(candidates))
	topRatio := float64(inTop) / float64(len(top))
	if topRatio <= overall*eliteOverRepresented {
		return model.BiasFinding{}, false
	}
	return model.BiasFinding{
		Kind:           "education",
		Severity:       model.SeverityMedium,
		Description:    fmt.Sprintf("Elite universities are over-represented in the top candidates (%d of %d)", inTop, len(top)),
		Recommendation: "Weigh demonstrated skills and experience over institution prestige",
	}, true
}

func attendedElite(c model.Candidate) bool {
	for _, e := range c.Education {
		words := strings.FieldsFunc(strings.ToLower(e.Institution), func(r rune) bool {
			return r == ' ' || r == ',' || r == '-' || r == '(' || r == ')'
		})
		for _, w := range words {
			if containsFold(eliteUniversities, w) {
				return true
			}
		}
	}
	return false
}

func countWords(text string, words []string) int {
	var n int
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func normalizeSeverity(s model.Severity) model.Severity {
	switch strings.ToLower(string(s)) {
	case "high":
		return model.SeverityHigh
	case "low":
		return model.SeverityLow
	default:
		return model.SeverityMedium
	}
}

// BiasReportOf scores the findings and derives the fairness label and the
// recommendations.
func BiasReportOf(findings []model.BiasFinding) *model.BiasReport {
	var score float64
	var recs []string
	for _, f := range findings {
		score += severityPoints[f.Severity]
		if f.Recommendation != "" && !containsFold(recs, f.Recommendation) {
			recs = append(recs, f.Recommendation)
		}
	}
	score = min(100, score)

	if len(findings) == 0 {
		recs = []string{"Continue current screening practices - no significant biases detected"}
	} else {
		recs = append(recs,
			"Review screening criteria to ensure fairness and objectivity",
			"Consider blind screening (removing names/universities) for initial review",
		)
	}

	return &model.BiasReport{
		Score:           score,
		Findings:        findings,
		Fairness:        fairnessLabel(score),
		Recommendations: recs,
	}
}

func fairnessLabel(score float64) string {
	switch {
	case score <= 20:
		return "Excellent - No significant biases detected"
	case score <= 40:
		return "Good - Minor biases to be aware of"
	case score <= 60:
		return "Fair - Some biases require attention"
	default:
		return "Poor - Significant biases detected, review process"
	}
}

func (s *Set) biasPrompt(rec state.Record) string {
	var top []string
	for _, r := range firstN(rec.Ranked, 5) {
		line := fmt.Sprintf("#%d: %s - %.1f%%", r.Rank, r.Score.Candidate, r.Score.Total)
		if i := rec.CandidateIndex(r.Score.Candidate); i >= 0 {
			if e := rec.Candidates[i].HighestEducation(); e != nil && e.Institution != "" {
				line += ", " + e.Institution
			}
		}
		top = append(top, line)
	}
	return render("bias", map[string]string{
		"JOB_TITLE": orUnspecified(jobOf(rec).Title),
		"COUNT":     fmt.Sprint(len(rec.Candidates)),
		"TOP":       strings.Join(top, "\n"),
	})
}
