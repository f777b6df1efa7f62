package stages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

const (
	scoreGapThreshold  = 25
	suspiciousScore    = 98
	lowScore           = 60
	fallbackConfidence = 0.7
	minRuleConfidence  = 0.3
	issuePenalty       = 0.1
	maxFlagged         = 2
	reviewedTopRanks   = 5
	lowConfidenceRanks = 3
)

const reflectionSchema = `{
  "type": "object",
  "required": ["overall_confidence"],
  "properties": {
    "overall_confidence": {"type": ["number", "string"]},
    "issues": {"type": ["array", "null"], "items": {"type": "string"}},
    "recommendations": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

type reflectionResponse struct {
	Confidence      float64  `mapstructure:"overall_confidence"`
	Issues          []string `mapstructure:"issues"`
	Recommendations []string `mapstructure:"recommendations"`
}

func (s *Set) quality(ctx context.Context, rec state.Record) (state.Partial, error) {
	issues := QualityIssues(rec.Candidates, rec.Ranked)

	check := &model.QualityCheck{Issues: issues}
	var stageErr error

	var resp reflectionResponse
	err := s.deps.Caller.JSON(ctx, Quality, s.reflectionPrompt(rec, issues), reflectionSchema, &resp)
	switch {
	case err == nil:
		check.Confidence = clamp(resp.Confidence, 0, 1)
		check.Issues = append(check.Issues, resp.Issues...)
		check.Recommendations = resp.Recommendations
	case llmFailed(err):
		check.Confidence = fallbackConfidence
		stageErr = fmt.Errorf("self-review failed, assuming confidence %.1f: %w", fallbackConfidence, err)
	default:
		check.Confidence = RuleConfidence(len(issues))
	}
	check.Confidence = round2(check.Confidence)

	check.NeedsRerun = check.Confidence < s.cfg.QualityThreshold
	if check.NeedsRerun {
		check.Flagged = FlagCandidates(rec.Ranked, check.Issues)
	}
	if len(check.Recommendations) == 0 && len(check.Issues) > 0 {
		check.Recommendations = []string{"Review the flagged issues manually before deciding"}
	}

	s.logger.Info("quality check finished",
		zap.Float64("confidence", check.Confidence),
		zap.Bool("needs_rerun", check.NeedsRerun),
		zap.Int("issues", len(check.Issues)),
		zap.Strings("flagged", check.Flagged),
	)

	return state.Partial{state.FieldQuality: check}, stageErr
}

// RuleConfidence lowers confidence by a tenth per issue, never below 0.3.
func RuleConfidence(issues int) float64 {
	return clamp(1-issuePenalty*float64(issues), minRuleConfidence, 1)
}

// QualityIssues runs the automatic consistency checks over the results.
func QualityIssues(candidates []model.Candidate, ranked []model.RankedCandidate) []string {
	var issues []string

	for _, c := range candidates {
		var missing []string
		if c.Placeholder {
			issues = append(issues, fmt.Sprintf("%s: profile could not be parsed", c.Name))
			continue
		}
		if len(c.Skills) == 0 {
			missing = append(missing, "skills")
		}
		if len(c.WorkExperience) == 0 {
			missing = append(missing, "work history")
		}
		if c.TotalMonths == 0 {
			missing = append(missing, "experience duration")
		}
		if len(missing) > 0 {
			issues = append(issues, fmt.Sprintf("%s: incomplete profile, no %s", c.Name, strings.Join(missing, ", ")))
		}
	}

	// Unassessed profiles are reported above and take no part in score checks.
	assessed := make([]model.RankedCandidate, 0, len(ranked))
	for _, r := range ranked {
		if !r.Score.Unassessed {
			assessed = append(assessed, r)
		}
	}

	for i := 0; i+1 < len(assessed); i++ {
		a, b := assessed[i].Score, assessed[i+1].Score
		if gap := a.Total - b.Total; gap > scoreGapThreshold {
			issues = append(issues, fmt.Sprintf("Large score gap (%.1f points) between %s and %s", gap, a.Candidate, b.Candidate))
		}
	}

	allLow := len(assessed) > 0
	for _, r := range assessed {
		if r.Score.Total >= suspiciousScore {
			issues = append(issues, fmt.Sprintf("%s has a suspiciously high score (%.1f%%)", r.Score.Candidate, r.Score.Total))
		}
		if r.Score.Total >= lowScore {
			allLow = false
		}
	}
	if allLow {
		issues = append(issues, fmt.Sprintf("All candidates scored below %d%%, the requirements may be too strict", lowScore))
	}

	for _, r := range firstN(assessed, reviewedTopRanks) {
		if r.Rank <= lowConfidenceRanks && r.Score.Confidence == model.ConfidenceLow {
			issues = append(issues, fmt.Sprintf("Top candidate %s has low confidence", r.Score.Candidate))
		}
		if r.Score.Total >= 85 && r.Score.Recommendation != model.StrongMatch && r.Score.Recommendation != model.GoodMatch {
			issues = append(issues, fmt.Sprintf("%s: high score (%.1f%%) but weak recommendation (%s)", r.Score.Candidate, r.Score.Total, r.Score.Recommendation))
		}
	}
	return issues
}

// FlagCandidates picks at most two top-ranked candidates named in issues, or
// the leader when no issue names anyone.
func FlagCandidates(ranked []model.RankedCandidate, issues []string) []string {
	var flagged []string
	for _, issue := range issues {
		for _, r := range firstN(ranked, reviewedTopRanks) {
			name := r.Score.Candidate
			if name == "" || !strings.Contains(issue, name) || containsFold(flagged, name) {
				continue
			}
			flagged = append(flagged, name)
		}
	}
	if len(flagged) == 0 && len(ranked) > 0 {
		flagged = append(flagged, ranked[0].Score.Candidate)
	}
	return firstN(flagged, maxFlagged)
}

func (s *Set) reflectionPrompt(rec state.Record, issues []string) string {
	var top []string
	for _, r := range firstN(rec.Ranked, 3) {
		top = append(top, fmt.Sprintf("#%d: %s - %.1f%% (%s)", r.Rank, r.Score.Candidate, r.Score.Total, r.Score.Recommendation))
	}
	current := "None detected"
	if len(issues) > 0 {
		current = "- " + strings.Join(issues, "\n- ")
	}
	return render("quality", map[string]string{
		"JOB_TITLE": orUnspecified(jobOf(rec).Title),
		"COUNT":     fmt.Sprint(len(rec.Candidates)),
		"TOP":       strings.Join(top, "\n"),
		"ISSUES":    current,
	})
}
