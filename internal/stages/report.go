package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

var badges = map[model.Recommendation]string{
	model.StrongMatch:    "🟢",
	model.GoodMatch:      "🟡",
	model.PotentialMatch: "🟠",
	model.NotRecommended: "🔴",
}

func (s *Set) report(ctx context.Context, rec state.Record) (state.Partial, error) {
	summary := fallbackSummary(rec)
	var stageErr error

	var top []string
	for _, r := range firstN(rec.Ranked, 3) {
		top = append(top, fmt.Sprintf("#%d %s (%.1f%%) - %s", r.Rank, r.Score.Candidate, r.Score.Total, r.Score.Recommendation))
	}
	prompt := render("summary", map[string]string{
		"JOB_TITLE": orUnspecified(jobOf(rec).Title),
		"COUNT":     fmt.Sprint(len(rec.Ranked)),
		"TOP":       strings.Join(top, "\n"),
	})
	text, err := s.deps.Caller.Text(ctx, Report, prompt)
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		summary = strings.TrimSpace(text)
	case llmFailed(err):
		stageErr = fmt.Errorf("executive summary failed, using template: %w", err)
	}

	return state.Partial{state.FieldReport: RenderReport(rec, summary, s.cfg.Weights, s.now())}, stageErr
}

func fallbackSummary(rec state.Record) string {
	title := orUnspecified(jobOf(rec).Title)
	if len(rec.Ranked) == 0 {
		return fmt.Sprintf("No candidates could be ranked for the %s position.", title)
	}
	return fmt.Sprintf("Screened %d candidates for the %s position. Top candidate scored %.1f%%.",
		len(rec.Ranked), title, rec.Ranked[0].Score.Total)
}

// RenderReport builds the markdown screening report from the record.
func RenderReport(rec state.Record, summary string, w Weights, at time.Time) string {
	var b strings.Builder
	job := jobOf(rec)

	fmt.Fprintf(&b, "# Resume Screening Report\n## %s\n\n", orUnspecified(job.Title))
	fmt.Fprintf(&b, "**Generated:** %s\n\n---\n\n", at.Format("January 02, 2006 at 03:04 PM"))

	counts := map[model.Recommendation]int{}
	for _, r := range rec.Ranked {
		counts[r.Score.Recommendation]++
	}
	b.WriteString("## Executive Summary\n\n")
	b.WriteString(summary + "\n\n")
	b.WriteString("### Screening Overview\n\n| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| **Total Candidates Screened** | %d |\n", len(rec.Ranked))
	fmt.Fprintf(&b, "| **Strong Matches** | %d |\n", counts[model.StrongMatch])
	fmt.Fprintf(&b, "| **Good Matches** | %d |\n", counts[model.GoodMatch])
	fmt.Fprintf(&b, "| **Potential Matches** | %d |\n", counts[model.PotentialMatch])
	fmt.Fprintf(&b, "| **Not Recommended** | %d |\n\n---\n\n", counts[model.NotRecommended])

	b.WriteString("## Top Candidates at a Glance\n\n")
	b.WriteString("| Rank | Name | Overall Score | Skills | Experience | Education | Recommendation |\n")
	b.WriteString("|------|------|---------------|--------|------------|-----------|----------------|\n")
	for _, r := range firstN(rec.Ranked, 3) {
		sc := r.Score
		if sc.Unassessed {
			fmt.Fprintf(&b, "| #%d | **%s** | not assessed | - | - | - | %s |\n", r.Rank, sc.Candidate, sc.Recommendation)
			continue
		}
		fmt.Fprintf(&b, "| #%d | **%s** | %.1f%% | %.1f%% | %.1f%% | %.1f%% | %s |\n",
			r.Rank, sc.Candidate, sc.Total, sc.Skill.Overall, sc.Experience.Score, sc.Education.Score, sc.Recommendation)
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## Detailed Candidate Profiles\n\n")
	for _, r := range rec.Ranked {
		writeProfile(&b, r)
	}

	if rec.Quality != nil {
		writeQuality(&b, rec.Quality, rec.RetryCount)
	}
	if rec.Bias != nil {
		writeBias(&b, rec.Bias)
	}
	if len(rec.Salaries) > 0 {
		b.WriteString("## Salary Estimates\n\n| Candidate | Level | Range | Confidence |\n|-----------|-------|-------|------------|\n")
		for _, s := range rec.Salaries {
			fmt.Fprintf(&b, "| %s | %s | %s %d - %d | %.0f%% |\n", s.Candidate, s.Level, s.Currency, s.Min, s.Max, s.Confidence*100)
		}
		b.WriteString("\n---\n\n")
	}
	if len(rec.ATS) > 0 {
		b.WriteString("## ATS Compatibility\n\n| Candidate | Score | Rating | Suggestions |\n|-----------|-------|--------|-------------|\n")
		for _, a := range rec.ATS {
			fmt.Fprintf(&b, "| %s | %.1f | %s | %s |\n", a.Candidate, a.Overall, a.Rating, orNone(a.Suggestions))
		}
		b.WriteString("\n---\n\n")
	}

	writeRecommendations(&b, rec.Ranked)

	if len(rec.Errors) > 0 {
		b.WriteString("## Processing Notes\n\n")
		for _, e := range rec.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n---\n\n")
	}

	b.WriteString("## Report Information\n\n")
	fmt.Fprintf(&b, "**Date:** %s  \n", at.Format("January 02, 2006"))
	fmt.Fprintf(&b, "**Scoring Weights:** Skills (%.0f%%) | Experience (%.0f%%) | Education (%.0f%%)\n\n",
		w.Skills*100, w.Experience*100, w.Education*100)
	b.WriteString("*Final hiring decisions should be made by qualified human recruiters.*\n")
	return b.String()
}

func writeProfile(b *strings.Builder, r model.RankedCandidate) {
	sc := r.Score
	fmt.Fprintf(b, "### #%d - %s\n\n", r.Rank, sc.Candidate)
	badge, ok := badges[sc.Recommendation]
	if !ok {
		badge = "⚪"
	}
	fmt.Fprintf(b, "**%s %s** (Confidence: %s)\n\n", badge, sc.Recommendation, sc.Confidence)
	if sc.Email != "" {
		fmt.Fprintf(b, "📧 %s\n\n", sc.Email)
	}

	if sc.Unassessed {
		b.WriteString("#### Score Breakdown\n\nNot assessed: the resume could not be parsed.\n\n")
	} else {
		fmt.Fprintf(b, "#### Score Breakdown (Total: %.1f%%)\n\n", sc.Total)
		fmt.Fprintf(b, "- **Skills:** %.1f%% (weighted: %.1f)\n", sc.Skill.Overall, sc.WeightedSkill)
		fmt.Fprintf(b, "- **Experience:** %.1f%% (weighted: %.1f)\n", sc.Experience.Score, sc.WeightedExperience)
		fmt.Fprintf(b, "- **Education:** %.1f%% (weighted: %.1f)\n\n", sc.Education.Score, sc.WeightedEducation)
	}

	writeList(b, "#### ✅ Key Strengths", sc.Strengths)
	writeList(b, "#### ⚠️ Areas of Concern", sc.Concerns)

	b.WriteString("<details>\n<summary><b>Detailed Analysis</b></summary>\n\n")
	fmt.Fprintf(b, "**Matched Must-Have Skills:** %s\n\n", orNone(sc.Skill.MatchedMustHave))
	fmt.Fprintf(b, "**Missing Must-Have Skills:** %s\n\n", orNone(sc.Skill.MissingMustHave))
	if len(sc.Skill.RelatedMatches) > 0 {
		fmt.Fprintf(b, "**Related Skills:** %s\n\n", strings.Join(sc.Skill.RelatedMatches, ", "))
	}
	fmt.Fprintf(b, "%s\n\n", sc.Skill.Analysis)
	fmt.Fprintf(b, "**Total Experience:** %.1f years, relevant %.1f years, trajectory %s\n\n",
		sc.Experience.TotalYears, sc.Experience.RelevantYears, sc.Experience.Trajectory)
	fmt.Fprintf(b, "%s\n\n", sc.Experience.Analysis)
	fmt.Fprintf(b, "**Highest Degree:** %s\n\n", orUnspecified(sc.Education.HighestDegree))
	fmt.Fprintf(b, "%s\n</details>\n\n", sc.Education.Analysis)

	if r.ComparisonNotes != "" {
		fmt.Fprintf(b, "#### 📊 Ranking Context\n\n%s\n\n", r.ComparisonNotes)
	}
	b.WriteString("---\n\n")
}

func writeQuality(b *strings.Builder, q *model.QualityCheck, retries int) {
	b.WriteString("## Quality Review\n\n")
	fmt.Fprintf(b, "**Confidence:** %.0f%%  \n**Reanalysis passes:** %d\n\n", q.Confidence*100, retries)
	if q.Exhausted {
		b.WriteString("*The reanalysis limit was reached; results may need manual review.*\n\n")
	}
	writeList(b, "### Issues", q.Issues)
	writeList(b, "### Recommendations", q.Recommendations)
	b.WriteString("---\n\n")
}

func writeBias(b *strings.Builder, r *model.BiasReport) {
	b.WriteString("## Fairness Review\n\n")
	fmt.Fprintf(b, "**Bias score:** %.0f/100 (%s)\n\n", r.Score, r.Fairness)
	if len(r.Findings) > 0 {
		b.WriteString("| Kind | Severity | Description |\n|------|----------|-------------|\n")
		for _, f := range r.Findings {
			fmt.Fprintf(b, "| %s | %s | %s |\n", f.Kind, f.Severity, f.Description)
		}
		b.WriteString("\n")
	}
	writeList(b, "### Recommendations", r.Recommendations)
	b.WriteString("---\n\n")
}

func writeRecommendations(b *strings.Builder, ranked []model.RankedCandidate) {
	b.WriteString("## Hiring Recommendations\n\n")
	var strong, good []model.RankedCandidate
	for _, r := range ranked {
		switch r.Score.Recommendation {
		case model.StrongMatch:
			strong = append(strong, r)
		case model.GoodMatch:
			good = append(good, r)
		}
	}
	if len(strong) > 0 {
		b.WriteString("### 🎯 Recommended for Immediate Interview\n\n")
		for _, r := range firstN(strong, 3) {
			fmt.Fprintf(b, "- **%s** (Score: %.1f%%)\n", r.Score.Candidate, r.Score.Total)
		}
		b.WriteString("\n")
	}
	if len(good) > 0 {
		b.WriteString("### 💼 Recommended for Phone Screen\n\n")
		for _, r := range firstN(good, 3) {
			fmt.Fprintf(b, "- **%s** (Score: %.1f%%)\n", r.Score.Candidate, r.Score.Total)
		}
		b.WriteString("\n")
	}
	b.WriteString("### 📝 Next Steps\n\n")
	b.WriteString("1. Review top candidates' detailed profiles above\n")
	b.WriteString("2. Review the interview questions\n")
	b.WriteString("3. Schedule interviews with recommended candidates\n")
	b.WriteString("4. Consider phone screens for 'Good Match' candidates\n\n---\n\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
