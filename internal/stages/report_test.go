package stages

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

var reportTime = time.Date(2025, time.March, 4, 15, 30, 0, 0, time.UTC)

func reportRecord() state.Record {
	rec := seeded()
	rec.Job = &model.JobRequirements{Title: "ML Engineer"}
	rec.Ranked = []model.RankedCandidate{
		{Rank: 1, Score: model.CandidateScore{
			Candidate: "Alice Smith", Email: "alice@example.com", Total: 88.5,
			Recommendation: model.StrongMatch, Confidence: model.ConfidenceHigh,
			Skill:     model.SkillScore{Overall: 90, MatchedMustHave: []string{"Python"}, RelatedMatches: []string{"TensorFlow~PyTorch"}},
			Strengths: []string{"Strong skills match"},
		}, ComparisonNotes: "Ranked #1 of 2 with 88.5% (Strong Match)."},
		{Rank: 2, Score: model.CandidateScore{
			Candidate: "Bob Jones", Total: 72, Recommendation: model.GoodMatch, Confidence: model.ConfidenceMedium,
			Concerns: []string{"Missing must-have skills: TensorFlow"},
		}},
	}
	return rec
}

func TestRenderReport(t *testing.T) {
	rec := reportRecord()
	rec.Quality = &model.QualityCheck{Confidence: 0.6, Issues: []string{"gap"}, Exhausted: true}
	rec.RetryCount = 2
	rec.Bias = BiasReportOf(nil)
	rec.Salaries = []model.SalaryEstimate{{Candidate: "Alice Smith", Level: LevelSenior, Min: 120000, Max: 180000, Currency: "USD", Confidence: 0.8}}
	rec.ATS = []model.ATSScore{{Candidate: "Alice Smith", Overall: 71, Rating: "Good"}}
	rec.Errors = []string{"parse: scan.pdf: no usable text extracted"}

	out := RenderReport(rec, "Two candidates screened.", DefaultConfig().Weights, reportTime)

	for _, want := range []string{
		"# Resume Screening Report\n## ML Engineer\n",
		"**Generated:** March 04, 2025 at 03:30 PM",
		"Two candidates screened.",
		"| **Total Candidates Screened** | 2 |",
		"| **Strong Matches** | 1 |",
		"| #1 | **Alice Smith** | 88.5% | 90.0% | 0.0% | 0.0% | Strong Match |",
		"### #1 - Alice Smith",
		"**🟢 Strong Match** (Confidence: High)",
		"📧 alice@example.com",
		"**Related Skills:** TensorFlow~PyTorch",
		"#### 📊 Ranking Context",
		"#### ⚠️ Areas of Concern\n\n- Missing must-have skills: TensorFlow",
		"**Reanalysis passes:** 2",
		"The reanalysis limit was reached",
		"**Bias score:** 0/100 (Excellent - No significant biases detected)",
		"| Alice Smith | Senior | USD 120000 - 180000 | 80% |",
		"| Alice Smith | 71.0 | Good | None |",
		"### 🎯 Recommended for Immediate Interview\n\n- **Alice Smith** (Score: 88.5%)",
		"### 💼 Recommended for Phone Screen\n\n- **Bob Jones** (Score: 72.0%)",
		"## Processing Notes\n\n- parse: scan.pdf: no usable text extracted",
		"**Scoring Weights:** Skills (50%) | Experience (30%) | Education (20%)",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 1, strings.Count(out, "📊 Ranking Context"))
}

func TestRenderReportWithoutOptionalSections(t *testing.T) {
	out := RenderReport(reportRecord(), "summary", DefaultConfig().Weights, reportTime)
	for _, absent := range []string{"## Quality Review", "## Fairness Review", "## Salary Estimates", "## ATS Compatibility", "## Processing Notes"} {
		assert.NotContains(t, out, absent)
	}
}

func TestRenderReportUnassessedCandidate(t *testing.T) {
	rec := reportRecord()
	rec.Ranked = append(rec.Ranked, model.RankedCandidate{Rank: 3, Score: model.CandidateScore{
		Candidate: "scan", Recommendation: model.NotRecommended, Confidence: model.ConfidenceLow,
		Unassessed: true, Concerns: []string{"Profile could not be parsed"},
	}})

	out := RenderReport(rec, "summary", DefaultConfig().Weights, reportTime)

	assert.Contains(t, out, "| #3 | **scan** | not assessed | - | - | - | Not Recommended |")
	assert.Contains(t, out, "### #3 - scan\n")
	assert.Contains(t, out, "Not assessed: the resume could not be parsed.")
	assert.NotContains(t, out, "Score Breakdown (Total: 0.0%)")
}

func TestReportStage(t *testing.T) {
	t.Run("model summary", func(t *testing.T) {
		gen := &scriptedGenerator{replies: map[string]string{"executive summary": "  Alice leads the field.  "}}
		s := newSet(gen)
		s.now = func() time.Time { return reportTime }

		out, err := run(t, s, Report, reportRecord())
		require.NoError(t, err)
		assert.Contains(t, out.Report, "## Executive Summary\n\nAlice leads the field.\n")
		assert.Contains(t, out.Report, "March 04, 2025")
	})

	t.Run("template summary on failure", func(t *testing.T) {
		out, err := run(t, newSet(&scriptedGenerator{err: errors.New("down")}), Report, reportRecord())
		require.Error(t, err)
		assert.Contains(t, out.Report, "Screened 2 candidates for the ML Engineer position. Top candidate scored 88.5%.")
	})

	t.Run("nothing ranked", func(t *testing.T) {
		rec := seeded()
		out, err := run(t, newSet(nil), Report, rec)
		require.NoError(t, err)
		assert.Contains(t, out.Report, "No candidates could be ranked for the Not specified position.")
	})
}
