package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
)

func TestDetectBias(t *testing.T) {
	t.Run("nothing to report", func(t *testing.T) {
		findings := DetectBias(
			[]model.Candidate{{Name: "A"}, {Name: "B"}},
			ranked(model.CandidateScore{Candidate: "A", Total: 70}, model.CandidateScore{Candidate: "B", Total: 60}),
			&model.JobRequirements{MinimumYears: 3},
			"Backend engineer, Go and Postgres.",
		)
		assert.Empty(t, findings)
	})

	t.Run("all rules", func(t *testing.T) {
		stanford := []model.Education{{Degree: "BSc", Institution: "Stanford University"}}
		candidates := []model.Candidate{
			{Name: "A", Education: stanford},
			{Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"},
		}
		findings := DetectBias(
			candidates,
			ranked(
				model.CandidateScore{Candidate: "A", Total: 90},
				model.CandidateScore{Candidate: "B", Total: 70},
				model.CandidateScore{Candidate: "C", Total: 65},
				model.CandidateScore{Candidate: "D", Total: 60},
				model.CandidateScore{Candidate: "E", Total: 40},
			),
			&model.JobRequirements{MinimumYears: 8},
			"We want an aggressive, competitive digital native.",
		)

		kinds := make([]string, 0, len(findings))
		for _, f := range findings {
			kinds = append(kinds, f.Kind)
		}
		assert.Equal(t, []string{"education", "experience", "language", "score_distribution"}, kinds)
		assert.Equal(t, "Elite universities are over-represented in the top candidates (1 of 3)", findings[0].Description)
		assert.Equal(t, "Job description contains masculine-coded wording and age-related wording", findings[2].Description)
		assert.Equal(t, "Large spread between highest and lowest score (50.0 points)", findings[3].Description)
	})

	t.Run("elite names match whole words", func(t *testing.T) {
		findings := DetectBias(
			[]model.Candidate{{Name: "A", Education: []model.Education{{Institution: "Smith College"}}}},
			ranked(model.CandidateScore{Candidate: "A", Total: 80}),
			&model.JobRequirements{},
			"",
		)
		assert.Empty(t, findings, "smith contains mit")
	})
}

func TestBiasReportOf(t *testing.T) {
	clean := BiasReportOf(nil)
	assert.Equal(t, 0.0, clean.Score)
	assert.Equal(t, "Excellent - No significant biases detected", clean.Fairness)
	assert.Equal(t, []string{"Continue current screening practices - no significant biases detected"}, clean.Recommendations)

	report := BiasReportOf([]model.BiasFinding{
		{Kind: "language", Severity: model.SeverityMedium, Recommendation: "Use neutral wording"},
		{Kind: "education", Severity: model.SeverityMedium, Recommendation: "Use neutral wording"},
		{Kind: "other", Severity: model.SeverityLow},
	})
	assert.Equal(t, 75.0, report.Score)
	assert.Equal(t, "Poor - Significant biases detected, review process", report.Fairness)
	assert.Equal(t, []string{
		"Use neutral wording",
		"Review screening criteria to ensure fairness and objectivity",
		"Consider blind screening (removing names/universities) for initial review",
	}, report.Recommendations)

	capped := BiasReportOf([]model.BiasFinding{{Severity: model.SeverityHigh}, {Severity: model.SeverityHigh}, {Severity: model.SeverityHigh}})
	assert.Equal(t, 100.0, capped.Score)
}

func TestBiasStage(t *testing.T) {
	t.Run("model findings are merged", func(t *testing.T) {
		gen := &scriptedGenerator{replies: map[string]string{
			"unconscious bias": `{"detected_biases": [{"kind": "gender", "severity": "HIGH", "description": "Only male names in the top three"}]}`,
		}}
		out, err := run(t, newSet(gen), Bias, seeded())
		require.NoError(t, err)
		require.NotNil(t, out.Bias)
		require.Len(t, out.Bias.Findings, 1)
		assert.Equal(t, model.SeverityHigh, out.Bias.Findings[0].Severity)
		assert.Equal(t, 50.0, out.Bias.Score)
		assert.Equal(t, "Fair - Some biases require attention", out.Bias.Fairness)
	})

	t.Run("generator failure keeps rule findings", func(t *testing.T) {
		rec := seeded()
		rec.JobText = "Young and energetic team"
		out, err := run(t, newSet(&scriptedGenerator{err: errors.New("down")}), Bias, rec)
		require.Error(t, err)
		require.Len(t, out.Bias.Findings, 1)
		assert.Equal(t, "language", out.Bias.Findings[0].Kind)
		assert.Equal(t, 30.0, out.Bias.Score)
	})
}
