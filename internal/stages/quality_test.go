package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
)

func ranked(scores ...model.CandidateScore) []model.RankedCandidate {
	out := make([]model.RankedCandidate, len(scores))
	for i, s := range scores {
		out[i] = model.RankedCandidate{Rank: i + 1, Score: s}
	}
	return out
}

func completeCandidate(name string) model.Candidate {
	return model.Candidate{
		Name:           name,
		Skills:         []string{"Python"},
		TotalMonths:    24,
		WorkExperience: []model.WorkExperience{{Company: "Acme", Months: 24}},
	}
}

func TestQualityIssues(t *testing.T) {
	t.Run("clean run", func(t *testing.T) {
		issues := QualityIssues(
			[]model.Candidate{completeCandidate("A"), completeCandidate("B")},
			ranked(
				model.CandidateScore{Candidate: "A", Total: 80, Recommendation: model.GoodMatch, Confidence: model.ConfidenceHigh},
				model.CandidateScore{Candidate: "B", Total: 70, Recommendation: model.PotentialMatch, Confidence: model.ConfidenceMedium},
			),
		)
		assert.Empty(t, issues)
	})

	t.Run("incomplete and placeholder profiles", func(t *testing.T) {
		issues := QualityIssues(
			[]model.Candidate{
				{Name: "A", Skills: []string{"Go"}},
				model.PlaceholderCandidate("scan.pdf", "no text"),
			},
			nil,
		)
		assert.Equal(t, []string{
			"A: incomplete profile, no work history, experience duration",
			"scan: profile could not be parsed",
		}, issues)
	})

	t.Run("score anomalies", func(t *testing.T) {
		issues := QualityIssues(
			[]model.Candidate{completeCandidate("A"), completeCandidate("B")},
			ranked(
				model.CandidateScore{Candidate: "A", Total: 99, Recommendation: model.PotentialMatch, Confidence: model.ConfidenceLow},
				model.CandidateScore{Candidate: "B", Total: 40, Recommendation: model.NotRecommended, Confidence: model.ConfidenceMedium},
			),
		)
		assert.Equal(t, []string{
			"Large score gap (59.0 points) between A and B",
			"A has a suspiciously high score (99.0%)",
			"Top candidate A has low confidence",
			"A: high score (99.0%) but weak recommendation (Potential Match)",
		}, issues)
	})

	t.Run("unassessed profiles skip score checks", func(t *testing.T) {
		issues := QualityIssues(
			[]model.Candidate{completeCandidate("A"), model.PlaceholderCandidate("scan.pdf", "no text")},
			ranked(
				model.CandidateScore{Candidate: "A", Total: 80, Recommendation: model.GoodMatch, Confidence: model.ConfidenceHigh},
				model.CandidateScore{Candidate: "scan", Recommendation: model.NotRecommended, Confidence: model.ConfidenceLow, Unassessed: true},
			),
		)
		assert.Equal(t, []string{"scan: profile could not be parsed"}, issues)
	})

	t.Run("everyone below the bar", func(t *testing.T) {
		issues := QualityIssues(nil, ranked(
			model.CandidateScore{Candidate: "A", Total: 55, Confidence: model.ConfidenceMedium},
			model.CandidateScore{Candidate: "B", Total: 50, Confidence: model.ConfidenceMedium},
		))
		assert.Equal(t, []string{"All candidates scored below 60%, the requirements may be too strict"}, issues)
	})
}

func TestRuleConfidence(t *testing.T) {
	assert.Equal(t, 1.0, RuleConfidence(0))
	assert.InDelta(t, 0.6, RuleConfidence(4), 1e-9)
	assert.Equal(t, 0.3, RuleConfidence(12))
}

func TestFlagCandidates(t *testing.T) {
	top := ranked(
		model.CandidateScore{Candidate: "Ann"},
		model.CandidateScore{Candidate: "Ben"},
		model.CandidateScore{Candidate: "Cid"},
	)

	assert.Equal(t, []string{"Ann"}, FlagCandidates(top, []string{"scores look off"}), "leader by default")
	assert.Equal(t, []string{"Cid", "Ben"}, FlagCandidates(top, []string{
		"Cid: incomplete profile",
		"Large score gap between Ben and Cid",
		"Ann has a suspiciously high score",
	}))
	assert.Empty(t, FlagCandidates(nil, []string{"x"}))
}

func TestQualityStage(t *testing.T) {
	base := func() model.Candidate { return completeCandidate("A") }
	scores := ranked(model.CandidateScore{Candidate: "A", Total: 80, Recommendation: model.GoodMatch, Confidence: model.ConfidenceHigh})

	t.Run("reflection reply", func(t *testing.T) {
		gen := &scriptedGenerator{replies: map[string]string{
			"judge how reliable": `{"overall_confidence": "0.55", "issues": ["A: skills look keyword-stuffed"]}`,
		}}
		rec := seeded()
		rec.Candidates = []model.Candidate{base()}
		rec.Ranked = scores

		out, err := run(t, newSet(gen), Quality, rec)
		require.NoError(t, err)
		require.NotNil(t, out.Quality)
		assert.Equal(t, 0.55, out.Quality.Confidence)
		assert.True(t, out.Quality.NeedsRerun)
		assert.Equal(t, []string{"A"}, out.Quality.Flagged)
		assert.Equal(t, []string{"A: skills look keyword-stuffed"}, out.Quality.Issues)
		assert.NotEmpty(t, out.Quality.Recommendations)
	})

	t.Run("reflection out of range", func(t *testing.T) {
		gen := &scriptedGenerator{replies: map[string]string{"judge how reliable": `{"overall_confidence": 7}`}}
		rec := seeded()
		rec.Candidates = []model.Candidate{base()}
		rec.Ranked = scores

		out, err := run(t, newSet(gen), Quality, rec)
		require.NoError(t, err)
		assert.Equal(t, 1.0, out.Quality.Confidence)
		assert.False(t, out.Quality.NeedsRerun)
		assert.Empty(t, out.Quality.Flagged)
	})

	t.Run("generator failure", func(t *testing.T) {
		rec := seeded()
		rec.Candidates = []model.Candidate{base()}
		rec.Ranked = scores

		out, err := run(t, newSet(&scriptedGenerator{err: errors.New("boom")}), Quality, rec)
		require.Error(t, err)
		assert.Equal(t, 0.7, out.Quality.Confidence)
		assert.False(t, out.Quality.NeedsRerun)
	})

	t.Run("disabled uses rule confidence", func(t *testing.T) {
		rec := seeded()
		rec.Candidates = []model.Candidate{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
		rec.Ranked = scores

		out, err := run(t, newSet(nil), Quality, rec)
		require.NoError(t, err)
		assert.Equal(t, 0.6, out.Quality.Confidence)
		assert.True(t, out.Quality.NeedsRerun)
		assert.Equal(t, []string{"A"}, out.Quality.Flagged)
	})
}
