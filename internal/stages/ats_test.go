package stages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
)

var atsJob = &model.JobRequirements{Skills: []model.Skill{
	{Name: "Python", Priority: model.MustHave},
	{Name: "TensorFlow", Priority: model.MustHave},
}}

func TestScoreATSShortResume(t *testing.T) {
	score := ScoreATS(model.Candidate{Name: "A", Email: "alice@example.com", ResumeText: aliceResume}, atsJob)

	assert.Equal(t, map[string]float64{
		CategoryKeywords: 15,
		CategoryFormat:   20,
		CategorySections: 12,
		CategoryContact:  5,
		CategoryDensity:  5,
	}, score.Categories)
	assert.Equal(t, 57.0, score.Overall)
	assert.Equal(t, "Fair", score.Rating)
	assert.Equal(t, []string{
		"Add clear section headers (Experience, Education, Skills)",
		"Include email, phone, and a profile URL",
	}, score.Suggestions)
}

func TestScoreATSCompleteResume(t *testing.T) {
	text := "Summary\nProjects\nCertifications\nAchievements\nExperience\nEducation\nSkills\nWork\nEmployment\nTechnical\nlinkedin.com/in/alice\n" +
		strings.Repeat("- python tensorflow engineer delivered results\n", 50)
	c := model.Candidate{
		Name:       "A",
		Email:      "a@example.com",
		Phone:      "+1 555 0100",
		ResumeText: text,
		WorkExperience: []model.WorkExperience{
			{Company: "Acme", Responsibilities: []string{"models", "pipelines"}},
		},
	}

	score := ScoreATS(c, atsJob)
	assert.Equal(t, 100.0, score.Overall)
	assert.Equal(t, "Excellent", score.Rating)
	assert.Empty(t, score.Suggestions)
}

func TestScoreATSEmptyResume(t *testing.T) {
	score := ScoreATS(model.PlaceholderCandidate("scan.pdf", "no text"), atsJob)
	assert.Equal(t, 0.0, score.Overall)
	assert.Equal(t, "Poor", score.Rating)
	assert.Len(t, score.Suggestions, 5)
}

func TestATSStage(t *testing.T) {
	rec := seeded()
	rec.Candidates = []model.Candidate{
		{Name: "A", ResumeText: aliceResume},
		{Name: "B", ResumeText: bobResume},
	}

	out, err := run(t, newSet(nil), ATS, rec)
	require.NoError(t, err)
	require.Len(t, out.ATS, 2)
	assert.Equal(t, "A", out.ATS[0].Candidate)
	assert.Equal(t, 20.0, out.ATS[1].Categories[CategoryKeywords], "no listed skills")
}
