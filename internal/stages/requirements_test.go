package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
)

func TestRequirementsFromText(t *testing.T) {
	job := RequirementsFromText(`Senior ML Engineer
We need Python and TensorFlow.
5+ years of experience.
Docker is a plus.
Bachelor in Computer Science required.`)

	assert.Equal(t, "Senior ML Engineer", job.Title)
	assert.Equal(t, []model.Skill{
		{Name: "python", Priority: model.MustHave},
		{Name: "tensorflow", Priority: model.MustHave},
		{Name: "docker", Priority: model.NiceToHave},
	}, job.Skills)
	assert.Equal(t, 5, job.MinimumYears)
	assert.Equal(t, "Bachelor", job.MinimumDegree)
	assert.True(t, job.DegreeRequired)
	assert.Equal(t, []string{"computer science"}, job.FieldsOfStudy)
}

func TestRequirementsFromTextOptionalDegree(t *testing.T) {
	job := RequirementsFromText("Data Analyst\nMaster degree preferred\nSQL")
	assert.Equal(t, "Master", job.MinimumDegree)
	assert.False(t, job.DegreeRequired)
	assert.Equal(t, []model.Skill{{Name: "sql", Priority: model.MustHave}}, job.Skills)
}

func TestRequirementsStage(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		gen := &scriptedGenerator{replies: map[string]string{
			"Extract the structured requirements": "```json\n" + `{
				"title": "ML Engineer",
				"must_have": ["Python", "TensorFlow", "python"],
				"nice_to_have": ["Docker"],
				"minimum_years": "4",
				"degree_required": "true",
				"minimum_degree": "Bachelor"
			}` + "\n```",
		}}

		out, err := run(t, newSet(gen), Requirements, seeded())
		require.NoError(t, err)

		require.NotNil(t, out.Job)
		assert.Equal(t, "ML Engineer", out.Job.Title)
		assert.Equal(t, []model.Skill{
			{Name: "Python", Priority: model.MustHave},
			{Name: "TensorFlow", Priority: model.MustHave},
			{Name: "Docker", Priority: model.NiceToHave},
		}, out.Job.Skills)
		assert.Equal(t, 4, out.Job.MinimumYears)
		assert.True(t, out.Job.DegreeRequired)
	})

	t.Run("disabled", func(t *testing.T) {
		out, err := run(t, newSet(nil), Requirements, seeded())
		require.NoError(t, err)
		assert.Equal(t, "Machine Learning Engineer", out.Job.Title)
		assert.Len(t, out.Job.MustHaveSkills(), 2)
		assert.Equal(t, 3, out.Job.MinimumYears)
	})

	t.Run("generator failure", func(t *testing.T) {
		gen := &scriptedGenerator{err: errors.New("quota exceeded")}
		out, err := run(t, newSet(gen), Requirements, seeded())
		require.Error(t, err)
		assert.ErrorContains(t, err, "quota exceeded")
		assert.Equal(t, "Machine Learning Engineer", out.Job.Title, "falls back to the keyword scan")
	})
}
