package stages

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

func TestProfileFromText(t *testing.T) {
	text := `Jane Doe
jane@example.com | +1 555 123 4567 | github.com/janedoe
Machine learning engineer with 6 years of experience in Python and PyTorch.
Master of Science in Computer Science, Stanford University`

	c := ProfileFromText("jane.pdf", text)

	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.Equal(t, "+1 555 123 4567", c.Phone)
	assert.Equal(t, "janedoe", c.GitHub)
	assert.Equal(t, 72, c.TotalMonths)
	assert.Equal(t, []string{"machine learning", "python", "pytorch"}, c.Skills)
	require.Len(t, c.Education, 1)
	assert.Contains(t, c.Education[0].Degree, "Master of Science")
	assert.Equal(t, "jane.pdf", c.SourceFile)
	assert.Equal(t, text, c.ResumeText)
}

func TestProfileFromTextNamesFromFile(t *testing.T) {
	c := ProfileFromText("resume-42.txt", "experienced engineer, python and go")
	assert.Equal(t, "resume-42", c.Name)
}

func TestParseStage(t *testing.T) {
	rec := state.New(jobText, []model.Document{
		{Name: "alice.txt", Data: []byte(aliceResume)},
		{Name: "short.txt", Data: []byte("Too short to be a resume.")},
		{Name: "scan.bin", Data: []byte{0x00}},
		{Name: "bob.txt", Data: []byte(bobResume)},
	})

	out, err := run(t, newSet(nil), Parse, rec)
	require.NoError(t, err)

	require.Len(t, out.Candidates, 4, "every document yields a candidate")
	assert.Equal(t, "Alice Smith", out.Candidates[0].Name)
	assert.Equal(t, "Bob Jones", out.Candidates[3].Name)

	assert.True(t, out.Candidates[1].Placeholder)
	assert.Equal(t, "short", out.Candidates[1].Name)
	assert.True(t, out.Candidates[2].Placeholder)

	require.Len(t, out.Errors, 2)
	assert.Equal(t, "parse: short.txt: no usable text extracted", out.Errors[0])
	assert.True(t, strings.HasPrefix(out.Errors[1], "parse: scan.bin: extract:"))
}

func TestParseStageMergesStructuredProfile(t *testing.T) {
	gen := &scriptedGenerator{replies: map[string]string{
		"Convert the resume": `{
			"name": "Alice Smith",
			"skills": ["Python", "TensorFlow"],
			"github": "https://github.com/alice-s",
			"work_experience": [
				{"company": "Acme Corp", "title": "Senior ML Engineer", "months": "36"},
				{"company": "Initech", "title": "ML Engineer", "months": 24}
			]
		}`,
	}}
	rec := state.New(jobText, []model.Document{{Name: "alice.txt", Data: []byte(aliceResume)}})

	out, err := run(t, newSet(gen), Parse, rec)
	require.NoError(t, err)
	require.Len(t, out.Candidates, 1)

	c := out.Candidates[0]
	assert.Equal(t, "alice@example.com", c.Email, "regex contacts fill the gaps")
	assert.Equal(t, "alice-s", c.GitHub)
	assert.Equal(t, []string{"Python", "TensorFlow", "docker", "pytorch"}, c.Skills)
	assert.Equal(t, 60, c.TotalMonths, "work history months")
	assert.NotEmpty(t, c.Education)
	assert.Equal(t, aliceResume, c.ResumeText)
}

func TestParseStageGeneratorFailure(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("503 unavailable")}
	rec := state.New(jobText, []model.Document{{Name: "alice.txt", Data: []byte(aliceResume)}})

	out, err := run(t, newSet(gen), Parse, rec)
	require.NoError(t, err)

	require.Len(t, out.Candidates, 1)
	assert.False(t, out.Candidates[0].Placeholder)
	assert.Equal(t, "Alice Smith", out.Candidates[0].Name)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "using keyword profile: 503 unavailable")
}

func TestParseStageSkipsResumeHeadings(t *testing.T) {
	rec := state.New(jobText, []model.Document{
		{Name: "alice.txt", Data: []byte("Curriculum Vitae\n" + aliceResume)},
		{Name: "bob.txt", Data: []byte("Curriculum Vitae\n" + bobResume)},
	})

	out, err := run(t, newSet(nil), Parse, rec)
	require.NoError(t, err)

	require.Len(t, out.Candidates, 2)
	assert.Equal(t, "Alice Smith", out.Candidates[0].Name)
	assert.Equal(t, "Bob Jones", out.Candidates[1].Name)
}

func TestParseStageKeepsNamesUnique(t *testing.T) {
	rec := state.New(jobText, []model.Document{
		{Name: "alice-2023.txt", Data: []byte(aliceResume)},
		{Name: "bob.txt", Data: []byte(bobResume)},
		{Name: "alice-2024.txt", Data: []byte(aliceResume)},
	})

	out, err := run(t, newSet(nil), Parse, rec)
	require.NoError(t, err)

	require.Len(t, out.Candidates, 3)
	assert.Equal(t, "Alice Smith (alice-2023.txt)", out.Candidates[0].Name)
	assert.Equal(t, "Bob Jones", out.Candidates[1].Name)
	assert.Equal(t, "Alice Smith (alice-2024.txt)", out.Candidates[2].Name)
}

func TestUniqueNames(t *testing.T) {
	candidates := []model.Candidate{
		{Name: "Sam Lee", SourceFile: "cv.pdf"},
		{Name: "sam lee", SourceFile: "cv.pdf"},
		{Name: "Sam Lee (cv.pdf)", SourceFile: "other.pdf"},
		{Name: "Ana Ruiz", SourceFile: "ana.pdf"},
		{Name: "Kai Wu"},
		{Name: "Kai Wu"},
	}

	renamed := uniqueNames(candidates)

	assert.Equal(t, []int{0, 1, 5}, renamed)
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	assert.Equal(t, []string{
		"Sam Lee (cv.pdf) #2",
		"sam lee (cv.pdf) #3",
		"Sam Lee (cv.pdf)",
		"Ana Ruiz",
		"Kai Wu",
		"Kai Wu #2",
	}, names)
}
