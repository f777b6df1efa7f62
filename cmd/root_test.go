package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "extended", config.Pipeline.Variant)
	assert.Equal(t, 0.7, config.Quality.Threshold)
	assert.Equal(t, 2, config.Quality.MaxRetries)
	assert.Equal(t, 60*time.Second, config.Timeouts.LLM)
	assert.False(t, config.AI.Enabled)
	assert.Equal(t, "output", config.Output.Dir)

	sc := config.StageConfig()
	assert.Equal(t, 0.5, sc.Weights.Skills)
	assert.Equal(t, 4, sc.Workers)
}

func TestLoadConfigFromYAML(t *testing.T) {
	config, err := loadConfig(newViper(t, `
pipeline:
  variant: linear
  workers: 8
timeouts:
  llm: 30s
scoring:
  weights:
    skills: 0.4
    experience: 0.4
    education: 0.2
ai:
  enabled: true
  gemini:
    api-key-file: /run/secrets/gemini
`))
	require.NoError(t, err)

	assert.Equal(t, "linear", config.Pipeline.Variant)
	assert.Equal(t, 8, config.StageConfig().Workers)
	assert.Equal(t, 30*time.Second, config.Timeouts.LLM)
	assert.Equal(t, 0.4, config.StageConfig().Weights.Experience)
	assert.Equal(t, "/run/secrets/gemini", config.AI.Gemini.APIKeyFile)
	assert.Equal(t, 3, config.AI.Gemini.MaxRetries, "defaults fill the rest of the section")
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown variant", "pipeline:\n  variant: parallel\n", "Variant"},
		{"threshold out of range", "quality:\n  threshold: 1.5\n", "Threshold"},
		{"weights do not sum to one", "scoring:\n  weights:\n    skills: 0.9\n", "scoring weights must sum to 1, got 1.400"},
		{"unknown provider", "ai:\n  provider: openai\n", "Provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(newViper(t, tt.yaml))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out := newOutputs(dir, "run-1")

	rec := state.Record{JobText: "job", Report: "# Report", Candidates: []model.Candidate{{Name: "A"}}}

	filename, err := out.report(rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "screening-run-1-report.md"), filename)
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "# Report", string(data))

	filename, err = out.state(rec)
	require.NoError(t, err)
	data, err = os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_text": "job"`)

	_, err = out.report(state.Record{})
	assert.Error(t, err)
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.txt")
	resume := filepath.Join(dir, "alice.txt")
	require.NoError(t, os.WriteFile(job, []byte("ML Engineer"), 0o644))
	require.NoError(t, os.WriteFile(resume, []byte("Alice"), 0o644))

	text, docs, err := readInputs(job, []string{resume, " "})
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", text)
	require.Len(t, docs, 1)
	assert.Equal(t, "alice.txt", docs[0].Name)

	_, _, err = readInputs(job, []string{filepath.Join(dir, "missing.pdf")})
	assert.ErrorContains(t, err, "read resume")
}
