package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/state"
)

type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) stage(name string, fn func(state.Record) (state.Partial, error)) Stage {
	return NewStage(name, func(_ context.Context, rec state.Record) (state.Partial, error) {
		c.mu.Lock()
		if c.calls == nil {
			c.calls = map[string]int{}
		}
		c.calls[name]++
		c.mu.Unlock()
		if fn == nil {
			return nil, nil
		}
		return fn(rec)
	})
}

func seeded() state.Record {
	return state.New("Senior Go engineer", []model.Document{{Name: "a.pdf", Data: []byte("x")}})
}

// loopGraph mirrors the quality-gate shape: parse -> experience -> quality -?-> report.
func loopGraph(t *testing.T, c *counter, quality func(state.Record) (state.Partial, error), maxRetries int) *Pipeline {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddStage(c.stage("parse", nil)))
	require.NoError(t, g.AddStage(c.stage("experience", nil)))
	require.NoError(t, g.AddStage(c.stage("quality", quality)))
	require.NoError(t, g.AddStage(c.stage("report", func(state.Record) (state.Partial, error) {
		return state.Partial{state.FieldReport: "done"}, nil
	})))
	require.NoError(t, g.SetEntry("parse"))
	require.NoError(t, g.AddEdge("parse", "experience"))
	require.NoError(t, g.AddEdge("experience", "quality"))
	require.NoError(t, g.AddConditionalEdge("quality", NewQualityRouter(NewRetryGuard(maxRetries), nil), map[Route]string{
		Reanalyze: "experience",
		Continue:  "report",
	}))
	require.NoError(t, g.AddEdge("report", End))

	plan, err := g.Compile()
	require.NoError(t, err)
	return New("test", plan, nil)
}

func TestRunStopsLoopingAtCap(t *testing.T) {
	c := &counter{}
	alwaysRerun := func(state.Record) (state.Partial, error) {
		return state.Partial{state.FieldQuality: &model.QualityCheck{Confidence: 0.2, NeedsRerun: true}}, nil
	}
	p := loopGraph(t, c, alwaysRerun, DefaultMaxRetries)

	final, err := p.Run(context.Background(), seeded())
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls["parse"])
	assert.Equal(t, 3, c.calls["experience"])
	assert.Equal(t, 3, c.calls["quality"])
	assert.Equal(t, 1, c.calls["report"])

	assert.Equal(t, 2, final.RetryCount)
	require.NotNil(t, final.Quality)
	assert.True(t, final.Quality.Exhausted)
	assert.Equal(t, "done", final.Report)
	assert.Equal(t, "report", final.CurrentStage)
	assert.Equal(t, []string{
		"parse", "experience", "quality",
		"experience", "quality",
		"experience", "quality",
		"report",
	}, final.History)
}

func TestRunLoopsOnlyWhileVerdictAsks(t *testing.T) {
	c := &counter{}
	quality := func(rec state.Record) (state.Partial, error) {
		// confident after the first reanalysis
		return state.Partial{state.FieldQuality: &model.QualityCheck{NeedsRerun: rec.RetryCount == 0}}, nil
	}
	p := loopGraph(t, c, quality, DefaultMaxRetries)

	final, err := p.Run(context.Background(), seeded())
	require.NoError(t, err)
	assert.Equal(t, 2, c.calls["experience"])
	assert.Equal(t, 1, final.RetryCount)
	assert.False(t, final.Quality.Exhausted)
}

func TestRunRefusesMissingInput(t *testing.T) {
	c := &counter{}
	p := loopGraph(t, c, nil, DefaultMaxRetries)

	t.Run("no documents", func(t *testing.T) {
		final, err := p.Run(context.Background(), state.New("job", nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingInput)
		assert.Equal(t, state.Record{}, final)
	})

	t.Run("no job text", func(t *testing.T) {
		_, err := p.Run(context.Background(), state.New("  ", []model.Document{{Name: "a"}}))
		assert.ErrorIs(t, err, ErrMissingInput)
	})

	assert.Empty(t, c.calls, "no stage may run without input")
}

func TestRunAccumulatesStageErrors(t *testing.T) {
	c := &counter{}
	flaky := func(state.Record) (state.Partial, error) {
		return state.Partial{state.FieldQuality: &model.QualityCheck{Confidence: 1}}, errors.New("reflection unavailable")
	}
	p := loopGraph(t, c, flaky, DefaultMaxRetries)

	final, err := p.Run(context.Background(), seeded())
	require.NoError(t, err)
	assert.Equal(t, []string{"quality: reflection unavailable"}, final.Errors)
	assert.Equal(t, 1.0, final.Quality.Confidence)
	assert.Equal(t, "done", final.Report)
}

func TestRunAbortsOnSchemaViolation(t *testing.T) {
	c := &counter{}
	broken := func(state.Record) (state.Partial, error) {
		return state.Partial{"verdict": true}, nil
	}
	p := loopGraph(t, c, broken, DefaultMaxRetries)

	final, err := p.Run(context.Background(), seeded())
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrSchemaViolation)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "quality", se.Stage)
	assert.Equal(t, state.Record{}, final)
	assert.Zero(t, c.calls["report"])
}

func TestRunAbortsOnFatalStageError(t *testing.T) {
	c := &counter{}
	fatal := func(state.Record) (state.Partial, error) {
		return nil, Fatal(errors.New("job requirements missing"))
	}
	p := loopGraph(t, c, fatal, DefaultMaxRetries)

	_, err := p.Run(context.Background(), seeded())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Zero(t, c.calls["report"])
}
