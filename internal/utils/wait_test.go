package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitFor(t *testing.T) {
	original := after
	t.Cleanup(func() { after = original })

	var waited time.Duration
	after = func(d time.Duration) <-chan time.Time {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	assert.NoError(t, WaitFor(context.Background(), 3*time.Second))
	assert.Equal(t, 3*time.Second, waited)

	waited = 0
	assert.NoError(t, WaitFor(context.Background(), 0))
	assert.Zero(t, waited, "zero duration does not wait")
}

func TestWaitForCancelled(t *testing.T) {
	original := after
	t.Cleanup(func() { after = original })
	after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, WaitFor(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, WaitFor(ctx, 0), context.Canceled)
}
