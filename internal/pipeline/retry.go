package pipeline

// DefaultMaxRetries caps how many times the conditional loop may fire in one run.
const DefaultMaxRetries = 2

// RetryGuard bounds the conditional loop. The counter itself lives in the record
// so a replayed run makes the same decisions.
type RetryGuard struct {
	max int
}

func NewRetryGuard(max int) RetryGuard {
	if max < 0 {
		max = 0
	}
	return RetryGuard{max: max}
}

// Allow reports whether one more loop may start after count completed loops.
func (g RetryGuard) Allow(count int) bool {
	return count < g.max
}

func (g RetryGuard) Max() int {
	return g.max
}
