// Package ai holds the text-generation contract used by the stages and the
// helpers that turn model output into typed values.
package ai

import (
	"context"
)

// Generator produces free text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
