package ai

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/utils"
)

// ErrDisabled is returned by a Caller that has no generator configured.
var ErrDisabled = errors.New("text generation is disabled")

const defaultMaxLogLength = 200

// Caller wraps a Generator with a per-call timeout, debug logging of prompts
// and responses and structured decoding.
type Caller struct {
	generator Generator
	logger    *zap.Logger
	timeout   time.Duration
	maxLogLen int
}

// NewCaller returns a caller around generator. A nil generator yields a caller
// whose every call fails with ErrDisabled, so stages take their fallback path.
func NewCaller(generator Generator, logger *zap.Logger, timeout time.Duration, maxLogLength int) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Caller{
		generator: generator,
		logger:    logger,
		timeout:   timeout,
		maxLogLen: maxLogLength,
	}
}

func (c *Caller) Enabled() bool {
	return c != nil && c.generator != nil
}

// Text sends prompt and returns the raw response.
func (c *Caller) Text(ctx context.Context, task, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug("generate content request",
		zap.String("task", task),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.logger.Debug("generate content response",
		zap.String("task", task),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	return raw, nil
}

// JSON sends prompt and decodes the response into target. schema may be empty.
func (c *Caller) JSON(ctx context.Context, task, prompt, schema string, target any) error {
	raw, err := c.Text(ctx, task, prompt)
	if err != nil {
		return err
	}
	return DecodeJSON(raw, schema, target)
}
