// Package llm is the language-model provider boundary: a prompt in, raw
// model text out. Which providers run and in what fallback order is wiring,
// not pipeline logic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllProvidersFailed means every provider in a chain failed for one call.
// The calling stage treats this as model-unresponsive and fails the run.
var ErrAllProvidersFailed = errors.New("all llm providers failed")

// Provider is a single model endpoint.
type Provider interface {
	// Name identifies the provider/model for logging.
	Name() string

	// Complete sends the prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Chain tries an ordered list of providers until one returns a response.
// Provider and transport errors move to the next provider; what the caller
// does with a response that parses badly is its own business.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a fallback chain. The first provider is primary.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Complete runs the prompt through the chain.
func (c *Chain) Complete(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", fmt.Errorf("%w: no providers configured", ErrAllProvidersFailed)
	}

	var lastErr error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := p.Complete(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		c.logger.Warn("llm provider failed, falling back", "provider", p.Name(), "error", err)
	}
	return "", fmt.Errorf("%w: last error: %v", ErrAllProvidersFailed, lastErr)
}
