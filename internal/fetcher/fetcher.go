// Package fetcher pulls raw candidate items from the external content
// sources. Each fetcher is independently fallible; the pipeline treats a
// failed source as zero items, not a failed run.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/postpilot/postpilot/internal/types"
)

// Fetcher is the common contract over the source types.
type Fetcher interface {
	// SourceType identifies which source this fetcher covers.
	SourceType() types.SourceType

	// Fetch returns candidate items newer than the boundary for the user.
	Fetch(ctx context.Context, prefs types.UserPreferences, boundary types.Boundary) ([]types.CandidateItem, error)
}

// RetryPolicy bounds how often a fetcher re-attempts its upstream call
// before surfacing failure. Delays grow exponentially from BaseDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetryPolicy matches the configured defaults.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, BaseDelay: 500 * time.Millisecond}

// do runs fn under the policy, sleeping between attempts.
func (r RetryPolicy) do(ctx context.Context, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := r.BaseDelay << (i - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// withinBoundary reports whether an item published at t is new relative to
// the boundary. Items without a parseable publish time pass; the aggregator
// still dedups them against previously suggested URLs.
func withinBoundary(t time.Time, boundary types.Boundary) bool {
	if boundary.Unbounded() || t.IsZero() {
		return true
	}
	return t.After(boundary.Since)
}
