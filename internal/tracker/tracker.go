// Package tracker owns the per-user incremental-processing state that makes
// pipeline runs exactly-once in effect: what window was last analyzed, and
// which source content has already produced suggestions.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/postpilot/postpilot/internal/aggregate"
	"github.com/postpilot/postpilot/internal/store"
	"github.com/postpilot/postpilot/internal/types"
)

// Tracker reads and advances analysis state.
type Tracker struct {
	store           *store.Store
	exclusionWindow time.Duration
}

// New creates a tracker. exclusionWindow bounds how far back previously
// suggested source URLs are accumulated into the run boundary.
func New(st *store.Store, exclusionWindow time.Duration) *Tracker {
	return &Tracker{store: st, exclusionWindow: exclusionWindow}
}

// GetState returns the user's analysis state, nil when the user has never
// been analyzed. Absent state is a valid first-run input, not an error.
func (t *Tracker) GetState(ctx context.Context, userID string) (*store.AnalysisState, error) {
	return t.store.GetAnalysisState(ctx, userID)
}

// ComputeBoundary derives the incremental cutoff for a run. With no prior
// state the boundary is unrestricted. Otherwise it is the last completed
// analysis time plus the normalized URLs of recently suggested content, so
// a source re-returning an old item cannot produce a duplicate suggestion.
func (t *Tracker) ComputeBoundary(ctx context.Context, userID string, state *store.AnalysisState) (types.Boundary, error) {
	b := types.Boundary{ExcludedURLs: make(map[string]struct{})}
	if state == nil || state.LastAnalysisAt == nil {
		return b, nil
	}
	b.Since = *state.LastAnalysisAt

	urls, err := t.store.SuggestedSourceURLs(ctx, userID, time.Now().Add(-t.exclusionWindow))
	if err != nil {
		return types.Boundary{}, fmt.Errorf("load excluded urls: %w", err)
	}
	for _, u := range urls {
		b.ExcludedURLs[aggregate.NormalizeURL(u)] = struct{}{}
	}
	return b, nil
}
