// Package relevance is the language-model stage that narrows a run's
// candidate list down to the items worth drafting posts from.
package relevance

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/postpilot/postpilot/internal/aggregate"
	"github.com/postpilot/postpilot/internal/llm"
	"github.com/postpilot/postpilot/internal/types"
)

// Completer abstracts the llm fallback chain.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Filter selects the relevant subset of a candidate list.
type Filter struct {
	chain  Completer
	logger *slog.Logger
}

// NewFilter creates a relevance filter over the given model chain.
func NewFilter(chain Completer, logger *slog.Logger) *Filter {
	return &Filter{chain: chain, logger: logger}
}

type selectionResponse struct {
	SelectedIDs []string `json:"selected_ids"`
}

// Select returns at most k candidates the model judged relevant, in input
// order. Ids the model invents are discarded; an empty selection is a valid
// outcome, not an error. A provider-chain failure is returned as an error
// and fails the run.
func (f *Filter) Select(ctx context.Context, candidates []types.CandidateItem, prefs types.UserPreferences, k int) ([]types.CandidateItem, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	resp, err := f.chain.Complete(ctx, BuildFilterPrompt(candidates, prefs, k))
	if err != nil {
		return nil, err
	}

	var sel selectionResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(resp)), &sel); err != nil {
		// Malformed output means nothing relevant this run, not a failure.
		f.logger.Warn("relevance response did not parse, treating as empty", "error", err)
		return nil, nil
	}

	valid := aggregate.IDSet(candidates)
	wanted := make(map[string]struct{}, len(sel.SelectedIDs))
	for _, id := range sel.SelectedIDs {
		if _, ok := valid[id]; !ok {
			f.logger.Warn("relevance filter returned unknown id, discarding", "id", id)
			continue
		}
		wanted[id] = struct{}{}
	}

	var selected []types.CandidateItem
	for _, c := range candidates {
		if len(selected) == k {
			break
		}
		if _, ok := wanted[c.SourceID]; ok {
			selected = append(selected, c)
		}
	}
	return selected, nil
}
