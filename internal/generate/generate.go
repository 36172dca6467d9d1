// Package generate is the language-model stage that turns filtered
// candidates into ranked draft posts.
package generate

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

// Generator produces draft posts from filtered candidates.
type Generator struct {
	chain  Completer
	logger *slog.Logger
}

// NewGenerator creates a post generator over the given model chain.
func NewGenerator(chain Completer, logger *slog.Logger) *Generator {
	return &Generator{chain: chain, logger: logger}
}

// draftResponse is the raw per-draft shape returned by the model. The score
// is decoded as json.Number so non-integer values can be rejected instead
// of silently truncated.
type draftResponse struct {
	Title               string      `json:"title"`
	Content             string      `json:"content"`
	SourceID            string      `json:"source_id"`
	Topics              []string    `json:"topics"`
	RecommendationScore json.Number `json:"recommendation_score"`
}

// Generate returns up to n validated drafts. Drafts referencing unknown
// source ids or carrying non-integer scores are dropped individually; an
// empty result is a valid outcome, not an error. A provider-chain failure
// is returned as an error and fails the run.
func (g *Generator) Generate(ctx context.Context, filtered []types.CandidateItem, prefs types.UserPreferences, n int) ([]types.Draft, error) {
	if len(filtered) == 0 {
		return nil, nil
	}

	resp, err := g.chain.Complete(ctx, BuildGeneratePrompt(filtered, prefs, n))
	if err != nil {
		return nil, err
	}

	var raw []draftResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSONArray(resp)), &raw); err != nil {
		// Malformed output means no drafts this run, not a failure.
		g.logger.Warn("generator response did not parse, treating as empty", "error", err)
		return nil, nil
	}

	valid := aggregate.IDSet(filtered)
	var drafts []types.Draft
	for _, r := range raw {
		if len(drafts) == n {
			break
		}
		if _, ok := valid[r.SourceID]; !ok {
			g.logger.Warn("generator referenced unknown source id, dropping draft", "id", r.SourceID)
			continue
		}
		if r.Content == "" {
			continue
		}
		score, ok := clampScore(r.RecommendationScore)
		if !ok {
			g.logger.Warn("generator returned non-integer score, dropping draft", "score", r.RecommendationScore.String())
			continue
		}
		drafts = append(drafts, types.Draft{
			Title:               r.Title,
			Content:             r.Content,
			SourceID:            r.SourceID,
			Topics:              r.Topics,
			RecommendationScore: score,
		})
	}
	return drafts, nil
}

// clampScore coerces a model-supplied score into [0,100]. Non-integer
// values are rejected; out-of-range integers are clamped.
func clampScore(n json.Number) (int, bool) {
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	if v > 100 {
		return 100, true
	}
	return int(v), true
}
