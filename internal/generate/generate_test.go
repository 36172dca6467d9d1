package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/postpilot/postpilot/internal/types"
)

type fakeCompleter struct {
	resp   string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.resp, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func filtered(ids ...string) []types.CandidateItem {
	out := make([]types.CandidateItem, len(ids))
	for i, id := range ids {
		out[i] = types.CandidateItem{
			SourceID: id,
			URL:      "https://example.com/" + id,
			Title:    "Title " + id,
		}
	}
	return out
}

func TestGenerateValidDrafts(t *testing.T) {
	fc := &fakeCompleter{resp: `[
		{"title": "t1", "content": "post one", "source_id": "c1", "topics": ["ai"], "recommendation_score": 80},
		{"title": "t2", "content": "post two", "source_id": "c2", "topics": ["infra"], "recommendation_score": 55}
	]`}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), filtered("c1", "c2"), types.UserPreferences{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].RecommendationScore != 80 || drafts[1].RecommendationScore != 55 {
		t.Errorf("scores mangled: %d, %d", drafts[0].RecommendationScore, drafts[1].RecommendationScore)
	}
}

func TestGenerateDropsUnknownSourceID(t *testing.T) {
	fc := &fakeCompleter{resp: `[
		{"content": "ok", "source_id": "c1", "recommendation_score": 50},
		{"content": "bad ref", "source_id": "ghost-9", "recommendation_score": 90}
	]`}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), filtered("c1"), types.UserPreferences{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].SourceID != "c1" {
		t.Fatalf("expected only c1 draft to survive, got %v", drafts)
	}
}

func TestGenerateClampsOutOfRangeScores(t *testing.T) {
	fc := &fakeCompleter{resp: `[
		{"content": "too high", "source_id": "c1", "recommendation_score": 250},
		{"content": "too low", "source_id": "c2", "recommendation_score": -10}
	]`}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), filtered("c1", "c2"), types.UserPreferences{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].RecommendationScore != 100 {
		t.Errorf("high score not clamped: %d", drafts[0].RecommendationScore)
	}
	if drafts[1].RecommendationScore != 0 {
		t.Errorf("low score not clamped: %d", drafts[1].RecommendationScore)
	}
}

func TestGenerateRejectsNonIntegerScore(t *testing.T) {
	fc := &fakeCompleter{resp: `[
		{"content": "fractional", "source_id": "c1", "recommendation_score": 72.5},
		{"content": "fine", "source_id": "c2", "recommendation_score": 72}
	]`}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), filtered("c1", "c2"), types.UserPreferences{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].SourceID != "c2" {
		t.Fatalf("expected fractional-score draft rejected, got %v", drafts)
	}
}

func TestGenerateCapsAtTarget(t *testing.T) {
	fc := &fakeCompleter{resp: `[
		{"content": "a", "source_id": "c1", "recommendation_score": 1},
		{"content": "b", "source_id": "c2", "recommendation_score": 2},
		{"content": "c", "source_id": "c3", "recommendation_score": 3}
	]`}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), filtered("c1", "c2", "c3"), types.UserPreferences{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
}

func TestGenerateMalformedResponseMeansEmptyNotError(t *testing.T) {
	fc := &fakeCompleter{resp: "Here are some great post ideas for you!"}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), filtered("c1"), types.UserPreferences{}, 2)
	if err != nil {
		t.Fatalf("malformed output must not be an error, got %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("expected zero drafts, got %d", len(drafts))
	}
}

func TestGeneratePropagatesChainFailure(t *testing.T) {
	chainErr := errors.New("all providers down")
	fc := &fakeCompleter{err: chainErr}
	g := NewGenerator(fc, discardLogger())

	_, err := g.Generate(context.Background(), filtered("c1"), types.UserPreferences{}, 2)
	if !errors.Is(err, chainErr) {
		t.Fatalf("expected chain error to propagate, got %v", err)
	}
}

func TestGenerateEmptyInputSkipsModel(t *testing.T) {
	fc := &fakeCompleter{resp: "[]"}
	g := NewGenerator(fc, discardLogger())

	drafts, err := g.Generate(context.Background(), nil, types.UserPreferences{}, 2)
	if err != nil || drafts != nil {
		t.Fatalf("expected nil, nil for empty input, got %v, %v", drafts, err)
	}
	if fc.prompt != "" {
		t.Error("model called for empty filtered list")
	}
}

func TestGeneratePromptCarriesPlatformStrategy(t *testing.T) {
	prefs := types.UserPreferences{Platform: "linkedin", Bio: "CTO"}
	prompt := BuildGeneratePrompt(filtered("c1"), prefs, 2)

	if !strings.Contains(prompt, "LinkedIn") {
		t.Error("prompt missing LinkedIn strategy")
	}
	if !strings.Contains(prompt, "c1") {
		t.Error("prompt missing candidate id")
	}
	if !strings.Contains(prompt, "up to 2 posts") {
		t.Error("prompt missing draft target")
	}
}
