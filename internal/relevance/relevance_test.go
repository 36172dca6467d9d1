package relevance

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

func candidates(ids ...string) []types.CandidateItem {
	out := make([]types.CandidateItem, len(ids))
	for i, id := range ids {
		out[i] = types.CandidateItem{
			SourceID:   id,
			URL:        "https://example.com/" + id,
			Title:      "Title " + id,
			SourceType: types.SourceWebsite,
		}
	}
	return out
}

func TestSelectKeepsValidIDsInInputOrder(t *testing.T) {
	fc := &fakeCompleter{resp: `{"selected_ids": ["c3", "c1"]}`}
	f := NewFilter(fc, discardLogger())

	out, err := f.Select(context.Background(), candidates("c1", "c2", "c3"), types.UserPreferences{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(out))
	}
	if out[0].SourceID != "c1" || out[1].SourceID != "c3" {
		t.Errorf("selection not in input order: %s, %s", out[0].SourceID, out[1].SourceID)
	}
}

func TestSelectDiscardsHallucinatedIDs(t *testing.T) {
	fc := &fakeCompleter{resp: `{"selected_ids": ["ghost-1", "c2"]}`}
	f := NewFilter(fc, discardLogger())

	out, err := f.Select(context.Background(), candidates("c1", "c2"), types.UserPreferences{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].SourceID != "c2" {
		t.Fatalf("expected only c2 to survive, got %v", out)
	}
}

func TestSelectAllHallucinatedMeansEmptyNotError(t *testing.T) {
	fc := &fakeCompleter{resp: `{"selected_ids": ["ghost-1", "ghost-2"]}`}
	f := NewFilter(fc, discardLogger())

	out, err := f.Select(context.Background(), candidates("c1"), types.UserPreferences{}, 4)
	if err != nil {
		t.Fatalf("empty intersection must not be an error, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty selection, got %d", len(out))
	}
}

func TestSelectMalformedResponseMeansEmptyNotError(t *testing.T) {
	fc := &fakeCompleter{resp: "I think items one and three look great!"}
	f := NewFilter(fc, discardLogger())

	out, err := f.Select(context.Background(), candidates("c1", "c2"), types.UserPreferences{}, 4)
	if err != nil {
		t.Fatalf("malformed output must not be an error, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty selection, got %d", len(out))
	}
}

func TestSelectPropagatesChainFailure(t *testing.T) {
	chainErr := errors.New("all providers down")
	fc := &fakeCompleter{err: chainErr}
	f := NewFilter(fc, discardLogger())

	_, err := f.Select(context.Background(), candidates("c1"), types.UserPreferences{}, 4)
	if !errors.Is(err, chainErr) {
		t.Fatalf("expected chain error to propagate, got %v", err)
	}
}

func TestSelectEnforcesCap(t *testing.T) {
	fc := &fakeCompleter{resp: `{"selected_ids": ["c1", "c2", "c3"]}`}
	f := NewFilter(fc, discardLogger())

	out, err := f.Select(context.Background(), candidates("c1", "c2", "c3"), types.UserPreferences{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected cap of 2 enforced, got %d", len(out))
	}
}

func TestSelectEmptyInputSkipsModel(t *testing.T) {
	fc := &fakeCompleter{resp: `{"selected_ids": []}`}
	f := NewFilter(fc, discardLogger())

	out, err := f.Select(context.Background(), nil, types.UserPreferences{}, 4)
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil for empty input, got %v, %v", out, err)
	}
	if fc.prompt != "" {
		t.Error("model called for empty candidate list")
	}
}

func TestFilterPromptMentionsCandidatesAndUser(t *testing.T) {
	prefs := types.UserPreferences{
		Bio:    "Platform engineer",
		Topics: []string{"kubernetes", "observability"},
	}
	prompt := BuildFilterPrompt(candidates("c1", "c2"), prefs, 3)

	for _, want := range []string{"c1", "c2", "Platform engineer", "kubernetes", "up to 3"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
