package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type fakeProvider struct {
	name  string
	resp  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.resp, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestChainUsesPrimaryFirst(t *testing.T) {
	primary := &fakeProvider{name: "primary", resp: "ok"}
	fallback := &fakeProvider{name: "fallback", resp: "fallback"}
	chain := NewChain(discardLogger(), primary, fallback)

	resp, err := chain.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Errorf("got %q, want primary response", resp)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestChainFallsBackOnProviderError(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("rate limited")}
	fallback := &fakeProvider{name: "fallback", resp: "rescued"}
	chain := NewChain(discardLogger(), primary, fallback)

	resp, err := chain.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "rescued" {
		t.Errorf("got %q, want fallback response", resp)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("down")}
	b := &fakeProvider{name: "b", err: errors.New("also down")}
	chain := NewChain(discardLogger(), a, b)

	_, err := chain.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestChainNoProviders(t *testing.T) {
	chain := NewChain(discardLogger())
	_, err := chain.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{name: "p", resp: "ok"}
	chain := NewChain(discardLogger(), p)

	_, err := chain.Complete(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if p.calls != 0 {
		t.Errorf("provider called despite cancelled context")
	}
}

func TestExtractJSONArray(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"raw", `[{"a":1}]`, `[{"a":1}]`},
		{"fenced", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"fenced no lang", "```\n[1,2]\n```", `[1,2]`},
		{"prose wrapped", "Here you go:\n[1,2]\nHope that helps!", `[1,2]`},
	}
	for _, tc := range cases {
		if got := ExtractJSONArray(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"raw", `{"selected_ids":["c1"]}`, `{"selected_ids":["c1"]}`},
		{"fenced", "```json\n{\"selected_ids\":[]}\n```", `{"selected_ids":[]}`},
		{"prose wrapped", "Sure:\n{\"selected_ids\":[\"c2\"]}", `{"selected_ids":["c2"]}`},
	}
	for _, tc := range cases {
		if got := ExtractJSONObject(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
