package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/postpilot/postpilot/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "postpilot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestComputeBoundaryFirstRunIsUnrestricted(t *testing.T) {
	tr := New(newTestStore(t), 90*24*time.Hour)

	b, err := tr.ComputeBoundary(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Since.IsZero() {
		t.Errorf("first run boundary should be unbounded, got since=%v", b.Since)
	}
	if len(b.ExcludedURLs) != 0 {
		t.Errorf("first run boundary should exclude nothing, got %v", b.ExcludedURLs)
	}
}

func TestComputeBoundaryUsesStateAndExclusions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lastRun := time.Now().UTC().Add(-24 * time.Hour)

	err := s.CommitRun(ctx, store.RunCommit{
		UserID:      "u1",
		CompletedAt: lastRun,
		Posts: []store.SuggestedPost{{
			ID: "p1", UserID: "u1", Content: "x",
			SourceURL: "https://www.Example.com/article/?utm_source=feed",
			Status:    store.StatusSuggested, CreatedAt: lastRun,
		}},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	tr := New(s, 90*24*time.Hour)
	state, err := tr.GetState(ctx, "u1")
	if err != nil || state == nil {
		t.Fatalf("load state: %v, %v", state, err)
	}

	b, err := tr.ComputeBoundary(ctx, "u1", state)
	if err != nil {
		t.Fatalf("compute boundary: %v", err)
	}
	if !b.Since.Equal(lastRun) {
		t.Errorf("since = %v, want %v", b.Since, lastRun)
	}
	if _, ok := b.ExcludedURLs["example.com/article"]; !ok {
		t.Errorf("expected normalized url in exclusion set, got %v", b.ExcludedURLs)
	}
}

func TestComputeBoundaryHonorsExclusionWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lastRun := time.Now().UTC().Add(-24 * time.Hour)

	err := s.CommitRun(ctx, store.RunCommit{
		UserID:      "u1",
		CompletedAt: lastRun,
		Posts: []store.SuggestedPost{{
			ID: "old", UserID: "u1", Content: "x",
			SourceURL: "https://example.com/ancient",
			Status:    store.StatusSuggested,
			CreatedAt: time.Now().UTC().Add(-60 * 24 * time.Hour),
		}},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	tr := New(s, 30*24*time.Hour)
	state, _ := tr.GetState(ctx, "u1")

	b, err := tr.ComputeBoundary(ctx, "u1", state)
	if err != nil {
		t.Fatalf("compute boundary: %v", err)
	}
	if len(b.ExcludedURLs) != 0 {
		t.Errorf("url outside exclusion window should not be excluded, got %v", b.ExcludedURLs)
	}
}
