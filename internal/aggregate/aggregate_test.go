package aggregate

import (
	"testing"

	"github.com/postpilot/postpilot/internal/types"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/post/1", "example.com/post/1"},
		{"http://example.com/post/1/", "example.com/post/1"},
		{"https://www.example.com/post/1?utm_source=x", "example.com/post/1"},
		{"https://Example.COM/post/1#section", "example.com/post/1"},
		{"  https://example.com/post/1  ", "example.com/post/1"},
		{"not a url", "not a url"},
	}

	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMergeDedupsFirstSeenWins(t *testing.T) {
	newsletter := []types.CandidateItem{
		{URL: "https://example.com/a", Title: "from newsletter", SourceType: types.SourceNewsletter},
	}
	website := []types.CandidateItem{
		{URL: "https://www.example.com/a/", Title: "same article via site", SourceType: types.SourceWebsite},
		{URL: "https://example.com/b", Title: "b", SourceType: types.SourceWebsite},
	}

	out := Merge([][]types.CandidateItem{{}, website, newsletter}, types.Boundary{})

	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	// Newsletter outranks website regardless of fetch completion order.
	if out[0].Title != "from newsletter" {
		t.Errorf("expected newsletter item to win dedup, got %q", out[0].Title)
	}
}

func TestMergeOrdersBySourcePriority(t *testing.T) {
	fetched := [][]types.CandidateItem{
		{{URL: "https://n.example/1", SourceType: types.SourceNetwork}},
		{{URL: "https://w.example/1", SourceType: types.SourceWebsite}},
		{{URL: "https://nl.example/1", SourceType: types.SourceNewsletter}},
	}

	out := Merge(fetched, types.Boundary{})

	want := []types.SourceType{types.SourceNewsletter, types.SourceWebsite, types.SourceNetwork}
	for i, st := range want {
		if out[i].SourceType != st {
			t.Errorf("position %d: got %s, want %s", i, out[i].SourceType, st)
		}
	}
}

func TestMergeAppliesExclusions(t *testing.T) {
	boundary := types.Boundary{
		ExcludedURLs: map[string]struct{}{
			"example.com/old": {},
		},
	}
	fetched := [][]types.CandidateItem{{
		{URL: "https://example.com/old", SourceType: types.SourceWebsite},
		{URL: "https://example.com/new", SourceType: types.SourceWebsite},
	}}

	out := Merge(fetched, boundary)

	if len(out) != 1 {
		t.Fatalf("expected 1 candidate after exclusion, got %d", len(out))
	}
	if out[0].URL != "https://example.com/new" {
		t.Errorf("wrong survivor: %s", out[0].URL)
	}
}

func TestMergeAssignsUniqueSequentialIDs(t *testing.T) {
	fetched := [][]types.CandidateItem{{
		{URL: "https://example.com/1", SourceType: types.SourceWebsite},
		{URL: "https://example.com/2", SourceType: types.SourceWebsite},
		{URL: "https://example.com/3", SourceType: types.SourceWebsite},
	}}

	out := Merge(fetched, types.Boundary{})

	seen := make(map[string]bool)
	for i, c := range out {
		if c.SourceID == "" {
			t.Fatalf("candidate %d has empty source id", i)
		}
		if seen[c.SourceID] {
			t.Fatalf("duplicate source id %s", c.SourceID)
		}
		seen[c.SourceID] = true
	}
	if out[0].SourceID != "c1" || out[2].SourceID != "c3" {
		t.Errorf("ids not sequential: %s..%s", out[0].SourceID, out[2].SourceID)
	}
}

func TestMergeDropsItemsWithoutURL(t *testing.T) {
	fetched := [][]types.CandidateItem{{
		{URL: "", Title: "no url", SourceType: types.SourceWebsite},
		{URL: "https://example.com/ok", SourceType: types.SourceWebsite},
	}}

	out := Merge(fetched, types.Boundary{})
	if len(out) != 1 {
		t.Fatalf("expected url-less item dropped, got %d candidates", len(out))
	}
}
