// Package aggregate merges the per-source fetch results for one run into a
// single deterministic, deduplicated candidate list.
package aggregate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/postpilot/postpilot/internal/types"
)

// NormalizeURL reduces a URL to its dedup key: lowercased host, no scheme
// distinction, no query, no fragment, no trailing slash.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(strings.ToLower(raw)), "/")
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimRight(u.Path, "/")
	return host + path
}

// Merge combines fetcher outputs into an ordered candidate list. Items are
// bucketed by source type and concatenated in fixed source-priority order,
// so the result does not depend on which fetcher finished first. Duplicate
// URLs keep the first-seen item; anything matching the boundary's exclusion
// set is dropped. Each surviving item gets a run-scoped source id.
func Merge(fetched [][]types.CandidateItem, boundary types.Boundary) []types.CandidateItem {
	var all []types.CandidateItem
	for _, batch := range fetched {
		all = append(all, batch...)
	}

	// Stable: equal-priority items keep their fetch order.
	sort.SliceStable(all, func(i, j int) bool {
		return types.SourcePriority(all[i].SourceType) < types.SourcePriority(all[j].SourceType)
	})

	seen := make(map[string]struct{}, len(all))
	out := make([]types.CandidateItem, 0, len(all))
	for _, item := range all {
		key := NormalizeURL(item.URL)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, excluded := boundary.ExcludedURLs[key]; excluded {
			continue
		}
		seen[key] = struct{}{}
		item.SourceID = fmt.Sprintf("c%d", len(out)+1)
		out = append(out, item)
	}
	return out
}

// IDSet returns the set of source ids present in a candidate list. LLM stage
// outputs are validated against this set.
func IDSet(items []types.CandidateItem) map[string]struct{} {
	ids := make(map[string]struct{}, len(items))
	for _, it := range items {
		ids[it.SourceID] = struct{}{}
	}
	return ids
}

// ByID indexes candidates by their run-scoped source id.
func ByID(items []types.CandidateItem) map[string]types.CandidateItem {
	m := make(map[string]types.CandidateItem, len(items))
	for _, it := range items {
		m[it.SourceID] = it
	}
	return m
}
