package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/postpilot/postpilot/internal/types"
)

// maxArticlesPerSite caps how many links one site contributes per run.
const maxArticlesPerSite = 10

// WebsiteFetcher renders the user's configured sites in a headless browser
// and extracts article links. Rendering is required because many publisher
// index pages are client-side rendered and return empty HTML to a plain
// GET.
type WebsiteFetcher struct {
	headless bool
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewWebsiteFetcher creates a fetcher. headless=false is a debugging aid.
func NewWebsiteFetcher(headless bool, retry RetryPolicy, logger *slog.Logger) *WebsiteFetcher {
	return &WebsiteFetcher{headless: headless, retry: retry, logger: logger}
}

// SourceType identifies this fetcher.
func (f *WebsiteFetcher) SourceType() types.SourceType {
	return types.SourceWebsite
}

// extractArticlesJS pulls candidate article anchors out of the rendered
// page: heading-wrapped links and links inside <article> elements.
const extractArticlesJS = `
(() => {
	const seen = new Set();
	const out = [];
	const anchors = document.querySelectorAll('article a[href], h1 a[href], h2 a[href], h3 a[href]');
	for (const a of anchors) {
		const href = a.href;
		const title = (a.textContent || '').trim();
		if (!href || !title || title.length < 15) continue;
		if (seen.has(href)) continue;
		seen.add(href);
		out.push({url: href, title: title});
	}
	return out;
})()
`

type extractedLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Fetch renders each configured site and collects article links. A site
// that fails after retries is skipped; the fetcher only errors when every
// site fails.
func (f *WebsiteFetcher) Fetch(ctx context.Context, prefs types.UserPreferences, boundary types.Boundary) ([]types.CandidateItem, error) {
	if len(prefs.WebsiteURLs) == 0 {
		return nil, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	var items []types.CandidateItem
	failures := 0
	for _, site := range prefs.WebsiteURLs {
		links, err := f.fetchSite(allocCtx, site)
		if err != nil {
			failures++
			f.logger.Warn("website fetch failed", "site", site, "error", err)
			continue
		}
		for _, l := range links {
			items = append(items, types.CandidateItem{
				URL:        l.URL,
				Title:      l.Title,
				SourceType: types.SourceWebsite,
				// Index pages rarely expose publish dates; the aggregator
				// dedups these against previously suggested URLs instead.
				TimeSensitive: newsLikeURL(l.URL),
			})
		}
	}
	if failures == len(prefs.WebsiteURLs) {
		return nil, fmt.Errorf("all %d websites failed", failures)
	}
	return items, nil
}

func (f *WebsiteFetcher) fetchSite(allocCtx context.Context, site string) ([]extractedLink, error) {
	var links []extractedLink
	err := f.retry.do(allocCtx, func() error {
		browserCtx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		browserCtx, timeoutCancel := context.WithTimeout(browserCtx, 60*time.Second)
		defer timeoutCancel()

		links = nil
		if err := chromedp.Run(browserCtx,
			chromedp.Navigate(site),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(extractArticlesJS, &links),
		); err != nil {
			return fmt.Errorf("render %s: %w", site, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(links) > maxArticlesPerSite {
		links = links[:maxArticlesPerSite]
	}
	return links, nil
}

var datedPathRe = regexp.MustCompile(`/20\d{2}/\d{1,2}/`)

// newsLikeURL classifies a website article as time sensitive when its URL
// looks like dated news coverage rather than an evergreen piece.
func newsLikeURL(u string) bool {
	lower := strings.ToLower(u)
	if strings.Contains(lower, "/news/") || strings.Contains(lower, "/breaking/") {
		return true
	}
	return datedPathRe.MatchString(lower)
}
