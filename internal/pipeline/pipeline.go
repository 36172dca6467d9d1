// Package pipeline sequences one content-suggestion run: tracker read,
// parallel source fetch, aggregation, LLM relevance filter, LLM post
// generation, and the atomic suggestion/state commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/postpilot/postpilot/internal/aggregate"
	"github.com/postpilot/postpilot/internal/fetcher"
	"github.com/postpilot/postpilot/internal/store"
	"github.com/postpilot/postpilot/internal/tracker"
	"github.com/postpilot/postpilot/internal/types"
)

// Stage names the orchestrator's states. A run moves through them strictly
// in order; Failed is reachable from any of them.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageFetching    Stage = "fetching"
	StageAggregating Stage = "aggregating"
	StageFiltering   Stage = "filtering"
	StageGenerating  Stage = "generating"
	StagePersisting  Stage = "persisting"
	StageDone        Stage = "done"
)

// Sentinel errors for the failure taxonomy the entry point reports.
var (
	ErrUnknownUser      = errors.New("unknown user")
	ErrAllSourcesFailed = errors.New("every content source failed")
)

// StageError wraps a failure with the stage that raised it. Failed runs
// never advance analysis state.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Filter is the relevance stage contract.
type Filter interface {
	Select(ctx context.Context, candidates []types.CandidateItem, prefs types.UserPreferences, k int) ([]types.CandidateItem, error)
}

// Generator is the drafting stage contract.
type Generator interface {
	Generate(ctx context.Context, filtered []types.CandidateItem, prefs types.UserPreferences, n int) ([]types.Draft, error)
}

// Config bounds one run.
type Config struct {
	RelevanceLimit int // max items the filter keeps
	DraftTarget    int // max drafts the generator produces
	FetchTimeout   time.Duration
	ModelTimeout   time.Duration // per LLM stage
	PersistTimeout time.Duration
}

// Suggestion is one created post as reported to the caller.
type Suggestion struct {
	PostID              string   `json:"post_id"`
	Content             string   `json:"content"`
	Topics              []string `json:"topics"`
	RecommendationScore int      `json:"recommendation_score"`
}

// Run statuses reported to the caller.
const (
	StatusCompleted  = "completed"
	StatusSuperseded = "superseded"
)

// Result is the outcome of a successful (or superseded) run.
type Result struct {
	Status      string       `json:"status"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Pipeline wires the stages together. One Pipeline serves many runs; each
// run is independent.
type Pipeline struct {
	store     *store.Store
	tracker   *tracker.Tracker
	fetchers  []fetcher.Fetcher
	filter    Filter
	generator Generator
	cfg       Config
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time
}

// New creates a pipeline.
func New(st *store.Store, tr *tracker.Tracker, fetchers []fetcher.Fetcher, f Filter, g Generator, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		tracker:   tr,
		fetchers:  fetchers,
		filter:    f,
		generator: g,
		cfg:       cfg,
		logger:    logger,
		newID:     newUUID,
		now:       time.Now,
	}
}

// Run executes one suggestion run for the user. A superseded run (another
// run committed first) returns a Result with StatusSuperseded and no error;
// genuine failures return a StageError and leave analysis state untouched.
func (p *Pipeline) Run(ctx context.Context, userID string) (*Result, error) {
	log := p.logger.With("user_id", userID)

	prefs, err := p.store.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, &StageError{Stage: StageIdle, Err: err}
	}
	if prefs == nil {
		return nil, &StageError{Stage: StageIdle, Err: ErrUnknownUser}
	}

	state, err := p.tracker.GetState(ctx, userID)
	if err != nil {
		return nil, &StageError{Stage: StageIdle, Err: err}
	}
	// Remember what we read: the commit only applies if this is still the
	// stored value (nil for a first run).
	var readAt *time.Time
	if state != nil && state.LastAnalysisAt != nil {
		t := *state.LastAnalysisAt
		readAt = &t
	}

	boundary, err := p.tracker.ComputeBoundary(ctx, userID, state)
	if err != nil {
		return nil, &StageError{Stage: StageIdle, Err: err}
	}

	// The committed timestamp is the fetch start, not the commit time, so
	// content published while this run is in flight falls inside the next
	// run's window.
	runStarted := p.now().UTC()

	fetched, sourcesWithData, err := p.fetchAll(ctx, *prefs, boundary, log)
	if err != nil {
		return nil, &StageError{Stage: StageFetching, Err: err}
	}

	candidates := aggregate.Merge(fetched, boundary)
	log.Info("aggregated candidates", "count", len(candidates))

	var drafts []types.Draft
	if len(candidates) > 0 {
		filtered, err := p.runFilter(ctx, candidates, *prefs)
		if err != nil {
			return nil, &StageError{Stage: StageFiltering, Err: err}
		}
		log.Info("relevance filter kept items", "count", len(filtered))

		if len(filtered) > 0 {
			drafts, err = p.runGenerator(ctx, filtered, *prefs)
			if err != nil {
				return nil, &StageError{Stage: StageGenerating, Err: err}
			}
			log.Info("generated drafts", "count", len(drafts))
		}

		byID := aggregate.ByID(candidates)
		result, err := p.persist(ctx, userID, *prefs, state, readAt, runStarted, drafts, byID, sourcesWithData)
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	// Zero candidates is a valid run: commit the window so it is not
	// refetched next trigger.
	result, err := p.persist(ctx, userID, *prefs, state, readAt, runStarted, nil, nil, sourcesWithData)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// fetchAll runs every source fetcher concurrently. A failed source
// contributes zero items; only all-sources-failed aborts the run.
func (p *Pipeline) fetchAll(ctx context.Context, prefs types.UserPreferences, boundary types.Boundary, log *slog.Logger) ([][]types.CandidateItem, []string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	results := make([][]types.CandidateItem, len(p.fetchers))
	errs := make([]error, len(p.fetchers))

	g, fetchCtx := errgroup.WithContext(fetchCtx)
	for i, f := range p.fetchers {
		g.Go(func() error {
			items, err := f.Fetch(fetchCtx, prefs, boundary)
			if err != nil {
				// Recorded, not returned: one bad source must not cancel
				// the others.
				errs[i] = err
				log.Warn("source fetch failed", "source", f.SourceType(), "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	g.Wait()

	failures := 0
	var sourcesWithData []string
	for i, f := range p.fetchers {
		if errs[i] != nil {
			failures++
			continue
		}
		if len(results[i]) > 0 {
			sourcesWithData = append(sourcesWithData, string(f.SourceType())+"_scan")
		}
	}
	if len(p.fetchers) > 0 && failures == len(p.fetchers) {
		return nil, nil, ErrAllSourcesFailed
	}
	return results, sourcesWithData, nil
}

func (p *Pipeline) runFilter(ctx context.Context, candidates []types.CandidateItem, prefs types.UserPreferences) ([]types.CandidateItem, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.ModelTimeout)
	defer cancel()
	return p.filter.Select(stageCtx, candidates, prefs, p.cfg.RelevanceLimit)
}

func (p *Pipeline) runGenerator(ctx context.Context, filtered []types.CandidateItem, prefs types.UserPreferences) ([]types.Draft, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.ModelTimeout)
	defer cancel()
	return p.generator.Generate(stageCtx, filtered, prefs, p.cfg.DraftTarget)
}
