package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maine/trendradar/internal/news"
)

type fakeFetcher struct {
	items  []news.Item
	errs   []news.FetchError
	err    error
	n      int
	called bool
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]news.Item, []news.FetchError, error) {
	f.called = true
	return f.items, f.errs, f.err
}

func (f *fakeFetcher) Len() int { return f.n }

type fakeKeywords struct {
	raw string
	err error
}

func (f *fakeKeywords) Load() (string, error) { return f.raw, f.err }

type fakeRanker struct{}

func (fakeRanker) Rank(matches []news.MatchResult) []news.MatchResult { return matches }

type fakeTracker struct {
	deltaFunc func(matches []news.MatchResult, mode news.PushMode, state news.PushState) ([]news.MatchResult, news.PushState, error)
}

func (f *fakeTracker) ComputeDelta(matches []news.MatchResult, mode news.PushMode, state news.PushState) ([]news.MatchResult, news.PushState, error) {
	if f.deltaFunc != nil {
		return f.deltaFunc(matches, mode, state)
	}
	next := state.Clone()
	return matches, next, nil
}

type fakeStore struct {
	state     news.PushState
	loadErr   error
	commitErr error
	committed *news.PushState
}

func (f *fakeStore) Load(ctx context.Context) (news.PushState, error) {
	if f.loadErr != nil {
		return news.PushState{}, f.loadErr
	}
	return f.state, nil
}

func (f *fakeStore) Commit(ctx context.Context, state news.PushState) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = &state
	return nil
}

type fakeGate struct{ open bool }

func (f *fakeGate) Allow(now time.Time, force bool) bool { return f.open || force }

type fakeFormatter struct{}

func (fakeFormatter) BuildMessages(matches []news.MatchResult, brief string) []string {
	if len(matches) == 0 {
		return nil
	}
	lines := make([]string, 0, len(matches))
	if brief != "" {
		lines = append(lines, brief)
	}
	for _, m := range matches {
		lines = append(lines, m.Item.Title)
	}
	return []string{strings.Join(lines, "\n")}
}

type fakeDispatcher struct {
	results []news.ChannelResult
	err     error
	sent    [][]string
}

func (f *fakeDispatcher) SendAll(ctx context.Context, title string, messages []string) ([]news.ChannelResult, error) {
	f.sent = append(f.sent, messages)
	return f.results, f.err
}

type fakeBriefer struct {
	brief string
	err   error
}

func (f *fakeBriefer) Brief(ctx context.Context, matches []news.MatchResult) (string, error) {
	return f.brief, f.err
}

func fixedClock() Clock {
	return func() time.Time {
		return time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	}
}

func testDeps() (PipelineDeps, *fakeStore, *fakeDispatcher) {
	store := &fakeStore{state: news.NewPushState()}
	dispatcher := &fakeDispatcher{
		results: []news.ChannelResult{{Channel: "telegram", OK: true}},
	}
	deps := PipelineDeps{
		Fetcher: &fakeFetcher{
			items: []news.Item{
				{SourceID: "hn", Title: "AI breakthrough announced", Rank: 1},
				{SourceID: "verge", Title: "Quiet day in tech", Rank: 2},
			},
			n: 2,
		},
		Keywords:   &fakeKeywords{raw: "ai\n"},
		Ranker:     fakeRanker{},
		Tracker:    &fakeTracker{},
		StateStore: store,
		Gate:       &fakeGate{open: true},
		Formatter:  fakeFormatter{},
		Dispatcher: dispatcher,
		Clock:      fixedClock(),
		Mode:       news.ModeDaily,
	}
	return deps, store, dispatcher
}

func TestPipeline_Run_HappyPath(t *testing.T) {
	deps, store, dispatcher := testDeps()

	summary, err := NewPipeline(deps).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.SourcesAttempted != 2 || summary.SourcesSucceeded != 2 {
		t.Errorf("sources = %d/%d, want 2/2", summary.SourcesSucceeded, summary.SourcesAttempted)
	}
	if summary.ItemsFetched != 2 || summary.ItemsMatched != 1 {
		t.Errorf("fetched=%d matched=%d, want 2/1", summary.ItemsFetched, summary.ItemsMatched)
	}
	if summary.ItemsDelivered != 1 {
		t.Errorf("delivered = %d, want 1", summary.ItemsDelivered)
	}
	if !summary.WindowOpen {
		t.Error("window should be open")
	}
	if summary.ChannelsSucceeded != 1 || summary.ChannelsFailed != 0 {
		t.Errorf("channels = %d ok / %d failed", summary.ChannelsSucceeded, summary.ChannelsFailed)
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(dispatcher.sent))
	}
	if store.committed == nil {
		t.Fatal("state was not committed after successful dispatch")
	}
}

func TestPipeline_Run_DispatchFailureDoesNotCommit(t *testing.T) {
	deps, store, dispatcher := testDeps()
	dispatcher.results = []news.ChannelResult{{Channel: "telegram", Error: "down"}}
	dispatcher.err = errors.New("all channels failed")

	summary, err := NewPipeline(deps).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when all channels fail")
	}
	if store.committed != nil {
		t.Error("state must not be committed when dispatch fails")
	}
	if summary.ChannelsFailed != 1 || summary.ChannelsSucceeded != 0 {
		t.Errorf("channels = %d ok / %d failed, want 0/1", summary.ChannelsSucceeded, summary.ChannelsFailed)
	}
	if summary.ItemsDelivered != 0 {
		t.Errorf("delivered = %d, want 0", summary.ItemsDelivered)
	}
}

func TestPipeline_Run_AllSourcesFailed(t *testing.T) {
	deps, store, dispatcher := testDeps()
	deps.Fetcher = &fakeFetcher{
		errs: []news.FetchError{{SourceID: "hn", Err: errors.New("timeout")}},
		err:  errors.New("all sources failed"),
		n:    1,
	}

	summary, err := NewPipeline(deps).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when all sources fail")
	}
	if len(dispatcher.sent) != 0 {
		t.Error("dispatch must not happen when fetch fails")
	}
	if store.committed != nil {
		t.Error("state must not be committed when fetch fails")
	}
	if summary.SourcesSucceeded != 0 {
		t.Errorf("sources succeeded = %d, want 0", summary.SourcesSucceeded)
	}
}

func TestPipeline_Run_WindowClosedSkipsCleanly(t *testing.T) {
	deps, store, dispatcher := testDeps()
	deps.Gate = &fakeGate{open: false}

	summary, err := NewPipeline(deps).Run(context.Background())
	if err != nil {
		t.Fatalf("closed window must not be an error, got: %v", err)
	}
	if summary.WindowOpen {
		t.Error("summary reports window open")
	}
	if len(dispatcher.sent) != 0 {
		t.Error("dispatch must not happen when window is closed")
	}
	if store.committed != nil {
		t.Error("state must not be committed when window is closed")
	}
}

func TestPipeline_Run_ForceOverridesWindow(t *testing.T) {
	deps, store, _ := testDeps()
	deps.Gate = &fakeGate{open: false}
	deps.Force = true

	summary, err := NewPipeline(deps).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !summary.WindowOpen {
		t.Error("force must open the window")
	}
	if store.committed == nil {
		t.Error("state must be committed after forced dispatch")
	}
}

func TestPipeline_Run_BadGrammarFailsBeforeFetch(t *testing.T) {
	deps, _, _ := testDeps()
	fetcher := &fakeFetcher{n: 1}
	deps.Fetcher = fetcher
	deps.Keywords = &fakeKeywords{raw: "!excluded-only\n"}

	_, err := NewPipeline(deps).Run(context.Background())
	if err == nil {
		t.Fatal("expected grammar error")
	}
	if fetcher.called {
		t.Error("fetch must not run when grammar is broken")
	}
}

func TestPipeline_Run_EmptyDeltaSkipsDispatch(t *testing.T) {
	deps, store, dispatcher := testDeps()
	deps.Tracker = &fakeTracker{
		deltaFunc: func(matches []news.MatchResult, mode news.PushMode, state news.PushState) ([]news.MatchResult, news.PushState, error) {
			return nil, state.Clone(), nil
		},
	}

	summary, err := NewPipeline(deps).Run(context.Background())
	if err != nil {
		t.Fatalf("empty delta must not be an error, got: %v", err)
	}
	if len(dispatcher.sent) != 0 {
		t.Error("dispatch must not happen for empty delta")
	}
	if store.committed != nil {
		t.Error("state must not be committed for empty delta")
	}
	if summary.ItemsDelivered != 0 {
		t.Errorf("delivered = %d, want 0", summary.ItemsDelivered)
	}
}

func TestPipeline_Run_CommitFailureAfterDispatchIsError(t *testing.T) {
	deps, store, dispatcher := testDeps()
	store.commitErr = errors.New("disk full")

	_, err := NewPipeline(deps).Run(context.Background())
	if err == nil {
		t.Fatal("commit failure after dispatch must fail the run")
	}
	if len(dispatcher.sent) != 1 {
		t.Errorf("expected dispatch to have happened, got %d", len(dispatcher.sent))
	}
}

func TestPipeline_Run_BrieferFailureIsNotFatal(t *testing.T) {
	deps, store, _ := testDeps()
	deps.Briefer = &fakeBriefer{err: errors.New("quota exceeded")}

	_, err := NewPipeline(deps).Run(context.Background())
	if err != nil {
		t.Fatalf("briefer failure must not fail the run, got: %v", err)
	}
	if store.committed == nil {
		t.Error("digest must still be delivered and committed")
	}
}

func TestPipeline_Run_BriefIncludedInMessages(t *testing.T) {
	deps, _, dispatcher := testDeps()
	deps.Briefer = &fakeBriefer{brief: "Краткая сводка."}

	if _, err := NewPipeline(deps).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(dispatcher.sent) != 1 || !strings.Contains(dispatcher.sent[0][0], "Краткая сводка.") {
		t.Errorf("brief missing from dispatched messages: %v", dispatcher.sent)
	}
}

func TestPipeline_Run_CancelledContextAbortsBeforeDispatch(t *testing.T) {
	deps, store, _ := testDeps()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(deps).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.committed != nil {
		t.Error("state must not be committed after cancellation")
	}
}

func TestPipeline_Run_MissingDeps(t *testing.T) {
	_, err := NewPipeline(PipelineDeps{}).Run(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
