package links

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
	"github.com/bunchhieng/linkdir/internal/storage"
)

func init() {
	logging.Discard()
}

type staticLinks []model.LinkRecord

func (s staticLinks) Load() []model.LinkRecord {
	out := make([]model.LinkRecord, len(s))
	copy(out, s)
	return out
}

func fixtureLinks() staticLinks {
	return staticLinks{
		{ID: "cicd", Title: "CI/CD Action", URL: "https://cicd.example.com", Description: "Pipelines and workflows", CategoryID: "dev"},
		{ID: "docs", Title: "API Docs", URL: "https://docs.example.com", Description: "Reference pages", CategoryID: "docs"},
		{ID: "tools", Title: "Dev Tools", URL: "https://tools.example.com", Description: "Handy utilities", CategoryID: "dev", ClickCount: 5},
	}
}

type fakeFeed struct {
	records []model.LinkRecord
	calls   atomic.Int32
	block   chan struct{}
}

func (f *fakeFeed) Fetch(ctx context.Context, owner string) []model.LinkRecord {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	out := make([]model.LinkRecord, len(f.records))
	copy(out, f.records)
	return out
}

func externalRecords() []model.LinkRecord {
	return []model.LinkRecord{
		{ID: "gh-alpha", Title: "alpha", URL: "https://github.com/o/alpha", Description: "First repo", CategoryID: "github", IsExternal: true},
		{ID: "gh-beta", Title: "beta", URL: "https://github.com/o/beta", Description: "Second repo", CategoryID: "github", IsExternal: true},
	}
}

// memText is a TextStore kept in a map.
type memText struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemText() *memText {
	return &memText{data: make(map[string]string)}
}

func (m *memText) GetItem(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return v, nil
}

func (m *memText) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type brokenText struct{}

func (brokenText) GetItem(context.Context, string) (string, error) {
	return "", errors.New("storage unavailable")
}

func (brokenText) SetItem(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

// flakyText fails its first failReads reads, then behaves like memText.
type flakyText struct {
	*memText
	failReads int
}

func (f *flakyText) GetItem(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failReads > 0
	if fail {
		f.failReads--
	}
	f.mu.Unlock()
	if fail {
		return "", errors.New("disk busy")
	}
	return f.memText.GetItem(ctx, key)
}

func persistedStats(t *testing.T, text storage.TextStore) model.ClickStats {
	t.Helper()
	var stats model.ClickStats
	if !storage.NewAdapter(storage.Backends{Text: text}).Get(model.ClickStatsKey, &stats) {
		t.Fatal("no click stats persisted")
	}
	return stats
}

func setupStore(t *testing.T, text storage.TextStore, feed FeedSource) *Store {
	t.Helper()
	adapter := storage.NewAdapter(storage.Backends{Text: text})
	clock := func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	s := New(fixtureLinks(), feed, NewTracker(adapter, WithClock(clock)), WithOwner("octo"))
	s.LoadLinks()
	return s
}

func ids(records []model.LinkRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(got []model.LinkRecord, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLoadLinks(t *testing.T) {
	s := setupStore(t, newMemText(), nil)

	links := s.Links()
	if !equalIDs(links, "cicd", "docs", "tools") {
		t.Fatalf("Links() = %v", ids(links))
	}
	if links[2].ClickCount != 5 {
		t.Errorf("tools clickCount = %d, want 5", links[2].ClickCount)
	}
}

func TestLoadLinksDropsExternal(t *testing.T) {
	feed := &fakeFeed{records: externalRecords()}
	s := setupStore(t, newMemText(), feed)

	s.FetchGitHubRepos(context.Background())
	if len(s.Links()) != 5 {
		t.Fatalf("expected 5 links after import, got %d", len(s.Links()))
	}

	s.LoadLinks()
	if !equalIDs(s.Links(), "cicd", "docs", "tools") {
		t.Errorf("Links() after reload = %v", ids(s.Links()))
	}
	if s.HasExternal() {
		t.Error("expected no external records after reload")
	}
}

func TestFilteredLinksScenario(t *testing.T) {
	s := setupStore(t, newMemText(), nil)

	s.SetSearchQuery("CI/CD")
	if got := s.FilteredLinks(); !equalIDs(got, "cicd") {
		t.Errorf("query CI/CD = %v, want [cicd]", ids(got))
	}

	s.SetSearchQuery("")
	s.SetSelectedCategory("dev")
	if got := s.FilteredLinks(); !equalIDs(got, "cicd", "tools") {
		t.Errorf("category dev = %v, want [cicd tools]", ids(got))
	}

	s.SetSearchQuery("Dev")
	if got := s.FilteredLinks(); !equalIDs(got, "tools") {
		t.Errorf("query Dev in dev = %v, want [tools]", ids(got))
	}

	if s.SearchQuery() != "Dev" || s.SelectedCategory() != "dev" {
		t.Errorf("getters = %q/%q", s.SearchQuery(), s.SelectedCategory())
	}
}

func TestFilteredLinksEmptyFilterReturnsAll(t *testing.T) {
	s := setupStore(t, newMemText(), nil)
	if got := s.FilteredLinks(); !equalIDs(got, "cicd", "docs", "tools") {
		t.Errorf("FilteredLinks() = %v", ids(got))
	}
}

func TestFilteredLinksUnknownCategory(t *testing.T) {
	s := setupStore(t, newMemText(), nil)
	s.SetSelectedCategory("nope")
	if got := s.FilteredLinks(); len(got) != 0 {
		t.Errorf("expected no links, got %v", ids(got))
	}
}

func TestFetchGitHubReposMerges(t *testing.T) {
	feed := &fakeFeed{records: externalRecords()}
	s := setupStore(t, newMemText(), feed)

	added := s.FetchGitHubRepos(context.Background())
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	if !equalIDs(s.Links(), "cicd", "docs", "tools", "gh-alpha", "gh-beta") {
		t.Errorf("Links() = %v", ids(s.Links()))
	}
	if !s.HasExternal() {
		t.Error("expected external records")
	}
}

func TestFetchGitHubReposTwiceDoesNotDuplicate(t *testing.T) {
	feed := &fakeFeed{records: externalRecords()}
	s := setupStore(t, newMemText(), feed)

	s.FetchGitHubRepos(context.Background())
	if added := s.FetchGitHubRepos(context.Background()); added != 0 {
		t.Errorf("second fetch added %d", added)
	}
	if len(s.Links()) != 5 {
		t.Errorf("expected 5 links, got %d", len(s.Links()))
	}
	if calls := feed.calls.Load(); calls != 1 {
		t.Errorf("feed called %d times, want 1", calls)
	}
}

func TestFetchGitHubReposSkipsExistingIDs(t *testing.T) {
	records := append(externalRecords(),
		model.LinkRecord{ID: "cicd", Title: "clash", IsExternal: true},
		model.LinkRecord{ID: "gh-alpha", Title: "repeat", IsExternal: true},
	)
	s := setupStore(t, newMemText(), &fakeFeed{records: records})

	if added := s.FetchGitHubRepos(context.Background()); added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	link, _ := s.Link("cicd")
	if link.Title != "CI/CD Action" {
		t.Errorf("static record replaced: %+v", link)
	}
	alpha, _ := s.Link("gh-alpha")
	if alpha.Title != "alpha" {
		t.Errorf("first gh-alpha should win, got %q", alpha.Title)
	}
}

func TestFetchGitHubReposWhileBusy(t *testing.T) {
	feed := &fakeFeed{records: externalRecords(), block: make(chan struct{})}
	s := setupStore(t, newMemText(), feed)

	done := make(chan int)
	go func() {
		done <- s.FetchGitHubRepos(context.Background())
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !s.IsFetching() {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	if added := s.FetchGitHubRepos(context.Background()); added != 0 {
		t.Errorf("concurrent fetch added %d", added)
	}

	close(feed.block)
	if added := <-done; added != 2 {
		t.Errorf("first fetch added %d, want 2", added)
	}
	if len(s.Links()) != 5 {
		t.Errorf("expected 5 links, got %d", len(s.Links()))
	}
	if calls := feed.calls.Load(); calls != 1 {
		t.Errorf("feed called %d times, want 1", calls)
	}
	if s.IsFetching() {
		t.Error("busy flag not cleared")
	}
}

func TestFetchGitHubReposEmptyFeed(t *testing.T) {
	s := setupStore(t, newMemText(), &fakeFeed{})
	if added := s.FetchGitHubRepos(context.Background()); added != 0 {
		t.Errorf("added = %d", added)
	}
	if s.IsFetching() {
		t.Error("busy flag not cleared")
	}
}

func TestFetchGitHubReposNoFeed(t *testing.T) {
	s := setupStore(t, newMemText(), nil)
	if added := s.FetchGitHubRepos(context.Background()); added != 0 {
		t.Errorf("added = %d", added)
	}
}

func TestIncrementClickCount(t *testing.T) {
	text := newMemText()
	s := setupStore(t, text, nil)

	const n = 4
	var last model.ClickStat
	for i := 0; i < n; i++ {
		last = s.IncrementClickCount("cicd")
	}
	if last.Count != n {
		t.Errorf("returned count = %d, want %d", last.Count, n)
	}
	if last.LastClickAt == nil || last.LastClickAt.Year() != 2025 {
		t.Errorf("lastClickAt = %v", last.LastClickAt)
	}

	link, _ := s.Link("cicd")
	if link.ClickCount != n {
		t.Errorf("record clickCount = %d, want %d", link.ClickCount, n)
	}

	adapter := storage.NewAdapter(storage.Backends{Text: text})
	var persisted model.ClickStats
	if !adapter.Get(model.ClickStatsKey, &persisted) {
		t.Fatal("click stats were not persisted")
	}
	if persisted["cicd"].Count != n {
		t.Errorf("persisted count = %d, want %d", persisted["cicd"].Count, n)
	}
}

func TestIncrementClickCountConcurrent(t *testing.T) {
	s := setupStore(t, newMemText(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementClickCount("docs")
		}()
	}
	wg.Wait()

	if stat, _ := s.ClickStat("docs"); stat.Count != 50 {
		t.Errorf("count = %d, want 50", stat.Count)
	}
}

func TestIncrementClickCountUnknownID(t *testing.T) {
	s := setupStore(t, newMemText(), nil)

	stat := s.IncrementClickCount("ghost")
	if stat.Count != 1 {
		t.Errorf("count = %d, want 1", stat.Count)
	}
	if _, ok := s.Link("ghost"); ok {
		t.Error("unknown id should not create a record")
	}
}

func TestIncrementClickCountPersistenceFailure(t *testing.T) {
	s := setupStore(t, brokenText{}, nil)

	s.IncrementClickCount("tools")
	link, _ := s.Link("tools")
	if link.ClickCount != 1 {
		t.Errorf("clickCount = %d, want 1", link.ClickCount)
	}
}

func TestLoadClickStats(t *testing.T) {
	text := newMemText()
	text.data[model.ClickStatsKey] = `{"cicd":{"count":10,"lastClickAt":"2024-05-01T10:00:00Z"},"gone":{"count":3,"lastClickAt":null}}`
	s := setupStore(t, text, nil)

	if updated := s.LoadClickStats(context.Background()); updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	link, _ := s.Link("cicd")
	if link.ClickCount != 10 {
		t.Errorf("cicd clickCount = %d, want 10", link.ClickCount)
	}
	tools, _ := s.Link("tools")
	if tools.ClickCount != 5 {
		t.Errorf("tools clickCount = %d, want untouched 5", tools.ClickCount)
	}
	if s.ClickStats().Total() != 13 {
		t.Errorf("total = %d, want 13", s.ClickStats().Total())
	}
}

func TestLoadClickStatsMalformed(t *testing.T) {
	text := newMemText()
	text.data[model.ClickStatsKey] = `{not json`
	s := setupStore(t, text, nil)

	if updated := s.LoadClickStats(context.Background()); updated != 0 {
		t.Errorf("updated = %d", updated)
	}
	if got := ids(s.Links()); len(got) != 3 {
		t.Errorf("links = %v", got)
	}
}

func TestIncrementKeepsEarlierSessions(t *testing.T) {
	text := newMemText()
	text.data[model.ClickStatsKey] = `{"docs":{"count":7,"lastClickAt":null}}`
	s := setupStore(t, text, nil)

	// No LoadClickStats before the first click.
	s.IncrementClickCount("cicd")

	stats := s.ClickStats()
	if stats["docs"].Count != 7 {
		t.Errorf("docs count = %d, want 7", stats["docs"].Count)
	}
	if stats["cicd"].Count != 1 {
		t.Errorf("cicd count = %d, want 1", stats["cicd"].Count)
	}
}

func TestIncrementAfterFailedReadKeepsEarlierSessions(t *testing.T) {
	text := &flakyText{memText: newMemText(), failReads: 1}
	text.data[model.ClickStatsKey] = `{"cicd":{"count":10,"lastClickAt":null}}`
	s := setupStore(t, text, nil)

	s.IncrementClickCount("docs")
	if got := persistedStats(t, text); got["cicd"].Count != 10 {
		t.Fatalf("persisted cicd = %d after failed read, want 10", got["cicd"].Count)
	}

	s.IncrementClickCount("docs")
	got := persistedStats(t, text)
	if got["cicd"].Count != 10 {
		t.Errorf("persisted cicd = %d, want 10", got["cicd"].Count)
	}
	if got["docs"].Count != 2 {
		t.Errorf("persisted docs = %d, want 2", got["docs"].Count)
	}
	if stats := s.ClickStats(); stats["cicd"].Count != 10 {
		t.Errorf("in-memory cicd = %d, want 10", stats["cicd"].Count)
	}
}

func TestLoadClickStatsRetriesAfterFailedRead(t *testing.T) {
	text := &flakyText{memText: newMemText(), failReads: 1}
	text.data[model.ClickStatsKey] = `{"cicd":{"count":10,"lastClickAt":null},"docs":{"count":3,"lastClickAt":null}}`
	s := setupStore(t, text, nil)

	s.LoadClickStats(context.Background())
	s.IncrementClickCount("docs")

	if got := persistedStats(t, text); got["cicd"].Count != 10 || got["docs"].Count != 4 {
		t.Errorf("persisted = %+v, want cicd 10 and docs 4", got)
	}
}

func TestLoadClickStatsMirrorsUnpersistedCounts(t *testing.T) {
	s := setupStore(t, brokenText{}, nil)

	s.IncrementClickCount("docs")
	s.IncrementClickCount("docs")
	s.LoadLinks()

	if updated := s.LoadClickStats(context.Background()); updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if link, _ := s.Link("docs"); link.ClickCount != 2 {
		t.Errorf("docs clickCount = %d, want 2", link.ClickCount)
	}
}

func TestStatsAppliedToLateImports(t *testing.T) {
	text := newMemText()
	text.data[model.ClickStatsKey] = `{"gh-beta":{"count":4,"lastClickAt":null}}`
	s := setupStore(t, text, &fakeFeed{records: externalRecords()})

	s.LoadClickStats(context.Background())
	s.FetchGitHubRepos(context.Background())

	beta, ok := s.Link("gh-beta")
	if !ok || beta.ClickCount != 4 {
		t.Errorf("gh-beta = %+v, want clickCount 4", beta)
	}
}

func TestSubscribe(t *testing.T) {
	s := setupStore(t, newMemText(), &fakeFeed{records: externalRecords()})

	var mu sync.Mutex
	var kinds []EventKind
	cancel := s.Subscribe(func(e Event) {
		// Reading inside the callback must not deadlock.
		_ = s.FilteredLinks()
		mu.Lock()
		kinds = append(kinds, e.Kind)
		mu.Unlock()
	})

	s.SetSearchQuery("x")
	s.IncrementClickCount("cicd")
	s.FetchGitHubRepos(context.Background())
	cancel()
	s.SetSelectedCategory("dev")

	want := []EventKind{EventFilterChanged, EventClicked, EventExternalMerged}
	mu.Lock()
	defer mu.Unlock()
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTopLinks(t *testing.T) {
	s := setupStore(t, newMemText(), nil)

	for i := 0; i < 3; i++ {
		s.IncrementClickCount("docs")
	}
	s.IncrementClickCount("cicd")

	top := s.TopLinks(5)
	if !equalIDs(top, "docs", "cicd") {
		t.Errorf("TopLinks() = %v", ids(top))
	}
	if top[0].ClickCount != 3 {
		t.Errorf("docs clickCount = %d", top[0].ClickCount)
	}
	if got := s.TopLinks(1); !equalIDs(got, "docs") {
		t.Errorf("TopLinks(1) = %v", ids(got))
	}
}
