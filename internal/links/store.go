package links

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
)

// StaticSource provides the curated catalog.
type StaticSource interface {
	Load() []model.LinkRecord
}

// FeedSource provides imported records. It never fails; a failed import
// yields no records.
type FeedSource interface {
	Fetch(ctx context.Context, owner string) []model.LinkRecord
}

// Store holds the link collection, the active filter and the click counters.
type Store struct {
	static  StaticSource
	feed    FeedSource
	tracker *Tracker
	owner   string
	log     *slog.Logger

	mu       sync.RWMutex
	links    []model.LinkRecord
	index    map[string]int
	query    string
	category string

	fetching atomic.Bool

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// Option configures a Store.
type Option func(*Store)

// WithOwner sets the GitHub account imported by FetchGitHubRepos.
func WithOwner(owner string) Option {
	return func(s *Store) {
		s.owner = owner
	}
}

// WithLogger replaces the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates an empty store. feed may be nil, in which case imports are
// skipped.
func New(static StaticSource, feed FeedSource, tracker *Tracker, opts ...Option) *Store {
	s := &Store{
		static:    static,
		feed:      feed,
		tracker:   tracker,
		log:       logging.Component("links"),
		index:     make(map[string]int),
		observers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadLinks replaces the collection with the static catalog. Imported
// records and hydrated counts are dropped; run LoadClickStats and
// FetchGitHubRepos again to restore them.
func (s *Store) LoadLinks() {
	records := s.static.Load()

	s.mu.Lock()
	s.links = make([]model.LinkRecord, 0, len(records))
	s.index = make(map[string]int, len(records))
	for _, r := range records {
		if _, dup := s.index[r.ID]; dup {
			s.log.Warn("duplicate catalog id", "id", r.ID)
			continue
		}
		s.index[r.ID] = len(s.links)
		s.links = append(s.links, r)
	}
	n := len(s.links)
	s.mu.Unlock()

	s.log.Debug("catalog loaded", "links", n)
	s.notify(Event{Kind: EventLinksLoaded, Count: n})
}

// LoadClickStats reads the persisted counters and copies every known count
// onto matching records. It returns the number of records updated. When the
// read fails, counts already held in memory are still mirrored.
func (s *Store) LoadClickStats(ctx context.Context) int {
	persisted, ok := s.tracker.read(ctx)
	if !ok {
		s.log.Warn("click stats read failed, keeping in-memory counts")
	}

	s.mu.Lock()
	if ok {
		s.tracker.merge(persisted)
	}
	updated := 0
	for id, stat := range s.tracker.stats {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		s.links[i].ClickCount = stat.Count
		updated++
	}
	s.mu.Unlock()

	s.log.Debug("click stats loaded", "entries", len(persisted), "updated", updated)
	s.notify(Event{Kind: EventStatsLoaded, Count: updated})
	return updated
}

// FetchGitHubRepos imports the owner's repositories and appends the ones not
// already present. It does nothing while another import is running or once
// imported records exist. It returns the number of records added.
func (s *Store) FetchGitHubRepos(ctx context.Context) int {
	if s.feed == nil {
		return 0
	}
	if !s.fetching.CompareAndSwap(false, true) {
		s.log.Debug("github import already running")
		return 0
	}
	defer s.fetching.Store(false)

	if s.HasExternal() {
		s.log.Debug("github repos already imported")
		return 0
	}

	records := s.feed.Fetch(ctx, s.owner)

	s.mu.Lock()
	added := 0
	for _, r := range records {
		if _, exists := s.index[r.ID]; exists {
			continue
		}
		if stat, ok := s.tracker.stat(r.ID); ok {
			r.ClickCount = stat.Count
		}
		s.index[r.ID] = len(s.links)
		s.links = append(s.links, r)
		added++
	}
	s.mu.Unlock()

	s.log.Info("github repos imported", "owner", s.owner, "fetched", len(records), "added", added)
	if added > 0 {
		s.notify(Event{Kind: EventExternalMerged, Count: added})
	}
	return added
}

// IsFetching reports whether an import is in flight.
func (s *Store) IsFetching() bool {
	return s.fetching.Load()
}

// HasExternal reports whether any imported record is present.
func (s *Store) HasExternal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.links {
		if r.IsExternal {
			return true
		}
	}
	return false
}

// IncrementClickCount records one click on id, persists all counters and
// mirrors the new count onto the record if it is loaded. Unknown ids are
// still counted.
func (s *Store) IncrementClickCount(id string) model.ClickStat {
	s.mu.Lock()
	stat := s.tracker.increment(id)
	if i, ok := s.index[id]; ok {
		s.links[i].ClickCount = stat.Count
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventClicked, LinkID: id, Count: stat.Count})
	return stat
}

// SetSearchQuery sets the free-text filter.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	s.notify(Event{Kind: EventFilterChanged})
}

// SetSelectedCategory sets the category filter. An empty id selects all.
func (s *Store) SetSelectedCategory(id string) {
	s.mu.Lock()
	s.category = id
	s.mu.Unlock()
	s.notify(Event{Kind: EventFilterChanged})
}

// SearchQuery returns the current free-text filter.
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SelectedCategory returns the current category filter.
func (s *Store) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

// FilteredLinks applies the current query and category to the collection.
func (s *Store) FilteredLinks() []model.LinkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.links, s.query, s.category)
}

// Links returns a copy of the whole collection.
func (s *Store) Links() []model.LinkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LinkRecord, len(s.links))
	copy(out, s.links)
	return out
}

// Link looks up a record by id.
func (s *Store) Link(id string) (model.LinkRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.LinkRecord{}, false
	}
	return s.links[i], true
}

// ClickStats returns a copy of the in-memory counters.
func (s *Store) ClickStats() model.ClickStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.snapshot()
}

// ClickStat returns the counter for id.
func (s *Store) ClickStat(id string) (model.ClickStat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.stat(id)
}

// TopLinks returns up to limit loaded records with the most clicks.
// A limit of zero or less returns them all.
func (s *Store) TopLinks(limit int) []model.LinkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.top(s.links, limit)
}
