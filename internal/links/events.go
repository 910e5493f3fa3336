package links

// EventKind identifies what changed in a Store.
type EventKind int

const (
	EventLinksLoaded EventKind = iota
	EventStatsLoaded
	EventExternalMerged
	EventClicked
	EventFilterChanged
)

func (k EventKind) String() string {
	switch k {
	case EventLinksLoaded:
		return "links_loaded"
	case EventStatsLoaded:
		return "stats_loaded"
	case EventExternalMerged:
		return "external_merged"
	case EventClicked:
		return "clicked"
	case EventFilterChanged:
		return "filter_changed"
	default:
		return "unknown"
	}
}

// Event describes one change. LinkID is set for clicks; Count is the number
// of records affected for loads and merges, or the new counter for clicks.
type Event struct {
	Kind   EventKind
	LinkID string
	Count  int
}

// Subscribe registers fn to be called after every change. fn runs on the
// goroutine that made the change, after the store lock is released.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(e Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
