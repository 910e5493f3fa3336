package links

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
	"github.com/bunchhieng/linkdir/internal/storage"
)

// Tracker keeps the durable click counters. It is not safe for concurrent
// use on its own; a Store serializes access to it.
type Tracker struct {
	adapter *storage.Adapter
	now     func() time.Time
	log     *slog.Logger

	stats  model.ClickStats
	loaded bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock replaces time.Now for lastClickAt stamps.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker persisting through adapter.
func NewTracker(adapter *storage.Adapter, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		adapter: adapter,
		now:     time.Now,
		log:     logging.Component("tracker"),
		stats:   make(model.ClickStats),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// read fetches the persisted counters. A missing or malformed value reads as
// an empty map; ok is false only when the backend failed.
func (t *Tracker) read(ctx context.Context) (persisted model.ClickStats, ok bool) {
	found, err := t.adapter.Lookup(ctx, model.ClickStatsKey, &persisted)
	if err != nil {
		return nil, false
	}
	if !found {
		return model.ClickStats{}, true
	}
	return persisted, true
}

// merge folds persisted counters into memory. The first merge adds clicks
// counted before it on top of the persisted ones. After that a persisted
// entry replaces the in-memory one unless memory has counted further.
func (t *Tracker) merge(persisted model.ClickStats) {
	for id, stat := range persisted {
		cur, ok := t.stats[id]
		switch {
		case !ok:
			t.stats[id] = stat
		case !t.loaded:
			cur.Count += stat.Count
			if cur.LastClickAt == nil {
				cur.LastClickAt = stat.LastClickAt
			}
			t.stats[id] = cur
		case cur.Count < stat.Count:
			t.stats[id] = stat
		}
	}
	t.loaded = true
}

// increment bumps the counter for id and persists the whole map. Until the
// persisted counters have been read the write is held back, so a failed read
// never replaces earlier sessions.
func (t *Tracker) increment(id string) model.ClickStat {
	if !t.loaded {
		if persisted, ok := t.read(context.Background()); ok {
			t.merge(persisted)
		}
	}

	now := t.now().UTC()
	stat := t.stats[id]
	stat.Count++
	stat.LastClickAt = &now
	t.stats[id] = stat

	if t.loaded {
		t.adapter.Set(model.ClickStatsKey, t.stats.Clone())
	} else {
		t.log.Warn("click stats unavailable, deferring write", "id", id)
	}
	t.log.Debug("click recorded", "id", id, "count", stat.Count)
	return stat
}

func (t *Tracker) stat(id string) (model.ClickStat, bool) {
	stat, ok := t.stats[id]
	return stat, ok
}

func (t *Tracker) snapshot() model.ClickStats {
	return t.stats.Clone()
}

// top returns up to limit clicked records ordered by count, highest first.
// Ties keep their order in records.
func (t *Tracker) top(records []model.LinkRecord, limit int) []model.LinkRecord {
	clicked := make([]model.LinkRecord, 0, len(records))
	for _, r := range records {
		if stat, ok := t.stats[r.ID]; ok && stat.Count > 0 {
			r.ClickCount = stat.Count
			clicked = append(clicked, r)
		}
	}
	sort.SliceStable(clicked, func(i, j int) bool {
		return clicked[i].ClickCount > clicked[j].ClickCount
	})
	if limit > 0 && len(clicked) > limit {
		clicked = clicked[:limit]
	}
	return clicked
}
