package model

import (
	"net/url"
	"strings"
	"time"
)

// ClickStatsKey is the storage key the click counters are persisted under.
const ClickStatsKey = "clickStats"

// LinkRecord is a single catalog entry, either curated or imported from GitHub.
type LinkRecord struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
	CategoryID  string `json:"categoryId" yaml:"categoryId"`
	Icon        string `json:"icon" yaml:"icon"`
	ClickCount  int    `json:"clickCount" yaml:"clickCount"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
	IsExternal  bool   `json:"isExternal,omitempty" yaml:"isExternal,omitempty"`

	// Only set on imported records.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Stars    int    `json:"stars,omitempty" yaml:"stars,omitempty"`
}

// Validate checks if the record has an absolute URL.
func (l *LinkRecord) Validate() error {
	if l.URL == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme == "" || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// Host returns the host part of the URL, or the raw URL if it cannot be parsed.
func (l *LinkRecord) Host() string {
	u, err := url.Parse(l.URL)
	if err != nil || u.Host == "" {
		return l.URL
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// Category groups links in the directory.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon" yaml:"icon"`
}

// ClickStat is the durable click counter of one link.
type ClickStat struct {
	Count       int        `json:"count" yaml:"count"`
	LastClickAt *time.Time `json:"lastClickAt" yaml:"lastClickAt"`
}

// ClickStats maps link IDs to their counters.
type ClickStats map[string]ClickStat

// Clone returns a copy that shares no memory with s.
func (s ClickStats) Clone() ClickStats {
	out := make(ClickStats, len(s))
	for id, stat := range s {
		if stat.LastClickAt != nil {
			t := *stat.LastClickAt
			stat.LastClickAt = &t
		}
		out[id] = stat
	}
	return out
}

// Total sums all counters.
func (s ClickStats) Total() int {
	total := 0
	for _, stat := range s {
		total += stat.Count
	}
	return total
}
