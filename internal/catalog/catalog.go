// Package catalog loads the curated link directory bundled into the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
)

//go:embed data/links.json
var bundled []byte

// SiteInfo is display metadata for the directory front page.
type SiteInfo struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Logo        string `json:"logo" yaml:"logo"`
}

type document struct {
	SiteInfo   SiteInfo           `json:"siteInfo"`
	Categories []model.Category   `json:"categories"`
	Links      []model.LinkRecord `json:"links"`
}

// Loader reads a catalog document once and hands out copies of it.
type Loader struct {
	data []byte
	log  *slog.Logger

	once sync.Once
	doc  document
}

// NewLoader returns a loader for the bundled catalog.
func NewLoader() *Loader {
	return NewLoaderFromBytes(bundled)
}

// NewLoaderFromBytes returns a loader for an arbitrary catalog document.
func NewLoaderFromBytes(data []byte) *Loader {
	return &Loader{
		data: data,
		log:  logging.Component("catalog"),
	}
}

func (l *Loader) parse() {
	l.once.Do(func() {
		if err := json.Unmarshal(l.data, &l.doc); err != nil {
			l.log.Error("bundled catalog is malformed", "error", err)
			l.doc = document{}
		}
	})
}

// Load returns the curated links in bundle order. Each call returns a fresh
// slice, so mutating the result never changes later loads.
func (l *Loader) Load() []model.LinkRecord {
	l.parse()
	links := make([]model.LinkRecord, len(l.doc.Links))
	copy(links, l.doc.Links)
	return links
}

// Categories returns the category taxonomy in bundle order.
func (l *Loader) Categories() []model.Category {
	l.parse()
	categories := make([]model.Category, len(l.doc.Categories))
	copy(categories, l.doc.Categories)
	return categories
}

// SiteInfo returns the directory's display metadata.
func (l *Loader) SiteInfo() SiteInfo {
	l.parse()
	return l.doc.SiteInfo
}
