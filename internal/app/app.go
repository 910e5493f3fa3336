// Package app wires configuration, storage, the catalog and the GitHub feed
// into a ready-to-use link store.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bunchhieng/linkdir/internal/catalog"
	"github.com/bunchhieng/linkdir/internal/config"
	"github.com/bunchhieng/linkdir/internal/feed"
	"github.com/bunchhieng/linkdir/internal/links"
	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
	"github.com/bunchhieng/linkdir/internal/storage"
	"golang.org/x/sync/errgroup"
)

// App holds everything a front end needs.
type App struct {
	Config    *config.Config
	Catalog   *catalog.Loader
	Importer  *feed.Importer
	Adapter   *storage.Adapter
	Store     *links.Store
	SessionID string

	log     *slog.Logger
	closers []io.Closer
}

// ProbeBackends opens the storage backends available in this environment.
// A configured host directory selects the host backend; otherwise the SQLite
// text store at cfg.DBPath is used.
func ProbeBackends(cfg *config.Config) (storage.Backends, []io.Closer, error) {
	if cfg.HostDir != "" {
		host, err := storage.OpenBadgerHost(cfg.HostDir)
		if err != nil {
			return storage.Backends{}, nil, fmt.Errorf("open host storage: %w", err)
		}
		return storage.Backends{Host: host}, []io.Closer{host}, nil
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return storage.Backends{}, nil, err
		}
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return storage.Backends{}, nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	text, err := storage.NewSQLiteTextStore(dbPath)
	if err != nil {
		return storage.Backends{}, nil, fmt.Errorf("open text storage: %w", err)
	}
	return storage.Backends{Text: text}, []io.Closer{text}, nil
}

// NewImporter builds the GitHub importer described by cfg.
func NewImporter(cfg *config.Config) *feed.Importer {
	client := feed.NewClient(
		feed.WithAPIBase(cfg.GitHub.APIBase),
		feed.WithToken(cfg.GitHub.Token),
		feed.WithTimeout(cfg.GitHub.Timeout),
	)
	var opts []feed.Option
	if cfg.Feed.Snapshot != "" {
		opts = append(opts, feed.WithSnapshotFile(cfg.Feed.Snapshot))
	}
	return feed.NewImporter(client, opts...)
}

// Open probes storage and builds the store with the static catalog loaded.
// Click counts and GitHub repositories are not loaded yet; see Warm.
func Open(cfg *config.Config) (*App, error) {
	sessionID := model.NewSessionID()
	logging.Tag("session", sessionID)

	backends, closers, err := ProbeBackends(cfg)
	if err != nil {
		return nil, err
	}

	loader := catalog.NewLoader()
	importer := NewImporter(cfg)
	adapter := storage.NewAdapter(backends)
	store := links.New(loader, importer, links.NewTracker(adapter), links.WithOwner(cfg.GitHub.Owner))
	store.LoadLinks()

	a := &App{
		Config:    cfg,
		Catalog:   loader,
		Importer:  importer,
		Adapter:   adapter,
		Store:     store,
		SessionID: sessionID,
		log:       logging.Component("app"),
		closers:   closers,
	}
	a.log.Debug("app opened", "backend", backends.Name(), "links", len(store.Links()))
	return a, nil
}

// Warm hydrates click counts and, when fetch is set, imports GitHub
// repositories. Both run concurrently; the result is the same in either order.
func (a *App) Warm(ctx context.Context, fetch bool) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Store.LoadClickStats(ctx)
		return ctx.Err()
	})
	if fetch {
		g.Go(func() error {
			a.Store.FetchGitHubRepos(ctx)
			return ctx.Err()
		})
	}
	return g.Wait()
}

// Close releases the storage backends.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
