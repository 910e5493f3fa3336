// Package links owns the in-memory link directory.
//
// A Store is built from a static catalog, optionally enriched with GitHub
// repositories, and carries per-link click counters that survive restarts
// through the storage adapter. Loading, hydrating click counts and importing
// repositories are separate steps that callers run explicitly, in any order:
//
//	store := links.New(catalog.NewLoader(), importer, links.NewTracker(adapter))
//	store.LoadClickStats(ctx)
//	store.FetchGitHubRepos(ctx)
//
// Every method is safe for concurrent use. Storage and network failures are
// logged and never returned.
package links
