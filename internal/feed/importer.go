package feed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
)

// IDPrefix marks links imported from GitHub. IDs are derived from the
// repository name only, so importing the same listing twice yields the same IDs.
const IDPrefix = "gh-"

// Importer produces directory links from the repository feed. It holds no
// state between calls.
type Importer struct {
	client       *Client
	classifier   *Classifier
	snapshotPath string
	snapshot     []byte
	log          *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithSnapshotFile prefers the listing stored at path over the embedded one.
func WithSnapshotFile(path string) Option {
	return func(im *Importer) { im.snapshotPath = path }
}

// WithSnapshotData replaces the embedded snapshot.
func WithSnapshotData(data []byte) Option {
	return func(im *Importer) { im.snapshot = data }
}

// WithClassifier replaces the default rule table.
func WithClassifier(c *Classifier) Option {
	return func(im *Importer) { im.classifier = c }
}

// NewImporter creates an importer that falls back to client for live data.
func NewImporter(client *Client, opts ...Option) *Importer {
	im := &Importer{
		client:   client,
		snapshot: embeddedSnapshot,
		log:      logging.Component("feed"),
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.classifier == nil {
		im.classifier = DefaultClassifier()
	}
	return im
}

// Fetch returns owner's repositories as links, most starred first. Failures
// are logged and produce an empty result.
func (im *Importer) Fetch(ctx context.Context, owner string) []model.LinkRecord {
	repos := im.snapshotRepos()
	if len(repos) == 0 {
		var err error
		_, repos, err = im.live(ctx, owner)
		if err != nil {
			im.log.Warn("github import failed", "owner", owner, "error", err)
			return []model.LinkRecord{}
		}
	}

	links := Convert(repos, im.classifier)
	im.log.Info("github repos imported", "owner", owner, "received", len(repos), "kept", len(links))
	return links
}

// LiveListing fetches owner's raw listing and checks it against the schema.
// `linkdir snapshot` writes the result to disk unchanged.
func (im *Importer) LiveListing(ctx context.Context, owner string) ([]byte, error) {
	body, _, err := im.live(ctx, owner)
	return body, err
}

func (im *Importer) live(ctx context.Context, owner string) ([]byte, []Repo, error) {
	if owner == "" {
		return nil, nil, fmt.Errorf("no GitHub owner configured")
	}
	if im.client == nil {
		return nil, nil, fmt.Errorf("no GitHub client configured")
	}
	body, err := im.client.ListRepos(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	repos, err := ParseRepos(body)
	if err != nil {
		return nil, nil, err
	}
	return body, repos, nil
}

// snapshotRepos returns the first usable snapshot: the file, then the embedded copy.
func (im *Importer) snapshotRepos() []Repo {
	if im.snapshotPath != "" {
		data, err := os.ReadFile(im.snapshotPath)
		if err != nil {
			im.log.Debug("snapshot file unavailable", "path", im.snapshotPath, "error", err)
		} else if repos, err := ParseRepos(data); err != nil {
			im.log.Warn("ignoring snapshot file", "path", im.snapshotPath, "error", err)
		} else if len(repos) > 0 {
			return repos
		}
	}

	if len(im.snapshot) == 0 {
		return nil
	}
	repos, err := ParseRepos(im.snapshot)
	if err != nil {
		im.log.Warn("ignoring embedded snapshot", "error", err)
		return nil
	}
	return repos
}

// Convert filters repos and maps the survivors to links sorted by stars,
// keeping listing order among equal star counts.
func Convert(repos []Repo, classifier *Classifier) []model.LinkRecord {
	links := make([]model.LinkRecord, 0, len(repos))
	for _, r := range repos {
		if !r.keep() {
			continue
		}

		categoryID, icon := classifier.Classify(r.Name, r.description())
		createdAt := r.CreatedAt
		if len(createdAt) >= 10 {
			createdAt = createdAt[:10]
		}

		links = append(links, model.LinkRecord{
			ID:          IDPrefix + r.Name,
			Title:       r.Name,
			URL:         r.HTMLURL,
			Description: r.description(),
			CategoryID:  categoryID,
			Icon:        icon,
			ClickCount:  0,
			CreatedAt:   createdAt,
			IsExternal:  true,
			Language:    r.language(),
			Stars:       r.StargazersCount,
		})
	}

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Stars > links[j].Stars
	})
	return links
}
