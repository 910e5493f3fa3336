package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/bunchhieng/linkdir/internal/catalog"
	"github.com/bunchhieng/linkdir/internal/feed"
	"github.com/bunchhieng/linkdir/internal/links"
	"github.com/bunchhieng/linkdir/internal/model"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// Commands handles all CLI command execution.
type Commands struct {
	store    *links.Store
	catalog  *catalog.Loader
	importer *feed.Importer
	owner    string

	out    io.Writer
	color  bool
	opener func(url string) error
}

// Option configures Commands.
type Option func(*Commands)

// WithOutput redirects command output. Colour is enabled only when w is a terminal.
func WithOutput(w io.Writer) Option {
	return func(c *Commands) {
		c.out = w
		c.color = isTerminal(w)
	}
}

// WithOpener replaces the system browser launcher.
func WithOpener(open func(url string) error) Option {
	return func(c *Commands) { c.opener = open }
}

// WithOwner sets the default GitHub account for Snapshot.
func WithOwner(owner string) Option {
	return func(c *Commands) { c.owner = owner }
}

// NewCommands creates a new Commands instance.
func NewCommands(store *links.Store, loader *catalog.Loader, importer *feed.Importer, opts ...Option) *Commands {
	c := &Commands{
		store:    store,
		catalog:  loader,
		importer: importer,
		out:      os.Stdout,
		color:    isTerminal(os.Stdout),
		opener:   OpenBrowser,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (c *Commands) paint(code, s string) string {
	if !c.color {
		return s
	}
	return code + s + colorReset
}

func (c *Commands) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// suggestID suggests a similar ID if the given ID is not found.
func (c *Commands) suggestID(id string) string {
	bestMatch := ""
	minDistance := len(id) + 1

	for _, link := range c.store.Links() {
		distance := levenshteinDistance(id, link.ID)
		if distance < minDistance && distance <= 3 {
			minDistance = distance
			bestMatch = link.ID
		}
	}

	return bestMatch
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

func (c *Commands) lookup(id string) (model.LinkRecord, error) {
	link, ok := c.store.Link(id)
	if ok {
		return link, nil
	}
	err := fmt.Errorf("%w: %s", model.ErrNotFound, c.paint(colorBold, id))
	if suggestion := c.suggestID(id); suggestion != "" {
		err = fmt.Errorf("%w\n\n%s %s?", err, c.paint(colorYellow, "Did you mean:"), c.paint(colorBold, suggestion))
	}
	return model.LinkRecord{}, err
}

// ListOptions narrows List output.
type ListOptions struct {
	Query      string
	Category   string
	GitHubOnly bool
	Limit      int
}

// List prints the links matching opts.
func (c *Commands) List(opts ListOptions) error {
	result := links.Filter(c.store.Links(), opts.Query, opts.Category)
	if opts.GitHubOnly {
		external := result[:0]
		for _, l := range result {
			if l.IsExternal {
				external = append(external, l)
			}
		}
		result = external
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	if len(result) == 0 {
		fmt.Fprintln(c.out, "No links found.")
		return nil
	}

	c.printLinksTable(result)
	return nil
}

// Categories prints every category with its link count.
func (c *Commands) Categories() error {
	counts := make(map[string]int)
	for _, l := range c.store.Links() {
		counts[l.CategoryID]++
	}

	for _, cat := range c.catalog.Categories() {
		c.printf("%s %-8s %s %s\n",
			cat.Icon,
			c.paint(colorBold+colorCyan, cat.ID),
			cat.Name,
			c.paint(colorDim, fmt.Sprintf("(%d)", counts[cat.ID])))
	}
	return nil
}

// Open opens a link in the default browser and counts the click.
func (c *Commands) Open(id string) error {
	link, err := c.lookup(id)
	if err != nil {
		return err
	}

	if err := c.opener(link.URL); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}

	stat := c.store.IncrementClickCount(link.ID)
	c.printf("%s %s %s\n",
		c.paint(colorGreen, "Opened:"),
		c.paint(colorCyan, link.URL),
		c.paint(colorDim, fmt.Sprintf("(%d clicks)", stat.Count)))
	return nil
}

// Click counts a click without opening the link.
func (c *Commands) Click(id string) error {
	link, err := c.lookup(id)
	if err != nil {
		return err
	}

	stat := c.store.IncrementClickCount(link.ID)
	c.printf("%s link %s: %d clicks\n", c.paint(colorGreen, "Counted"), c.paint(colorBold, link.ID), stat.Count)
	return nil
}

// Top prints the most clicked links.
func (c *Commands) Top(limit int) error {
	top := c.store.TopLinks(limit)
	if len(top) == 0 {
		fmt.Fprintln(c.out, "No clicks recorded yet.")
		return nil
	}

	c.printLinksTable(top)
	c.printf("%s %d\n", c.paint(colorDim, "Total clicks:"), c.store.ClickStats().Total())
	return nil
}

// Fetch imports GitHub repositories into the store.
func (c *Commands) Fetch(ctx context.Context) error {
	added := c.store.FetchGitHubRepos(ctx)
	if added == 0 {
		fmt.Fprintln(c.out, "No new repositories imported.")
		return nil
	}
	c.printf("%s %s repositories.\n", c.paint(colorGreen, "Imported"), c.paint(colorBold, fmt.Sprint(added)))
	return nil
}

// Snapshot fetches owner's live listing and writes it to path, or to the
// output when path is empty or "-".
func (c *Commands) Snapshot(ctx context.Context, owner, path string) error {
	if owner == "" {
		owner = c.owner
	}
	if owner == "" {
		return fmt.Errorf("owner required")
	}

	data, err := c.importer.LiveListing(ctx, owner)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	if path == "" || path == "-" {
		_, err := c.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	c.printf("%s snapshot for %s to %s\n", c.paint(colorGreen, "Wrote"), c.paint(colorBold, owner), path)
	return nil
}

// Export writes all links as JSON or YAML.
func (c *Commands) Export(w io.Writer, format string) error {
	all := c.store.Links()

	switch strings.ToLower(format) {
	case "", "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(all); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(all); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return cmd.Run()
}
