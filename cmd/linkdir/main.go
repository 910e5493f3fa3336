package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bunchhieng/linkdir/internal/app"
	"github.com/bunchhieng/linkdir/internal/cli"
	"github.com/bunchhieng/linkdir/internal/config"
	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/server"
	"github.com/bunchhieng/linkdir/internal/tui"
	ucli "github.com/urfave/cli/v2"
)

var version = "dev"

// env is built in Before and shared by every command.
type env struct {
	app  *app.App
	cmds *cli.Commands
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{}
	if err := newApp(e).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(e *env) *ucli.App {
	return &ucli.App{
		Name:    "linkdir",
		Usage:   "a personal link directory with click tracking",
		Version: version,
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default: platform config directory)"},
			&ucli.StringFlag{Name: "db-path", Usage: "SQLite database file"},
			&ucli.StringFlag{Name: "host-dir", Usage: "badger directory; selects host storage"},
			&ucli.StringFlag{Name: "owner", Usage: "GitHub account to import"},
			&ucli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Before: func(c *ucli.Context) error {
			return e.open(c)
		},
		After: func(c *ucli.Context) error {
			if e.app == nil {
				return nil
			}
			return e.app.Close()
		},
		Action: func(c *ucli.Context) error {
			return e.browse(c, false)
		},
		Commands: []*ucli.Command{
			{
				Name:  "list",
				Usage: "list links",
				Flags: []ucli.Flag{
					&ucli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "match title or description"},
					&ucli.StringFlag{Name: "category", Usage: "category id"},
					&ucli.BoolFlag{Name: "github-only", Usage: "only imported repositories"},
					&ucli.IntFlag{Name: "limit", Usage: "limit number of results"},
					githubFlag(),
				},
				Action: func(c *ucli.Context) error {
					if err := e.app.Warm(c.Context, c.Bool("github") || c.Bool("github-only")); err != nil {
						return err
					}
					return e.cmds.List(cli.ListOptions{
						Query:      c.String("query"),
						Category:   c.String("category"),
						GitHubOnly: c.Bool("github-only"),
						Limit:      c.Int("limit"),
					})
				},
			},
			{
				Name:  "categories",
				Usage: "list categories",
				Flags: []ucli.Flag{githubFlag()},
				Action: func(c *ucli.Context) error {
					if err := e.app.Warm(c.Context, c.Bool("github")); err != nil {
						return err
					}
					return e.cmds.Categories()
				},
			},
			{
				Name:      "open",
				Usage:     "open a link in the browser and count the click",
				ArgsUsage: "<id>",
				Flags:     []ucli.Flag{githubFlag()},
				Action: func(c *ucli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					if err := e.app.Warm(c.Context, c.Bool("github")); err != nil {
						return err
					}
					return e.cmds.Open(id)
				},
			},
			{
				Name:      "click",
				Usage:     "count a click without opening the link",
				ArgsUsage: "<id>",
				Flags:     []ucli.Flag{githubFlag()},
				Action: func(c *ucli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					if err := e.app.Warm(c.Context, c.Bool("github")); err != nil {
						return err
					}
					return e.cmds.Click(id)
				},
			},
			{
				Name:  "top",
				Usage: "show the most clicked links",
				Flags: []ucli.Flag{
					&ucli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 5, Usage: "number of links"},
					githubFlag(),
				},
				Action: func(c *ucli.Context) error {
					if err := e.app.Warm(c.Context, c.Bool("github")); err != nil {
						return err
					}
					return e.cmds.Top(c.Int("limit"))
				},
			},
			{
				Name:  "fetch",
				Usage: "import GitHub repositories",
				Action: func(c *ucli.Context) error {
					if err := e.app.Warm(c.Context, false); err != nil {
						return err
					}
					return e.cmds.Fetch(c.Context)
				},
			},
			{
				Name:  "snapshot",
				Usage: "save the live GitHub listing for offline imports",
				Flags: []ucli.Flag{
					&ucli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, - for stdout (default: feed.snapshot)"},
				},
				Action: func(c *ucli.Context) error {
					out := c.String("out")
					if out == "" {
						out = e.app.Config.Feed.Snapshot
					}
					return e.cmds.Snapshot(c.Context, "", out)
				},
			},
			{
				Name:  "export",
				Usage: "export all links to stdout",
				Flags: []ucli.Flag{
					&ucli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or yaml"},
					githubFlag(),
				},
				Action: func(c *ucli.Context) error {
					if err := e.app.Warm(c.Context, c.Bool("github")); err != nil {
						return err
					}
					return e.cmds.Export(os.Stdout, c.String("format"))
				},
			},
			{
				Name:  "serve",
				Usage: "serve the JSON API",
				Flags: []ucli.Flag{
					&ucli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "listen address (default: server.listen)"},
					&ucli.BoolFlag{Name: "no-github", Usage: "skip the GitHub import at startup"},
				},
				Action: func(c *ucli.Context) error {
					if err := e.app.Warm(c.Context, !c.Bool("no-github")); err != nil {
						return err
					}
					listen := c.String("listen")
					if listen == "" {
						listen = e.app.Config.Server.Listen
					}
					srv := server.New(e.app.Store, e.app.Catalog, e.app.Config.Server.AllowedOrigins)
					return srv.ListenAndServe(c.Context, listen)
				},
			},
			{
				Name:  "browse",
				Usage: "browse links in the terminal (default)",
				Flags: []ucli.Flag{githubFlag()},
				Action: func(c *ucli.Context) error {
					return e.browse(c, c.Bool("github"))
				},
			},
		},
	}
}

func (e *env) open(c *ucli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db-path") {
		cfg.DBPath = c.String("db-path")
	}
	if c.IsSet("host-dir") {
		cfg.HostDir = c.String("host-dir")
	}
	if c.IsSet("owner") {
		cfg.GitHub.Owner = c.String("owner")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)

	a, err := app.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	e.app = a
	e.cmds = cli.NewCommands(a.Store, a.Catalog, a.Importer, cli.WithOwner(cfg.GitHub.Owner))
	return nil
}

func (e *env) browse(c *ucli.Context, fetch bool) error {
	if err := e.app.Warm(c.Context, fetch); err != nil {
		return err
	}
	return tui.Run(e.app.Store, e.app.Catalog, cli.OpenBrowser)
}

func githubFlag() ucli.Flag {
	return &ucli.BoolFlag{Name: "github", Aliases: []string{"g"}, Usage: "import GitHub repositories first"}
}

func requireID(c *ucli.Context) (string, error) {
	if c.NArg() == 0 {
		return "", fmt.Errorf("usage: linkdir %s <id>", c.Command.Name)
	}
	return c.Args().First(), nil
}
