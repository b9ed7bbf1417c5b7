package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bunchhieng/uuidspace/internal/app"
	"github.com/bunchhieng/uuidspace/internal/cli"
	"github.com/bunchhieng/uuidspace/internal/config"
	"github.com/bunchhieng/uuidspace/internal/log"
	"github.com/bunchhieng/uuidspace/internal/space"
	"github.com/bunchhieng/uuidspace/internal/storage"
	"github.com/bunchhieng/uuidspace/internal/tui"
	ucli "github.com/urfave/cli/v2"
)

var version = "dev"

type env struct {
	cfg   *config.Config
	space *space.Space
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *ucli.App {
	e := &env{}

	return &ucli.App{
		Name:    "uuidspace",
		Usage:   "browse and search every identifier of a format by its ordinal",
		Version: version,
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default: ./config.yaml or the platform config directory)"},
			&ucli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "identifier format, see 'formats'"},
			&ucli.StringFlag{Name: "db-path", Usage: "path to favorites database (default: platform config directory)"},
			&ucli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
		},
		Before: e.load,
		Commands: []*ucli.Command{
			{
				Name:      "encode",
				Usage:     "print the identifier at an index",
				ArgsUsage: "<index|max|-n>",
				Action: func(c *ucli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: uuidspace encode <index>")
					}
					return e.commands(c.Context, nil).Encode(c.Args().First())
				},
			},
			{
				Name:      "decode",
				Usage:     "print the index of an identifier",
				ArgsUsage: "<identifier>",
				Action: func(c *ucli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: uuidspace decode <identifier>")
					}
					return e.commands(c.Context, nil).Decode(c.Args().First())
				},
			},
			{
				Name:  "list",
				Usage: "print consecutive identifiers",
				Flags: []ucli.Flag{
					&ucli.StringFlag{Name: "from", Value: "0", Usage: "first index"},
					&ucli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 10, Usage: "number of entries"},
				},
				Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
					return cmds.List(c.String("from"), c.Int("count"))
				}),
			},
			{
				Name:      "search",
				Usage:     "find identifiers containing a fragment",
				ArgsUsage: "<fragment>",
				Flags: []ucli.Flag{
					&ucli.StringFlag{Name: "from", Value: "0", Usage: "reference index"},
					&ucli.IntFlag{Name: "next", Usage: "step forward this many times"},
					&ucli.IntFlag{Name: "prev", Usage: "then step back this many times"},
				},
				Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: uuidspace search <fragment> [--from N] [--next N] [--prev N]")
					}
					return cmds.Search(c.Args().First(), c.String("from"), c.Int("next"), c.Int("prev"))
				}),
			},
			{
				Name:  "formats",
				Usage: "list built-in formats",
				Action: func(c *ucli.Context) error {
					return e.commands(c.Context, nil).Formats()
				},
			},
			{
				Name:  "fav",
				Usage: "manage favorite identifiers",
				Subcommands: []*ucli.Command{
					{
						Name:      "add",
						Usage:     "star an identifier",
						ArgsUsage: "<identifier>",
						Flags:     []ucli.Flag{&ucli.StringFlag{Name: "note", Usage: "note to keep with it"}},
						Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
							if c.NArg() != 1 {
								return fmt.Errorf("usage: uuidspace fav add <identifier> [--note \"...\"]")
							}
							return cmds.FavAdd(c.Args().First(), c.String("note"))
						}),
					},
					{
						Name:      "rm",
						Usage:     "unstar one or more identifiers",
						ArgsUsage: "<identifier> [identifier...]",
						Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
							return cmds.FavRemove(c.Args().Slice()...)
						}),
					},
					{
						Name:  "list",
						Usage: "list favorites",
						Flags: []ucli.Flag{
							&ucli.BoolFlag{Name: "all", Usage: "include every format"},
							&ucli.IntFlag{Name: "limit", Usage: "limit number of results"},
						},
						Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
							name := e.space.Name()
							if c.Bool("all") {
								name = ""
							}
							return cmds.FavList(name, c.Int("limit"))
						}),
					},
					{
						Name:  "export",
						Usage: "write favorites as JSON to stdout",
						Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
							return cmds.Export(os.Stdout)
						}),
					},
					{
						Name:      "import",
						Usage:     "read favorites from a JSON file",
						ArgsUsage: "<file.json>",
						Action: e.withStorage(func(c *ucli.Context, cmds *cli.Commands) error {
							if c.NArg() != 1 {
								return fmt.Errorf("usage: uuidspace fav import <file.json>")
							}
							return cmds.Import(c.Args().First())
						}),
					},
				},
			},
			{
				Name:  "browse",
				Usage: "open the interactive browser",
				Action: func(c *ucli.Context) error {
					s, err := app.NewStorage(c.Context, e.cfg.DBPath)
					if err != nil {
						return fmt.Errorf("failed to initialize storage: %w", err)
					}
					defer s.Close()
					return tui.Run(e.space, s, tui.Options{Search: app.SearchOptions(c.Context, e.cfg), Page: e.cfg.Browse.Page})
				},
			},
			{
				Name:  "version",
				Usage: "show version",
				Action: func(c *ucli.Context) error {
					e.commands(c.Context, nil).Version(version)
					return nil
				},
			},
		},
	}
}

// load resolves configuration, applies global flags over it and opens the
// format's space.
func (e *env) load(c *ucli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("db-path") {
		cfg.DBPath = c.String("db-path")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	log.Init(cfg.Log)

	sp, err := space.Open(cfg.Format)
	if err != nil {
		return err
	}
	e.cfg, e.space = cfg, sp

	logger := log.L().With().Str(log.FieldCommand, c.Args().First()).Logger()
	c.Context = log.WithLogger(c.Context, logger)
	logger.Debug().Str(log.FieldFormat, sp.Name()).Msg("configured")
	return nil
}

func (e *env) commands(ctx context.Context, s storage.Storage) *cli.Commands {
	return cli.NewCommands(ctx, s, e.space, app.SearchOptions(ctx, e.cfg), os.Stdout)
}

func (e *env) withStorage(fn func(*ucli.Context, *cli.Commands) error) ucli.ActionFunc {
	return func(c *ucli.Context) error {
		s, err := app.NewStorage(c.Context, e.cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer s.Close()
		return fn(c, e.commands(c.Context, s))
	}
}
