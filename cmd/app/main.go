package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	pkgconfig "github.com/starford/folio/pkg/config"
)

var version = "dev"

// loadOptions reads the config file (if any), applies flag overrides and
// returns the options shared by every command.
func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// The flag wins over the config file.
	if root := cmd.String("root"); root != "" {
		cfg.Catalog.Root = root
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithStdout(os.Stdout),
		internal.WithVersion(version),
	}, nil
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("add: at least one file is required")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Add(ctx, files, opts...)
}

func runIndex(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Index(ctx, opts...)
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Watch(ctx, opts...)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Serve(ctx, opts...)
}

func runLookup(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("lookup: an id is required")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Lookup(ctx, id, opts...)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "folio",
		Usage:   "Minimalist electronic document catalog: YAML sidecars, content hashes, tag indexes",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: ".folio.yaml",
				Value:       ".folio.yaml",
				Sources:     cli.EnvVars("FOLIO_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Catalog root directory (overrides catalog.root)",
				Sources: cli.EnvVars("FOLIO_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Register or refresh metadata for documents",
				ArgsUsage: "<file>...",
				Action:    runAdd,
			},
			{
				Name:   "index",
				Usage:  "Rebuild index.html and the per-tag pages",
				Action: runIndex,
			},
			{
				Name:   "watch",
				Usage:  "Rebuild the index whenever metadata changes",
				Action: runWatch,
			},
			{
				Name:   "serve",
				Usage:  "Serve the catalog and the lookup API over HTTP",
				Action: runServe,
			},
			{
				Name:      "lookup",
				Usage:     "Print the path of the document with the given hash or id",
				ArgsUsage: "<id>",
				Action:    runLookup,
			},
			{
				Name:   "mcp",
				Usage:  "Serve catalog lookups over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
