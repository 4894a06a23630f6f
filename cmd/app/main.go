package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/jotgrid/internal"
	pkgconfig "github.com/starford/jotgrid/pkg/config"
)

var version = "dev"

// options loads the config named by --config. A missing file falls back to
// the defaults and disables hot reload.
func options(cmd *cli.Command, extra ...internal.Option) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	if found {
		opts = append(opts, internal.WithConfigPath(configPath))
	}
	return append(opts, extra...), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol.
	opts, err := options(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func list(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	return internal.PrintList(ctx, os.Stdout, opts...)
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.ExportArchive(ctx, cmd.String("dir"), opts...)
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("export: %d notes failed", rep.Failed)
	}
	return nil
}

func importNotes(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.ImportArchive(ctx, cmd.String("dir"), opts...)
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("import: %d files failed", rep.Failed)
	}
	return nil
}

func dirFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "dir",
		Aliases:  []string{"d"},
		Usage:    usage,
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "jotgrid",
		Usage:   "Date-ordered notes on a local SQLite store, served over HTTP and MCP",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve note tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:   "list",
				Usage:  "Print the status events of one list operation as JSON lines",
				Action: list,
			},
			{
				Name:   "export",
				Usage:  "Write every note to a directory as Markdown",
				Flags:  []cli.Flag{dirFlag("Target directory, created if missing")},
				Action: export,
			},
			{
				Name:   "import",
				Usage:  "Save every Markdown file in a directory as a note",
				Flags:  []cli.Flag{dirFlag("Source directory")},
				Action: importNotes,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
