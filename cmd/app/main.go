package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/granola-sync/internal"
	pkgconfig "github.com/starford/granola-sync/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
		internal.WithVersion(version),
	}, nil
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

func syncOnce(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if _, err := internal.SyncOnce(ctx, os.Stdout, opts...); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func moveDir(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.MoveDirectory(ctx, cmd.String("from"), cmd.String("to"), opts...)
}

func preview(_ context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Preview(cmd.String("file"), os.Stdout, opts...)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "granola-sync",
		Usage:   "Sync Granola meeting notes into a Markdown vault",
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
				Usage:  "Run the control API with scheduled syncing (default)",
				Action: serve,
			},
			{
				Name:   "sync",
				Usage:  "Run one sync pass and exit",
				Action: syncOnce,
			},
			{
				Name:  "move-dir",
				Usage: "Move synced notes to another vault directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Current directory", Required: true},
					&cli.StringFlag{Name: "to", Usage: "New directory", Required: true},
				},
				Action: moveDir,
			},
			{
				Name:  "preview",
				Usage: "Print the note a document would be rendered to",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document JSON file", Required: true},
				},
				Action: preview,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
