// Package commands holds the pagebuilder sub-commands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagebuilder/internal/app"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pagebuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Render every page into the output directory"`
	Render RenderCmd `cmd:"" help:"Render a single page to stdout"`
	Watch  WatchCmd  `cmd:"" help:"Build, then rebuild whenever layouts, pages or data change"`
}

// AfterApply runs after flag parsing and installs a default logger until
// the configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// LoadConfig reads the configuration file and reconfigures logging from
// logging.level and logging.format.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return cfg, nil
}

// OpenApp loads the configuration and boots the site.
func (c *CLI) OpenApp(ctx context.Context, g *Global, opts ...app.Option) (*app.App, error) {
	cfg, err := c.LoadConfig(g)
	if err != nil {
		return nil, err
	}
	opts = append([]app.Option{app.WithLogger(slog.Default())}, opts...)
	a, err := app.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.Boot(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}
