package commands

import (
	"context"
	"fmt"
	"os"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (defaults to build.output)" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	a, err := root.OpenApp(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.Build(ctx, b.Output)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Built %d pages into %s (%d changed)\n", len(res.Manifest.Pages), res.OutputPath, len(res.Changed))
	return nil
}
