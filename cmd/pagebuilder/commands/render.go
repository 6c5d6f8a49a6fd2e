package commands

import (
	"context"
	"fmt"
	"io"
	"os"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Route string `arg:"" optional:"" help:"Route of the page to render (empty for the home page)"`

	out io.Writer
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	a, err := root.OpenApp(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	html, err := a.RenderRoute(ctx, r.Route)
	if err != nil {
		return err
	}
	out := r.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprint(out, html)
	return err
}
