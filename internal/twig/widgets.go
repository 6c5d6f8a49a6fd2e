package twig

import (
	"embed"
	"io/fs"
)

//go:embed widgets/*.html
var widgetFiles embed.FS

// WidgetsFS holds the built-in widget templates, reachable as "@widget/<name>.html".
var WidgetsFS fs.FS = mustSub(widgetFiles, "widgets")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
