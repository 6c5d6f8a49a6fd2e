package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTemplate   = "template"
	KeyPage       = "page"
	KeySegment    = "segment"
	KeyEvent      = "event"
	KeyTheme      = "theme"
	KeyNamespace  = "namespace"
	KeyPath       = "path"
	KeyPlugin     = "plugin"
	KeyExtension  = "extension"
	KeyBuildID    = "build_id"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Page(route string) slog.Attr      { return slog.String(KeyPage, route) }
func Segment(id string) slog.Attr      { return slog.String(KeySegment, id) }
func Event(name string) slog.Attr      { return slog.String(KeyEvent, name) }
func Theme(name string) slog.Attr      { return slog.String(KeyTheme, name) }
func Namespace(name string) slog.Attr  { return slog.String(KeyNamespace, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Plugin(name string) slog.Attr     { return slog.String(KeyPlugin, name) }
func Extension(name string) slog.Attr  { return slog.String(KeyExtension, name) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
