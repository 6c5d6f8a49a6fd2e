package errors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError_Builder(t *testing.T) {
	cause := errors.New("stat layouts: no such file or directory")
	err := TemplateError("search path is not a directory").
		WithContext("path", "/site/layouts").
		WithCause(cause).
		Build()

	require.Equal(t, CategoryTemplate, err.Category())
	require.Equal(t, SeverityFatal, err.Severity())
	require.True(t, err.IsFatal())
	require.ErrorIs(t, err, cause)

	path, ok := err.Context().GetString("path")
	require.True(t, ok)
	assert.Equal(t, "/site/layouts", path)
	assert.Contains(t, err.Error(), "[template:fatal] search path is not a directory")
}

func TestClassifiedError_IsMatchesSentinel(t *testing.T) {
	sentinel := PluginError("already initialized").Build()
	got := sentinel.WithContext("plugin", "twig")

	require.ErrorIs(t, got, sentinel)
	_, hasPlugin := sentinel.Context().Get("plugin")
	assert.False(t, hasPlugin, "WithContext must not mutate the receiver")
}

func TestAsClassified_WalksChain(t *testing.T) {
	inner := ConfigError("missing key").Build()
	wrapped := fmt.Errorf("boot: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	require.Same(t, inner, got)
	assert.True(t, HasCategory(wrapped, CategoryConfig))
	assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
}

func TestErrorContext_SetOnNil(t *testing.T) {
	var ctx ErrorContext
	ctx = ctx.Set("route", "blog")
	got, ok := ctx.GetString("route")
	require.True(t, ok)
	assert.Equal(t, "blog", got)

	_, ok = ErrorContext(nil).Get("route")
	assert.False(t, ok)
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"template", TemplateError("bad loader").Build(), 11},
		{"plugin", PluginError("double init").Build(), 12},
		{"internal", InternalError("bug").Build(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("layouts.path is required").WithContext("key", "layouts.path").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: layouts.path is required\n", out.String())
	assert.Contains(t, logs.String(), "key=layouts.path")
}
