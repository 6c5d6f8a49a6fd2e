package logfields

import (
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Template", KeyTemplate, "default.html", Template("default.html")},
		{"Page", KeyPage, "blog/hello", Page("blog/hello")},
		{"Segment", KeySegment, "sidebar", Segment("sidebar")},
		{"Event", KeyEvent, "onRenderLayout", Event("onRenderLayout")},
		{"Theme", KeyTheme, "dark", Theme("dark")},
		{"Namespace", KeyNamespace, "widget", Namespace("widget")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Plugin", KeyPlugin, "twig", Plugin("twig")},
		{"Extension", KeyExtension, "host", Extension("host")},
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestDuration(t *testing.T) {
	attr := Duration(1500 * time.Microsecond)
	if attr.Key != KeyDurationMS {
		t.Fatalf("Duration key mismatch: %s", attr.Key)
	}
	if got := attr.Value.Float64(); got != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", got)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
