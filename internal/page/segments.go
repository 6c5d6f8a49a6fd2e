package page

import (
	"regexp"
	"strings"
)

// DefaultSegment holds the content before the first segment marker.
const DefaultSegment = "default"

// segmentMarker matches a line of the form "--- sidebar ---".
var segmentMarker = regexp.MustCompile(`^---\s*([A-Za-z0-9_-]+)\s*---\s*$`)

// SplitSegments cuts body into named segments. It returns the segments and
// their ids in document order. A repeated id appends to the earlier segment.
func SplitSegments(body string) (map[string]string, []string) {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	segments := map[string]string{}
	var order []string
	current := DefaultSegment
	var buf strings.Builder

	flush := func() {
		text := strings.Trim(buf.String(), "\n")
		buf.Reset()
		if prev, ok := segments[current]; ok {
			if text != "" {
				segments[current] = strings.TrimLeft(prev+"\n"+text, "\n")
			}
			return
		}
		if current == DefaultSegment && text == "" {
			return
		}
		segments[current] = text
		order = append(order, current)
	}

	for _, line := range strings.Split(body, "\n") {
		if m := segmentMarker.FindStringSubmatch(line); m != nil {
			flush()
			current = m[1]
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()

	return segments, order
}
