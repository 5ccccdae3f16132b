package headless

import (
	"bytes"
)

// Detector decides whether a plainly fetched page needs rendering.
type Detector struct {
	// BodyLengthThreshold bounds the size under which a script-heavy page
	// is treated as an unrendered shell.
	BodyLengthThreshold int
	markers             [][]byte
}

var spaMarkers = []string{
	`id="__next"`,
	`id="root"`,
	`id="app"`,
	`data-reactroot`,
	`ng-version=`,
}

// NewDetector creates a detector. A zero threshold defaults to 2048 bytes.
// Extra markers are matched case-insensitively against the body.
func NewDetector(threshold int, extraMarkers ...string) *Detector {
	if threshold <= 0 {
		threshold = 2048
	}
	d := &Detector{BodyLengthThreshold: threshold}
	for _, m := range append(spaMarkers, extraMarkers...) {
		if m != "" {
			d.markers = append(d.markers, bytes.ToLower([]byte(m)))
		}
	}
	return d
}

// NeedsRender reports whether the body looks like a client-rendered shell:
// empty, no links at all, a known framework mount point, or mostly script
// in a small document. Non-200 responses never qualify.
func (d *Detector) NeedsRender(status int, body []byte) bool {
	if status != 200 {
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	lower := bytes.ToLower(body)
	if !bytes.Contains(lower, []byte("<a ")) {
		return true
	}
	for _, marker := range d.markers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return len(body) < d.BodyLengthThreshold && scriptShare(lower) >= 25
}

// scriptShare returns the percentage of bytes inside <script> elements.
func scriptShare(lower []byte) int {
	total := len(lower)
	if total == 0 {
		return 0
	}
	openTag := []byte("<script")
	closeTag := []byte("</script>")

	covered, pos := 0, 0
	for {
		rel := bytes.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel
		end := total
		if relEnd := bytes.Index(lower[start:], closeTag); relEnd != -1 {
			end = start + relEnd + len(closeTag)
		}
		covered += end - start
		pos = end
	}
	return covered * 100 / total
}
