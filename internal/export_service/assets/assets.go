// Package assets holds files bundled into the export service binary.
package assets

import (
	_ "embed"
	"strings"
)

//go:embed watermark.svg
var watermark string

// Watermark returns the SVG fragment stamped onto charts exported by community builds.
func Watermark() string {
	return strings.TrimSpace(watermark)
}
