package converter

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// pdfConverter shells out to rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type pdfConverter struct {
	rsvgPath string
}

func (pdfConverter) Type() Type          { return PDF }
func (pdfConverter) ContentType() string { return "application/pdf" }
func (pdfConverter) Extension() string   { return "pdf" }

func (c pdfConverter) Convert(ctx context.Context, in io.Reader, out io.Writer, size *int) error {
	bin, err := exec.LookPath(c.rsvgPath)
	if err != nil {
		return fmt.Errorf("pdf export requires librsvg (%s not found): %w", c.rsvgPath, err)
	}
	return rsvgConvert(ctx, bin, "pdf", in, out, size)
}
