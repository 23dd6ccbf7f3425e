package converter

import (
	"context"
	"fmt"
	"io"
)

type svgConverter struct{}

func (svgConverter) Type() Type          { return SVG }
func (svgConverter) ContentType() string { return "image/svg+xml" }
func (svgConverter) Extension() string   { return "svg" }

// Convert copies the document unchanged; size is ignored.
func (svgConverter) Convert(_ context.Context, in io.Reader, out io.Writer, _ *int) error {
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying svg: %w", err)
	}
	return nil
}
