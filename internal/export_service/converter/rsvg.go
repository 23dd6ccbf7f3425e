package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// rsvgConvert runs librsvg's rsvg-convert with the given output format, streaming in to out.
// A positive size sets the output width and keeps the aspect ratio.
func rsvgConvert(ctx context.Context, bin, format string, in io.Reader, out io.Writer, size *int) error {
	args := []string{"-f", format}
	if size != nil && *size > 0 {
		args = append(args, "-w", strconv.Itoa(*size), "--keep-aspect-ratio")
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = in
	cmd.Stdout = out

	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return nil
}
