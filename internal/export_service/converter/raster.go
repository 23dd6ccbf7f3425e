package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os/exec"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	// Used when the document declares neither a viewBox nor a size (the browser default).
	defaultRasterWidth  = 300
	defaultRasterHeight = 150

	maxRasterDimension = 8192
)

// PNG and JPEG go through rsvg-convert so text (axis labels, the watermark) is rendered.
// Without the binary they fall back to oksvg, which draws shapes only and skips <text>.

// canvasSize parses the document and returns the output size for the given width hint.
func canvasSize(icon *oksvg.SvgIcon, size *int) (int, int, error) {
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = defaultRasterWidth, defaultRasterHeight
	}
	if size != nil && *size > 0 {
		h = h * float64(*size) / w
		w = float64(*size)
	}

	width, height := int(math.Ceil(w)), int(math.Ceil(h))
	if width > maxRasterDimension || height > maxRasterDimension {
		return 0, 0, fmt.Errorf("raster size %dx%d exceeds the %d pixel limit", width, height, maxRasterDimension)
	}
	return max(width, 1), max(height, 1), nil
}

// prepareRaster reads the document and checks the output size before anything is drawn.
func prepareRaster(ctx context.Context, in io.Reader, size *int) ([]byte, *oksvg.SvgIcon, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	doc, err := io.ReadAll(in)
	if err != nil {
		return nil, nil, fmt.Errorf("reading svg: %w", err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing svg: %w", err)
	}
	if _, _, err := canvasSize(icon, size); err != nil {
		return nil, nil, err
	}
	return doc, icon, nil
}

// rasterize draws the parsed document onto an RGBA canvas with oksvg.
func rasterize(icon *oksvg.SvgIcon, size *int) (*image.RGBA, error) {
	width, height, err := canvasSize(icon, size)
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(width), float64(height))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}

// renderPNG writes the document as PNG, preferring rsvg-convert.
func renderPNG(ctx context.Context, rsvgPath string, in io.Reader, out io.Writer, size *int) error {
	doc, icon, err := prepareRaster(ctx, in, size)
	if err != nil {
		return err
	}
	if bin, err := exec.LookPath(rsvgPath); err == nil {
		return rsvgConvert(ctx, bin, "png", bytes.NewReader(doc), out, size)
	}

	img, err := rasterize(icon, size)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

type pngConverter struct {
	rsvgPath string
}

func (pngConverter) Type() Type          { return PNG }
func (pngConverter) ContentType() string { return "image/png" }
func (pngConverter) Extension() string   { return "png" }

func (c pngConverter) Convert(ctx context.Context, in io.Reader, out io.Writer, size *int) error {
	return renderPNG(ctx, c.rsvgPath, in, out, size)
}

type jpegConverter struct {
	rsvgPath string
	quality  int
}

func (jpegConverter) Type() Type          { return JPEG }
func (jpegConverter) ContentType() string { return "image/jpeg" }
func (jpegConverter) Extension() string   { return "jpg" }

// Convert renders the chart as PNG, then flattens it onto a white background; JPEG has no
// alpha channel.
func (c jpegConverter) Convert(ctx context.Context, in io.Reader, out io.Writer, size *int) error {
	var buf bytes.Buffer
	if err := renderPNG(ctx, c.rsvgPath, in, &buf, size); err != nil {
		return err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return fmt.Errorf("decoding png: %w", err)
	}

	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	if err := jpeg.Encode(out, flat, &jpeg.Options{Quality: c.quality}); err != nil {
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	return nil
}
