// Package converter turns SVG charts into downloadable image and document formats.
//
// The set of converters is fixed: PNG, JPEG and PDF are produced by librsvg's rsvg-convert
// (PNG and JPEG fall back to an in-process rasteriser without it), and SVG is passed through
// unchanged. Lookups are case-insensitive.
package converter

import (
	"context"
	"io"
	"sort"
	"strings"
)

// Type identifies a converter.
type Type string

const (
	PNG  Type = "PNG"
	JPEG Type = "JPEG"
	PDF  Type = "PDF"
	SVG  Type = "SVG"
)

// aliases maps alternative spellings onto a Type.
var aliases = map[string]Type{
	"JPG": JPEG,
}

// Converter transforms an SVG document into another format.
//
// Convert writes the complete output to out or returns an error. Output written before a
// failure is not rolled back; callers buffer and discard it.
type Converter interface {
	Type() Type
	ContentType() string
	Extension() string
	Convert(ctx context.Context, in io.Reader, out io.Writer, size *int) error
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	rsvgConvertPath string
}

// WithRsvgConvert sets the rsvg-convert binary used by the PNG, JPEG and PDF converters.
func WithRsvgConvert(path string) Option {
	return func(o *registryOptions) {
		if path != "" {
			o.rsvgConvertPath = path
		}
	}
}

// Registry resolves converters by type name.
type Registry struct {
	converters map[Type]Converter
}

// NewRegistry builds the registry of all supported converters.
func NewRegistry(opts ...Option) *Registry {
	o := registryOptions{rsvgConvertPath: "rsvg-convert"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		converters: map[Type]Converter{
			PNG:  pngConverter{rsvgPath: o.rsvgConvertPath},
			JPEG: jpegConverter{rsvgPath: o.rsvgConvertPath, quality: 90},
			PDF:  pdfConverter{rsvgPath: o.rsvgConvertPath},
			SVG:  svgConverter{},
		},
	}
}

// Resolve returns the converter for name, ignoring case. ok is false for unknown types.
func (r *Registry) Resolve(name string) (c Converter, ok bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(name)))
	if alias, isAlias := aliases[string(t)]; isAlias {
		t = alias
	}
	c, ok = r.converters[t]
	return c, ok
}

// Types lists the supported converter types in name order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.converters))
	for t := range r.converters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

var defaultRegistry = NewRegistry()

// ByType resolves name against the default registry.
func ByType(name string) (Converter, bool) {
	return defaultRegistry.Resolve(name)
}
