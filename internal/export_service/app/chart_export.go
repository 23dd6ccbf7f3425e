package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/osbi/saiku_services/internal/export_service/assets"
	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/export_service/domain"
)

const (
	defaultChartType = "png"
	// yyyy-MM-dd-hhmmss: the hour is on a 12-hour clock with no AM/PM marker.
	chartTimestampLayout = "2006-01-02-030405"
	enterpriseMarker     = "EE"
)

// ConverterResolver looks up a converter by type name.
type ConverterResolver interface {
	Resolve(name string) (converter.Converter, bool)
}

// IsEnterpriseVersion reports whether version identifies an enterprise build.
func IsEnterpriseVersion(version string) bool {
	return strings.Contains(version, enterpriseMarker)
}

// ChartExporter converts chart SVG into downloadable files.
type ChartExporter struct {
	converters ConverterResolver
	enterprise bool
	watermark  string
	now        func() time.Time
	logger     *slog.Logger
}

// ChartOption customises a ChartExporter.
type ChartOption func(*ChartExporter)

// WithClock replaces time.Now for generated file names.
func WithClock(now func() time.Time) ChartOption {
	return func(e *ChartExporter) { e.now = now }
}

// WithWatermark replaces the bundled watermark fragment.
func WithWatermark(fragment string) ChartOption {
	return func(e *ChartExporter) { e.watermark = fragment }
}

// NewChartExporter creates a ChartExporter. version is the build version read at startup.
func NewChartExporter(converters ConverterResolver, version string, logger *slog.Logger, opts ...ChartOption) *ChartExporter {
	e := &ChartExporter{
		converters: converters,
		enterprise: IsEnterpriseVersion(version),
		watermark:  assets.Watermark(),
		now:        time.Now,
		logger:     logger.With("component", "chart_exporter"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export runs the chart pipeline: validate, watermark, convert, name.
func (e *ChartExporter) Export(ctx context.Context, req domain.ChartRequest) (*domain.ExportArtifact, error) {
	start := time.Now()
	label := "unknown"

	artifact, err := e.export(ctx, req, &label)
	observeExport("chart_"+label, start, err)
	if err != nil {
		e.logger.ErrorContext(ctx, "Error exporting chart", "type", req.Type, "kind", domain.ErrorKind(err), "error", err)
		return nil, err
	}
	chartOutputBytesHist.WithLabelValues(label).Observe(float64(len(artifact.Body)))
	e.logger.InfoContext(ctx, "Chart exported", "type", label, "filename", artifact.Filename, "bytes", len(artifact.Body))
	return artifact, nil
}

func (e *ChartExporter) export(ctx context.Context, req domain.ChartRequest, label *string) (*domain.ExportArtifact, error) {
	if strings.TrimSpace(req.SVG) == "" {
		return nil, domain.NewValidationError(domain.ErrMissingSVG)
	}

	svg := req.SVG
	if !e.enterprise {
		svg = insertWatermark(svg, e.watermark)
	}

	chartType := req.Type
	if strings.TrimSpace(chartType) == "" {
		chartType = defaultChartType
	}
	conv, ok := e.converters.Resolve(strings.ToUpper(chartType))
	if !ok {
		return nil, domain.NewValidationError(domain.ErrMissingConverter)
	}
	*label = strings.ToLower(string(conv.Type()))

	var out bytes.Buffer
	if err := conv.Convert(ctx, strings.NewReader(svg), &out, req.Size); err != nil {
		return nil, fmt.Errorf("converting chart to %s: %w", conv.Type(), err)
	}

	name := req.Name
	if name == "" {
		name = "chart-" + e.now().Format(chartTimestampLayout)
	}
	return &domain.ExportArtifact{
		ContentType: conv.ContentType(),
		Filename:    name + "." + conv.Extension(),
		Body:        out.Bytes(),
	}, nil
}

// insertWatermark places fragment immediately before the last closing </svg> tag. Documents
// without one are returned unchanged.
func insertWatermark(svg, fragment string) string {
	i := strings.LastIndex(svg, "</svg>")
	if i < 0 {
		return svg
	}
	return svg[:i] + fragment + svg[i:]
}
