package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

// TabularExporter runs stored queries through the query engine and returns the engine's
// Excel, CSV, JSON or HTML output.
type TabularExporter struct {
	repo       domain.Repository
	engine     domain.QueryEngine
	substitute map[domain.ExportFormat]bool
	newName    func() string
	logger     *slog.Logger
}

// NewTabularExporter creates a TabularExporter. substitutionFormats lists the formats whose
// stored query text gets ${name} parameter substitution before the query is created.
func NewTabularExporter(repo domain.Repository, engine domain.QueryEngine, substitutionFormats []domain.ExportFormat, logger *slog.Logger) *TabularExporter {
	substitute := make(map[domain.ExportFormat]bool, len(substitutionFormats))
	for _, f := range substitutionFormats {
		substitute[f] = true
	}
	return &TabularExporter{
		repo:       repo,
		engine:     engine,
		substitute: substitute,
		newName:    uuid.NewString,
		logger:     logger.With("component", "tabular_exporter"),
	}
}

// ParseSubstitutionFormats converts configured format names, rejecting unknown ones.
func ParseSubstitutionFormats(names []string) ([]domain.ExportFormat, error) {
	formats := make([]domain.ExportFormat, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, ok := domain.ParseExportFormat(name)
		if !ok {
			return nil, fmt.Errorf("unknown export format %q in parameter substitution formats", name)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// ExportExcel returns the engine's Excel workbook for the stored query.
func (e *TabularExporter) ExportExcel(ctx context.Context, req domain.TabularExportRequest) (artifact *domain.ExportArtifact, err error) {
	defer e.finish(ctx, domain.FormatExcel, req, time.Now(), &err)

	name, _, err := e.prepare(ctx, domain.FormatExcel, req)
	if err != nil {
		return nil, err
	}
	artifact, err = e.engine.ExcelExport(ctx, name, req.Formatter, req.Name)
	if err != nil {
		return nil, domain.NewUpstreamError("excel export", err)
	}
	return artifact, nil
}

// ExportCSV returns the engine's CSV export for the stored query.
func (e *TabularExporter) ExportCSV(ctx context.Context, req domain.TabularExportRequest) (artifact *domain.ExportArtifact, err error) {
	defer e.finish(ctx, domain.FormatCSV, req, time.Now(), &err)

	name, _, err := e.prepare(ctx, domain.FormatCSV, req)
	if err != nil {
		return nil, err
	}
	artifact, err = e.engine.CSVExport(ctx, name)
	if err != nil {
		return nil, domain.NewUpstreamError("csv export", err)
	}
	return artifact, nil
}

// ExportJSON returns the structured execution result of the stored query.
func (e *TabularExporter) ExportJSON(ctx context.Context, req domain.TabularExportRequest) (result domain.QueryResult, err error) {
	defer e.finish(ctx, domain.FormatJSON, req, time.Now(), &err)

	_, result, err = e.prepare(ctx, domain.FormatJSON, req)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExportHTML returns the engine's HTML rendering of the stored query.
func (e *TabularExporter) ExportHTML(ctx context.Context, req domain.TabularExportRequest) (artifact *domain.ExportArtifact, err error) {
	defer e.finish(ctx, domain.FormatHTML, req, time.Now(), &err)

	name, _, err := e.prepare(ctx, domain.FormatHTML, req)
	if err != nil {
		return nil, err
	}
	artifact, err = e.engine.HTMLExport(ctx, name, req.Formatter, req.HTML)
	if err != nil {
		return nil, domain.NewUpstreamError("html export", err)
	}
	return artifact, nil
}

// prepare loads the stored query, creates and executes it under a fresh name, and returns
// that name with the execution result.
func (e *TabularExporter) prepare(ctx context.Context, format domain.ExportFormat, req domain.TabularExportRequest) (string, domain.QueryResult, error) {
	resource, err := e.repo.GetResource(ctx, req.File)
	if err != nil {
		return "", nil, domain.NewUpstreamError("get resource", err)
	}
	if !utf8.Valid(resource.Content) {
		return "", nil, domain.NewUpstreamError("decode resource", fmt.Errorf("resource %q is not valid UTF-8 text", req.File))
	}

	text := string(resource.Content)
	if e.substitute[format] {
		text = SubstituteParameters(text, req.Parameters)
	}

	name := e.newName()
	query, err := e.engine.CreateQuery(ctx, name, text)
	if err != nil {
		return "", nil, domain.NewUpstreamError("create query", err)
	}
	if query == nil {
		return "", nil, domain.NewUpstreamError("create query", errors.New("query engine returned no query"))
	}

	query = query.WithParameters(req.Parameters)
	if strings.TrimSpace(req.Formatter) != "" {
		query = query.WithProperty(domain.FormatterPropertyKey, req.Formatter)
	}

	result, err := e.engine.Execute(ctx, query)
	if err != nil {
		return "", nil, domain.NewUpstreamError("execute query", err)
	}
	e.logger.DebugContext(ctx, "Query executed", "format", format, "file", req.File, "query_name", name)
	return name, result, nil
}

func (e *TabularExporter) finish(ctx context.Context, format domain.ExportFormat, req domain.TabularExportRequest, start time.Time, errp *error) {
	observeExport(string(format), start, *errp)
	if *errp != nil {
		e.logger.ErrorContext(ctx, "Error exporting "+strings.ToUpper(string(format))+" for file", "file", req.File, "username", req.Username, "error", *errp)
		return
	}
	e.logger.InfoContext(ctx, "Export completed", "format", format, "file", req.File, "username", req.Username, "duration", time.Since(start))
}
