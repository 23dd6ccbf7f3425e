package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/osbi/saiku_services/internal/export_service/app"
	"github.com/osbi/saiku_services/internal/export_service/domain"
)

// TabularExportService runs the Excel, CSV, JSON and HTML exports.
type TabularExportService interface {
	ExportExcel(ctx context.Context, req domain.TabularExportRequest) (*domain.ExportArtifact, error)
	ExportCSV(ctx context.Context, req domain.TabularExportRequest) (*domain.ExportArtifact, error)
	ExportJSON(ctx context.Context, req domain.TabularExportRequest) (domain.QueryResult, error)
	ExportHTML(ctx context.Context, req domain.TabularExportRequest) (*domain.ExportArtifact, error)
}

// ChartExportService converts posted SVG charts.
type ChartExportService interface {
	Export(ctx context.Context, req domain.ChartRequest) (*domain.ExportArtifact, error)
}

var errMissingFile = errors.New("Missing 'file' parameter")

type ExportHandler struct {
	tabular  TabularExportService
	charts   ChartExportService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewExportHandler(tabular TabularExportService, charts ChartExportService, logger *slog.Logger, validate *validator.Validate) *ExportHandler {
	return &ExportHandler{
		tabular:  tabular,
		charts:   charts,
		logger:   logger.With("component", "export_handler"),
		validate: validate,
	}
}

// RegisterRoutes mounts the export endpoints under /saiku/{username}/export.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/saiku/{username}/export/saiku", func(r chi.Router) {
		r.Get("/xls", h.ExportExcel)
		r.Get("/csv", h.ExportCSV)
		r.Get("/json", h.ExportJSON)
		r.Get("/html", h.ExportHTML)
		r.Post("/chart", h.ExportChart)
	})
}

func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "XLS", "application/json", false, h.tabular.ExportExcel)
}

func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "CSV", "application/json", false, h.tabular.ExportCSV)
}

func (h *ExportHandler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "HTML", "text/html", true, h.tabular.ExportHTML)
}

func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := tabularRequest(r, false)
	if err != nil {
		h.logRequestError(r, "JSON", req.File, err)
		respondWithError(w, err)
		return
	}
	result, err := h.tabular.ExportJSON(ctx, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result); err != nil {
		h.requestLogger(r).WarnContext(ctx, "Failed to write JSON export", "file", req.File, "error", err)
	}
}

func (h *ExportHandler) serveArtifact(w http.ResponseWriter, r *http.Request, format, declaredType string, html bool,
	export func(context.Context, domain.TabularExportRequest) (*domain.ExportArtifact, error)) {
	ctx := r.Context()
	req, err := tabularRequest(r, html)
	if err != nil {
		h.logRequestError(r, format, req.File, err)
		respondWithError(w, err)
		return
	}
	artifact, err := export(ctx, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if err := respondWithArtifact(w, artifact, declaredType); err != nil {
		h.requestLogger(r).WarnContext(ctx, "Failed to write export", "file", req.File, "error", err)
	}
}

func (h *ExportHandler) ExportChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Failed to parse chart form", "error", err)
		respondWithError(w, domain.NewValidationError(fmt.Errorf("invalid form body: %w", err)))
		return
	}

	form := ChartFormDTO{
		Type: strings.TrimSpace(r.PostForm.Get("type")),
		SVG:  r.PostForm.Get("svg"),
		Name: r.PostForm.Get("name"),
	}
	if raw := strings.TrimSpace(r.PostForm.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, domain.NewValidationError(fmt.Errorf("invalid size %q", raw)))
			return
		}
		form.Size = &size
	}
	if err := h.validate.StructCtx(ctx, form); err != nil {
		logger.WarnContext(ctx, "Validation failed for chart export", "type", form.Type, "error", err)
		respondWithError(w, domain.NewValidationError(err))
		return
	}

	artifact, err := h.charts.Export(ctx, domain.ChartRequest{Type: form.Type, SVG: form.SVG, Size: form.Size, Name: form.Name})
	if err != nil {
		respondWithError(w, err)
		return
	}
	if err := respondWithArtifact(w, artifact, "image/png"); err != nil {
		logger.WarnContext(ctx, "Failed to write chart", "type", form.Type, "error", err)
	}
}

// logRequestError records a request rejected before the export ran. Export failures are
// logged by the app layer.
func (h *ExportHandler) logRequestError(r *http.Request, format, file string, err error) {
	h.requestLogger(r).ErrorContext(r.Context(), "Error exporting "+format+" for file", "file", file, "error", err)
}

func (h *ExportHandler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", chimiddleware.GetReqID(r.Context()), "username", chi.URLParam(r, "username"))
}

// tabularRequest reads the query string shared by the tabular endpoints.
func tabularRequest(r *http.Request, html bool) (domain.TabularExportRequest, error) {
	q := r.URL.Query()
	req := domain.TabularExportRequest{
		Username:   chi.URLParam(r, "username"),
		File:       q.Get("file"),
		Formatter:  q.Get("formatter"),
		Name:       q.Get("name"),
		Parameters: app.ExtractParameters(q),
		HTML:       domain.DefaultHTMLOptions(),
	}
	if strings.TrimSpace(req.File) == "" {
		return req, domain.NewValidationError(errMissingFile)
	}
	if !html {
		return req, nil
	}

	req.HTML.CSS = boolParam(q, "css", req.HTML.CSS)
	req.HTML.TableOnly = boolParam(q, "tableonly", req.HTML.TableOnly)
	req.HTML.WrapContent = boolParam(q, "wrapcontent", req.HTML.WrapContent)
	return req, nil
}

// boolParam reads an optional flag: blank keeps def, "true" (any case) is true and anything
// else is false.
func boolParam(q url.Values, key string, def bool) bool {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def
	}
	return strings.EqualFold(raw, "true")
}
