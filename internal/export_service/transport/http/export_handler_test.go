package http_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osbi/saiku_services/internal/export_service/app"
	"github.com/osbi/saiku_services/internal/export_service/assets"
	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/export_service/domain"
	adapter_http "github.com/osbi/saiku_services/internal/export_service/transport/http"
)

type MockTabularService struct {
	mock.Mock
}

func (m *MockTabularService) artifact(args mock.Arguments) (*domain.ExportArtifact, error) {
	if a := args.Get(0); a != nil {
		return a.(*domain.ExportArtifact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTabularService) ExportExcel(ctx context.Context, req domain.TabularExportRequest) (*domain.ExportArtifact, error) {
	return m.artifact(m.Called(ctx, req))
}

func (m *MockTabularService) ExportCSV(ctx context.Context, req domain.TabularExportRequest) (*domain.ExportArtifact, error) {
	return m.artifact(m.Called(ctx, req))
}

func (m *MockTabularService) ExportJSON(ctx context.Context, req domain.TabularExportRequest) (domain.QueryResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return domain.QueryResult(r.(string)), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTabularService) ExportHTML(ctx context.Context, req domain.TabularExportRequest) (*domain.ExportArtifact, error) {
	return m.artifact(m.Called(ctx, req))
}

var fixedNow = time.Date(2024, 3, 5, 15, 4, 5, 0, time.UTC)

func setupRouter(t *testing.T, version string) (http.Handler, *MockTabularService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tabular := new(MockTabularService)
	charts := app.NewChartExporter(converter.NewRegistry(), version, logger,
		app.WithClock(func() time.Time { return fixedNow }))
	handler := adapter_http.NewExportHandler(tabular, charts, logger, validator.New())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, tabular
}

func postChart(t *testing.T, router http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/saiku/admin/export/saiku/chart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestExportHandler_Chart_SVGCommunityBuild(t *testing.T) {
	router, _ := setupRouter(t, "3.90")

	rr := postChart(t, router, url.Values{"type": {"svg"}, "svg": {"<svg></svg>"}})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=chart-2024-03-05-030405.svg", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "<svg>"+assets.Watermark()+"</svg>", rr.Body.String())
	assert.Equal(t, strconv.Itoa(rr.Body.Len()), rr.Header().Get("Content-Length"))
}

func TestExportHandler_Chart_DefaultsToPNG(t *testing.T) {
	router, _ := setupRouter(t, "3.90-EE")

	rr := postChart(t, router, url.Values{
		"svg":  {`<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20"><rect width="40" height="20" fill="red"/></svg>`},
		"name": {"sales"},
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=sales.png", rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "\x89PNG"))
}

func TestExportHandler_Chart_Failures(t *testing.T) {
	router, _ := setupRouter(t, "3.90")

	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{"MissingSVG", url.Values{"type": {"png"}}, "Missing 'svg' parameter"},
		{"UnsupportedType", url.Values{"type": {"bmp"}, "svg": {"<svg></svg>"}}, "Missing converter."},
		{"InvalidSize", url.Values{"svg": {"<svg></svg>"}, "size": {"big"}}, `invalid size "big"`},
		{"SizeOutOfRange", url.Values{"svg": {"<svg></svg>"}, "size": {"9000"}}, "Size"},
		{"NameWithSlash", url.Values{"svg": {"<svg></svg>"}, "name": {"../etc/passwd"}}, "Name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postChart(t, router, tc.form)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.message)
			assert.Empty(t, rr.Header().Get("Content-Disposition"))
		})
	}
}

func TestExportHandler_Excel(t *testing.T) {
	router, tabular := setupRouter(t, "3.90")

	tabular.On("ExportExcel", mock.Anything, domain.TabularExportRequest{
		Username:   "admin",
		File:       "/homes/admin/sales.saiku",
		Formatter:  "flattened",
		Name:       "Sales",
		Parameters: map[string]string{"Year": "2012"},
		HTML:       domain.DefaultHTMLOptions(),
	}).Return(&domain.ExportArtifact{ContentType: "application/vnd.ms-excel", Filename: "Sales.xls", Body: []byte("XLS")}, nil).Once()

	req := httptest.NewRequest(http.MethodGet,
		"/saiku/admin/export/saiku/xls?file=/homes/admin/sales.saiku&formatter=flattened&name=Sales&paramYear=2012", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.ms-excel", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=Sales.xls", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", rr.Header().Get("Content-Length"))
	assert.Equal(t, "XLS", rr.Body.String())
	tabular.AssertExpectations(t)
}

func TestExportHandler_CSV_FallsBackToDeclaredType(t *testing.T) {
	router, tabular := setupRouter(t, "3.90")
	tabular.On("ExportCSV", mock.Anything, mock.MatchedBy(func(req domain.TabularExportRequest) bool {
		return req.File == "/a.saiku"
	})).Return(&domain.ExportArtifact{Body: []byte("a,b")}, nil).Once()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/csv?file=/a.saiku", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Empty(t, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b", rr.Body.String())
}

func TestExportHandler_JSON(t *testing.T) {
	router, tabular := setupRouter(t, "3.90")
	tabular.On("ExportJSON", mock.Anything, mock.Anything).Return(`{"cellset":[]}`, nil).Once()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/json?file=/a.saiku", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"cellset":[]}`, rr.Body.String())
}

func TestExportHandler_HTMLOptions(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.HTMLOptions
	}{
		{"Defaults", "", domain.HTMLOptions{CSS: false, TableOnly: false, WrapContent: true}},
		{"Overrides", "&css=true&tableonly=true&wrapcontent=false", domain.HTMLOptions{CSS: true, TableOnly: true, WrapContent: false}},
		{"NonTrueIsFalse", "&css=yes&tableonly=TRUE&wrapcontent=maybe", domain.HTMLOptions{CSS: false, TableOnly: true, WrapContent: false}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, tabular := setupRouter(t, "3.90")
			tabular.On("ExportHTML", mock.Anything, mock.MatchedBy(func(req domain.TabularExportRequest) bool {
				return req.HTML == tc.want
			})).Return(&domain.ExportArtifact{ContentType: "text/html; charset=utf-8", Body: []byte("<table/>")}, nil).Once()

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/html?file=/a.saiku"+tc.query, nil))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			tabular.AssertExpectations(t)
		})
	}

}

func TestExportHandler_TabularFailures(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		router, tabular := setupRouter(t, "3.90")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/xls", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Missing 'file' parameter", strings.TrimSpace(rr.Body.String()))
		tabular.AssertNotCalled(t, "ExportExcel", mock.Anything, mock.Anything)
	})

	t.Run("Upstream", func(t *testing.T) {
		router, tabular := setupRouter(t, "3.90")
		tabular.On("ExportJSON", mock.Anything, mock.Anything).
			Return(nil, domain.NewUpstreamError("get resource", errors.New("resource not found: /a.saiku"))).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/json?file=/a.saiku", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "get resource: resource not found: /a.saiku", strings.TrimSpace(rr.Body.String()))
	})
}

func TestExportHandler_RejectedRequestIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	tabular := new(MockTabularService)
	charts := app.NewChartExporter(converter.NewRegistry(), "3.90", logger)
	handler := adapter_http.NewExportHandler(tabular, charts, logger, validator.New())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	for _, format := range []string{"xls", "csv", "json", "html"} {
		logs.Reset()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/"+format+"?file=+", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code, format)
		assert.Contains(t, logs.String(), `msg="Error exporting `+strings.ToUpper(format)+` for file"`, format)
		assert.Contains(t, logs.String(), `file=" "`, format)
		assert.Contains(t, logs.String(), "username=admin", format)
	}
	tabular.AssertExpectations(t)
}

func TestExportHandler_Chart_ZeroSizeMeansNoHint(t *testing.T) {
	router, _ := setupRouter(t, "3.90-EE")
	rr := postChart(t, router, url.Values{"type": {"svg"}, "svg": {"<svg/>"}, "size": {"0"}})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<svg/>", rr.Body.String())
}
