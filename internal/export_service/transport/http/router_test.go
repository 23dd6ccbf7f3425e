package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osbi/saiku_services/internal/export_service/app"
	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/export_service/domain"
	adapter_http "github.com/osbi/saiku_services/internal/export_service/transport/http"
)

func newTestRouter(t *testing.T) (http.Handler, *MockTabularService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tabular := new(MockTabularService)
	charts := app.NewChartExporter(converter.NewRegistry(), "3.90", logger)
	handler := adapter_http.NewExportHandler(tabular, charts, logger, validator.New())
	return adapter_http.NewRouter(handler, "3.90"), tabular
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","version":"3.90"}`, rr.Body.String())
}

func TestRouter_MetricsExposeRouteCounters(t *testing.T) {
	router, tabular := newTestRouter(t)
	tabular.On("ExportJSON", mock.Anything, mock.Anything).Return(`{}`, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/json?file=/a.saiku", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `saiku_export_http_requests_total{method="GET",path="/saiku/{username}/export/saiku/json",status_code="200"}`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/pdf?file=/a.saiku", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_ExportsRunWithoutDeadline(t *testing.T) {
	router, tabular := newTestRouter(t)
	tabular.On("ExportCSV", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_, hasDeadline := args.Get(0).(context.Context).Deadline()
			assert.False(t, hasDeadline, "export request must not be given a deadline")
		}).
		Return(&domain.ExportArtifact{ContentType: "text/csv", Filename: "a.csv", Body: []byte("x")}, nil).Once()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saiku/admin/export/saiku/csv?file=/a.saiku", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	tabular.AssertExpectations(t)
}
