package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

var (
	exportRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saiku_export",
			Name:      "requests_total",
			Help:      "Total number of export requests processed.",
		},
		[]string{"format", "status"}, // status: success, validation, upstream, internal
	)

	exportDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "saiku_export",
			Name:      "duration_seconds",
			Help:      "Duration of export requests, including query execution.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	chartOutputBytesHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "saiku_export",
			Name:      "chart_output_bytes",
			Help:      "Size of converted chart payloads.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
		},
		[]string{"type"},
	)

	natsChartRequestsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saiku_export",
			Name:      "nats_chart_requests_received_total",
			Help:      "Chart requests received over NATS.",
		},
		[]string{"subject"},
	)
)

// observeExport records the outcome of one export under the given format label.
func observeExport(format string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = domain.ErrorKind(err)
	}
	exportRequestsCounter.WithLabelValues(format, status).Inc()
	exportDurationHist.WithLabelValues(format).Observe(time.Since(start).Seconds())
}
