package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/osbi/saiku_services/internal/export_service/domain"
	"github.com/osbi/saiku_services/internal/platform/messagebroker"
)

// ChartExportService converts chart requests; *ChartExporter implements it.
type ChartExportService interface {
	Export(ctx context.Context, req domain.ChartRequest) (*domain.ExportArtifact, error)
}

// chartRequestMessage is the JSON body of a chart request received over NATS.
type chartRequestMessage struct {
	Type string `json:"type"`
	SVG  string `json:"svg"`
	Size *int   `json:"size,omitempty"`
	Name string `json:"name,omitempty"`
}

// chartReplyMessage answers a chart request. Data is base64 in JSON.
type chartReplyMessage struct {
	Error    string         `json:"error,omitempty"`
	Artifact *chartArtifact `json:"artifact,omitempty"`
}

type chartArtifact struct {
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
	Data        []byte `json:"data"`
}

// ChartRequestConsumer serves chart exports to other services over NATS request/reply and
// publishes a completed or failed event for each request.
type ChartRequestConsumer struct {
	charts    ChartExportService
	publisher messagebroker.Publisher
	subject   string
	logger    *slog.Logger
}

// NewChartRequestConsumer creates a consumer for requests on subject.
func NewChartRequestConsumer(charts ChartExportService, publisher messagebroker.Publisher, subject string, logger *slog.Logger) *ChartRequestConsumer {
	return &ChartRequestConsumer{
		charts:    charts,
		publisher: publisher,
		subject:   subject,
		logger:    logger.With("component", "chart_request_consumer"),
	}
}

// Subject is the subject the consumer serves.
func (c *ChartRequestConsumer) Subject() string { return c.subject }

// HandleChartRequest converts one request and replies with the artifact or the error message.
func (c *ChartRequestConsumer) HandleChartRequest(ctx context.Context, msg messagebroker.Message) {
	natsChartRequestsReceived.WithLabelValues(msg.Subject()).Inc()

	var req chartRequestMessage
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal chart request", "error", err, "data_len", len(msg.Data()))
		c.reply(ctx, msg, chartReplyMessage{Error: "invalid chart request: " + err.Error()})
		return
	}

	artifact, err := c.charts.Export(ctx, domain.ChartRequest{Type: req.Type, SVG: req.SVG, Size: req.Size, Name: req.Name})
	if err != nil {
		c.reply(ctx, msg, chartReplyMessage{Error: err.Error()})
		c.publish(ctx, c.subject+domain.ChartExportFailedSuffix, domain.ChartExportFailedEvent{
			Type:         req.Type,
			Kind:         domain.ErrorKind(err),
			ErrorMessage: err.Error(),
		})
		return
	}

	c.reply(ctx, msg, chartReplyMessage{Artifact: &chartArtifact{
		ContentType: artifact.ContentType,
		Filename:    artifact.Filename,
		Data:        artifact.Body,
	}})
	c.publish(ctx, c.subject+domain.ChartExportCompletedSuffix, domain.ChartExportCompletedEvent{
		Type:        req.Type,
		Filename:    artifact.Filename,
		ContentType: artifact.ContentType,
		Bytes:       len(artifact.Body),
	})
}

func (c *ChartRequestConsumer) reply(ctx context.Context, msg messagebroker.Message, reply chartReplyMessage) {
	payload, err := json.Marshal(reply)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to marshal chart reply", "error", err)
		return
	}
	if err := msg.Respond(payload); err != nil {
		c.logger.WarnContext(ctx, "Failed to answer chart request", "subject", msg.Subject(), "error", err)
	}
}

func (c *ChartRequestConsumer) publish(ctx context.Context, subject string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to marshal chart export event", "subject", subject, "error", err)
		return
	}
	// The request context may already be gone; events are best-effort.
	if err := c.publisher.Publish(context.WithoutCancel(ctx), subject, payload); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish chart export event", "subject", subject, "error", err)
	}
}
