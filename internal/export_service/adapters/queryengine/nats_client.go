package queryengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/osbi/saiku_services/internal/platform/messagebroker"
)

type natsTransport struct {
	requester messagebroker.Requester
	prefix    string
}

func (t *natsTransport) roundTrip(ctx context.Context, op operation, payload []byte) ([]byte, error) {
	return t.requester.Request(ctx, t.prefix+"."+op.subject, payload)
}

// NewNATSClient returns a query engine client that sends requests to <prefix>.<operation>.
// timeout bounds each request; NATS requests need a deadline, so it should be positive.
func NewNATSClient(requester messagebroker.Requester, prefix string, timeout time.Duration, logger *slog.Logger) *Client {
	return newClient(
		&natsTransport{requester: requester, prefix: prefix},
		timeout,
		logger.With("component", "query_engine_nats", "prefix", prefix),
	)
}
