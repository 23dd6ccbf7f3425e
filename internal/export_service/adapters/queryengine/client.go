// Package queryengine implements domain.QueryEngine against a remote query service,
// over NATS request/reply or gRPC.
package queryengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

// operation identifies one remote call. subject is used on NATS, method on gRPC.
type operation struct {
	subject string
	method  string
}

var (
	opCreate  = operation{subject: "create", method: "CreateQuery"}
	opExecute = operation{subject: "execute", method: "Execute"}
	opExcel   = operation{subject: "export.xls", method: "ExcelExport"}
	opCSV     = operation{subject: "export.csv", method: "CSVExport"}
	opHTML    = operation{subject: "export.html", method: "HTMLExport"}
)

// transport sends one JSON request and returns the JSON reply envelope.
type transport interface {
	roundTrip(ctx context.Context, op operation, payload []byte) ([]byte, error)
}

// EngineError is a failure reported by the query engine itself.
type EngineError struct {
	Op      string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("query engine %s: %s", e.Op, e.Message)
}

// ErrEmptyReply is returned when a reply lacks the field the call expects.
var ErrEmptyReply = errors.New("query engine returned an empty reply")

// Client is a domain.QueryEngine backed by a remote transport.
type Client struct {
	transport transport
	timeout   time.Duration
	logger    *slog.Logger
}

var _ domain.QueryEngine = (*Client)(nil)

func newClient(t transport, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{transport: t, timeout: timeout, logger: logger}
}

func (c *Client) CreateQuery(ctx context.Context, name, queryText string) (*domain.ThinQuery, error) {
	env, err := c.call(ctx, opCreate, createRequest{Name: name, Query: queryText})
	if err != nil {
		return nil, err
	}
	if env.Query == nil {
		return nil, fmt.Errorf("%s: %w", opCreate.method, ErrEmptyReply)
	}
	return env.Query, nil
}

func (c *Client) Execute(ctx context.Context, query *domain.ThinQuery) (domain.QueryResult, error) {
	env, err := c.call(ctx, opExecute, executeRequest{Query: query})
	if err != nil {
		return nil, err
	}
	result, err := env.result()
	if err != nil {
		return nil, fmt.Errorf("decoding %s reply: %w", opExecute.method, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", opExecute.method, ErrEmptyReply)
	}
	return domain.QueryResult(result), nil
}

func (c *Client) ExcelExport(ctx context.Context, queryName, formatter, displayName string) (*domain.ExportArtifact, error) {
	return c.export(ctx, opExcel, excelRequest{QueryName: queryName, Formatter: formatter, Name: displayName})
}

func (c *Client) CSVExport(ctx context.Context, queryName string) (*domain.ExportArtifact, error) {
	return c.export(ctx, opCSV, csvRequest{QueryName: queryName})
}

func (c *Client) HTMLExport(ctx context.Context, queryName, formatter string, opts domain.HTMLOptions) (*domain.ExportArtifact, error) {
	return c.export(ctx, opHTML, htmlRequest{
		QueryName:   queryName,
		Formatter:   formatter,
		CSS:         opts.CSS,
		TableOnly:   opts.TableOnly,
		WrapContent: opts.WrapContent,
	})
}

func (c *Client) export(ctx context.Context, op operation, req any) (*domain.ExportArtifact, error) {
	env, err := c.call(ctx, op, req)
	if err != nil {
		return nil, err
	}
	if env.Artifact == nil {
		return nil, fmt.Errorf("%s: %w", op.method, ErrEmptyReply)
	}
	return env.Artifact.toDomain(), nil
}

func (c *Client) call(ctx context.Context, op operation, req any) (*envelope, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op.method, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.transport.roundTrip(ctx, op, payload)
	if err != nil {
		c.logger.ErrorContext(ctx, "Query engine call failed", "method", op.method, "duration", time.Since(start), "error", err)
		return nil, err
	}
	c.logger.DebugContext(ctx, "Query engine call completed", "method", op.method, "duration", time.Since(start))

	var env envelope
	if err := json.Unmarshal(reply, &env); err != nil {
		return nil, fmt.Errorf("decoding %s reply: %w", op.method, err)
	}
	if env.Error != "" {
		return nil, &EngineError{Op: op.method, Message: env.Error}
	}
	return &env, nil
}
