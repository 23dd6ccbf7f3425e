package queryengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the gRPC service the engine registers.
const ServiceName = "saiku.query.v1.QueryService"

type grpcTransport struct {
	conn grpc.ClientConnInterface
}

// roundTrip carries the JSON payloads as google.protobuf.Struct messages. Struct numbers are
// doubles, so an engine returns large-integer results in the resultJson string field.
func (t *grpcTransport) roundTrip(ctx context.Context, op operation, payload []byte) ([]byte, error) {
	in := new(structpb.Struct)
	if err := protojson.Unmarshal(payload, in); err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op.method, err)
	}
	out := new(structpb.Struct)
	if err := t.conn.Invoke(ctx, "/"+ServiceName+"/"+op.method, in, out); err != nil {
		return nil, fmt.Errorf("calling %s: %w", op.method, err)
	}
	return protojson.Marshal(out)
}

// DialGRPC connects to the engine at target. Extra options are appended to the insecure
// transport credentials.
func DialGRPC(ctx context.Context, target string, logger *slog.Logger, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.DialContext(ctx, target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to query engine at %s: %w", target, err)
	}
	logger.Info("Connected to query engine via gRPC", "target", target)
	return conn, nil
}

// NewGRPCClient returns a query engine client over conn.
func NewGRPCClient(conn grpc.ClientConnInterface, timeout time.Duration, logger *slog.Logger) *Client {
	return newClient(&grpcTransport{conn: conn}, timeout, logger.With("component", "query_engine_grpc"))
}
