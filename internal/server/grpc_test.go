package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
)

func startGRPC(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(RequestIDInterceptor))
	NewGRPCServer(f.svc, discard()).Register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_Extract(t *testing.T) {
	conn := startGRPC(t, newFixture(t))
	client := NewExtractionClient(conn)

	out, err := client.Call(context.Background(), "Extract", map[string]any{
		"text": klarnaReminder + "\n---\n" + affirmReminder,
		"mode": "legacy",
	})
	require.NoError(t, err)
	m := out.AsMap()
	require.Equal(t, "legacy", m["mode"])

	results := m["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	require.Equal(t, "success", first["kind"])
	payment := first["success"].(map[string]any)["payment"].(map[string]any)
	require.Equal(t, "Klarna", payment["provider"])
	require.Equal(t, "45.00", payment["amount"])

	schedules := m["schedules_by_provider"].(map[string]any)
	require.Contains(t, schedules, "Klarna")
	require.Contains(t, schedules, "Affirm")
}

func TestGRPC_InvalidMode(t *testing.T) {
	conn := startGRPC(t, newFixture(t))
	_, err := NewExtractionClient(conn).Call(context.Background(), "Extract", map[string]any{
		"text": klarnaReminder,
		"mode": "fuzzy",
	})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_SubmitThenGetBatch(t *testing.T) {
	f := newFixture(t)
	conn := startGRPC(t, f)
	client := NewExtractionClient(conn)
	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDHeader, "req-42")

	out, err := client.Call(ctx, "Submit", map[string]any{"text": klarnaReminder})
	require.NoError(t, err)
	id := out.GetFields()["batch_id"].GetStringValue()
	require.NotEmpty(t, id)

	f.queue.Shutdown(context.Background())

	rec, err := client.Call(ctx, "GetBatch", map[string]any{"batch_id": id})
	require.NoError(t, err)
	require.Equal(t, "DONE", rec.GetFields()["status"].GetStringValue())

	list, err := client.Call(ctx, "ListPayments", map[string]any{"batch_id": id, "provider": "klarna", "limit": 10})
	require.NoError(t, err)
	require.Len(t, list.GetFields()["payments"].GetListValue().GetValues(), 1)

	_, err = client.Call(ctx, "GetBatch", map[string]any{"batch_id": "6f1c8c1e-6a4e-4b0e-9b57-3b1f4c2d9a10"})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Call(ctx, "GetBatch", map[string]any{"batch_id": "not-a-uuid"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	conn := startGRPC(t, newFixture(t))
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRequestIDInterceptor(t *testing.T) {
	var seen string
	handler := func(ctx context.Context, _ any) (any, error) {
		seen = common.RequestIDFromContext(ctx)
		return nil, nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDHeader, "abc"))
	_, err := RequestIDInterceptor(ctx, nil, nil, handler)
	require.NoError(t, err)
	require.Equal(t, "abc", seen)

	_, err = RequestIDInterceptor(context.Background(), nil, nil, handler)
	require.NoError(t, err)
	require.Len(t, seen, 36)
}

func TestToStruct(t *testing.T) {
	s, err := toStruct(map[string]any{"a": 1, "b": []string{"x"}})
	require.NoError(t, err)
	require.Equal(t, float64(1), s.GetFields()["a"].GetNumberValue())
	require.Equal(t, "x", s.GetFields()["b"].GetListValue().GetValues()[0].GetStringValue())
	require.Equal(t, "", stringField(&structpb.Struct{}, "missing"))
}
