package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bnpl.v1.ExtractionService"

// ExtractionServer is the gRPC contract. Messages are google.protobuf.Struct
// documents carrying the same JSON the HTTP surface uses.
type ExtractionServer interface {
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPayments(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ExtractionServiceDesc registers an ExtractionServer on a grpc.Server.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: unary("Extract", ExtractionServer.Extract)},
		{MethodName: "Submit", Handler: unary("Submit", ExtractionServer.Submit)},
		{MethodName: "GetBatch", Handler: unary("GetBatch", ExtractionServer.GetBatch)},
		{MethodName: "ListPayments", Handler: unary("ListPayments", ExtractionServer.ListPayments)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bnpl/v1/extraction.proto",
}

func unary(method string, call func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	full := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCServer adapts ExtractionService to the gRPC contract.
type GRPCServer struct {
	svc    *ExtractionService
	logger *slog.Logger
}

func NewGRPCServer(svc *ExtractionService, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCServer{svc: svc, logger: logger}
}

var _ ExtractionServer = (*GRPCServer)(nil)

// Register wires the extraction service plus health and reflection onto s.
func (g *GRPCServer) Register(s *grpc.Server) *health.Server {
	s.RegisterService(&ExtractionServiceDesc, g)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)
	return hs
}

// Extract expects {"text": "...", "mode": "legacy|scored"} and returns the BatchResult.
func (g *GRPCServer) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := g.svc.Extract(ctx, extractRequest(in))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return g.reply(res)
}

// Submit queues the batch and returns {"batch_id": "..."}.
func (g *GRPCServer) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := g.svc.Submit(ctx, extractRequest(in))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return g.reply(map[string]string{"batch_id": id.String()})
}

// GetBatch expects {"batch_id": "..."}.
func (g *GRPCServer) GetBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	rec, err := g.svc.Batch(ctx, stringField(in, "batch_id"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return g.reply(rec)
}

// ListPayments accepts optional batch_id, provider, from, to and limit.
func (g *GRPCServer) ListPayments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	payments, err := g.svc.Payments(ctx, PaymentQuery{
		BatchID:  stringField(in, "batch_id"),
		Provider: stringField(in, "provider"),
		From:     stringField(in, "from"),
		To:       stringField(in, "to"),
		Limit:    int(in.GetFields()["limit"].GetNumberValue()),
	})
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return g.reply(map[string]any{"payments": payments})
}

func (g *GRPCServer) reply(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		g.logger.Error("grpc.reply.encode_failed", "error", err)
		return nil, common.InternalError("encode response")
	}
	return out, nil
}

func extractRequest(in *structpb.Struct) ExtractRequest {
	return ExtractRequest{Text: stringField(in, "text"), Mode: stringField(in, "mode")}
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// toStruct round-trips v through its JSON form so the gRPC payload matches
// the HTTP body exactly.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// RequestIDInterceptor copies x-request-id from incoming metadata into the
// context, minting one when the caller sent none.
func RequestIDInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDHeader); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	return handler(common.WithRequestID(ctx, id), req)
}

// ExtractionClient is a thin client for the Struct-based service.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

// Call invokes method with in and returns the decoded response.
func (c *ExtractionClient) Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
