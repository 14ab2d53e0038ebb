package rpc

import (
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/metric"
	"TCPSpectra/internal/model"
	"TCPSpectra/internal/publish"
	"context"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Comparer runs one comparison. *compare.Runner satisfies it.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (*model.Report, error)
}

// Server implements CompareServiceServer on top of a Comparer.
type Server struct {
	comparer      Comparer
	documentsRoot string
}

// NewServer creates a Server. Input paths in requests are resolved against
// documentsRoot and may not leave it.
func NewServer(comparer Comparer, documentsRoot string) *Server {
	return &Server{comparer: comparer, documentsRoot: documentsRoot}
}

// Compare decodes the request, runs the comparison and encodes the report.
func (s *Server) Compare(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var body compare.RequestBody
	if err := publish.FromStruct(in, &body); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to decode request: %v", err)
	}

	req, err := body.RequestWithin(s.documentsRoot)
	if err != nil {
		return nil, toStatus(err)
	}

	report, err := s.comparer.Compare(ctx, req)
	if err != nil {
		log.Printf("Comparison failed (%s): %v", compare.Kind(err), err)
		return nil, toStatus(err)
	}

	out, err := publish.Encode(report)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

// toStatus maps comparison errors onto gRPC codes. Request problems are
// InvalidArgument; problems with the simulation output are FailedPrecondition.
func toStatus(err error) error {
	kind := compare.Kind(err)
	switch {
	case errors.Is(err, compare.ErrInvalidRequest), errors.Is(err, metric.ErrInvalidWindow):
		return status.Errorf(codes.InvalidArgument, "%s: %v", kind, err)
	case compare.IsDataError(err):
		return status.Errorf(codes.FailedPrecondition, "%s: %v", kind, err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: %v", kind, err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: %v", kind, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", kind, err)
	}
}

// NewGRPCServer creates a gRPC server with the comparison and health services registered.
func NewGRPCServer(comparer Comparer, documentsRoot string, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	RegisterCompareServiceServer(s, NewServer(comparer, documentsRoot))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}
