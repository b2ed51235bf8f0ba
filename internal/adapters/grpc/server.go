package grpc

import (
	"context"

	"github.com/bozorapp/payment-service/internal/application"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// PaymentInternalServer exposes the health probe used by the mesh. Internal
// payment queries go over HTTP; this surface exists for orchestration.
type PaymentInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewPaymentInternalServer(service *application.Service) *PaymentInternalServer {
	return &PaymentInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *PaymentInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *PaymentInternalServer) Check(_ context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *PaymentInternalServer) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
