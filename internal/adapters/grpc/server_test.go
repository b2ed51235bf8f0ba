package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestRegisterExposesHealthServiceOnce(t *testing.T) {
	server := grpc.NewServer()
	Register(server, NewPaymentInternalServer(nil))

	info := server.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Fatalf("health service not registered, got %v", info)
	}
	// Register is the only place the health service name may be bound;
	// a second binding anywhere would abort server construction.
	if len(info) != 1 {
		t.Fatalf("expected exactly one registered service, got %v", info)
	}
}

func TestHealthCheckReportsServing(t *testing.T) {
	srv := NewPaymentInternalServer(nil)
	resp, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.Status)
	}
}
