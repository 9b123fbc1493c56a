package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// HealthRegistrar exposes the standard grpc.health.v1 service so orchestrators and
// grpcurl can check the process without going through HTTP.
type HealthRegistrar struct {
	Health *health.Server
}

// NewHealthRegistrar creates a registrar whose overall status starts SERVING.
func NewHealthRegistrar() *HealthRegistrar {
	return &HealthRegistrar{Health: health.NewServer()}
}

// Register implements Registrar.
func (r *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, r.Health)
}

// SetServing flips the status of the named service ("" for the whole server).
func (r *HealthRegistrar) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	r.Health.SetServingStatus(service, st)
}
