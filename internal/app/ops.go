package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/ordermgmt/internal/health"
)

const healthSyncInterval = 10 * time.Second

// newOpsMux — эндпоинты для Prometheus и проб оркестратора.
func newOpsMux(checks *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checks)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", checks.ReadinessHandler)
	return mux
}

// grpcHealthServer — стандартный grpc.health.v1 поверх тех же проверок, что и /readyz.
type grpcHealthServer struct {
	server *grpc.Server
	health *health.Server
	cancel context.CancelFunc
}

func startGRPCHealth(
	ctx context.Context,
	addr string,
	checks *healthcheck.Handler,
	registerer prometheus.Registerer,
	logger *log.Entry,
	errCh chan<- error,
) (*grpcHealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc health %s: %w", addr, err)
	}

	grpcMetrics := promgrpc.NewServerMetrics()
	if err := registerer.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)

	watchCtx, cancel := context.WithCancel(ctx)
	syncServingStatus(watchCtx, checks, hs)
	go func() {
		ticker := time.NewTicker(healthSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				syncServingStatus(watchCtx, checks, hs)
			}
		}
	}()

	go func() {
		logger.Infof("gRPC health слушает %s", lis.Addr())
		if err := server.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc health server: %w", err)
		}
	}()

	return &grpcHealthServer{server: server, health: hs, cancel: cancel}, nil
}

// syncServingStatus переносит результат проверок в статус gRPC health.
func syncServingStatus(ctx context.Context, checks *healthcheck.Handler, hs *health.Server) {
	status := healthpb.HealthCheckResponse_SERVING
	if checks.Run(ctx).Status == healthcheck.StatusUnhealthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
}

func (g *grpcHealthServer) stop(timeout time.Duration, logger *log.Entry) {
	if g == nil {
		return
	}
	g.cancel()
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		g.server.Stop()
	}
}
