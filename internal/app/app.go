// Package app собирает сервис заказов: хранилище, сервисы, HTTP API,
// метрики, health-пробы и публикацию событий.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/ordermgmt/internal/health"
	"github.com/vladislavdragonenkov/ordermgmt/internal/metrics"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/auth"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/catalog"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/orders"
	"github.com/vladislavdragonenkov/ordermgmt/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/ordermgmt/internal/version"
)

const healthCheckTimeout = 2 * time.Second

// runtime — собранные компоненты процесса.
type runtime struct {
	backend *storageBackend
	events  *eventPipeline
	api     http.Handler
	health  *healthcheck.Handler
	logger  *log.Entry
	timeout time.Duration
}

// newRuntime открывает хранилище и собирает сервисы. Ошибка Kafka не
// фатальна: сервис продолжает работу без публикации событий.
func newRuntime(ctx context.Context, cfg Config, registerer prometheus.Registerer, logger *log.Entry) (*runtime, error) {
	policy, err := domain.ParseCancelPolicy(cfg.CancelPolicy)
	if err != nil {
		return nil, err
	}

	backend, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	secret, err := authSecret(cfg, logger)
	if err != nil {
		_ = backend.close()
		return nil, err
	}
	tokens, err := auth.NewTokenManager(secret, cfg.AuthTokenTTL)
	if err != nil {
		_ = backend.close()
		return nil, err
	}

	rt := &runtime{backend: backend, logger: logger, timeout: cfg.ShutdownTimeout}

	events, err := startEvents(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
	}
	rt.events = events

	opts := []orders.Option{
		orders.WithLogger(logger.WithField("layer", "orders")),
		orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(registerer)),
		orders.WithCancelPolicy(policy),
	}
	if events != nil {
		opts = append(opts, orders.WithPublisher(events.publisher()))
	}

	ordersSvc := orders.NewService(backend.storage, opts...)
	catalogSvc := catalog.NewService(backend.storage, logger.WithField("layer", "catalog"))
	authSvc := auth.NewService(backend.storage.Users, tokens, auth.WithLogger(logger.WithField("layer", "auth")))
	rt.api = httpapi.NewHandler(ordersSvc, catalogSvc, authSvc, logger.WithField("layer", "http")).Router()

	rt.health = healthcheck.NewHandler(healthCheckTimeout)
	rt.health.Register("storage", true, backend.ping)

	logger.WithFields(log.Fields{
		"storage":       backend.driver,
		"cancel_policy": policy,
		"events":        events != nil,
	}).Info("runtime initialized")
	return rt, nil
}

func (rt *runtime) close() {
	rt.events.stop(rt.timeout, rt.logger)
	if err := rt.backend.close(); err != nil {
		rt.logger.WithError(err).Warn("failed to close storage")
	}
}

// authSecret возвращает ключ подписи токенов. Без настроенного ключа
// генерируется случайный: токены не переживут перезапуск.
func authSecret(cfg Config, logger *log.Entry) ([]byte, error) {
	if cfg.AuthSecret != "" {
		return []byte(cfg.AuthSecret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	logger.Warn("ORDERMGMT_AUTH_SECRET is not set, using an ephemeral signing key")
	return secret, nil
}

// Run запускает HTTP API, сервер метрик и (опционально) gRPC health и
// блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.WithField("component", "app")
	logger.WithFields(version.Get().Fields()).Info("starting order service")

	rt, err := newRuntime(ctx, cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	errCh := make(chan error, 3)

	apiLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	apiSrv := &http.Server{Handler: rt.api, ReadHeaderTimeout: 5 * time.Second}
	serveHTTP("api", apiSrv, apiLis, logger, errCh)

	var opsSrv *http.Server
	if cfg.MetricsAddr != "" {
		opsLis, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
			return fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
		}
		opsSrv = &http.Server{Handler: newOpsMux(rt.health), ReadHeaderTimeout: 5 * time.Second}
		serveHTTP("metrics", opsSrv, opsLis, logger, errCh)
	}

	var grpcHealth *grpcHealthServer
	if cfg.GRPCHealthAddr != "" {
		grpcHealth, err = startGRPCHealth(ctx, cfg.GRPCHealthAddr, rt.health, prometheus.DefaultRegisterer, logger, errCh)
		if err != nil {
			shutdownHTTP(opsSrv, cfg.ShutdownTimeout, logger)
			shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
			return err
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		runErr = ctx.Err()
	case runErr = <-errCh:
		logger.WithError(runErr).Error("server failed, shutting down")
	}

	grpcHealth.stop(cfg.ShutdownTimeout, logger)
	shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
	shutdownHTTP(opsSrv, cfg.ShutdownTimeout, logger)
	return runErr
}

func serveHTTP(name string, srv *http.Server, lis net.Listener, logger *log.Entry, errCh chan<- error) {
	go func() {
		logger.WithField("server", name).Infof("слушаем %s", lis.Addr())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
