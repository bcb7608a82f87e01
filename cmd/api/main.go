package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vogiaan1904/thequeue/config"
	grpcDelivery "github.com/vogiaan1904/thequeue/internal/delivery/grpc"
	httpDelivery "github.com/vogiaan1904/thequeue/internal/delivery/http"
	"github.com/vogiaan1904/thequeue/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/thequeue/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/thequeue/internal/queue"
	"github.com/vogiaan1904/thequeue/internal/realtime"
	"github.com/vogiaan1904/thequeue/internal/service"
	pkgKafka "github.com/vogiaan1904/thequeue/pkg/kafka"
	pkgLog "github.com/vogiaan1904/thequeue/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	defer l.Sync()

	repos, err := openRepositories(ctx, cfg, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer repos.close()
	l.Infof(ctx, "Using %s store", cfg.Store.Driver)

	// Event mirror
	var mirror service.EventMirror
	if cfg.Kafka.Enabled {
		kProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod := producer.NewProducer(kProd, cfg.Kafka.EventsTopic, l)
		mirror = prod
		defer func() {
			if err := prod.Close(); err != nil {
				l.Errorf(ctx, "Failed to close Kafka producer: %v", err)
			}
		}()
	}

	// Initialize services
	store := queue.NewStore(repos.requests, l)
	disp := realtime.NewDispatcher(realtime.NewRegistry(), l)
	qSvc := service.NewQueueService(store, repos.sessions, repos.requests, disp, mirror, l)
	ssSvc := service.NewSessionService(repos.sessions, qSvc, cfg.Auth, nil, l)

	// Command consumer
	if cfg.Kafka.Enabled {
		kConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.ConsumerGroupID,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons := consumer.NewConsumer(kConsGr, qSvc, cfg.Kafka.CommandsTopic, l)
		if err := cons.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		defer func() {
			if err := cons.Close(); err != nil {
				l.Errorf(ctx, "Failed to close Kafka consumer: %v", err)
			}
		}()
	}

	// gRPC server
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	gRpcSrv := grpc.NewServer()
	queueGrpcSvc := grpcDelivery.NewGrpcService(qSvc, ssSvc, cfg.Auth, cfg.Realtime, l)
	grpcDelivery.RegisterQueueServiceServer(gRpcSrv, queueGrpcSvc)
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(grpcDelivery.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gRpcSrv, healthSrv)

	// HTTP server
	httpHandler := httpDelivery.NewHandler(qSvc, ssSvc, cfg.Auth, cfg.Realtime, l)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpHandler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		l.Info(ctx, "Server shutting down...")

		healthSrv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		// Hijacked websockets and open streams are not tracked by either
		// server's graceful stop.
		httpHandler.Close()
		queueGrpcSvc.Close()

		err := httpSrv.Shutdown(shutdownCtx)

		stopped := make(chan struct{})
		go func() {
			gRpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			l.Warnf(ctx, "gRPC graceful stop timed out after %s, forcing", shutdownTimeout)
			gRpcSrv.Stop()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server stopped with error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
