package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/devrev/graphmesh/internal/client"
	"github.com/devrev/graphmesh/internal/config"
	"github.com/devrev/graphmesh/internal/handler"
	"github.com/devrev/graphmesh/internal/health"
	"github.com/devrev/graphmesh/internal/ingest"
	"github.com/devrev/graphmesh/internal/logging"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/poller"
	"github.com/devrev/graphmesh/internal/priority"
	"github.com/devrev/graphmesh/internal/queue"
	"github.com/devrev/graphmesh/internal/server"
	"github.com/devrev/graphmesh/internal/service"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphmesh-orchestrator",
		Short: "Run the graphmesh orchestrator",
		RunE:  run,
	}
	rootCmd.Flags().StringP("config", "c", "", "path to the orchestrator configuration file (defaults to $CONFIG_PATH or ./config/orchestrator.yaml)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "./config/orchestrator.yaml"
	}

	cfg, err := config.LoadOrchestratorConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	gate := priority.NewGate()
	logger, drainer, err := logging.New(cfg.Logging, gate)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	drainer.Start()
	defer drainer.Stop()

	logger.Info("Starting graphmesh orchestrator",
		zap.String("name", cfg.Server.Name),
		zap.Strings("workers", cfg.WorkerIDs()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics("orchestrator", cfg.Server.Name, registry)
	drainer.SetMetrics(m)

	shards := make([]service.ShardClient, 0, len(cfg.Workers))
	for _, w := range cfg.Workers {
		c, err := client.NewShardClient(w.ID, w.Address(), cfg.Client.Timeout, logger)
		if err != nil {
			logger.Error("Failed to create shard client", zap.String("shard", w.ID), zap.Error(err))
			return err
		}
		shards = append(shards, c)
	}

	orch, err := service.NewGraphOrchestrator(shards, queue.New[string](), service.Options{
		HealthInterval: cfg.Health.Interval,
		PingTimeout:    cfg.Health.PingTimeout,
		GateWait:       cfg.Health.GateWait,
		PollInterval:   cfg.Ingestion.PollInterval,
		InitWorkers:    cfg.Client.InitWorkers,
	}, m, logger)
	if err != nil {
		logger.Error("Failed to create orchestrator", zap.Error(err))
		return err
	}
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Warn("Failed to close shard clients", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.WaitForShards(ctx, cfg.Health.StartupTimeout); err != nil {
		logger.Error("Shards did not become healthy", zap.Error(err))
		return err
	}
	if err := orch.Init(ctx); err != nil {
		logger.Error("Failed to introduce shards to each other", zap.Error(err))
		return err
	}

	dispatchers, err := buildDispatchers(cfg, orch, gate, m, logger)
	if err != nil {
		logger.Error("Failed to configure ingestion", zap.Error(err))
		return err
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(handler.GateUnaryInterceptor(gate)),
		grpc.ChainStreamInterceptor(handler.GateStreamInterceptor(gate)),
	)
	pb.RegisterOrchestratorServer(grpcServer, handler.NewOrchestratorHandler(orch, logger))

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		logger.Error("Failed to listen", zap.Error(err))
		return err
	}

	checker := health.NewHealthChecker(map[string]health.Probe{
		"shards": orch.Monitor().Probe,
	}, logger)

	gateway := server.NewServer(cfg.Server.HTTPPort, logger)
	gateway.HandleGraphAPI(orch, cfg.RateLimit)
	gateway.HandleHealth(checker)

	var metricsServer *server.Server
	if cfg.Metrics.Enabled {
		metricsServer = server.NewServer(cfg.Metrics.Port, logger)
		metricsServer.HandleMetrics(cfg.Metrics.Path, registry)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatchers.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})
	g.Go(gateway.Start)
	if metricsServer != nil {
		g.Go(metricsServer.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down orchestrator")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := gateway.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down gateway", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shut down metrics server", zap.Error(err))
			}
		}
		stopGRPC(shutdownCtx, grpcServer, logger)
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("Orchestrator stopped", zap.Int("pending", orch.Pending()))
	return err
}

// buildDispatchers assembles the poll loops: fleet health, the ingestion
// queue and, when enabled, the Kafka source feeding that queue.
func buildDispatchers(cfg *config.OrchestratorConfig, orch *service.GraphOrchestrator, gate *priority.Gate, m *metrics.Metrics, logger *zap.Logger) (*poller.Group, error) {
	wait := cfg.Scheduler.WaitTimeout
	group := poller.NewGroup(
		poller.NewDispatcher(poller.Config{Name: "health", WaitTimeout: wait}, orch.Monitor(), gate, m, logger),
		poller.NewDispatcher(poller.Config{Name: "ingest", WaitTimeout: wait}, orch, gate, m, logger),
	)

	if !cfg.Ingestion.Enabled {
		return group, nil
	}

	h, err := ingest.DefaultRegistry().Build(cfg.Ingestion.Handler, ingest.Deps{Queue: orch, Logger: logger})
	if err != nil {
		return nil, err
	}
	source, err := ingest.NewKafkaSource(cfg.Ingestion, h, m, logger)
	if err != nil {
		return nil, err
	}
	group.Add(poller.NewDispatcher(poller.Config{Name: "kafka", WaitTimeout: wait}, source, gate, m, logger))
	return group, nil
}

func stopGRPC(ctx context.Context, s *grpc.Server, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Graceful stop timed out, forcing shutdown")
		s.Stop()
	}
}
