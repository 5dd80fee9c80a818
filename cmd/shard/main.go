package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devrev/graphmesh/internal/client"
	"github.com/devrev/graphmesh/internal/config"
	"github.com/devrev/graphmesh/internal/gossip"
	"github.com/devrev/graphmesh/internal/graph"
	"github.com/devrev/graphmesh/internal/handler"
	"github.com/devrev/graphmesh/internal/health"
	"github.com/devrev/graphmesh/internal/logging"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/priority"
	"github.com/devrev/graphmesh/internal/server"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphmesh-shard",
		Short: "Run a graphmesh worker shard",
		RunE:  run,
	}
	rootCmd.Flags().StringP("config", "c", "", "path to the shard configuration file (defaults to $CONFIG_PATH or ./config/shard.yaml)")
	rootCmd.Flags().String("seed", "", "graph document loaded into the store at startup")

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
		configPath = "./config/shard.yaml"
	}

	cfg, err := config.LoadShardConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if seed, _ := cmd.Flags().GetString("seed"); seed != "" {
		cfg.Seed.Path = seed
	}

	gate := priority.NewGate()
	logger, drainer, err := logging.New(cfg.Logging, gate)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	drainer.Start()
	defer drainer.Stop()

	shardID := cfg.Server.ShardID
	logger.Info("Starting graphmesh shard",
		zap.String("shard_id", shardID),
		zap.Int("port", cfg.Server.Port))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics("shard", shardID, registry)
	drainer.SetMetrics(m)

	store := graph.NewStore(shardID, m, logger)
	if cfg.Seed.Path != "" {
		if err := seedStore(store, cfg.Seed.Path, logger); err != nil {
			logger.Error("Failed to load seed graph", zap.Error(err))
			return err
		}
	}

	peers := client.NewPeerRegistry(shardID, cfg.Peers.Timeout, logger)
	defer func() {
		if err := peers.Close(); err != nil {
			logger.Warn("Failed to close peer clients", zap.Error(err))
		}
	}()

	var membership *gossip.Membership
	if cfg.Gossip.Enabled {
		membership = gossip.NewMembership(cfg.Gossip, gossip.NodeMeta{
			ShardID:    shardID,
			RPCAddress: shardID,
		}, peers, m, logger)
		if err := membership.Start(); err != nil {
			logger.Error("Failed to start gossip", zap.Error(err))
			return err
		}
	}

	grpcServer := grpc.NewServer(
		grpc.MaxConcurrentStreams(uint32(cfg.Server.MaxConnections)),
		grpc.ChainUnaryInterceptor(handler.GateUnaryInterceptor(gate)),
		grpc.ChainStreamInterceptor(handler.GateStreamInterceptor(gate)),
	)
	pb.RegisterGraphServer(grpcServer, handler.NewGraphHandler(store, peers, logger))

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		logger.Error("Failed to listen", zap.Error(err))
		return err
	}

	var httpServer *server.Server
	if cfg.Metrics.Enabled {
		httpServer = server.NewServer(cfg.Metrics.Port, logger)
		httpServer.HandleMetrics(cfg.Metrics.Path, registry)
		httpServer.HandleHealth(health.NewHealthChecker(map[string]health.Probe{
			"store": func() error { return nil },
		}, logger))
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down shard")
	case err = <-serveErr:
		logger.Error("gRPC server stopped", zap.Error(err))
	}

	shutdown(grpcServer, cfg.Server.ShutdownTimeout, logger)

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down metrics server", zap.Error(err))
		}
		cancel()
	}
	if membership != nil {
		if err := membership.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
			logger.Warn("Failed to leave gossip cluster", zap.Error(err))
		}
	}

	logger.Info("Shard stopped")
	return err
}

func seedStore(store *graph.Store, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed graph: %w", err)
	}
	defer f.Close()

	stats, err := store.LoadJSON(f)
	if err != nil {
		return err
	}
	logger.Info("Seed graph loaded",
		zap.String("path", path),
		zap.Int("vertices", stats.Vertices),
		zap.Int("edges", stats.Edges),
		zap.Int("skipped", stats.Skipped))
	return nil
}

// shutdown stops the server gracefully, forcing it after timeout
func shutdown(s *grpc.Server, timeout time.Duration, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("Graceful stop timed out, forcing shutdown")
		s.Stop()
	}
}
