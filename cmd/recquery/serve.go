package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nainya/recquery/internal/logger"
	"github.com/nainya/recquery/internal/metrics"
	"github.com/nainya/recquery/internal/server"
	"github.com/nainya/recquery/pkg/query"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve configured datasets over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, root)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, root *rootFlags) error {
	cfg, log, err := root.load(cmd)
	if err != nil {
		return err
	}
	log = log.WithFields(map[string]any{"version": version})
	logger.SetGlobal(log)

	qc, err := cfg.QueryConfig()
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	engine, err := query.NewEngine(qc,
		query.WithLogger(log.Zerolog()),
		query.WithObserver(m),
	)
	if err != nil {
		return err
	}

	log.LogServerStart(cfg.Server.GRPCPort, len(cfg.Datasets))

	var ready atomic.Bool
	registry := server.NewRegistry(log, m)
	obs := server.NewObservabilityServer(cfg.Server.MetricsPort, m, log, ready.Load)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	gs, hs := server.NewGRPCServer(
		server.NewServer(engine, registry, log),
		m, log,
		server.GRPCOptions{RateLimit: cfg.Server.RateLimit, RateBurst: cfg.Server.RateBurst},
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.RunUptime(ctx, 15*time.Second)
		return nil
	})

	g.Go(obs.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return obs.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := registry.LoadFiles(ctx, cfg.Datasets); err != nil {
			return err
		}
		ready.Store(true)
		log.LogServerReady(cfg.Server.GRPCPort)
		return nil
	})

	g.Go(func() error {
		err := server.Serve(ctx, gs, hs, lis)
		log.LogServerShutdown()
		return err
	})

	return g.Wait()
}
