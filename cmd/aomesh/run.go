package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rmacdonaldsmith/aomesh/internal/config"
	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/demo"
	"github.com/rmacdonaldsmith/aomesh/internal/framework"
	"github.com/rmacdonaldsmith/aomesh/internal/health"
	"github.com/rmacdonaldsmith/aomesh/internal/httpapi"
	"github.com/rmacdonaldsmith/aomesh/internal/logging"
	"github.com/rmacdonaldsmith/aomesh/internal/trace"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// shutdownTimeout bounds the graceful shutdown of the servers and objects
const shutdownTimeout = 30 * time.Second

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the demo runtime",
		Long: `Run starts the active object runtime with the demo application, the
HTTP diagnostics API and the gRPC health service. It stops gracefully on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.ErrOrStderr())
		},
	}
}

// run serves until ctx is done, then shuts everything down.
func run(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	logger, err := logging.New(logOut, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	contract.SetLogger(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tracer := trace.NewMulti(
		trace.NewMetrics(reg, demo.SignalName),
		trace.NewLogger(logger, demo.SignalName),
	)

	fwConfig := framework.NewConfig(event.Signal(cfg.Framework.MaxSignal)).
		WithQueueLen(cfg.Framework.QueueLen).
		WithTracer(tracer).
		WithLogger(logger)
	for _, p := range cfg.Pools {
		fwConfig.WithPool(p.BlockSize, p.Blocks)
	}
	rt, err := framework.New(fwConfig)
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("error closing runtime", "error", err)
		}
	}()
	reg.MustRegister(trace.NewPoolCollector(rt.PoolStats))

	app, err := demo.New(rt, demo.Config{
		TickInterval: cfg.Demo.TickInterval,
		Workers:      cfg.Demo.Workers,
		ReportEvery:  cfg.Demo.ReportEvery,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create demo: %w", err)
	}

	var (
		api    *httpapi.Server
		apiLis net.Listener
		hs     *health.Server
		hsLis  net.Listener
	)
	if cfg.HTTP.Listen != "" {
		if apiLis, err = net.Listen("tcp", cfg.HTTP.Listen); err != nil {
			return fmt.Errorf("failed to listen for http: %w", err)
		}
		api = httpapi.NewServer(rt, httpapi.Config{
			Addr:       cfg.HTTP.Listen,
			SecretKey:  cfg.HTTP.Secret,
			Gatherer:   reg,
			SignalName: demo.SignalName,
			Version:    appVersion,
			Logger:     logger,
		})
	}
	if cfg.Health.Listen != "" {
		if hsLis, err = net.Listen("tcp", cfg.Health.Listen); err != nil {
			if apiLis != nil {
				_ = apiLis.Close()
			}
			return fmt.Errorf("failed to listen for grpc health: %w", err)
		}
		hs = health.NewServer(logger)
	}

	if err := rt.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runtime: %w", err)
	}
	logger.Info("aomesh started", "version", appVersion)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Run(gctx) })
	if api != nil {
		g.Go(func() error { return api.Serve(apiLis) })
	}
	if hs != nil {
		g.Go(func() error { return hs.Serve(hsLis) })
		g.Go(func() error {
			hs.Watch(gctx, rt, health.DefaultPollInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		app.Terminate()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if api != nil {
			if err := api.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping http api", "error", err)
			}
		}
		if hs != nil {
			hs.Stop()
		}
		return rt.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("aomesh stopped")
	return nil
}
