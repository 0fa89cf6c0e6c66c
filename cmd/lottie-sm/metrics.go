package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/shutdown"
	"github.com/amp-labs/lottie-interactivity/simulator"
	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultMetricsAddr = ":9464"
	readHeaderTimeout  = 5 * time.Second
)

func runServeMetrics(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet(e, "serve-metrics", "[file]")
	addr := flags.String("addr", e.cfg.MetricsAddr, "listen address (default "+defaultMetricsAddr+")")
	machine := flags.String("machine", "", "machine to run from the file")
	script := flags.String("script", "", "steps to replay against the machine so its metrics are populated")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *addr == "" {
		*addr = defaultMetricsAddr
	}

	if flags.NArg() > 0 {
		if err := replay(ctx, e, flags.Arg(0), *machine, *script); err != nil {
			return err
		}
	}

	if _, err := startMetricsServer(ctx, *addr); err != nil {
		return err
	}

	<-ctx.Done()

	return nil
}

// replay runs script against a simulated machine once.
func replay(ctx context.Context, e *env, path, id, script string) error {
	descs, err := statemachine.LoadDescriptions(path)
	if err != nil {
		return err
	}

	if id == "" {
		id = descs[0].Descriptor.ID
	}

	steps, err := simulator.ParseScript(script)
	if err != nil {
		return err
	}

	sim, err := newSimulator(ctx, e, descs, false)
	if err != nil {
		return err
	}

	return sim.Run(ctx, id, steps)
}

// startMetricsServer serves the default Prometheus registry on addr until
// shutdown and returns the address it listens on.
func startMetricsServer(ctx context.Context, addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log := logger.Get(ctx)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()

	shutdown.BeforeShutdown(func(ctx context.Context) {
		if err := server.Shutdown(ctx); err != nil {
			logger.Get(ctx).WarnContext(ctx, "failed to stop metrics server", "error", err)
		}
	})

	log.InfoContext(ctx, "serving metrics", "addr", listener.Addr().String())

	return listener.Addr(), nil
}
