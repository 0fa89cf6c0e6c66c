package main

import (
	"context"
	"errors"

	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/shutdown"
	"github.com/amp-labs/lottie-interactivity/watcher"
)

func runWatch(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet(e, "watch", "<file|dir>...")
	machine := flags.String("machine", "", "machine to keep running across reloads")
	metricsAddr := flags.String("metrics-addr", e.cfg.MetricsAddr, "also serve /metrics on this address")
	debounce := flags.Duration("debounce", watcher.DefaultDebounce, "ignore repeated events for a file within this window")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() == 0 {
		flags.Usage()

		return errUsage
	}

	paths, err := expandPaths(flags.Args())
	if err != nil {
		return err
	}

	sim, err := newSimulator(ctx, e, nil, false)
	if err != nil {
		return err
	}

	reloader := watcher.NewReloader(sim.Manager())

	for _, path := range paths {
		if _, err := reloader.Check(ctx, path); err != nil {
			return err
		}
	}

	if *machine != "" {
		if err := sim.Start(ctx, *machine); err != nil {
			return err
		}
	}

	if *metricsAddr != "" {
		if _, err := startMetricsServer(ctx, *metricsAddr); err != nil {
			return err
		}
	}

	w, err := watcher.New(flags.Args(), watcher.WithDebounce(*debounce))
	if err != nil {
		return err
	}

	shutdown.BeforeShutdown(func(ctx context.Context) {
		if err := w.Close(); err != nil {
			logger.Get(ctx).WarnContext(ctx, "failed to close watcher", "error", err)
		}
	})

	logger.Get(ctx).InfoContext(ctx, "watching descriptions", "paths", flags.Args(), "machines", sim.Manager().Machines())

	err = reloader.Run(ctx, w)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
