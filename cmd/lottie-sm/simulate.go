package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/amp-labs/lottie-interactivity/cli"
	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/shutdown"
	"github.com/amp-labs/lottie-interactivity/simulator"
	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/manifoldco/promptui"
)

const customStep = "[Other step…]"

func runSimulate(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet(e, "simulate", "<file>")
	machine := flags.String("machine", "", "machine to start (default: first in the file)")
	script := flags.String("script", "", "comma separated steps, e.g. click,wait:500ms,show:50,complete")
	noContainer := flags.Bool("no-container", false, "simulate a player mounted without a container element")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() != 1 {
		flags.Usage()

		return errUsage
	}

	descs, err := statemachine.LoadDescriptions(flags.Arg(0))
	if err != nil {
		return err
	}

	id := *machine
	if id == "" {
		id = descs[0].Descriptor.ID
	}

	sim, err := newSimulator(ctx, e, descs, *noContainer)
	if err != nil {
		return err
	}

	if *script != "" {
		steps, err := simulator.ParseScript(*script)
		if err != nil {
			return err
		}

		return sim.Run(ctx, id, steps)
	}

	if err := sim.Start(ctx, id); err != nil {
		return err
	}

	return interact(ctx, e, sim)
}

func newSimulator(
	ctx context.Context, e *env, descs []statemachine.Description, noContainer bool,
) (*simulator.Simulator, error) {
	opts := []simulator.Option{
		simulator.WithOutput(e.stdout),
		simulator.WithManagerOptions(
			statemachine.WithDefaults(e.cfg.Defaults),
			statemachine.WithSpanDebug(e.cfg.SpanDebug),
			statemachine.WithLogger(statemachine.NewSlogLogger(logger.Get(ctx))),
		),
	}

	if noContainer {
		opts = append(opts, simulator.WithoutElement())
	}

	sim, err := simulator.New(descs, opts...)
	if err != nil {
		return nil, err
	}

	shutdown.BeforeShutdown(func(ctx context.Context) {
		if err := sim.Close(); err != nil {
			logger.Get(ctx).WarnContext(ctx, "failed to stop simulation", "error", err)
		}
	})

	return sim, nil
}

// interact shows the current state and lets the user pick the next step until
// they quit or the machine stops.
func interact(ctx context.Context, e *env, sim *simulator.Simulator) error {
	for ctx.Err() == nil {
		machine, state, ok := sim.Current()
		if !ok {
			return nil
		}

		_, _ = fmt.Fprint(e.stdout, cli.BannerAutoWidth(machine+" ▸ "+state, cli.AlignCenter))

		steps := sim.Steps()
		choices := make([]string, 0, len(steps)+1)

		for _, step := range steps {
			choices = append(choices, step.String())
		}

		choices = append(choices, customStep)

		choice, err := cli.Select("Next step", choices...)
		if errors.Is(err, cli.ErrQuit) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}

		if err != nil {
			return err
		}

		var step simulator.Step

		if choice == customStep {
			step, err = cli.PromptString("Step", simulator.ParseStep)
		} else {
			step, err = simulator.ParseStep(choice)
		}

		if err != nil {
			return err
		}

		if err := sim.Apply(ctx, step); err != nil {
			_, _ = fmt.Fprintf(e.stderr, "%v\n", err)
		}
	}

	return ctx.Err()
}
