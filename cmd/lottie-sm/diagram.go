package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/amp-labs/lottie-interactivity/statemachine/visualizer"
)

func runDiagram(_ context.Context, e *env, args []string) error {
	flags := newFlagSet(e, "diagram", "<file>")
	machine := flags.String("machine", "", "only draw this machine")
	direction := flags.String("direction", "LR", "diagram direction (LR, TB, RL, BT)")
	theme := flags.String("theme", "default", "Mermaid theme")
	noSettings := flags.Bool("no-settings", false, "omit animation and playback settings notes")
	highlight := flags.String("highlight", "", "comma separated states to highlight")
	output := flags.String("o", "", "write to this file instead of stdout")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() != 1 {
		flags.Usage()

		return errUsage
	}

	opts := visualizer.DefaultOptions().
		WithDirection(*direction).
		WithTheme(*theme).
		WithShowSettings(!*noSettings)

	if *highlight != "" {
		opts = opts.WithHighlightPath(strings.Split(*highlight, ","))
	}

	var (
		diagram string
		err     error
	)

	if *machine == "" {
		diagram, err = visualizer.GenerateMermaidFromFile(flags.Arg(0), opts)
	} else {
		diagram, err = diagramFor(flags.Arg(0), *machine, opts)
	}

	if err != nil {
		return err
	}

	if *output == "" {
		_, err = fmt.Fprint(e.stdout, diagram)

		return err
	}

	return os.WriteFile(*output, []byte(diagram), 0o644) //nolint:gosec,mnd // diagrams are meant to be shared
}

func diagramFor(path, id string, opts visualizer.Options) (string, error) {
	descs, err := statemachine.LoadDescriptions(path)
	if err != nil {
		return "", err
	}

	for _, desc := range descs {
		if desc.Descriptor.ID == id {
			return visualizer.GenerateMermaidWithOptions(desc, opts)
		}
	}

	return "", fmt.Errorf("%w: %s", statemachine.ErrUnknownMachine, id)
}
