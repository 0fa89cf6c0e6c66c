// Command lottie-sm validates, draws, simulates and hot-reloads Lottie
// interactivity state machines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/amp-labs/lottie-interactivity/config"
	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/shutdown"
	"github.com/amp-labs/lottie-interactivity/telemetry"
)

const appName = "lottie-sm"

var errUsage = errors.New("usage")

// env is where configuration is read from.
type env struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

func commands() []command {
	return []command{
		{"validate", "check description files for errors", runValidate},
		{"diagram", "render descriptions as Mermaid state diagrams", runDiagram},
		{"simulate", "drive a machine with a script or interactively", runSimulate},
		{"watch", "reload descriptions when their files change", runWatch},
		{"serve-metrics", "expose engine metrics over HTTP", runServeMetrics},
		{"version", "print build information", runVersion},
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", "", "read configuration from a .env or .yaml file")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2 //nolint:mnd // usage exit code
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()

		return 2 //nolint:mnd // usage exit code
	}

	idx := slices.IndexFunc(commands(), func(c command) bool { return c.name == rest[0] })
	if idx < 0 {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		fs.Usage()

		return 2 //nolint:mnd // usage exit code
	}

	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx := shutdown.SetupHandler(parent)
	defer shutdown.Cleanup(ctx)

	e, err := setup(ctx, *envFile, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", appName, err)

		return 1
	}

	ctx = logger.WithSubsystem(ctx, rest[0])

	if err := commands()[idx].run(ctx, e, rest[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		if errors.Is(err, errUsage) {
			return 2 //nolint:mnd // usage exit code
		}

		_, _ = fmt.Fprintf(stderr, "%s %s: %v\n", appName, rest[0], err)

		return 1
	}

	return 0
}

// setup loads configuration and installs logging and telemetry. Logs go to
// stderr unless LOG_OUTPUT says otherwise, so command output stays clean.
func setup(ctx context.Context, envFile string, stdout, stderr io.Writer) (*env, error) {
	src := config.Env

	if envFile != "" {
		var err error

		src, err = config.WithEnvFile(src, envFile)
		if err != nil {
			return nil, err
		}
	}

	src = config.Layered(src, config.MapSource(map[string]string{config.EnvLogOutput: "stderr"}))

	cfg, err := config.LoadFrom(src, appName)
	if err != nil {
		return nil, err
	}

	handler, err := telemetry.Initialize(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return nil, err
	}

	shutdown.BeforeShutdown(func(ctx context.Context) {
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Get(ctx).WarnContext(ctx, "failed to flush telemetry", "error", err)
		}
	})

	opts := []logger.Option{logger.WithHandler(handler)}
	if cfg.LogOutput == "stderr" {
		opts = append(opts, logger.WithOutput(stderr))
	}

	if _, err := logger.ConfigureLogging(cfg, opts...); err != nil {
		return nil, err
	}

	return &env{cfg: cfg, stdout: stdout, stderr: stderr}, nil
}

func usage(fs *flag.FlagSet, w io.Writer) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "usage: %s [flags] <command> [command flags] [args]\n\ncommands:\n", appName)

	for _, c := range commands() {
		fmt.Fprintf(&sb, "  %-14s %s\n", c.name, c.summary)
	}

	sb.WriteString("\nflags:\n")
	_, _ = io.WriteString(w, sb.String())

	fs.PrintDefaults()
}

// newFlagSet returns a subcommand flag set that reports errors to e.stderr.
func newFlagSet(e *env, name, argsUsage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(e.stderr, "usage: %s %s [flags] %s\n", appName, name, argsUsage)
		fs.PrintDefaults()
	}

	return fs
}
