package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"facette.io/natsort"
	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/statemachine/validator"
	"github.com/amp-labs/lottie-interactivity/watcher"
)

var errInvalid = errors.New("descriptions are invalid")

func runValidate(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet(e, "validate", "<file|dir>...")
	strict := flags.Bool("strict", false, "treat warnings as errors")
	noContainer := flags.Bool("no-container", false, "report DOM triggers as errors (player has no container element)")
	workers := flags.Int("workers", e.cfg.Workers, "files validated concurrently")
	quiet := flags.Bool("quiet", false, "only print files with problems")

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

	opts := validator.Options{Strict: *strict, NoContainer: *noContainer}

	reports, err := validator.ValidateFiles(ctx, paths, opts, *workers)
	if err != nil {
		return err
	}

	invalid := 0

	for _, report := range reports {
		if !report.Valid() {
			invalid++
		} else if *quiet {
			continue
		}

		_, _ = fmt.Fprintf(e.stdout, "== %s\n", report.Path)

		for _, result := range report.Results {
			_, _ = fmt.Fprintln(e.stdout, result.String())
		}
	}

	logger.Get(ctx).InfoContext(ctx, "validation finished", "files", len(reports), "invalid", invalid)

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d file(s)", errInvalid, invalid, len(reports))
	}

	return nil
}

// expandPaths replaces directories with the description files directly inside
// them, in natural order.
func expandPaths(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Reported per file by the validator.
				paths = append(paths, arg)

				continue
			}

			return nil, err
		}

		if !info.IsDir() {
			paths = append(paths, arg)

			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}

		var found []string

		for _, entry := range entries {
			if !entry.IsDir() && watcher.IsDescriptionFile(entry.Name()) {
				found = append(found, filepath.Join(arg, entry.Name()))
			}
		}

		natsort.Sort(found)
		paths = append(paths, found...)
	}

	return paths, nil
}
