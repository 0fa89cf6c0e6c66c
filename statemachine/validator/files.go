package validator

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
)

// FileReport is the outcome of validating one descriptions file.
type FileReport struct {
	Path    string
	Results []ValidationResult
	// Err is set when the file could not be loaded.
	Err error
}

// Valid reports whether the file loaded and every machine in it is valid.
func (r FileReport) Valid() bool {
	if r.Err != nil {
		return false
	}

	for _, result := range r.Results {
		if !result.Valid {
			return false
		}
	}

	return true
}

// ValidateFiles validates paths on a pool of workers. Reports come back in the
// order of paths. Canceling ctx abandons files that have not started.
func ValidateFiles(ctx context.Context, paths []string, opts Options, workers int) ([]FileReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("validation interrupted: %w", err)
	}

	if workers < 1 {
		workers = 1
	}

	pool := pond.NewResultPool[FileReport](workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()

	for _, path := range paths {
		group.Submit(func() FileReport {
			results, err := ValidateFile(path, opts)

			return FileReport{Path: path, Results: results, Err: err}
		})
	}

	reports, err := group.Wait()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		return nil, fmt.Errorf("validation interrupted: %w", err)
	}

	return reports, nil
}
