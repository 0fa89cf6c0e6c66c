package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var paths []string

	for i := range 6 {
		path := filepath.Join(dir, fmt.Sprintf("m%d.yaml", i))
		doc := fmt.Sprintf("- descriptor: {id: m%d, initial: a}\n  states: {a: {animationId: wave, onClick: {state: a}}}\n", i)

		if i == 3 {
			doc = "- descriptor: {id: m3, initial: a}\n  states: {a: {onClick: {state: gone}}}\n"
		}

		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
		paths = append(paths, path)
	}

	paths = append(paths, filepath.Join(dir, "missing.yaml"))

	reports, err := ValidateFiles(context.Background(), paths, Options{}, 3)
	require.NoError(t, err)
	require.Len(t, reports, len(paths))

	for i, report := range reports {
		assert.Equal(t, paths[i], report.Path)

		switch i {
		case 3:
			assert.False(t, report.Valid())
			require.NoError(t, report.Err)
			assert.Equal(t, "DANGLING_TARGET", report.Results[0].Errors[0].Code)
		case 6:
			assert.False(t, report.Valid())
			require.Error(t, report.Err)
		default:
			assert.True(t, report.Valid(), report.Path)
		}
	}
}

func TestValidateFilesCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ValidateFiles(ctx, []string{"a.yaml", "b.yaml"}, Options{}, 0)
	require.ErrorIs(t, err, context.Canceled)
}
