package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFileType is returned when an env file has an unrecognised suffix.
var ErrUnknownFileType = errors.New("env file doesn't have a known file suffix")

// LoadEnvFile reads variables from a file. ".env" files hold key=value lines;
// ".yml"/".yaml" files hold the variables under a top-level "env" mapping.
func LoadEnvFile(path string) (map[string]string, error) {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(name, ".env"):
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}

		return vars, nil
	case strings.HasSuffix(name, ".yml"), strings.HasSuffix(name, ".yaml"):
		return loadYAMLFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFileType, name)
	}
}

func loadYAMLFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	var doc struct {
		Env map[string]string `yaml:"env"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}

	return doc.Env, nil
}

// Layered consults each source in turn and returns the first hit.
func Layered(sources ...Source) Source {
	return func(key string) (string, bool) {
		for _, src := range sources {
			if src == nil {
				continue
			}

			if v, ok := src(key); ok {
				return v, true
			}
		}

		return "", false
	}
}

// WithEnvFile layers the variables of path under src: values already present in
// src win.
func WithEnvFile(src Source, path string) (Source, error) {
	vars, err := LoadEnvFile(path)
	if err != nil {
		return nil, err
	}

	return Layered(src, MapSource(vars)), nil
}
