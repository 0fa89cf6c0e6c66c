package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amp-labs/lottie-interactivity/build"
)

func runVersion(_ context.Context, e *env, args []string) error {
	flags := newFlagSet(e, "version", "")
	asJSON := flags.Bool("json", false, "print every field as JSON")

	if err := flags.Parse(args); err != nil {
		return err
	}

	info := build.Read()

	if !*asJSON {
		_, err := fmt.Fprintf(e.stdout, "%s %s\n", appName, info)

		return err
	}

	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(info)
}
