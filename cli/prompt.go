package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

var errEmpty = errors.New("you must enter something")

// PromptConfirm asks a yes/no question. Declining is not an error.
func PromptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// PromptString asks for a non-empty answer that parse accepts, and returns
// the parsed value.
func PromptString[T any](label string, parse func(string) (T, error)) (T, error) {
	var zero T

	validate := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errEmpty
		}

		if _, err := parse(s); err != nil {
			return fmt.Errorf("invalid input: %w", err)
		}

		return nil
	}

	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
	}

	txt, err := prompt.Run()
	if err != nil {
		return zero, err
	}

	return parse(txt)
}
