package cli

import (
	"errors"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
)

// QuitItem is offered first in every Select.
const QuitItem = "[Quit]"

// ErrQuit is returned when the user picks QuitItem.
var ErrQuit = errors.New("quit")

// selectItems puts QuitItem first and drops repeated choices.
func selectItems(choices []string) []string {
	items := []string{QuitItem}

	for _, c := range choices {
		if !slices.Contains(items, c) {
			items = append(items, c)
		}
	}

	return items
}

// prefixSearcher matches items that start with the typed input. QuitItem is
// never matched by a search.
func prefixSearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if index == 0 || input == "" {
			return false
		}

		return strings.HasPrefix(items[index], input)
	}
}

// Select lets the user pick one of choices and returns it. Picking QuitItem
// returns ErrQuit; interrupting returns promptui.ErrInterrupt.
func Select(label string, choices ...string) (string, error) {
	items := selectItems(choices)

	sel := &promptui.Select{
		Label:    label,
		Items:    items,
		Size:     min(len(items), 10), //nolint:mnd // visible rows
		Searcher: prefixSearcher(items),
	}

	idx, value, err := sel.Run()
	if err != nil {
		return "", err
	}

	if idx == 0 {
		return "", ErrQuit
	}

	return value, nil
}
