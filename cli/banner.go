// Package cli holds the terminal helpers used by lottie-sm: boxed banners for
// the simulator's status line and promptui pickers for interactive runs.
package cli

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/amp-labs/lottie-interactivity/config"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"

	// EnvNoBanner turns banners into plain lines.
	EnvNoBanner = "LOTTIE_NO_BANNER"
	// EnvColumns is the terminal width most shells export.
	EnvColumns = "COLUMNS"

	DefaultTerminalWidth = 80

	borderWidth = 2
)

// Align positions text inside a banner.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

var suppressBanner = sync.OnceValue(func() bool { //nolint:gochecknoglobals
	return config.Env.Bool(EnvNoBanner, config.Default(false)).ValueOrElse(false)
})

// TerminalWidth reads $COLUMNS, falling back to DefaultTerminalWidth.
func TerminalWidth(src config.Source) int {
	return src.Int(EnvColumns,
		config.Default(DefaultTerminalWidth),
		config.Validate(func(n int) error {
			if n <= borderWidth {
				return fmt.Errorf("terminal too narrow: %d", n)
			}

			return nil
		})).ValueOrElse(DefaultTerminalWidth)
}

// DividerAutoWidth draws a divider as wide as the terminal.
func DividerAutoWidth() string {
	return Divider(TerminalWidth(config.Env))
}

// BannerAutoWidth boxes s as wide as the terminal.
func BannerAutoWidth(s string, align Align) string {
	if suppressBanner() {
		return s + "\n"
	}

	return Banner(s, TerminalWidth(config.Env), align)
}

// Divider draws a horizontal rule width cells wide.
func Divider(width int) string {
	if width <= borderWidth {
		return ""
	}

	return dividerLeft + strings.Repeat(dividerMiddle, width-borderWidth) + dividerRight + "\n"
}

// Banner boxes each line of s, width cells wide including the border. Lines
// that don't fit are cut and end in an ellipsis.
func Banner(s string, width int, align Align) string {
	if width <= borderWidth || s == "" {
		return ""
	}

	inner := width - borderWidth
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	parts := make([]string, 0, len(lines)+2) //nolint:mnd // top and bottom border
	parts = append(parts, boxTopLeft+strings.Repeat(boxTop, inner)+boxTopRight)

	for _, line := range lines {
		parts = append(parts, boxSide+pad(line, inner, align)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n") + "\n"
}

// pad fits text into width cells, counting only graphic runes.
func pad(text string, width int, align Align) string {
	length := countGraphic(text)

	if length > width {
		text = truncateGraphic(text, width-1) + ellipsis
		length = width
	}

	diff := width - length

	switch align {
	case AlignCenter:
		left := diff / 2 //nolint:mnd // halves
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", diff-left)
	case AlignRight:
		return strings.Repeat(" ", diff) + text
	default:
		return text + strings.Repeat(" ", diff)
	}
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

// truncateGraphic keeps the first n graphic runes of s.
func truncateGraphic(s string, n int) string {
	var sb strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			if count == n {
				break
			}

			count++
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
