package cli

import (
	"strings"
	"testing"

	"github.com/amp-labs/lottie-interactivity/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	t.Parallel()

	out := Banner("banner\nidle", 12, AlignCenter)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "╒══════════╕", lines[0])
	assert.Equal(t, "│  banner  │", lines[1])
	assert.Equal(t, "│   idle   │", lines[2])
	assert.Equal(t, "└──────────┘", lines[3])
}

func TestBannerAlignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		align Align
		want  string
	}{
		{name: "left", text: "ab", align: AlignLeft, want: "│ab    │"},
		{name: "right", text: "ab", align: AlignRight, want: "│    ab│"},
		{name: "center odd", text: "abc", align: AlignCenter, want: "│ abc  │"},
		{name: "exact", text: "abcdef", align: AlignLeft, want: "│abcdef│"},
		{name: "truncated", text: "abcdefgh", align: AlignLeft, want: "│abcde…│"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lines := strings.Split(Banner(tt.text, 8, tt.align), "\n")
			assert.Equal(t, tt.want, lines[1])
		})
	}

	assert.Empty(t, Banner("x", 2, AlignLeft))
	assert.Empty(t, Banner("", 20, AlignLeft))
}

func TestDivider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "┠────┨\n", Divider(6))
	assert.Empty(t, Divider(1))
}

func TestTerminalWidth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 120, TerminalWidth(config.MapSource(map[string]string{EnvColumns: "120"})))
	assert.Equal(t, DefaultTerminalWidth, TerminalWidth(config.MapSource(nil)))
	assert.Equal(t, DefaultTerminalWidth, TerminalWidth(config.MapSource(map[string]string{EnvColumns: "wide"})))
	assert.Equal(t, DefaultTerminalWidth, TerminalWidth(config.MapSource(map[string]string{EnvColumns: "1"})))
}

func TestSelectItems(t *testing.T) {
	t.Parallel()

	items := selectItems([]string{"click", "wait:2s", "click", "complete"})
	assert.Equal(t, []string{QuitItem, "click", "wait:2s", "complete"}, items)

	search := prefixSearcher(items)
	assert.False(t, search("", 1))
	assert.False(t, search("[", 0))
	assert.True(t, search("cl", 1))
	assert.True(t, search("c", 3))
	assert.False(t, search("w", 1))
}
