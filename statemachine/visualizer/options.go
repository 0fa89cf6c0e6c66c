package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowSettings adds each state's animation and declared playback settings.
	ShowSettings bool

	// Direction controls diagram flow: "TB" (top-bottom) or "LR" (left-right)
	Direction string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string

	// Theme controls the color scheme: "default", "dark", "forest"
	Theme string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowSettings: true,
		Direction:    "LR",
		Theme:        "default",
	}
}

// WithShowSettings enables/disables state settings notes.
func (o Options) WithShowSettings(show bool) Options {
	o.ShowSettings = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}

// WithTheme sets the color theme.
func (o Options) WithTheme(theme string) Options {
	o.Theme = theme

	return o
}
