// Package player defines the contract between the interactivity engine and the
// animation player it drives. The engine never touches rendering internals; it only
// issues the commands below and listens for the events the player and its container
// element publish.
package player

import (
	"context"
	"io"
	"time"
)

// Event is a lifecycle event published by the player.
type Event string

const (
	EventReady        Event = "ready"
	EventPlay         Event = "play"
	EventPause        Event = "pause"
	EventStop         Event = "stop"
	EventComplete     Event = "complete"
	EventLoopComplete Event = "loopComplete"
	EventFrame        Event = "frame"
	EventError        Event = "error"
	EventDataFailed   Event = "data_failed"
)

// IntersectionOptions configures a visibility observer on the player's container.
type IntersectionOptions struct {
	// Thresholds are the visibility ratios the observer reports at. Empty means the
	// finest granularity the host offers.
	Thresholds []float64
	// OnIntersect receives the visible percentage (0–100) of the container.
	OnIntersect func(visibility float64)
}

// Player is the animation player the engine commands.
//
// Every registration method returns an io.Closer that removes the registration.
// Closing twice must be harmless.
type Player interface {
	// CurrentAnimationID returns the id of the animation currently rendered, or "".
	CurrentAnimationID() string
	// AnimationLoaded reports whether an animation instance is ready to be configured.
	AnimationLoaded() bool

	// Play loads animationID (when non-empty and different from the current one) and
	// starts playback with overrides layered onto the animation's manifest defaults.
	Play(ctx context.Context, animationID string, overrides Settings) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error

	SetAutoplay(ctx context.Context, autoplay bool) error
	SetDirection(ctx context.Context, direction Direction) error
	SetIntermission(ctx context.Context, intermission time.Duration) error
	SetLoop(ctx context.Context, loop Loop) error
	SetMode(ctx context.Context, mode PlayMode) error
	SetSpeed(ctx context.Context, speed float64) error
	SetDefaultTheme(ctx context.Context, themeID string) error

	PlayOnScroll(ctx context.Context, opts ScrollOptions) error
	StopPlayOnScroll(ctx context.Context) error

	PlaySegments(ctx context.Context, segment Segment, forcePlay bool) error
	GoToAndPlay(ctx context.Context, value float64, isFrame bool) error
	// ResetSegments lifts a segment restriction. Only force seeks back to frame 0.
	ResetSegments(ctx context.Context, force bool) error

	AddIntersectionObserver(opts IntersectionOptions) (io.Closer, error)
	AddEventListener(event Event, handler func()) (io.Closer, error)
}

// Element is the container the player is mounted in. DOM-level triggers
// (click, mouseenter, mouseleave) are observed on it.
type Element interface {
	AddEventListener(event string, handler func()) (io.Closer, error)
}

// ManifestProvider is implemented by players that know each animation's manifest
// playback defaults. When available, those defaults replace the engine-wide ones.
type ManifestProvider interface {
	ManifestSettings(animationID string) (Settings, bool)
}
