package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/amp-labs/lottie-interactivity/optional"
	"github.com/amp-labs/lottie-interactivity/player"
)

// Entry modes, used as a metric label.
const (
	entryModeLoad     = "load"
	entryModeSettings = "settings"
)

// EntryCommand reconfigures the player when a state is entered.
type EntryCommand struct {
	State       string
	AnimationID string
	Settings    player.Settings
}

// ExitCommand undoes the state-scoped effects of an entry.
type ExitCommand struct {
	State            string
	ResetSegments    bool
	StopPlayOnScroll bool
}

func newEntryCommand(state string, def StateDefinition) EntryCommand {
	return EntryCommand{
		State:       state,
		AnimationID: def.AnimationID,
		Settings:    def.Settings,
	}
}

func newExitCommand(state string, def StateDefinition) ExitCommand {
	return ExitCommand{
		State:            state,
		ResetSegments:    def.Settings.Segments.NonEmpty(),
		StopPlayOnScroll: def.Settings.PlayOnScroll.NonEmpty(),
	}
}

// Empty reports whether the exit has nothing to undo.
func (c ExitCommand) Empty() bool {
	return !c.ResetSegments && !c.StopPlayOnScroll
}

// manifestDefaults returns the defaults the declared settings are layered on:
// the player's manifest settings for the animation when it knows them,
// otherwise the engine-wide defaults.
func manifestDefaults(p player.Player, animationID string, fallback player.Settings) player.Settings {
	if provider, ok := p.(player.ManifestProvider); ok {
		id := animationID
		if id == "" {
			id = p.CurrentAnimationID()
		}

		if manifest, found := provider.ManifestSettings(id); found {
			return manifest.Merge(fallback)
		}
	}

	return fallback
}

// applyEntry runs an entry command. It loads the state's animation when it is
// not the one being rendered, then reconciles the effective settings. The
// returned mode says which of the two happened.
func applyEntry(
	ctx context.Context,
	p player.Player,
	cmd EntryCommand,
	defaults player.Settings,
) (string, error) {
	effective := cmd.Settings.Over(manifestDefaults(p, cmd.AnimationID, defaults))

	mode := entryModeSettings

	if cmd.AnimationID != "" && p.CurrentAnimationID() != cmd.AnimationID {
		if err := p.Play(ctx, cmd.AnimationID, effective); err != nil {
			return entryModeLoad, fmt.Errorf("failed to load animation %q: %w", cmd.AnimationID, err)
		}

		mode = entryModeLoad
	}

	if err := reconcile(ctx, p, effective, mode == entryModeLoad); err != nil {
		return mode, err
	}

	return mode, nil
}

// reconcile pushes settings onto the loaded animation in a fixed order:
// autoplay, direction, intermission, loop, playMode, speed, defaultTheme,
// playOnScroll, segments, and finally a pause when autoplay is off.
func reconcile(ctx context.Context, p player.Player, s player.Settings, justLoaded bool) error {
	if !p.AnimationLoaded() {
		return fmt.Errorf("%w: no animation loaded", ErrApplySettings)
	}

	autoplay, autoplaySet := s.Autoplay.Get()

	steps := []struct {
		name string
		run  func() error
	}{
		{"autoplay", func() error {
			if !autoplaySet {
				return nil
			}

			if err := p.SetAutoplay(ctx, autoplay); err != nil {
				return err
			}

			if autoplay && !justLoaded {
				return p.Play(ctx, "", player.Settings{})
			}

			return nil
		}},
		{"direction", optionalStep(s.Direction, func(v player.Direction) error {
			return p.SetDirection(ctx, v)
		})},
		{"intermission", func() error {
			if d, ok := s.IntermissionDuration(); ok {
				return p.SetIntermission(ctx, d)
			}

			return nil
		}},
		{"loop", optionalStep(s.Loop, func(v player.Loop) error {
			return p.SetLoop(ctx, v)
		})},
		{"playMode", optionalStep(s.PlayMode, func(v player.PlayMode) error {
			return p.SetMode(ctx, v)
		})},
		{"speed", optionalStep(s.Speed, func(v float64) error {
			return p.SetSpeed(ctx, v)
		})},
		{"defaultTheme", optionalStep(s.DefaultTheme, func(v string) error {
			return p.SetDefaultTheme(ctx, v)
		})},
		{"playOnScroll", optionalStep(s.PlayOnScroll, func(v player.ScrollOptions) error {
			return p.PlayOnScroll(ctx, v)
		})},
		{"segments", optionalStep(s.Segments, func(v player.Segment) error {
			playable, seekOrigin := v.Plan()
			if seekOrigin {
				return p.GoToAndPlay(ctx, 0, true)
			}

			return p.PlaySegments(ctx, playable, true)
		})},
		{"pause", func() error {
			if autoplaySet && !autoplay {
				return p.Pause(ctx)
			}

			return nil
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrApplySettings, step.name, err)
		}
	}

	return nil
}

func optionalStep[T any](value optional.Value[T], apply func(T) error) func() error {
	return func() error {
		if v, ok := value.Get(); ok {
			return apply(v)
		}

		return nil
	}
}

// applyExit undoes the scoped effects of the state being left. Both undo steps
// run even if the first fails.
func applyExit(ctx context.Context, p player.Player, cmd ExitCommand) error {
	var errs []error

	if cmd.ResetSegments {
		if err := p.ResetSegments(ctx, false); err != nil {
			errs = append(errs, fmt.Errorf("reset segments: %w", err))
		}
	}

	if cmd.StopPlayOnScroll {
		if err := p.StopPlayOnScroll(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop play on scroll: %w", err))
		}
	}

	return errors.Join(errs...)
}
