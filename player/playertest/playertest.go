// Package playertest provides recording fakes of the player contract for tests and
// simulations. Fakes fire events synchronously on the caller's goroutine.
package playertest

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/amp-labs/lottie-interactivity/player"
)

// Call records one command issued to the fake player.
type Call struct {
	Method string
	Args   []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Method, c.Args)
}

type registration struct {
	active bool
	fn     func()
}

type observer struct {
	active bool
	opts   player.IntersectionOptions
}

// Player is an in-memory player.Player that records every command.
type Player struct {
	mu sync.Mutex

	calls    []Call
	failures map[string]error

	current      string
	loaded       bool
	playing      bool
	autoplay     bool
	direction    player.Direction
	loop         player.Loop
	speed        float64
	mode         player.PlayMode
	intermission time.Duration
	theme        string
	segment      *player.Segment
	scrolling    bool

	listeners map[player.Event][]*registration
	observers []*observer
	manifests map[string]player.Settings
}

// Option configures a fake Player.
type Option func(*Player)

// WithLoadedAnimation starts the fake with an animation already rendered.
func WithLoadedAnimation(animationID string) Option {
	return func(p *Player) {
		p.current = animationID
		p.loaded = true
	}
}

// WithManifest gives animationID manifest playback settings, reported through
// player.ManifestProvider.
func WithManifest(animationID string, settings player.Settings) Option {
	return func(p *Player) {
		p.manifests[animationID] = settings
	}
}

// NewPlayer creates a fake player with manifest-like defaults.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		failures:  make(map[string]error),
		direction: player.Forward,
		speed:     1,
		mode:      player.ModeNormal,
		listeners: make(map[player.Event][]*registration),
		manifests: make(map[string]player.Settings),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

var (
	_ player.Player           = (*Player)(nil)
	_ player.ManifestProvider = (*Player)(nil)
)

// ManifestSettings returns the settings registered with WithManifest.
func (p *Player) ManifestSettings(animationID string) (player.Settings, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.manifests[animationID]

	return s, ok
}

// FailOn makes the named method return err from now on. A nil err clears it.
func (p *Player) FailOn(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		delete(p.failures, method)

		return
	}

	p.failures[method] = err
}

func (p *Player) record(method string, args ...any) error {
	p.calls = append(p.calls, Call{Method: method, Args: args})

	return p.failures[method]
}

// Calls returns a copy of every recorded command.
func (p *Player) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.calls)
}

// Methods returns the recorded method names in order.
func (p *Player) Methods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.Method
	}

	return out
}

// Count returns how many times method was called.
func (p *Player) Count(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0

	for _, c := range p.calls {
		if c.Method == method {
			n++
		}
	}

	return n
}

// ResetCalls forgets the recorded commands but keeps player state.
func (p *Player) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = nil
}

func (p *Player) CurrentAnimationID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

func (p *Player) AnimationLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.loaded
}

func (p *Player) Play(_ context.Context, animationID string, overrides player.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("Play", animationID, overrides); err != nil {
		return err
	}

	if animationID != "" {
		p.current = animationID
		p.loaded = true
	}

	overrides.Autoplay.ForEach(func(v bool) { p.autoplay = v })
	overrides.Direction.ForEach(func(v player.Direction) { p.direction = v })
	overrides.Loop.ForEach(func(v player.Loop) { p.loop = v })
	overrides.Speed.ForEach(func(v float64) { p.speed = v })
	overrides.PlayMode.ForEach(func(v player.PlayMode) { p.mode = v })
	p.playing = true

	return nil
}

func (p *Player) Pause(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("Pause"); err != nil {
		return err
	}

	p.playing = false

	return nil
}

func (p *Player) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("Stop"); err != nil {
		return err
	}

	p.playing = false

	return nil
}

func (p *Player) SetAutoplay(_ context.Context, autoplay bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetAutoplay", autoplay); err != nil {
		return err
	}

	p.autoplay = autoplay

	return nil
}

func (p *Player) SetDirection(_ context.Context, direction player.Direction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetDirection", direction); err != nil {
		return err
	}

	p.direction = direction

	return nil
}

func (p *Player) SetIntermission(_ context.Context, intermission time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetIntermission", intermission); err != nil {
		return err
	}

	p.intermission = intermission

	return nil
}

func (p *Player) SetLoop(_ context.Context, loop player.Loop) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetLoop", loop); err != nil {
		return err
	}

	p.loop = loop

	return nil
}

func (p *Player) SetMode(_ context.Context, mode player.PlayMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetMode", mode); err != nil {
		return err
	}

	p.mode = mode

	return nil
}

func (p *Player) SetSpeed(_ context.Context, speed float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetSpeed", speed); err != nil {
		return err
	}

	p.speed = speed

	return nil
}

func (p *Player) SetDefaultTheme(_ context.Context, themeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("SetDefaultTheme", themeID); err != nil {
		return err
	}

	p.theme = themeID

	return nil
}

func (p *Player) PlayOnScroll(_ context.Context, opts player.ScrollOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("PlayOnScroll", opts); err != nil {
		return err
	}

	p.scrolling = true

	return nil
}

func (p *Player) StopPlayOnScroll(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("StopPlayOnScroll"); err != nil {
		return err
	}

	p.scrolling = false

	return nil
}

func (p *Player) PlaySegments(_ context.Context, segment player.Segment, forcePlay bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("PlaySegments", segment, forcePlay); err != nil {
		return err
	}

	p.segment = &segment

	if forcePlay {
		p.playing = true
	}

	return nil
}

func (p *Player) GoToAndPlay(_ context.Context, value float64, isFrame bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("GoToAndPlay", value, isFrame); err != nil {
		return err
	}

	p.playing = true

	return nil
}

func (p *Player) ResetSegments(_ context.Context, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("ResetSegments", force); err != nil {
		return err
	}

	p.segment = nil

	return nil
}

func (p *Player) AddIntersectionObserver(opts player.IntersectionOptions) (io.Closer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("AddIntersectionObserver", len(opts.Thresholds)); err != nil {
		return nil, err
	}

	obs := &observer{active: true, opts: opts}
	p.observers = append(p.observers, obs)

	return closeFunc(func() error {
		p.mu.Lock()
		defer p.mu.Unlock()

		obs.active = false

		return nil
	}), nil
}

func (p *Player) AddEventListener(event player.Event, handler func()) (io.Closer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.record("AddEventListener", event); err != nil {
		return nil, err
	}

	reg := &registration{active: true, fn: handler}
	p.listeners[event] = append(p.listeners[event], reg)

	return closeFunc(func() error {
		p.mu.Lock()
		defer p.mu.Unlock()

		reg.active = false

		return nil
	}), nil
}

// Emit fires event to every active listener, synchronously.
func (p *Player) Emit(event player.Event) {
	p.mu.Lock()

	var handlers []func()

	for _, reg := range p.listeners[event] {
		if reg.active {
			handlers = append(handlers, reg.fn)
		}
	}

	p.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// Intersect reports a visibility percentage to every active observer, synchronously.
func (p *Player) Intersect(visibility float64) {
	p.mu.Lock()

	var callbacks []func(float64)

	for _, obs := range p.observers {
		if obs.active && obs.opts.OnIntersect != nil {
			callbacks = append(callbacks, obs.opts.OnIntersect)
		}
	}

	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(visibility)
	}
}

// ListenerCount returns the number of active listeners for event.
func (p *Player) ListenerCount(event player.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0

	for _, reg := range p.listeners[event] {
		if reg.active {
			n++
		}
	}

	return n
}

// ObserverCount returns the number of active intersection observers.
func (p *Player) ObserverCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0

	for _, obs := range p.observers {
		if obs.active {
			n++
		}
	}

	return n
}

// State is a snapshot of the fake's playback state.
type State struct {
	Animation    string
	Playing      bool
	Autoplay     bool
	Direction    player.Direction
	Loop         player.Loop
	Speed        float64
	Mode         player.PlayMode
	Intermission time.Duration
	Theme        string
	Segment      *player.Segment
	Scrolling    bool
}

// Snapshot returns the current playback state.
func (p *Player) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return State{
		Animation:    p.current,
		Playing:      p.playing,
		Autoplay:     p.autoplay,
		Direction:    p.direction,
		Loop:         p.loop,
		Speed:        p.speed,
		Mode:         p.mode,
		Intermission: p.intermission,
		Theme:        p.theme,
		Segment:      p.segment,
		Scrolling:    p.scrolling,
	}
}

// Element is an in-memory player.Element.
type Element struct {
	mu        sync.Mutex
	listeners map[string][]*registration
}

var _ player.Element = (*Element)(nil)

// NewElement creates an empty fake container.
func NewElement() *Element {
	return &Element{listeners: make(map[string][]*registration)}
}

func (e *Element) AddEventListener(event string, handler func()) (io.Closer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reg := &registration{active: true, fn: handler}
	e.listeners[event] = append(e.listeners[event], reg)

	return closeFunc(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		reg.active = false

		return nil
	}), nil
}

// Dispatch fires event to every active listener, synchronously.
func (e *Element) Dispatch(event string) {
	e.mu.Lock()

	var handlers []func()

	for _, reg := range e.listeners[event] {
		if reg.active {
			handlers = append(handlers, reg.fn)
		}
	}

	e.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// ListenerCount returns the number of active listeners for event.
func (e *Element) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0

	for _, reg := range e.listeners[event] {
		if reg.active {
			n++
		}
	}

	return n
}

// TotalListeners returns the number of active listeners across all events.
func (e *Element) TotalListeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0

	for _, regs := range e.listeners {
		for _, reg := range regs {
			if reg.active {
				n++
			}
		}
	}

	return n
}

type closeFunc func() error

func (f closeFunc) Close() error {
	return f()
}
