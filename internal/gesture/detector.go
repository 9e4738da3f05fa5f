package gesture

import (
	"fmt"
	"time"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/cyclopcam/logs"
)

// Config holds the orchestrator's tuning.
type Config struct {
	Swipe SwipeConfig

	// SwipeCooldown is the minimum time between two emitted swipes.
	SwipeCooldown time.Duration

	// StaticCooldown is the minimum time between two emitted static
	// gestures (pointing, peace). Valid range is 500ms-1500ms.
	StaticCooldown time.Duration
}

// DefaultConfig returns a Config with the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Swipe:          DefaultSwipeConfig(),
		SwipeCooldown:  800 * time.Millisecond,
		StaticCooldown: 1500 * time.Millisecond,
	}
}

// Validate checks the configured cooldowns.
func (c Config) Validate() error {
	if c.SwipeCooldown < 0 {
		return fmt.Errorf("swipe cooldown must not be negative, got %v", c.SwipeCooldown)
	}
	if c.StaticCooldown < 500*time.Millisecond || c.StaticCooldown > 1500*time.Millisecond {
		return fmt.Errorf("static cooldown must be within 500ms-1500ms, got %v", c.StaticCooldown)
	}
	if c.Swipe.MinFistFrames < 1 || c.Swipe.MinOpenFrames < 1 {
		return fmt.Errorf("swipe frame counts must be positive")
	}
	return nil
}

// Detector fans hand observations out to the recognizers, arbitrates between
// swipe and static gestures and maintains the continuous hand state.
type Detector struct {
	config         Config
	log            logs.Log
	swipe          *SwipeRecognizer
	statics        []Recognizer
	swipeCooldown  *Cooldown
	staticCooldown *Cooldown
	state          State
	handSlots      int

	// OnGesture is called for every emitted gesture, in hand order.
	OnGesture func(Result)

	// OnState is called whenever the continuous state changes.
	OnState func(State)
}

// NewDetector creates a Detector. Static recognizers are tried in order:
// pointing, then peace.
func NewDetector(config Config, log logs.Log) *Detector {
	return &Detector{
		config:         config,
		log:            log,
		swipe:          NewSwipeRecognizer(config.Swipe),
		statics:        []Recognizer{PointingRecognizer{}, PeaceRecognizer{}},
		swipeCooldown:  NewCooldown(config.SwipeCooldown),
		staticCooldown: NewCooldown(config.StaticCooldown),
	}
}

// Process runs every recognizer over one frame's hands and returns the
// gestures emitted for it. at is the frame's capture time and drives both the
// swipe velocity and the cooldowns.
func (d *Detector) Process(hands []detector.HandLandmarks, at time.Time) []Result {
	if len(hands) == 0 {
		if d.handSlots > 0 || d.swipe.Tracked() > 0 {
			d.log.Debugf("All hands lost, resetting gesture state")
		}
		d.swipe.ResetAll()
		d.handSlots = 0
		d.setState(State{})
		return nil
	}

	// Slots that disappeared since the last frame lose their state.
	for i := len(hands); i < d.handSlots; i++ {
		d.swipe.Reset(i)
	}
	d.handSlots = len(hands)

	var results []Result
	var next State

	for i := range hands {
		hand := &hands[i]
		in := Input{
			Hand:    hand,
			Fingers: ClassifyFingers(hand),
			Index:   i,
			At:      at,
		}

		if r := d.swipe.Recognize(in); r != nil {
			if d.swipeCooldown.CanTrigger(at) {
				d.swipeCooldown.Trigger(at)
				results = append(results, d.emit(*r))
			} else {
				d.log.Debugf("Swipe %s on hand %d suppressed by cooldown", r.Type, i)
			}
		}

		// Mid-swipe hands never register static poses.
		if d.swipe.IsActive(i) {
			continue
		}

		if isPointing(in.Fingers) {
			next.IsPointing = true
		}
		if isPeace(in.Fingers) {
			next.IsPeace = true
		}

		for _, rec := range d.statics {
			r := rec.Recognize(in)
			if r == nil {
				continue
			}
			if d.staticCooldown.CanTrigger(at) {
				d.staticCooldown.Trigger(at)
				results = append(results, d.emit(*r))
			}
			break
		}
	}

	tip := hands[0].Points[detector.IndexTip]
	next.HandPosition = &Position2D{X: tip.X, Y: tip.Y}
	d.setState(next)

	return results
}

func (d *Detector) emit(r Result) Result {
	d.log.Debugf("Gesture %s (intensity %d) on hand %d", r.Type, r.Intensity, r.Hand)
	if d.OnGesture != nil {
		d.OnGesture(r)
	}
	return r
}

func (d *Detector) setState(next State) {
	if next.Equal(d.state) {
		return
	}
	d.state = next
	if d.OnState != nil {
		d.OnState(next)
	}
}

// State returns the current continuous state.
func (d *Detector) State() State {
	return d.state
}

// SwipePhase returns the swipe phase of a hand slot.
func (d *Detector) SwipePhase(hand int) SwipePhase {
	return d.swipe.Phase(hand)
}

// Reset discards every per-hand state machine, the cooldowns and the
// continuous state. OnState fires if the state was not already empty.
func (d *Detector) Reset() {
	d.swipe.ResetAll()
	for _, rec := range d.statics {
		for i := 0; i < d.handSlots; i++ {
			rec.Reset(i)
		}
	}
	d.handSlots = 0
	d.swipeCooldown.Reset()
	d.staticCooldown.Reset()
	d.setState(State{})
}
