package gesture

import (
	"math"
	"time"

	"github.com/ayusman/vestir/internal/detector"
)

// Input is one hand observation handed to a recognizer.
type Input struct {
	Hand    *detector.HandLandmarks
	Fingers FingerState
	Index   int
	At      time.Time
}

// Recognizer turns hand observations into gesture results.
type Recognizer interface {
	// Recognize returns a result when the gesture completes on this frame.
	Recognize(in Input) *Result
	// IsActive reports whether the recognizer is mid-gesture for a hand.
	IsActive(hand int) bool
	// Reset discards state for a hand.
	Reset(hand int)
}

// SwipePhase is the swipe state machine position for one hand.
type SwipePhase int

const (
	PhaseIdle SwipePhase = iota
	PhaseFistDetected
	PhaseFistHeld
	PhaseWaitOpen
)

func (p SwipePhase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseFistDetected:
		return "FIST_DETECTED"
	case PhaseFistHeld:
		return "FIST_HELD"
	case PhaseWaitOpen:
		return "WAIT_OPEN"
	default:
		return "UNKNOWN"
	}
}

// SwipeConfig tunes the swipe state machine.
type SwipeConfig struct {
	// MinGestureScore is the canned-label confidence needed to trust
	// Closed_Fist or Open_Palm.
	MinGestureScore float64
	// MinFistFrames is how many consecutive fist frames latch the start.
	MinFistFrames int
	// MaxLostFistFrames is how many non-fist frames are tolerated while held.
	MaxLostFistFrames int
	// MinOpenFrames is how many open-palm frames re-arm after a swipe.
	MinOpenFrames int
	// MinDistanceRatio is the wrist travel, in palm sizes, that completes a swipe.
	MinDistanceRatio float64
	// Velocity thresholds in normalized image widths per second for
	// intensity 2, 3 and 4.
	VelocityMedium   float64
	VelocityFast     float64
	VelocityVeryFast float64
}

// DefaultSwipeConfig returns the tuned swipe constants.
func DefaultSwipeConfig() SwipeConfig {
	return SwipeConfig{
		MinGestureScore:   0.55,
		MinFistFrames:     2,
		MaxLostFistFrames: 3,
		MinOpenFrames:     2,
		MinDistanceRatio:  0.25,
		VelocityMedium:    0.5,
		VelocityFast:      0.8,
		VelocityVeryFast:  1.2,
	}
}

// minPalmSize below which a hand is treated as degenerate.
const minPalmSize = 1e-6

// minElapsed floors the swipe duration for the velocity estimate.
const minElapsed = time.Millisecond

type handSwipeState struct {
	phase          SwipePhase
	fistFrames     int
	lostFistFrames int
	openFrames     int
	startX         float64
	startAt        time.Time
	palm           float64
}

// SwipeRecognizer detects a closed fist followed by a horizontal wrist
// motion, per hand. After a swipe the hand must open before another swipe
// can start.
type SwipeRecognizer struct {
	config SwipeConfig
	hands  map[int]*handSwipeState
}

// NewSwipeRecognizer creates a SwipeRecognizer.
func NewSwipeRecognizer(config SwipeConfig) *SwipeRecognizer {
	return &SwipeRecognizer{
		config: config,
		hands:  make(map[int]*handSwipeState),
	}
}

// Recognize advances the state machine for one hand observation.
func (r *SwipeRecognizer) Recognize(in Input) *Result {
	palm := in.Hand.PalmSize()
	if palm < minPalmSize {
		r.Reset(in.Index)
		return nil
	}

	isFist := in.Hand.IsGesture(detector.GestureClosedFist, r.config.MinGestureScore)
	isOpen := in.Hand.IsGesture(detector.GestureOpenPalm, r.config.MinGestureScore)
	wristX := in.Hand.Points[detector.Wrist].X

	st, ok := r.hands[in.Index]
	if !ok {
		st = &handSwipeState{}
		r.hands[in.Index] = st
	}

	switch st.phase {
	case PhaseIdle:
		if isFist {
			st.phase = PhaseFistDetected
			st.fistFrames = 1
			st.lostFistFrames = 0
		}

	case PhaseFistDetected:
		switch {
		case isOpen:
			r.waitOpen(st)
		case isFist:
			st.fistFrames++
			st.lostFistFrames = 0
			if st.fistFrames >= r.config.MinFistFrames {
				// Latch the start position on the confirming frame.
				st.phase = PhaseFistHeld
				st.startX = wristX
				st.startAt = in.At
				st.palm = palm
			}
		default:
			st.fistFrames = 0
			st.lostFistFrames++
			if st.lostFistFrames > r.config.MaxLostFistFrames {
				r.Reset(in.Index)
			}
		}

	case PhaseFistHeld:
		if isOpen {
			// Opened before travelling far enough: cancel.
			r.waitOpen(st)
			return nil
		}
		if isFist {
			st.lostFistFrames = 0
		} else {
			st.lostFistFrames++
			if st.lostFistFrames > r.config.MaxLostFistFrames {
				r.Reset(in.Index)
				return nil
			}
		}

		dx := wristX - st.startX
		if math.Abs(dx) < st.palm*r.config.MinDistanceRatio {
			return nil
		}

		elapsed := in.At.Sub(st.startAt)
		if elapsed < minElapsed {
			elapsed = minElapsed
		}
		velocity := math.Abs(dx) / elapsed.Seconds()

		result := &Result{
			Type:      SwipeLeft,
			Intensity: r.intensity(velocity),
			Hand:      in.Index,
			At:        in.At,
		}
		if dx > 0 {
			result.Type = SwipeRight
		}

		r.waitOpen(st)
		return result

	case PhaseWaitOpen:
		if isOpen {
			st.openFrames++
			if st.openFrames >= r.config.MinOpenFrames {
				r.Reset(in.Index)
			}
		} else {
			st.openFrames = 0
		}
	}

	return nil
}

func (r *SwipeRecognizer) waitOpen(st *handSwipeState) {
	st.phase = PhaseWaitOpen
	st.fistFrames = 0
	st.lostFistFrames = 0
	st.openFrames = 0
}

// intensity quantizes a wrist velocity into 1-4.
func (r *SwipeRecognizer) intensity(velocity float64) int {
	switch {
	case velocity >= r.config.VelocityVeryFast:
		return 4
	case velocity >= r.config.VelocityFast:
		return 3
	case velocity >= r.config.VelocityMedium:
		return 2
	default:
		return 1
	}
}

// Phase returns the current phase for a hand; hands without state are idle.
func (r *SwipeRecognizer) Phase(hand int) SwipePhase {
	if st, ok := r.hands[hand]; ok {
		return st.phase
	}
	return PhaseIdle
}

// IsActive reports whether the hand is anywhere past idle.
func (r *SwipeRecognizer) IsActive(hand int) bool {
	return r.Phase(hand) != PhaseIdle
}

// Reset drops a hand's state.
func (r *SwipeRecognizer) Reset(hand int) {
	delete(r.hands, hand)
}

// ResetAll drops every hand's state.
func (r *SwipeRecognizer) ResetAll() {
	r.hands = make(map[int]*handSwipeState)
}

// Tracked returns the number of hands holding state.
func (r *SwipeRecognizer) Tracked() int {
	return len(r.hands)
}
