// Package gesture recognizes hand gestures from per-frame hand landmarks:
// fist-to-swipe motions, pointing and peace signs.
package gesture

import "time"

// Type identifies a recognized gesture.
type Type string

const (
	SwipeLeft  Type = "SWIPE_LEFT"
	SwipeRight Type = "SWIPE_RIGHT"
	Pointing   Type = "POINTING"
	Peace      Type = "PEACE"
)

// IsSwipe reports whether t is a swipe gesture.
func (t Type) IsSwipe() bool {
	return t == SwipeLeft || t == SwipeRight
}

// Result is a discrete gesture event. Intensity is 1-4 for swipes and 0 for
// static gestures.
type Result struct {
	Type      Type      `json:"type"`
	Intensity int       `json:"intensity,omitempty"`
	Hand      int       `json:"hand"`
	At        time.Time `json:"at"`
}

// Position2D is a point in normalized image space.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is the continuous hand state pushed to the renderer whenever it
// changes.
type State struct {
	IsPeace      bool        `json:"isPeace"`
	IsPointing   bool        `json:"isPointing"`
	HandPosition *Position2D `json:"handPosition,omitempty"`
}

// Equal reports whether two states carry the same values.
func (s State) Equal(o State) bool {
	if s.IsPeace != o.IsPeace || s.IsPointing != o.IsPointing {
		return false
	}
	if s.HandPosition == nil || o.HandPosition == nil {
		return s.HandPosition == nil && o.HandPosition == nil
	}
	return *s.HandPosition == *o.HandPosition
}
