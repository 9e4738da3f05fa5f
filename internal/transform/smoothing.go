package transform

import (
	"math"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/go-gl/mathgl/mgl64"
)

// Lerp moves a toward b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec3 moves a toward b by t.
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// WrapToHalfPi folds an angle into [-pi/2, pi/2] by adding or subtracting pi.
// Front-facing garments cannot tell a line's direction apart from its
// reverse, so the smaller magnitude wins.
func WrapToHalfPi(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Remainder(a, math.Pi)
	if a > math.Pi/2 {
		a -= math.Pi
	} else if a < -math.Pi/2 {
		a += math.Pi
	}
	return a
}

// Smoother is a first-order low-pass filter over whole landmark sets,
// applied before placement to calm perception jitter.
type Smoother struct {
	alpha   float64
	enabled bool
	prev    []detector.Landmark
}

// NewSmoother creates a Smoother. alpha is the weight of each new sample.
func NewSmoother(alpha float64, enabled bool) *Smoother {
	return &Smoother{alpha: alpha, enabled: enabled}
}

// Smooth returns the filtered landmarks. A change in landmark count restarts
// the filter from the new sample.
func (s *Smoother) Smooth(ls []detector.Landmark) []detector.Landmark {
	if !s.enabled || len(ls) == 0 {
		return ls
	}

	if len(s.prev) != len(ls) {
		s.prev = append(s.prev[:0], ls...)
		return append([]detector.Landmark(nil), s.prev...)
	}

	for i, l := range ls {
		p := &s.prev[i]
		p.X = Lerp(p.X, l.X, s.alpha)
		p.Y = Lerp(p.Y, l.Y, s.alpha)
		p.Z = Lerp(p.Z, l.Z, s.alpha)
		p.Visibility = l.Visibility
	}
	return append([]detector.Landmark(nil), s.prev...)
}

// SetEnabled turns the filter on or off. Turning it off drops history.
func (s *Smoother) SetEnabled(enabled bool) {
	s.enabled = enabled
	if !enabled {
		s.Reset()
	}
}

// Enabled reports whether the filter is active.
func (s *Smoother) Enabled() bool {
	return s.enabled
}

// Reset drops the filter history.
func (s *Smoother) Reset() {
	s.prev = s.prev[:0]
}
