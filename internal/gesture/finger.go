package gesture

import "github.com/ayusman/vestir/internal/detector"

// FingerState records which fingers are extended.
type FingerState struct {
	Thumb  bool `json:"thumb"`
	Index  bool `json:"index"`
	Middle bool `json:"middle"`
	Ring   bool `json:"ring"`
	Pinky  bool `json:"pinky"`
}

// Count returns the number of extended fingers.
func (f FingerState) Count() int {
	n := 0
	for _, ext := range []bool{f.Thumb, f.Index, f.Middle, f.Ring, f.Pinky} {
		if ext {
			n++
		}
	}
	return n
}

const (
	// mcpRatio is how close the PIP joint may sit to the wrist, relative to
	// the MCP joint, for a finger to still count as extended.
	mcpRatio = 0.8

	// thumbRatio is how much farther the thumb tip must be from the wrist
	// than the IP joint.
	thumbRatio = 1.3
)

// ClassifyFingers decides per finger whether it is extended, using distances
// from the wrist in the image plane. Distances do not depend on hand
// orientation, so a sideways or upside-down hand classifies the same as an
// upright one.
func ClassifyFingers(hand *detector.HandLandmarks) FingerState {
	p := &hand.Points
	wrist := p[detector.Wrist]

	extended := func(mcp, pip, tip int) bool {
		dMcp := detector.Distance2D(p[mcp], wrist)
		dPip := detector.Distance2D(p[pip], wrist)
		dTip := detector.Distance2D(p[tip], wrist)
		return dTip > dPip && dPip > mcpRatio*dMcp
	}

	dThumbIP := detector.Distance2D(p[detector.ThumbIP], wrist)
	dThumbTip := detector.Distance2D(p[detector.ThumbTip], wrist)

	return FingerState{
		Thumb:  dThumbTip > thumbRatio*dThumbIP,
		Index:  extended(detector.IndexMCP, detector.IndexPIP, detector.IndexTip),
		Middle: extended(detector.MiddleMCP, detector.MiddlePIP, detector.MiddleTip),
		Ring:   extended(detector.RingMCP, detector.RingPIP, detector.RingTip),
		Pinky:  extended(detector.PinkyMCP, detector.PinkyPIP, detector.PinkyTip),
	}
}
