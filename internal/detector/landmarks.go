// Package detector provides the perception boundary: landmark types for body
// pose and hands, the Detector interface and frame sources.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Pose landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	PoseNose           = 0
	PoseLeftShoulder   = 11
	PoseRightShoulder  = 12
	PoseLeftElbow      = 13
	PoseRightElbow     = 14
	PoseLeftWrist      = 15
	PoseRightWrist     = 16
	PoseLeftHip        = 23
	PoseRightHip       = 24
	PoseLeftKnee       = 25
	PoseRightKnee      = 26
	PoseLeftAnkle      = 27
	PoseRightAnkle     = 28
	PoseLeftFootIndex  = 31
	PoseRightFootIndex = 32
	NumPoseLandmarks   = 33
)

// Canned gesture labels produced by the perception classifier.
const (
	GestureClosedFist = "Closed_Fist"
	GestureOpenPalm   = "Open_Palm"
	GesturePointingUp = "Pointing_Up"
	GestureVictory    = "Victory"
	GestureNone       = "None"
)

// Landmark is a single tracked point. For normalized landmarks X and Y are in
// [0,1] image space with Y pointing down; for world landmarks all three axes
// are metric and centred on the hips.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Visible reports whether the landmark's visibility reaches min. A zero
// visibility means the source did not report one and always passes.
func (l Landmark) Visible(min float64) bool {
	return l.Visibility == 0 || l.Visibility >= min
}

// CannedGesture is the perception classifier's label for a hand.
type CannedGesture struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumHandLandmarks]Landmark `json:"points"`
	Handedness string                     `json:"handedness"` // "Left" or "Right"
	Score      float64                    `json:"score"`
	Gesture    *CannedGesture             `json:"gesture,omitempty"`
}

// Distance2D returns the image-plane distance between two landmarks.
func Distance2D(a, b Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance3D calculates the Euclidean distance between two landmarks.
func Distance3D(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// PalmSize is the image-plane distance from the wrist to the middle finger
// MCP. Swipe distances are measured in multiples of it.
func (h *HandLandmarks) PalmSize() float64 {
	return Distance2D(h.Points[Wrist], h.Points[MiddleMCP])
}

// IsGesture reports whether the canned label matches name with at least
// minScore confidence.
func (h *HandLandmarks) IsGesture(name string, minScore float64) bool {
	return h.Gesture != nil && h.Gesture.Name == name && h.Gesture.Score >= minScore
}
