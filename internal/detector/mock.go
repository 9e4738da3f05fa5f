package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	frame *Frame
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	if m.frame == nil {
		m.frame = &Frame{}
	}
	m.frame.Hands = hands
}

// SetFrame sets the whole frame that will be returned by Detect.
func (m *MockDetector) SetFrame(frame *Frame) {
	m.frame = frame
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns a copy of the pre-configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Frame, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.frame == nil {
		return &Frame{}, nil
	}
	out := *m.frame
	return &out, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Translated returns a copy of the hand moved by (dx, dy) in image space.
func (h HandLandmarks) Translated(dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// WithGesture returns a copy of the hand carrying the given canned label.
func (h HandLandmarks) WithGesture(name string, score float64) HandLandmarks {
	h.Gesture = &CannedGesture{Name: name, Score: score}
	return h
}

// FistLandmarks returns a preset HandLandmarks representing a closed fist.
// Every fingertip is folded back closer to the wrist than its PIP joint.
// The palm size (wrist to middle MCP) is 0.15.
func FistLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Gesture:    &CannedGesture{Name: GestureClosedFist, Score: 0.9},
	}

	landmarks.Points[Wrist] = Landmark{X: 0.5, Y: 0.8}

	// Thumb tucked across the fingers
	landmarks.Points[ThumbCMC] = Landmark{X: 0.55, Y: 0.76}
	landmarks.Points[ThumbMCP] = Landmark{X: 0.58, Y: 0.72}
	landmarks.Points[ThumbIP] = Landmark{X: 0.57, Y: 0.68}
	landmarks.Points[ThumbTip] = Landmark{X: 0.54, Y: 0.68}

	landmarks.Points[IndexMCP] = Landmark{X: 0.55, Y: 0.66, Z: -0.02}
	landmarks.Points[IndexPIP] = Landmark{X: 0.55, Y: 0.60, Z: -0.05}
	landmarks.Points[IndexDIP] = Landmark{X: 0.54, Y: 0.64, Z: -0.04}
	landmarks.Points[IndexTip] = Landmark{X: 0.54, Y: 0.68, Z: -0.02}

	landmarks.Points[MiddleMCP] = Landmark{X: 0.50, Y: 0.65, Z: -0.02}
	landmarks.Points[MiddlePIP] = Landmark{X: 0.50, Y: 0.59, Z: -0.05}
	landmarks.Points[MiddleDIP] = Landmark{X: 0.50, Y: 0.63, Z: -0.04}
	landmarks.Points[MiddleTip] = Landmark{X: 0.50, Y: 0.67, Z: -0.02}

	landmarks.Points[RingMCP] = Landmark{X: 0.45, Y: 0.66, Z: -0.02}
	landmarks.Points[RingPIP] = Landmark{X: 0.45, Y: 0.60, Z: -0.05}
	landmarks.Points[RingDIP] = Landmark{X: 0.46, Y: 0.64, Z: -0.04}
	landmarks.Points[RingTip] = Landmark{X: 0.46, Y: 0.68, Z: -0.02}

	landmarks.Points[PinkyMCP] = Landmark{X: 0.41, Y: 0.68, Z: -0.02}
	landmarks.Points[PinkyPIP] = Landmark{X: 0.40, Y: 0.63, Z: -0.05}
	landmarks.Points[PinkyDIP] = Landmark{X: 0.41, Y: 0.66, Z: -0.04}
	landmarks.Points[PinkyTip] = Landmark{X: 0.42, Y: 0.70, Z: -0.02}

	return landmarks
}

// PointingLandmarks returns a fist with only the index finger extended.
func PointingLandmarks() HandLandmarks {
	landmarks := FistLandmarks()
	landmarks.Gesture = &CannedGesture{Name: GesturePointingUp, Score: 0.8}

	landmarks.Points[IndexPIP] = Landmark{X: 0.55, Y: 0.55}
	landmarks.Points[IndexDIP] = Landmark{X: 0.55, Y: 0.47}
	landmarks.Points[IndexTip] = Landmark{X: 0.55, Y: 0.40}

	return landmarks
}

// PeaceLandmarks returns a fist with the index and middle fingers extended.
func PeaceLandmarks() HandLandmarks {
	landmarks := PointingLandmarks()
	landmarks.Gesture = &CannedGesture{Name: GestureVictory, Score: 0.8}

	landmarks.Points[MiddlePIP] = Landmark{X: 0.50, Y: 0.53}
	landmarks.Points[MiddleDIP] = Landmark{X: 0.50, Y: 0.44}
	landmarks.Points[MiddleTip] = Landmark{X: 0.50, Y: 0.36}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Gesture:    &CannedGesture{Name: GestureOpenPalm, Score: 0.9},
	}

	// Wrist at base
	landmarks.Points[Wrist] = Landmark{X: 0.5, Y: 0.8}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Landmark{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Landmark{X: 0.66, Y: 0.67, Z: 0.03}
	landmarks.Points[ThumbTip] = Landmark{X: 0.74, Y: 0.60, Z: 0.03}

	// Index finger extended upward
	landmarks.Points[IndexMCP] = Landmark{X: 0.55, Y: 0.68}
	landmarks.Points[IndexPIP] = Landmark{X: 0.57, Y: 0.55}
	landmarks.Points[IndexDIP] = Landmark{X: 0.58, Y: 0.45}
	landmarks.Points[IndexTip] = Landmark{X: 0.58, Y: 0.35}

	// Middle finger extended upward (slightly longer)
	landmarks.Points[MiddleMCP] = Landmark{X: 0.50, Y: 0.66}
	landmarks.Points[MiddlePIP] = Landmark{X: 0.50, Y: 0.52}
	landmarks.Points[MiddleDIP] = Landmark{X: 0.50, Y: 0.40}
	landmarks.Points[MiddleTip] = Landmark{X: 0.50, Y: 0.28}

	// Ring finger extended upward
	landmarks.Points[RingMCP] = Landmark{X: 0.45, Y: 0.68}
	landmarks.Points[RingPIP] = Landmark{X: 0.43, Y: 0.55}
	landmarks.Points[RingDIP] = Landmark{X: 0.42, Y: 0.45}
	landmarks.Points[RingTip] = Landmark{X: 0.42, Y: 0.35}

	// Pinky finger extended upward
	landmarks.Points[PinkyMCP] = Landmark{X: 0.40, Y: 0.70}
	landmarks.Points[PinkyPIP] = Landmark{X: 0.37, Y: 0.60}
	landmarks.Points[PinkyDIP] = Landmark{X: 0.35, Y: 0.50}
	landmarks.Points[PinkyTip] = Landmark{X: 0.34, Y: 0.42}

	return landmarks
}

// BodyPose returns a frontal standing pose: 33 normalized landmarks with a
// shoulder width of 0.2 and the matching hip-centred world landmarks with
// arms hanging straight down.
func BodyPose() (pose []Landmark, world []Landmark) {
	pose = make([]Landmark, NumPoseLandmarks)
	world = make([]Landmark, NumPoseLandmarks)

	// Face points collapse onto the nose.
	for i := 0; i < PoseLeftShoulder; i++ {
		pose[i] = Landmark{X: 0.5, Y: 0.15, Visibility: 1}
		world[i] = Landmark{X: 0, Y: -0.65, Z: -0.05, Visibility: 1}
	}

	set := func(idx int, p, w Landmark) {
		p.Visibility = 1
		w.Visibility = 1
		pose[idx] = p
		world[idx] = w
	}

	set(PoseLeftShoulder, Landmark{X: 0.60, Y: 0.30}, Landmark{X: 0.18, Y: -0.50})
	set(PoseRightShoulder, Landmark{X: 0.40, Y: 0.30}, Landmark{X: -0.18, Y: -0.50})
	set(PoseLeftElbow, Landmark{X: 0.62, Y: 0.45}, Landmark{X: 0.18, Y: -0.25})
	set(PoseRightElbow, Landmark{X: 0.38, Y: 0.45}, Landmark{X: -0.18, Y: -0.25})
	set(PoseLeftWrist, Landmark{X: 0.62, Y: 0.58}, Landmark{X: 0.18, Y: -0.02})
	set(PoseRightWrist, Landmark{X: 0.38, Y: 0.58}, Landmark{X: -0.18, Y: -0.02})

	// Hand points (17-22) sit on the wrists.
	for _, pair := range [][2]int{{17, PoseLeftWrist}, {18, PoseRightWrist}, {19, PoseLeftWrist}, {20, PoseRightWrist}, {21, PoseLeftWrist}, {22, PoseRightWrist}} {
		pose[pair[0]] = pose[pair[1]]
		world[pair[0]] = world[pair[1]]
	}

	set(PoseLeftHip, Landmark{X: 0.56, Y: 0.60}, Landmark{X: 0.10})
	set(PoseRightHip, Landmark{X: 0.44, Y: 0.60}, Landmark{X: -0.10})
	set(PoseLeftKnee, Landmark{X: 0.56, Y: 0.78}, Landmark{X: 0.10, Y: 0.42})
	set(PoseRightKnee, Landmark{X: 0.44, Y: 0.78}, Landmark{X: -0.10, Y: 0.42})
	set(PoseLeftAnkle, Landmark{X: 0.56, Y: 0.95}, Landmark{X: 0.10, Y: 0.82})
	set(PoseRightAnkle, Landmark{X: 0.44, Y: 0.95}, Landmark{X: -0.10, Y: 0.82})

	// Heels and toes (29-32) sit on the ankles.
	for _, pair := range [][2]int{{29, PoseLeftAnkle}, {30, PoseRightAnkle}, {PoseLeftFootIndex, PoseLeftAnkle}, {PoseRightFootIndex, PoseRightAnkle}} {
		pose[pair[0]] = pose[pair[1]]
		world[pair[0]] = world[pair[1]]
	}

	return pose, world
}
