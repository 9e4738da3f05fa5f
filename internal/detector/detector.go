package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrEndOfStream is returned by a frame source that has no more frames.
var ErrEndOfStream = errors.New("end of stream")

// Frame is one perception result: hands with canned labels plus the body pose
// in normalized image space and in metric world space.
type Frame struct {
	Timestamp time.Time       `json:"timestamp"`
	Hands     []HandLandmarks `json:"hands,omitempty"`
	Pose      []Landmark      `json:"pose,omitempty"`
	PoseWorld []Landmark      `json:"poseWorld,omitempty"`
}

// Detector defines the interface for perception implementations.
type Detector interface {
	// Detect analyzes a video frame and returns hands and body pose.
	// A frame without people yields empty slices, not an error.
	Detect(frame *gocv.Mat) (*Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for perception.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Pose enables the body pose landmarker.
	Pose bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Pose:            true,
	}
}
