package gesture

// PointingRecognizer fires when only the index finger is extended.
// It is stateless; the thumb is ignored.
type PointingRecognizer struct{}

// Recognize implements Recognizer.
func (PointingRecognizer) Recognize(in Input) *Result {
	if !isPointing(in.Fingers) {
		return nil
	}
	return &Result{Type: Pointing, Hand: in.Index, At: in.At}
}

// IsActive implements Recognizer. Static recognizers are never mid-gesture.
func (PointingRecognizer) IsActive(int) bool { return false }

// Reset implements Recognizer.
func (PointingRecognizer) Reset(int) {}

// PeaceRecognizer fires when index and middle are extended and ring and
// pinky are not. The thumb is ignored.
type PeaceRecognizer struct{}

// Recognize implements Recognizer.
func (PeaceRecognizer) Recognize(in Input) *Result {
	if !isPeace(in.Fingers) {
		return nil
	}
	return &Result{Type: Peace, Hand: in.Index, At: in.At}
}

// IsActive implements Recognizer.
func (PeaceRecognizer) IsActive(int) bool { return false }

// Reset implements Recognizer.
func (PeaceRecognizer) Reset(int) {}

func isPointing(f FingerState) bool {
	return f.Index && !f.Middle && !f.Ring && !f.Pinky
}

func isPeace(f FingerState) bool {
	return f.Index && f.Middle && !f.Ring && !f.Pinky
}
