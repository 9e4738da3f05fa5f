package detector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const epsilon = 1e-9

func TestHandLandmarks_PalmSize(t *testing.T) {
	t.Run("distance from wrist to middle MCP", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[Wrist] = Landmark{X: 0.10, Y: 0.20}
		hand.Points[MiddleMCP] = Landmark{X: 0.13, Y: 0.24, Z: 5}

		// z is ignored: 3-4-5 triangle scaled by 0.01
		if got := hand.PalmSize(); math.Abs(got-0.05) > epsilon {
			t.Errorf("PalmSize() = %f, want 0.05", got)
		}
	})

	t.Run("fist fixture palm size", func(t *testing.T) {
		hand := FistLandmarks()
		if got := hand.PalmSize(); math.Abs(got-0.15) > epsilon {
			t.Errorf("PalmSize() = %f, want 0.15", got)
		}
	})

	t.Run("collapsed hand has zero palm", func(t *testing.T) {
		hand := HandLandmarks{}
		if got := hand.PalmSize(); got != 0 {
			t.Errorf("PalmSize() = %f, want 0", got)
		}
	})
}

func TestLandmark_Visible(t *testing.T) {
	tests := []struct {
		name       string
		visibility float64
		want       bool
	}{
		{"unreported", 0, true},
		{"below threshold", 0.2, false},
		{"at threshold", 0.5, true},
		{"confident", 0.99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Landmark{X: 0.5, Y: 0.5, Visibility: tt.visibility}
			if got := l.Visible(0.5); got != tt.want {
				t.Errorf("Visible(0.5) with visibility %v = %v, want %v", tt.visibility, got, tt.want)
			}
		})
	}
}

func TestHandLandmarks_IsGesture(t *testing.T) {
	tests := []struct {
		name     string
		hand     HandLandmarks
		label    string
		minScore float64
		want     bool
	}{
		{"fist matches", FistLandmarks(), GestureClosedFist, 0.55, true},
		{"fist is not palm", FistLandmarks(), GestureOpenPalm, 0.55, false},
		{"low score rejected", FistLandmarks().WithGesture(GestureClosedFist, 0.5), GestureClosedFist, 0.55, false},
		{"score at threshold accepted", FistLandmarks().WithGesture(GestureClosedFist, 0.55), GestureClosedFist, 0.55, true},
		{"no label", HandLandmarks{}, GestureClosedFist, 0.55, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hand.IsGesture(tt.label, tt.minScore); got != tt.want {
				t.Errorf("IsGesture(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestHandLandmarks_Translated(t *testing.T) {
	hand := OpenPalmLandmarks()
	moved := hand.Translated(0.1, -0.2)

	for i := range hand.Points {
		if math.Abs(moved.Points[i].X-hand.Points[i].X-0.1) > epsilon {
			t.Errorf("point %d X moved by %f, want 0.1", i, moved.Points[i].X-hand.Points[i].X)
		}
		if math.Abs(moved.Points[i].Y-hand.Points[i].Y+0.2) > epsilon {
			t.Errorf("point %d Y moved by %f, want -0.2", i, moved.Points[i].Y-hand.Points[i].Y)
		}
	}
	if hand.Points[Wrist].X != 0.5 {
		t.Error("Translated modified the receiver")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty frame by default", func(t *testing.T) {
		mock := NewMockDetector()

		frame, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if frame == nil || len(frame.Hands) != 0 {
			t.Errorf("expected empty frame, got %v", frame)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()

		mock.SetHands([]HandLandmarks{
			FistLandmarks(),
			OpenPalmLandmarks(),
		})

		frame, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(frame.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(frame.Hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		frame, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if frame != nil {
			t.Errorf("expected nil frame when error is set, got %v", frame)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestFixtures(t *testing.T) {
	t.Run("fist tips fold back past PIP", func(t *testing.T) {
		hand := FistLandmarks()
		wrist := hand.Points[Wrist]
		for _, f := range [][2]int{{IndexPIP, IndexTip}, {MiddlePIP, MiddleTip}, {RingPIP, RingTip}, {PinkyPIP, PinkyTip}} {
			if Distance2D(hand.Points[f[1]], wrist) >= Distance2D(hand.Points[f[0]], wrist) {
				t.Errorf("tip %d should be closer to the wrist than PIP %d", f[1], f[0])
			}
		}
	})

	t.Run("pointing extends only the index", func(t *testing.T) {
		hand := PointingLandmarks()
		wrist := hand.Points[Wrist]
		if Distance2D(hand.Points[IndexTip], wrist) <= Distance2D(hand.Points[IndexPIP], wrist) {
			t.Error("index tip should be farther than index PIP")
		}
		if Distance2D(hand.Points[MiddleTip], wrist) >= Distance2D(hand.Points[MiddlePIP], wrist) {
			t.Error("middle finger should stay folded")
		}
	})

	t.Run("body pose has all landmarks visible", func(t *testing.T) {
		pose, world := BodyPose()
		if len(pose) != NumPoseLandmarks || len(world) != NumPoseLandmarks {
			t.Fatalf("expected %d landmarks, got %d / %d", NumPoseLandmarks, len(pose), len(world))
		}
		for i := range pose {
			if pose[i].Visibility != 1 || world[i].Visibility != 1 {
				t.Errorf("landmark %d not visible", i)
			}
		}
		width := Distance2D(pose[PoseLeftShoulder], pose[PoseRightShoulder])
		if math.Abs(width-0.2) > epsilon {
			t.Errorf("shoulder width = %f, want 0.2", width)
		}
	})
}

func TestReplaySource(t *testing.T) {
	t.Run("reads frames and skips blank lines", func(t *testing.T) {
		input := `{"timestamp":"2024-01-01T00:00:00Z","hands":[{"points":[{"x":0.5,"y":0.8}],"handedness":"Right","score":0.9,"gesture":{"name":"Closed_Fist","score":0.8}}]}

{"timestamp":"2024-01-01T00:00:00.1Z"}
`
		src := NewReplaySource(strings.NewReader(input))
		ctx := context.Background()

		first, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(first.Hands))
		}
		if !first.Hands[0].IsGesture(GestureClosedFist, 0.55) {
			t.Errorf("expected Closed_Fist label, got %+v", first.Hands[0].Gesture)
		}

		second, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := second.Timestamp.Sub(first.Timestamp); got != 100*time.Millisecond {
			t.Errorf("frame spacing = %v, want 100ms", got)
		}

		if _, err := src.Next(ctx); !errors.Is(err, ErrEndOfStream) {
			t.Errorf("expected ErrEndOfStream, got %v", err)
		}
	})

	t.Run("reports malformed line", func(t *testing.T) {
		src := NewReplaySource(strings.NewReader("{not json}\n"))
		_, err := src.Next(context.Background())
		if err == nil || !strings.Contains(err.Error(), "line 1") {
			t.Errorf("expected line number in error, got %v", err)
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		src := NewReplaySource(strings.NewReader("{}\n"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	rec, err := CreateRecording(path)
	if err != nil {
		t.Fatalf("CreateRecording failed: %v", err)
	}

	pose, world := BodyPose()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		frame := &Frame{
			Timestamp: start.Add(time.Duration(i) * 33 * time.Millisecond),
			Hands:     []HandLandmarks{FistLandmarks()},
			Pose:      pose,
			PoseWorld: world,
		}
		if err := rec.Write(frame); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	src, err := OpenReplay(path)
	if err != nil {
		t.Fatalf("OpenReplay failed: %v", err)
	}
	defer src.Close()

	count := 0
	for {
		frame, err := src.Next(context.Background())
		if errors.Is(err, ErrEndOfStream) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(frame.Pose) != NumPoseLandmarks {
			t.Errorf("frame %d: expected %d pose landmarks, got %d", count, NumPoseLandmarks, len(frame.Pose))
		}
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 frames, got %d", count)
	}
}
