package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/vestir/internal/capture"
	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/garment"
	"github.com/ayusman/vestir/internal/gesture"
	"github.com/ayusman/vestir/internal/scene"
	"github.com/ayusman/vestir/internal/store"
	"github.com/cyclopcam/logs"
	"github.com/go-gl/mathgl/mgl64"
	"gocv.io/x/gocv"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func fistAt(x float64) detector.HandLandmarks {
	return detector.FistLandmarks().Translated(x-0.5, 0)
}

// swipeFrames is a fist held at the centre and then dragged a quarter of
// the image to the right.
func swipeFrames() []*detector.Frame {
	return []*detector.Frame{
		{Timestamp: at(0), Hands: []detector.HandLandmarks{fistAt(0.5)}},
		{Timestamp: at(30), Hands: []detector.HandLandmarks{fistAt(0.5)}},
		{Timestamp: at(200), Hands: []detector.HandLandmarks{fistAt(0.75)}},
	}
}

func boxModel() *scene.Node {
	model := scene.NewNode("model")
	mesh := scene.NewNode("Mesh")
	mesh.Bounds = &scene.AABB{Min: mgl64.Vec3{-0.5, -0.5, 0}, Max: mgl64.Vec3{0.5, 0.5, 0.1}}
	model.Add(mesh)
	return model
}

func newTestApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()
	config := DefaultConfig()
	config.Mirror = false
	config.FPS = 1000
	if mutate != nil {
		mutate(&config)
	}
	a, err := New(config, logs.NewTestingLog(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestConfig_ApplySettings(t *testing.T) {
	log := logs.NewTestingLog(t)

	t.Run("all keys", func(t *testing.T) {
		c := DefaultConfig()
		err := c.ApplySettings(map[string]string{
			SettingSwipeCooldown:     "600",
			SettingStaticCooldown:    "1000",
			SettingGarmentSmoothing:  "0.5",
			SettingReferenceFloor:    "0.7",
			SettingRetargetSmoothing: "0.4",
			SettingMirror:            "false",
			SettingLandmarkSmoothing: "0.6",
		}, log)
		if err != nil {
			t.Fatalf("ApplySettings() error = %v", err)
		}

		if c.Gesture.SwipeCooldown != 600*time.Millisecond {
			t.Errorf("SwipeCooldown = %v, want 600ms", c.Gesture.SwipeCooldown)
		}
		if c.Gesture.StaticCooldown != time.Second {
			t.Errorf("StaticCooldown = %v, want 1s", c.Gesture.StaticCooldown)
		}
		if c.Garment.Smoothing != 0.5 || c.Garment.ReferenceFloor != 0.7 {
			t.Errorf("garment = %v/%v, want 0.5/0.7", c.Garment.Smoothing, c.Garment.ReferenceFloor)
		}
		if c.Retarget.Smoothing != 0.4 {
			t.Errorf("retarget smoothing = %v, want 0.4", c.Retarget.Smoothing)
		}
		if c.Mirror {
			t.Error("Mirror = true, want false")
		}
		if c.LandmarkSmoothing != 0.6 {
			t.Errorf("LandmarkSmoothing = %v, want 0.6", c.LandmarkSmoothing)
		}
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		c := DefaultConfig()
		if err := c.ApplySettings(map[string]string{"ui.theme": "dark"}, log); err != nil {
			t.Errorf("ApplySettings() error = %v", err)
		}
	})

	tests := []struct {
		name     string
		settings map[string]string
		want     string
	}{
		{"malformed duration", map[string]string{SettingSwipeCooldown: "soon"}, SettingSwipeCooldown},
		{"malformed bool", map[string]string{SettingMirror: "sometimes"}, SettingMirror},
		{"static cooldown out of range", map[string]string{SettingStaticCooldown: "100"}, "static cooldown"},
		{"zero smoothing", map[string]string{SettingGarmentSmoothing: "0"}, SettingGarmentSmoothing},
		{"floor above one", map[string]string{SettingReferenceFloor: "1.5"}, SettingReferenceFloor},
		{"NaN garment smoothing", map[string]string{SettingGarmentSmoothing: "NaN"}, SettingGarmentSmoothing},
		{"NaN retarget smoothing", map[string]string{SettingRetargetSmoothing: "NaN"}, SettingRetargetSmoothing},
		{"NaN floor", map[string]string{SettingReferenceFloor: "NaN"}, SettingReferenceFloor},
		{"NaN landmark smoothing", map[string]string{SettingLandmarkSmoothing: "NaN"}, SettingLandmarkSmoothing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			err := c.ApplySettings(tt.settings, log)
			if err == nil {
				t.Fatal("ApplySettings() error = nil, want an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.FPS = 0
	if _, err := New(config, logs.NewTestingLog(t)); err == nil {
		t.Error("New() with zero fps should fail")
	}
}

func TestApp_ProcessFrame_Gestures(t *testing.T) {
	tests := []struct {
		name   string
		mirror bool
		want   gesture.Type
	}{
		{"camera view", false, gesture.SwipeRight},
		{"mirrored view", true, gesture.SwipeLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, func(c *Config) { c.Mirror = tt.mirror })

			var updates []Update
			a.Subscribe(func(u Update) { updates = append(updates, u) })

			var last Update
			for _, f := range swipeFrames() {
				last = a.ProcessFrame(f)
			}

			if len(updates) != 3 {
				t.Fatalf("subscriber saw %d updates, want 3", len(updates))
			}
			if len(last.Gestures) != 1 || last.Gestures[0].Type != tt.want {
				t.Fatalf("Gestures = %+v, want one %s", last.Gestures, tt.want)
			}
			if last.Gestures[0].Intensity != 4 {
				t.Errorf("Intensity = %d, want 4", last.Gestures[0].Intensity)
			}
			if !last.Timestamp.Equal(at(200)) {
				t.Errorf("Timestamp = %v, want %v", last.Timestamp, at(200))
			}

			if updates[0].State == nil || updates[0].State.HandPosition == nil {
				t.Error("first frame should report a state change")
			}
			if updates[1].State != nil {
				t.Errorf("unchanged frame reported state %+v", updates[1].State)
			}
		})
	}
}

func TestApp_ProcessFrame_HandLoss(t *testing.T) {
	a := newTestApp(t, nil)

	a.ProcessFrame(&detector.Frame{Timestamp: at(0), Hands: []detector.HandLandmarks{fistAt(0.5)}})
	u := a.ProcessFrame(&detector.Frame{Timestamp: at(30)})

	if u.State == nil || u.State.HandPosition != nil {
		t.Errorf("losing the hand should clear the state, got %+v", u.State)
	}
	if got := a.State(); !got.Equal(gesture.State{}) {
		t.Errorf("State() = %+v, want empty", got)
	}
}

func TestApp_ResetClearsState(t *testing.T) {
	a := newTestApp(t, nil)
	var updates []Update
	a.Subscribe(func(u Update) { updates = append(updates, u) })

	a.ProcessFrame(&detector.Frame{Timestamp: at(0), Hands: []detector.HandLandmarks{detector.PointingLandmarks()}})
	if s := a.State(); !s.IsPointing {
		t.Fatalf("State() = %+v, want pointing", s)
	}

	a.Reset()
	if len(updates) != 2 {
		t.Fatalf("subscriber saw %d updates, want 2", len(updates))
	}
	last := updates[1]
	if last.State == nil || last.State.IsPointing || last.State.HandPosition != nil {
		t.Errorf("reset update state = %+v, want an empty state", last.State)
	}

	a.Reset()
	if len(updates) != 2 {
		t.Errorf("second Reset published again, got %d updates", len(updates))
	}
}

func TestApp_Journal(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	a := newTestApp(t, func(c *Config) { c.Store = s })
	for _, f := range swipeFrames() {
		a.ProcessFrame(f)
	}

	events, err := s.Events().ListBySession(a.Session())
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("journaled %d events, want 1", len(events))
	}
	e := events[0]
	if e.Type != string(gesture.SwipeRight) || e.Intensity != 4 || e.HandIndex != 0 {
		t.Errorf("unexpected event %+v", e)
	}
	if !e.CreatedAt.Equal(at(200)) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, at(200))
	}
}

func TestApp_Garments(t *testing.T) {
	a := newTestApp(t, func(c *Config) { c.Garment.Smoothing = 1 })
	pose, world := detector.BodyPose()

	info, err := a.LoadGarment("shirt", garment.UpperBody, boxModel())
	if err != nil {
		t.Fatalf("LoadGarment() error = %v", err)
	}
	if info.ID != "shirt" || !info.Visible || info.Skinned {
		t.Errorf("unexpected info %+v", info)
	}
	if _, err := a.LoadGarment("shirt", garment.UpperBody, boxModel()); !errors.Is(err, garment.ErrAlreadyLoaded) {
		t.Errorf("duplicate LoadGarment() error = %v, want ErrAlreadyLoaded", err)
	}

	u := a.ProcessFrame(&detector.Frame{Timestamp: at(0), Pose: pose, PoseWorld: world})
	if len(u.Garments) != 1 {
		t.Fatalf("Garments = %d, want 1", len(u.Garments))
	}
	if g := u.Garments[0]; g.Name != "shirt__root" || g.Scale == [3]float64{1, 1, 1} {
		t.Errorf("garment was not placed: %+v", g)
	}

	if err := a.SetGarmentVisible("shirt", false); err != nil {
		t.Fatalf("SetGarmentVisible() error = %v", err)
	}
	if u := a.ProcessFrame(&detector.Frame{Timestamp: at(30), Pose: pose}); len(u.Garments) != 0 {
		t.Errorf("hidden garment still rendered: %+v", u.Garments)
	}
	if got, _ := a.Garment("shirt"); got.Visible {
		t.Error("Garment() reports hidden garment as visible")
	}

	if err := a.RemoveGarment("shirt"); err != nil {
		t.Fatalf("RemoveGarment() error = %v", err)
	}
	if err := a.RemoveGarment("shirt"); !errors.Is(err, garment.ErrNotLoaded) {
		t.Errorf("second RemoveGarment() error = %v, want ErrNotLoaded", err)
	}
	if _, err := a.Garment("shirt"); !errors.Is(err, garment.ErrNotLoaded) {
		t.Errorf("Garment() error = %v, want ErrNotLoaded", err)
	}
	if n := len(a.Garments()); n != 0 {
		t.Errorf("Garments() = %d, want 0", n)
	}
}

func TestApp_LoadGarmentFile_Missing(t *testing.T) {
	a := newTestApp(t, nil)
	if _, err := a.LoadGarmentFile("shirt", garment.UpperBody, filepath.Join(t.TempDir(), "none.glb")); err == nil {
		t.Error("LoadGarmentFile() on a missing file should fail")
	}
}

func TestApp_Run_Replay(t *testing.T) {
	var buf bytes.Buffer
	rec := detector.NewRecorder(&buf)
	for _, f := range swipeFrames() {
		if err := rec.Write(f); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	a := newTestApp(t, nil)
	if _, err := a.LoadGarment("shirt", garment.UpperBody, boxModel()); err != nil {
		t.Fatalf("LoadGarment() error = %v", err)
	}

	var gestures []gesture.Result
	a.Subscribe(func(u Update) { gestures = append(gestures, u.Gestures...) })

	if err := a.Run(context.Background(), detector.NewReplaySource(&buf)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(gestures) != 1 || gestures[0].Type != gesture.SwipeRight {
		t.Errorf("replay produced %+v, want one swipe right", gestures)
	}
	if n := len(a.Garments()); n != 0 {
		t.Errorf("Run() left %d garments loaded", n)
	}
	if a.Scene().Len() != 0 {
		t.Error("Run() left roots in the scene")
	}
}

func TestRecorded(t *testing.T) {
	var in bytes.Buffer
	rec := detector.NewRecorder(&in)
	for _, f := range swipeFrames() {
		rec.Write(f)
	}
	rec.Close()

	var out bytes.Buffer
	copyRec := detector.NewRecorder(&out)
	src := Recorded(detector.NewReplaySource(&in), copyRec, logs.NewTestingLog(t))

	n := 0
	for {
		_, err := src.Next(context.Background())
		if errors.Is(err, detector.ErrEndOfStream) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		n++
	}
	if err := copyRec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n != 3 {
		t.Errorf("read %d frames, want 3", n)
	}
	if got := strings.Count(out.String(), "\n"); got != 3 {
		t.Errorf("recorded %d lines, want 3", got)
	}
}

type endlessSource struct{ frames int }

func (s *endlessSource) Next(ctx context.Context) (*detector.Frame, error) {
	s.frames++
	return &detector.Frame{Timestamp: at(s.frames * 33)}, nil
}

func TestApp_Run_Cancel(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := 0
	unsubscribe := a.Subscribe(func(Update) {
		seen++
		if seen == 5 {
			cancel()
		}
	})
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, &endlessSource{}) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

type failingSource struct{}

func (failingSource) Next(context.Context) (*detector.Frame, error) {
	return nil, errors.New("device unplugged")
}

func TestApp_Run_SourceFailure(t *testing.T) {
	a := newTestApp(t, nil)
	err := a.Run(context.Background(), failingSource{})
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Errorf("Run() error = %v, want the source error", err)
	}
}

func TestApp_Unsubscribe(t *testing.T) {
	a := newTestApp(t, nil)
	calls := 0
	unsubscribe := a.Subscribe(func(Update) { calls++ })

	a.ProcessFrame(&detector.Frame{Timestamp: at(0)})
	unsubscribe()
	a.ProcessFrame(&detector.Frame{Timestamp: at(30)})

	if calls != 1 {
		t.Errorf("subscriber called %d times, want 1", calls)
	}
}

func TestCameraSource(t *testing.T) {
	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&mat}, true)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.PeaceLandmarks()})

	src := NewCameraSource(cam, det, logs.NewTestingLog(t))
	defer src.Close()

	frame, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(frame.Hands) != 1 || frame.Timestamp.IsZero() {
		t.Errorf("unexpected frame %+v", frame)
	}

	det.SetError(errors.New("model crashed"))
	if _, err := src.Next(context.Background()); err == nil || !strings.Contains(err.Error(), "model crashed") {
		t.Errorf("Next() error = %v, want the detector error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() on cancelled context error = %v", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("camera reads = %d, want 2", cam.Reads())
	}
}
