package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/vestir/internal/app"
	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/plugin"
	"github.com/ayusman/vestir/internal/server"
	"github.com/ayusman/vestir/internal/store"
	"github.com/cyclopcam/logs"
)

const shirtGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "Shirt", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"componentType": 5126, "count": 3, "type": "VEC3",
                 "min": [-0.5, -0.6, -0.1], "max": [0.5, 0.6, 0.1]}]
}`

// recordSession writes a short recording: the body stands still while one
// hand closes into a fist and drags it to the right.
func recordSession(t *testing.T, path string) int {
	t.Helper()
	pose, world := detector.BodyPose()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	hands := []float64{-1, -1, 0.5, 0.5, 0.75, 0.75, -1}
	rec, err := detector.CreateRecording(path)
	if err != nil {
		t.Fatalf("CreateRecording() error = %v", err)
	}
	for i, x := range hands {
		frame := &detector.Frame{
			Timestamp: start.Add(time.Duration(i) * 100 * time.Millisecond),
			Pose:      pose,
			PoseWorld: world,
		}
		if x >= 0 {
			frame.Hands = []detector.HandLandmarks{detector.FistLandmarks().Translated(x-0.5, 0)}
		}
		if err := rec.Write(frame); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return len(hands)
}

// installRecorder adds a plugin that appends each request to a file.
func installRecorder(t *testing.T, pluginDir string) string {
	t.Helper()
	dir := filepath.Join(pluginDir, "recorder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "requests.jsonl")
	script := "#!/bin/sh\ncat >> " + out + "\necho >> " + out + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name": "recorder", "version": "1.0.0", "executable": "run.sh", "actions": ["record"]}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	return out
}

func post(t *testing.T, ts *httptest.Server, path, body string) {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST %s status = %d, want %d", path, resp.StatusCode, http.StatusCreated)
	}
}

func TestE2E_ReplaySession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins need a POSIX shell")
	}

	tmpDir := t.TempDir()
	log := logs.NewTestingLog(t)

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Stored settings tune the session before it starts.
	if err := s.Settings().Set(app.SettingGarmentSmoothing, "1"); err != nil {
		t.Fatal(err)
	}
	settings, err := s.Settings().All()
	if err != nil {
		t.Fatal(err)
	}

	pluginDir := filepath.Join(tmpDir, "plugins")
	requests := installRecorder(t, pluginDir)
	plugins := plugin.NewManager(pluginDir, log)
	if err := plugins.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(5000), s.Bindings(), log, 8)
	dispatcher.Start(context.Background())

	config := app.DefaultConfig()
	config.Mirror = false
	config.FPS = 500
	config.Store = s
	config.Dispatcher = dispatcher
	if err := config.ApplySettings(settings, log); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	session, err := app.New(config, log)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	srv := server.New(server.Config{Store: s, App: session, Log: log})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	model := filepath.Join(tmpDir, "shirt.gltf")
	if err := os.WriteFile(model, []byte(shirtGLTF), 0644); err != nil {
		t.Fatal(err)
	}
	post(t, ts, "/api/garments", `{"id": "shirt", "category": "upper_body", "path": "`+model+`"}`)
	post(t, ts, "/api/bindings", `{"gesture_type": "SWIPE_RIGHT", "plugin_name": "recorder", "action_name": "record", "config": {"slot": 2}}`)

	var lastScale [3]float64
	frames, placed := 0, 0
	session.Subscribe(func(u app.Update) {
		frames++
		if len(u.Garments) == 1 {
			placed++
			lastScale = u.Garments[0].Scale
		}
	})

	replayPath := filepath.Join(tmpDir, "session.jsonl")
	recorded := recordSession(t, replayPath)
	replay, err := detector.OpenReplay(replayPath)
	if err != nil {
		t.Fatalf("OpenReplay() error = %v", err)
	}
	defer replay.Close()

	if err := session.Run(context.Background(), replay); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	dispatcher.Close()

	t.Run("every frame was processed", func(t *testing.T) {
		if frames != recorded {
			t.Errorf("processed %d frames, want %d", frames, recorded)
		}
	})

	t.Run("garment followed the body", func(t *testing.T) {
		if placed != recorded {
			t.Errorf("garment placed on %d of %d frames", placed, recorded)
		}
		if lastScale[0] <= 0 || lastScale[1] <= 0 {
			t.Errorf("garment scale = %v, want it fitted to the shoulders", lastScale)
		}
		if n := len(session.Garments()); n != 0 {
			t.Errorf("%d garments still loaded after the session ended", n)
		}
	})

	t.Run("swipe was journaled", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/events?session=" + session.Session())
		if err != nil {
			t.Fatalf("GET /api/events error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Events []store.Event  `json:"events"`
			Counts map[string]int `json:"counts"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if len(body.Events) != 1 || body.Counts["SWIPE_RIGHT"] != 1 {
			t.Errorf("journal = %+v", body)
		}
	})

	t.Run("bound plugin ran", func(t *testing.T) {
		data, err := os.ReadFile(requests)
		if err != nil {
			t.Fatalf("plugin never ran: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 1 {
			t.Fatalf("plugin ran %d times, want 1", len(lines))
		}
		var req plugin.Request
		if err := json.Unmarshal([]byte(lines[0]), &req); err != nil {
			t.Fatalf("bad request %q: %v", lines[0], err)
		}
		if req.Gesture != "SWIPE_RIGHT" || req.Action != "record" || req.Intensity < 1 {
			t.Errorf("unexpected request %+v", req)
		}
		var config struct {
			Slot int `json:"slot"`
		}
		if err := json.Unmarshal(req.Config, &config); err != nil || config.Slot != 2 {
			t.Errorf("config = %s, want the binding's config", req.Config)
		}
	})
}
