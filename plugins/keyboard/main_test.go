package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNavigateScript(t *testing.T) {
	tests := []struct {
		name      string
		gesture   string
		intensity int
		config    string
		want      []string
		wantErr   bool
	}{
		{name: "swipe left", gesture: "SWIPE_LEFT", intensity: 3, want: []string{"key code 123"}},
		{name: "swipe right", gesture: "SWIPE_RIGHT", want: []string{"key code 124"}},
		{name: "pointing", gesture: "POINTING", want: []string{"key code 36"}},
		{name: "peace", gesture: "PEACE", want: []string{"key code 53"}},
		{
			name:      "repeat by intensity",
			gesture:   "SWIPE_RIGHT",
			intensity: 3,
			config:    `{"repeat": true}`,
			want:      []string{"key code 124", "key code 124", "key code 124"},
		},
		{name: "override", gesture: "PEACE", config: `{"keys": {"PEACE": 49}}`, want: []string{"key code 49"}},
		{name: "unmapped", gesture: "WAVE", wantErr: true},
		{name: "bad config", gesture: "PEACE", config: `{"keys": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var config json.RawMessage
			if tt.config != "" {
				config = json.RawMessage(tt.config)
			}
			script, err := navigateScript(tt.gesture, tt.intensity, config)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("navigateScript() = %q, want error", script)
				}
				return
			}
			if err != nil {
				t.Fatalf("navigateScript() error = %v", err)
			}

			var got []string
			for _, line := range strings.Split(script, "\n") {
				if strings.HasPrefix(line, "key code") {
					got = append(got, line)
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("key presses = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeystrokeScript(t *testing.T) {
	script, err := keystrokeScript(json.RawMessage(`{"key": "f", "modifiers": ["cmd", "Shift", "hyper"]}`))
	if err != nil {
		t.Fatalf("keystrokeScript() error = %v", err)
	}
	want := `tell application "System Events" to keystroke "f" using {command down, shift down}`
	if script != want {
		t.Errorf("keystrokeScript() = %q, want %q", script, want)
	}

	if _, err := keystrokeScript(json.RawMessage(`{"key": ""}`)); err == nil {
		t.Error("empty key should fail")
	}
}
