// Package main is a keyboard plugin for macOS. It turns gestures into key
// presses through AppleScript, so swiping flips through slides, catalogues
// or anything else driven by the arrow keys.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Gesture   string          `json:"gesture"`
	Intensity int             `json:"intensity,omitempty"`
	Hand      int             `json:"hand"`
	Config    json.RawMessage `json:"config"`
	Params    json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams defines parameters for keystroke and shortcut actions.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// NavigateConfig overrides the key code sent for each gesture.
type NavigateConfig struct {
	Keys map[string]int `json:"keys"`

	// Repeat presses the key once per intensity step of a swipe.
	Repeat bool `json:"repeat"`
}

// macOS virtual key codes.
const (
	keyReturn = 36
	keyEscape = 53
	keyLeft   = 123
	keyRight  = 124
)

var defaultKeys = map[string]int{
	"SWIPE_LEFT":  keyLeft,
	"SWIPE_RIGHT": keyRight,
	"POINTING":    keyReturn,
	"PEACE":       keyEscape,
}

var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var script string
	var err error
	switch req.Action {
	case "keystroke", "shortcut":
		script, err = keystrokeScript(req.Params)
	case "navigate":
		script, err = navigateScript(req.Gesture, req.Intensity, req.Config)
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}
	if err == nil {
		err = runAppleScript(script)
	}
	if err != nil {
		err = fmt.Errorf("action %s failed: %w", req.Action, err)
	}
	writeResponse(err)
}

func keystrokeScript(params json.RawMessage) (string, error) {
	var p KeystrokeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Key == "" {
		return "", fmt.Errorf("key is required")
	}

	var using []string
	for _, mod := range p.Modifiers {
		if m, ok := modifierMap[strings.ToLower(mod)]; ok {
			using = append(using, m)
		}
	}

	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, p.Key)
	if len(using) > 0 {
		script += fmt.Sprintf(" using {%s}", strings.Join(using, ", "))
	}
	return script, nil
}

// navigateScript presses the key bound to gesture. With Repeat set a swipe
// presses it once per intensity level.
func navigateScript(gesture string, intensity int, config json.RawMessage) (string, error) {
	var cfg NavigateConfig
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}

	code, ok := cfg.Keys[gesture]
	if !ok {
		code, ok = defaultKeys[gesture]
	}
	if !ok {
		return "", fmt.Errorf("no key for gesture %q", gesture)
	}

	presses := 1
	if cfg.Repeat && intensity > 1 {
		presses = min(intensity, 4)
	}

	lines := make([]string, presses)
	for i := range lines {
		lines[i] = fmt.Sprintf("key code %d", code)
	}
	return fmt.Sprintf("tell application \"System Events\"\n%s\nend tell", strings.Join(lines, "\n")), nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
