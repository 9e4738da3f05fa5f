package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/vestir/internal/garment"
	"github.com/ayusman/vestir/internal/gesture"
	"github.com/ayusman/vestir/internal/plugin"
	"github.com/ayusman/vestir/internal/retarget"
	"github.com/ayusman/vestir/internal/store"
	"github.com/cyclopcam/logs"
)

// Setting keys understood by ApplySettings.
const (
	SettingSwipeCooldown     = "gesture.swipe_cooldown_ms"
	SettingStaticCooldown    = "gesture.static_cooldown_ms"
	SettingGarmentSmoothing  = "garment.smoothing"
	SettingReferenceFloor    = "garment.reference_floor"
	SettingRetargetSmoothing = "retarget.smoothing"
	SettingMirror            = "transform.mirror"
	SettingLandmarkSmoothing = "landmarks.smoothing"
)

// DefaultFPS is the pipeline rate when none is configured.
const DefaultFPS = 30

// Config holds configuration options for the application.
type Config struct {
	Gesture  gesture.Config
	Garment  garment.Config
	Retarget retarget.Config

	// Mirror shows the selfie view: every landmark is flipped horizontally
	// once before gestures or garments see it.
	Mirror bool

	// LandmarkSmoothing low-passes body landmarks before placement. 0
	// disables the filter; otherwise it is the weight of each new sample.
	LandmarkSmoothing float64

	// FPS caps how fast Run pulls frames from its source.
	FPS int

	// Store journals gesture events. Optional.
	Store *store.Store

	// Dispatcher runs plugin actions bound to gestures. Optional.
	Dispatcher *plugin.Dispatcher
}

// DefaultConfig returns a mirrored configuration with every engine at its
// tuned defaults.
func DefaultConfig() Config {
	return Config{
		Gesture:  gesture.DefaultConfig(),
		Garment:  garment.DefaultConfig(),
		Retarget: retarget.DefaultConfig(),
		Mirror:   true,
		FPS:      DefaultFPS,
	}
}

// Validate checks the values a bad setting could have broken.
func (c Config) Validate() error {
	if err := c.Gesture.Validate(); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		SettingGarmentSmoothing:  c.Garment.Smoothing,
		SettingRetargetSmoothing: c.Retarget.Smoothing,
	} {
		if !(v > 0 && v <= 1) {
			return fmt.Errorf("%s must be within (0, 1], got %v", name, v)
		}
	}
	if !(c.Garment.ReferenceFloor >= 0 && c.Garment.ReferenceFloor <= 1) {
		return fmt.Errorf("%s must be within [0, 1], got %v", SettingReferenceFloor, c.Garment.ReferenceFloor)
	}
	if !(c.LandmarkSmoothing >= 0 && c.LandmarkSmoothing <= 1) {
		return fmt.Errorf("%s must be within [0, 1], got %v", SettingLandmarkSmoothing, c.LandmarkSmoothing)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	return nil
}

// ApplySettings overrides config values from stored settings. Unknown keys
// are logged and skipped; a value that does not parse is an error.
func (c *Config) ApplySettings(settings map[string]string, log logs.Log) error {
	for key, value := range settings {
		var err error
		switch key {
		case SettingSwipeCooldown:
			c.Gesture.SwipeCooldown, err = parseMillis(value)
		case SettingStaticCooldown:
			c.Gesture.StaticCooldown, err = parseMillis(value)
		case SettingGarmentSmoothing:
			c.Garment.Smoothing, err = strconv.ParseFloat(value, 64)
		case SettingReferenceFloor:
			c.Garment.ReferenceFloor, err = strconv.ParseFloat(value, 64)
		case SettingRetargetSmoothing:
			c.Retarget.Smoothing, err = strconv.ParseFloat(value, 64)
		case SettingMirror:
			c.Mirror, err = strconv.ParseBool(value)
		case SettingLandmarkSmoothing:
			c.LandmarkSmoothing, err = strconv.ParseFloat(value, 64)
		default:
			log.Warnf("Ignoring unknown setting %q", key)
			continue
		}
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return c.Validate()
}

func parseMillis(s string) (time.Duration, error) {
	ms, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}
