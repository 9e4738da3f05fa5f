// Package app ties the engines into one session: every perception frame
// drives the gesture detector and the garment manager, and the result is
// fanned out to subscribers, the event journal and bound plugins.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/garment"
	"github.com/ayusman/vestir/internal/gesture"
	"github.com/ayusman/vestir/internal/plugin"
	"github.com/ayusman/vestir/internal/retarget"
	"github.com/ayusman/vestir/internal/scene"
	"github.com/ayusman/vestir/internal/store"
	"github.com/ayusman/vestir/internal/transform"
	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
)

// Update is everything one frame produced.
type Update struct {
	Timestamp time.Time        `json:"timestamp"`
	Gestures  []gesture.Result `json:"gestures,omitempty"`

	// State is set only when the continuous hand state changed.
	State    *gesture.State        `json:"state,omitempty"`
	Garments []scene.RootTransform `json:"garments"`
}

// GarmentInfo describes a loaded garment.
type GarmentInfo struct {
	ID         string           `json:"id"`
	Category   garment.Category `json:"category"`
	Visible    bool             `json:"visible"`
	Skinned    bool             `json:"skinned"`
	BaseWidth  float64          `json:"baseWidth"`
	BaseHeight float64          `json:"baseHeight"`
}

// App is one fitting session.
type App struct {
	config  Config
	log     logs.Log
	session string

	// mu serializes frame processing with garment loading and removal.
	mu       sync.Mutex
	tr       *transform.Transformer
	gestures *gesture.Detector
	garments *garment.Manager
	scene    *scene.Scene
	pose     *transform.Smoother
	world    *transform.Smoother
	changed  *gesture.State
	frames   int

	subsMu  sync.RWMutex
	subs    map[int]func(Update)
	nextSub int
}

// New creates an App. The config is validated first.
func New(config Config, log logs.Log) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tr := transform.New(config.Mirror)
	sc := scene.New()
	smooth := config.LandmarkSmoothing > 0

	a := &App{
		config:   config,
		log:      log,
		session:  uuid.New().String(),
		tr:       tr,
		gestures: gesture.NewDetector(config.Gesture, log),
		scene:    sc,
		pose:     transform.NewSmoother(config.LandmarkSmoothing, smooth),
		world:    transform.NewSmoother(config.LandmarkSmoothing, smooth),
		subs:     make(map[int]func(Update)),
	}
	a.garments = garment.NewManager(
		garment.NewPlacer(config.Garment, tr, log),
		retarget.NewEngine(config.Retarget, nil, tr, log),
		sc,
		log,
	)
	a.gestures.OnState = func(s gesture.State) {
		a.changed = &s
	}
	return a, nil
}

// Session returns the id under which this session's gestures are journaled.
func (a *App) Session() string {
	return a.session
}

// Config returns the configuration the app was built with.
func (a *App) Config() Config {
	return a.config
}

// Scene returns the render registry holding every visible garment root.
func (a *App) Scene() *scene.Scene {
	return a.scene
}

// ProcessFrame runs gestures and garments for one frame. Subscribers are
// notified after every mutation for the frame is done.
func (a *App) ProcessFrame(frame *detector.Frame) Update {
	a.mu.Lock()

	at := frame.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	a.changed = nil
	results := a.gestures.Process(a.viewHands(frame.Hands), at)
	a.garments.Update(a.pose.Smooth(frame.Pose), a.world.Smooth(frame.PoseWorld))

	u := Update{
		Timestamp: at,
		Gestures:  results,
		State:     a.changed,
		Garments:  a.scene.Snapshot(),
	}

	a.frames++
	if every := a.config.Garment.DebugEvery; every > 0 && a.frames%every == 0 {
		a.log.Debugf("Frame %d: %d hands, %d pose landmarks, %d garments", a.frames, len(frame.Hands), len(frame.Pose), a.garments.Len())
	}
	a.mu.Unlock()

	a.emit(results)
	a.publish(u)
	return u
}

// viewHands returns the hands in the displayed view.
func (a *App) viewHands(hands []detector.HandLandmarks) []detector.HandLandmarks {
	if !a.tr.Mirror || len(hands) == 0 {
		return hands
	}
	out := make([]detector.HandLandmarks, len(hands))
	for i, h := range hands {
		copy(h.Points[:], a.tr.MirrorNormalized(h.Points[:]))
		out[i] = h
	}
	return out
}

// emit journals and dispatches gesture events.
func (a *App) emit(results []gesture.Result) {
	for _, r := range results {
		if a.config.Store != nil {
			err := a.config.Store.Events().Record(&store.Event{
				SessionID: a.session,
				Type:      string(r.Type),
				Intensity: r.Intensity,
				HandIndex: r.Hand,
				CreatedAt: r.At,
			})
			if err != nil {
				a.log.Errorf("Failed to journal %s: %v", r.Type, err)
			}
		}
		if a.config.Dispatcher != nil {
			a.config.Dispatcher.Dispatch(plugin.Event{
				Gesture:   string(r.Type),
				Intensity: r.Intensity,
				Hand:      r.Hand,
			})
		}
	}
}

// Subscribe registers fn for every future update and returns a function
// that unregisters it. fn runs on the processing goroutine.
func (a *App) Subscribe(fn func(Update)) (unsubscribe func()) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.subsMu.Lock()
		defer a.subsMu.Unlock()
		delete(a.subs, id)
	}
}

func (a *App) publish(u Update) {
	a.subsMu.RLock()
	defer a.subsMu.RUnlock()
	for _, fn := range a.subs {
		fn(u)
	}
}

// State returns the current continuous hand state.
func (a *App) State() gesture.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gestures.State()
}

// Reset drops all gesture state and every loaded garment. If the hand
// state was not already empty, subscribers get a final update carrying the
// cleared state.
func (a *App) Reset() {
	a.mu.Lock()
	a.changed = nil
	a.gestures.Reset()
	a.garments.Clear()
	a.pose.Reset()
	a.world.Reset()
	u := Update{
		Timestamp: time.Now(),
		State:     a.changed,
		Garments:  a.scene.Snapshot(),
	}
	a.mu.Unlock()

	if u.State != nil {
		a.publish(u)
	}
}

// LoadGarment puts a model into the scene under id.
func (a *App) LoadGarment(id string, category garment.Category, model *scene.Node) (GarmentInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.garments.Load(id, category, model)
	if err != nil {
		return GarmentInfo{}, err
	}
	return info(g), nil
}

// LoadGarmentFile imports a glTF model from disk and loads it under id.
func (a *App) LoadGarmentFile(id string, category garment.Category, path string) (GarmentInfo, error) {
	model, err := scene.OpenGLTF(path)
	if err != nil {
		return GarmentInfo{}, err
	}
	return a.LoadGarment(id, category, model)
}

// RemoveGarment takes a garment out of the scene.
func (a *App) RemoveGarment(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.garments.Remove(id)
}

// SetGarmentVisible shows or hides a garment.
func (a *App) SetGarmentVisible(id string, visible bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.garments.SetVisible(id, visible)
}

// Garment describes one loaded garment.
func (a *App) Garment(id string) (GarmentInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.garments.Get(id)
	if !ok {
		return GarmentInfo{}, garment.ErrNotLoaded
	}
	return info(g), nil
}

// Garments lists loaded garments in load order.
func (a *App) Garments() []GarmentInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.garments.List()
	out := make([]GarmentInfo, len(list))
	for i, g := range list {
		out[i] = info(g)
	}
	return out
}

func info(g *garment.Garment) GarmentInfo {
	return GarmentInfo{
		ID:         g.ID,
		Category:   g.Category,
		Visible:    g.Visible,
		Skinned:    g.Skinned(),
		BaseWidth:  g.BaseWidth,
		BaseHeight: g.BaseHeight,
	}
}
