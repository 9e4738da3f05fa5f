package garment

import (
	"fmt"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/retarget"
	"github.com/ayusman/vestir/internal/scene"
	"github.com/cyclopcam/logs"
)

// Manager is the table of loaded garments. Garments are created by Load and
// live until Remove or Clear; nothing is evicted implicitly.
type Manager struct {
	placer   *Placer
	retarget *retarget.Engine
	scene    *scene.Scene
	log      logs.Log

	garments map[string]*Garment
	order    []string
}

// NewManager creates a Manager that registers garment roots in sc.
func NewManager(placer *Placer, engine *retarget.Engine, sc *scene.Scene, log logs.Log) *Manager {
	return &Manager{
		placer:   placer,
		retarget: engine,
		scene:    sc,
		log:      log,
		garments: make(map[string]*Garment),
	}
}

// Placer returns the manager's placer.
func (m *Manager) Placer() *Placer {
	return m.placer
}

// Retarget returns the manager's retargeting engine.
func (m *Manager) Retarget() *retarget.Engine {
	return m.retarget
}

// Load takes ownership of model and makes it a visible garment.
func (m *Manager) Load(id string, category Category, model *scene.Node) (*Garment, error) {
	if id == "" {
		return nil, fmt.Errorf("garment id is required")
	}
	if _, ok := m.garments[id]; ok {
		return nil, fmt.Errorf("load %s: %w", id, ErrAlreadyLoaded)
	}
	if _, ok := m.placer.config.Categories[category]; !ok {
		return nil, fmt.Errorf("load %s: unknown category %q", id, category)
	}

	g := New(id, category, model, m.retarget.Matcher())
	m.garments[id] = g
	m.order = append(m.order, id)
	m.scene.Add(g.Root)

	m.log.Infof("Loaded garment %s (%s) base %.3fx%.3f skinned=%v", id, category, g.BaseWidth, g.BaseHeight, g.Skinned())
	return g, nil
}

// Remove detaches a garment from the scene and drops its bone caches.
func (m *Manager) Remove(id string) error {
	g, ok := m.garments[id]
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrNotLoaded)
	}
	m.scene.Remove(g.Root)
	m.retarget.Forget(id)
	delete(m.garments, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.Infof("Removed garment %s", id)
	return nil
}

// SetVisible shows or hides a garment. Hidden garments are not placed and
// are left out of the scene.
func (m *Manager) SetVisible(id string, visible bool) error {
	g, ok := m.garments[id]
	if !ok {
		return fmt.Errorf("set visibility of %s: %w", id, ErrNotLoaded)
	}
	if g.Visible == visible {
		return nil
	}
	g.Visible = visible
	if visible {
		m.scene.Add(g.Root)
	} else {
		m.scene.Remove(g.Root)
	}
	return nil
}

// Get returns a loaded garment.
func (m *Manager) Get(id string) (*Garment, bool) {
	g, ok := m.garments[id]
	return g, ok
}

// List returns the garments in load order.
func (m *Manager) List() []*Garment {
	out := make([]*Garment, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.garments[id])
	}
	return out
}

// Len returns the number of loaded garments.
func (m *Manager) Len() int {
	return len(m.garments)
}

// Update places every visible garment and then poses the skinned ones. It
// returns how many garments moved.
func (m *Manager) Update(pose2D, pose3D []detector.Landmark) int {
	placed := 0
	for _, id := range m.order {
		g := m.garments[id]
		if !g.Visible {
			continue
		}
		if m.placer.Place(g, pose2D, pose3D) {
			placed++
		}
		if len(pose3D) > 0 {
			limbs := m.placer.config.Categories[g.Category].Limbs
			m.retarget.Update(id, g.Inner, pose3D, limbs)
		}
	}
	return placed
}

// Clear removes every garment.
func (m *Manager) Clear() {
	for _, g := range m.garments {
		m.scene.Remove(g.Root)
	}
	m.retarget.ForgetAll()
	clear(m.garments)
	m.order = m.order[:0]
}
