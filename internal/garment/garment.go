// Package garment places 3D garments over a tracked body.
package garment

import (
	"errors"
	"math"

	"github.com/ayusman/vestir/internal/retarget"
	"github.com/ayusman/vestir/internal/scene"
	"github.com/ayusman/vestir/internal/transform"
)

var (
	ErrNotLoaded     = errors.New("garment not loaded")
	ErrAlreadyLoaded = errors.New("garment already loaded")
)

// Garment is a loaded garment model. Root is owned by the garment and is
// what the placer moves; Inner is the imported model recentred on its own
// bounding box.
type Garment struct {
	ID       string
	Category Category
	Root     *scene.Node
	Inner    *scene.Node

	// Measured once at load time.
	BaseWidth  float64
	BaseHeight float64
	Rig        retarget.Reference

	Visible bool

	refWidth float64
	rotation transform.Euler
}

// New wraps a model for placement. The model is recentred and attached
// under a fresh root named "<id>__root".
func New(id string, category Category, model *scene.Node, m retarget.Matcher) *Garment {
	model.Detach()
	model.Name = id

	bounds := model.WorldBounds()
	size := bounds.Size()
	if !bounds.IsEmpty() {
		model.Position = model.Position.Sub(bounds.Center())
	}

	root := scene.NewNode(id + "__root")
	root.Add(model)

	return &Garment{
		ID:         id,
		Category:   category,
		Root:       root,
		Inner:      model,
		BaseWidth:  math.Max(size.X(), 1e-6),
		BaseHeight: math.Max(size.Y(), 1e-6),
		Rig:        retarget.MeasureReference(model.FindSkeleton(), m),
		Visible:    true,
	}
}

// Skinned reports whether the garment has rig measurements usable for
// scaling its category.
func (g *Garment) Skinned() bool {
	return g.rigWidth() > 1e-6
}

func (g *Garment) rigWidth() float64 {
	if g.Category == LowerBody {
		return g.Rig.Hip
	}
	return g.Rig.Shoulder
}

// ReferenceWidth returns the widest body measurement seen so far.
func (g *Garment) ReferenceWidth() float64 {
	return g.refWidth
}

// Rotation returns the current smoothed Euler rotation of the root.
func (g *Garment) Rotation() transform.Euler {
	return g.rotation
}
