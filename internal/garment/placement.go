package garment

import (
	"math"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/transform"
	"github.com/cyclopcam/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// Config holds tuning for the Placer.
type Config struct {
	// Smoothing is the per-frame weight of the new target.
	Smoothing float64
	// ReferenceFloor is the fraction of the widest width seen below which a
	// measurement is treated as occlusion.
	ReferenceFloor float64

	// Camera the garments are rendered through. FOV is vertical, in degrees.
	FOV     float64
	Aspect  float64
	CameraZ float64
	ZPlane  float64

	// MinWidth is the smallest normalized body width that is trusted.
	MinWidth        float64
	MinScale        float64
	MaxScale        float64
	MinSkinnedScale float64
	MaxSkinnedScale float64
	// DepthScale offsets skinned garments by the world depth of their
	// reference joints.
	DepthScale float64

	// DebugEvery logs placement every N frames; 0 disables it.
	DebugEvery int

	Categories map[Category]CategoryConfig
}

// DefaultConfig returns the default placement configuration.
func DefaultConfig() Config {
	return Config{
		Smoothing:       0.3,
		ReferenceFloor:  0.6,
		FOV:             50,
		Aspect:          16.0 / 9.0,
		CameraZ:         5,
		ZPlane:          0,
		MinWidth:        0.02,
		MinScale:        0.02,
		MaxScale:        20,
		MinSkinnedScale: 0.1,
		MaxSkinnedScale: 10,
		DepthScale:      0.5,
		DebugEvery:      30,
		Categories:      DefaultCategories(),
	}
}

// PlaneSize returns the width and height of the visible world plane at
// ZPlane.
func (c Config) PlaneSize() (width, height float64) {
	dist := math.Max(c.CameraZ-c.ZPlane, 0.25)
	height = 2 * dist * math.Tan(mgl64.DegToRad(c.FOV)/2)
	return height * c.Aspect, height
}

// Placer moves, scales and turns garment roots to sit on the body.
type Placer struct {
	config Config
	tr     *transform.Transformer
	log    logs.Log
	frames int
}

// NewPlacer creates a Placer.
func NewPlacer(config Config, tr *transform.Transformer, log logs.Log) *Placer {
	return &Placer{config: config, tr: tr, log: log}
}

// Config returns the placer configuration.
func (p *Placer) Config() Config {
	return p.config
}

// SetSmoothing changes the smoothing factor.
func (p *Placer) SetSmoothing(alpha float64) {
	p.config.Smoothing = alpha
}

// Place eases g toward the pose. pose2D holds normalized landmarks and
// pose3D world landmarks; either may be short or nil. It reports whether
// the transform moved. Insufficient or degenerate input leaves g as it was.
func (p *Placer) Place(g *Garment, pose2D, pose3D []detector.Landmark) bool {
	cfg, ok := p.config.Categories[g.Category]
	if !ok || len(pose2D) < cfg.MinLandmarks {
		return false
	}
	for _, i := range append(cfg.ScaleIndices[:], cfg.AnchorIndices...) {
		if i < 0 || i >= len(pose2D) {
			return false
		}
	}
	view := p.tr.MirrorNormalized(pose2D)

	a, b := view[cfg.ScaleIndices[0]], view[cfg.ScaleIndices[1]]
	width := detector.Distance2D(a, b)
	if !(width >= p.config.MinWidth) {
		return false
	}

	var cx, cy float64
	for _, i := range cfg.AnchorIndices {
		cx += view[i].X
		cy += view[i].Y
	}
	cx /= float64(len(cfg.AnchorIndices))
	cy /= float64(len(cfg.AnchorIndices))

	if width > g.refWidth {
		g.refWidth = width
	}
	effective := math.Max(width, g.refWidth*p.config.ReferenceFloor)

	planeW, planeH := p.config.PlaneSize()
	target := mgl64.Vec3{
		(cx - 0.5) * planeW,
		(0.5 - cy) * planeH,
		p.config.ZPlane,
	}

	var scale float64
	if g.Skinned() {
		scale = effective * planeW * cfg.SkinnedWidthFactor / g.rigWidth()
		scale = mgl64.Clamp(scale, p.config.MinSkinnedScale, p.config.MaxSkinnedScale)
		if i, j := cfg.ScaleIndices[0], cfg.ScaleIndices[1]; len(pose3D) > max(i, j) {
			depth := (pose3D[i].Z + pose3D[j].Z) / 2
			target[2] -= depth * p.config.DepthScale
		}
	} else {
		scale = math.Max(effective*planeW*cfg.WidthFactor, 1e-6) / g.BaseWidth
		scale = mgl64.Clamp(scale, p.config.MinScale, p.config.MaxScale)
	}

	// Screen angle of the scale pair, with image Y flipped to point up.
	roll := transform.WrapToHalfPi(math.Atan2(-(b.Y-a.Y)*planeH, (b.X-a.X)*planeW))
	yaw, hasYaw := p.yaw(g.Category, pose3D)

	alpha := p.config.Smoothing
	root := g.Root
	root.Position = transform.LerpVec3(root.Position, target, alpha)
	s := transform.Lerp(root.Scale.X(), scale, alpha)
	root.Scale = mgl64.Vec3{s, s, s}

	g.rotation.X = 0
	g.rotation.Z = transform.Lerp(g.rotation.Z, roll, alpha)
	if hasYaw {
		g.rotation.Y = transform.Lerp(g.rotation.Y, yaw, alpha)
	}
	root.Rotation = g.rotation.Quat()

	p.frames++
	if p.config.DebugEvery > 0 && p.frames%p.config.DebugEvery == 0 {
		p.log.Debugf("Garment %s: width %.3f (ref %.3f) scale %.3f -> %.3f pos %.2f,%.2f,%.2f yaw %.2f roll %.2f",
			g.ID, width, g.refWidth, s, scale, root.Position[0], root.Position[1], root.Position[2], g.rotation.Y, g.rotation.Z)
	}
	return true
}

// yaw returns the body turn for a category from world landmarks.
func (p *Placer) yaw(c Category, world []detector.Landmark) (float64, bool) {
	switch c {
	case FullBody:
		return p.tr.FullBodyYaw(world)
	case LowerBody:
		if len(world) <= detector.PoseRightKnee {
			return 0, false
		}
		e, ok := p.tr.Orientation(
			world[detector.PoseLeftHip], world[detector.PoseRightHip],
			transform.Midpoint(world[detector.PoseLeftKnee], world[detector.PoseRightKnee]),
			transform.Midpoint(world[detector.PoseLeftHip], world[detector.PoseRightHip]),
		)
		return e.Y, ok
	default:
		e, ok := p.tr.BodyOrientation(world)
		return e.Y, ok
	}
}
