// Package transform converts perception landmarks into render space and
// derives body orientation from them.
package transform

import (
	"math"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultScale maps hip-centred metres onto scene units.
const DefaultScale = 2.5

// Euler holds rotations in radians about the X (pitch), Y (yaw) and
// Z (roll) axes.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat returns the rotation as a quaternion, composed as Rx * Ry * Rz.
func (e Euler) Quat() mgl64.Quat {
	qx := mgl64.QuatRotate(e.X, mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(e.Y, mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(e.Z, mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

// Transformer maps perception space (Y down, Z away from the camera) into
// render space (Y up, Z toward the viewer).
//
// When Mirror is set the selfie view is shown: the X axis of every input is
// flipped once, here, before any position or angle is computed. Normalized
// landmarks flip as x -> 1-x and world landmarks as x -> -x.
type Transformer struct {
	Mirror bool
	Scale  float64
}

// New returns a Transformer with the default scale.
func New(mirror bool) *Transformer {
	return &Transformer{Mirror: mirror, Scale: DefaultScale}
}

func (t *Transformer) xSign() float64 {
	if t.Mirror {
		return -1
	}
	return 1
}

// WorldToRender converts a world landmark into a render-space point.
func (t *Transformer) WorldToRender(l detector.Landmark) mgl64.Vec3 {
	return mgl64.Vec3{
		t.xSign() * l.X * t.Scale,
		-l.Y * t.Scale,
		-l.Z * t.Scale,
	}
}

// Direction converts the world-space vector from a to b into a unit
// render-space direction. ok is false when the points coincide.
func (t *Transformer) Direction(a, b detector.Landmark) (dir mgl64.Vec3, ok bool) {
	v := t.WorldToRender(b).Sub(t.WorldToRender(a))
	if v.Len() < 1e-9 {
		return mgl64.Vec3{}, false
	}
	return v.Normalize(), true
}

// Centroid returns the mean of the landmarks in render space.
func (t *Transformer) Centroid(ls []detector.Landmark) mgl64.Vec3 {
	var sum mgl64.Vec3
	if len(ls) == 0 {
		return sum
	}
	for _, l := range ls {
		sum = sum.Add(t.WorldToRender(l))
	}
	return sum.Mul(1 / float64(len(ls)))
}

// Distance returns the Euclidean distance between two landmarks.
func (t *Transformer) Distance(a, b detector.Landmark) float64 {
	return detector.Distance3D(a, b)
}

// MirrorNormalized returns the normalized landmarks as seen in the output
// view. The input is not modified.
func (t *Transformer) MirrorNormalized(ls []detector.Landmark) []detector.Landmark {
	if !t.Mirror {
		return ls
	}
	out := make([]detector.Landmark, len(ls))
	for i, l := range ls {
		l.X = 1 - l.X
		out[i] = l
	}
	return out
}

// MirrorWorld returns the world landmarks as seen in the output view.
func (t *Transformer) MirrorWorld(ls []detector.Landmark) []detector.Landmark {
	if !t.Mirror {
		return ls
	}
	out := make([]detector.Landmark, len(ls))
	for i, l := range ls {
		l.X = -l.X
		out[i] = l
	}
	return out
}

func vec(l detector.Landmark) mgl64.Vec3 {
	return mgl64.Vec3{l.X, l.Y, l.Z}
}

// Orientation derives the body frame from raw world landmarks: the shoulder
// vector (left to right shoulder) and the spine vector (hip centre to
// shoulder centre). Their cross product is the forward vector.
//
// Yaw is the angle of the forward vector about Y, measured from the camera Z
// axis. Pitch is the forward lean of the spine. Roll is the tilt of the
// shoulder line, folded into [-pi/2, pi/2]. Under mirroring yaw and roll
// change sign together.
func (t *Transformer) Orientation(leftShoulder, rightShoulder, hipCenter, shoulderCenter detector.Landmark) (Euler, bool) {
	m := mgl64.Vec3{t.xSign(), 1, 1}
	mirror := func(v mgl64.Vec3) mgl64.Vec3 {
		return mgl64.Vec3{v[0] * m[0], v[1] * m[1], v[2] * m[2]}
	}

	shoulder := mirror(vec(rightShoulder).Sub(vec(leftShoulder)))
	spine := mirror(vec(shoulderCenter).Sub(vec(hipCenter)))

	forward := shoulder.Cross(spine)
	if forward.Len() < 1e-9 {
		return Euler{}, false
	}
	forward = forward.Normalize()
	if t.Mirror {
		// A reflection flips the handedness of the cross product.
		forward = forward.Mul(-1)
	}

	return Euler{
		X: math.Atan2(spine.Z(), math.Hypot(spine.X(), spine.Y())),
		Y: math.Atan2(forward.X(), forward.Z()),
		Z: WrapToHalfPi(math.Atan2(shoulder.Y(), shoulder.X())),
	}, true
}

// BodyOrientation is Orientation over a full world pose using the shoulder
// and hip landmarks.
func (t *Transformer) BodyOrientation(world []detector.Landmark) (Euler, bool) {
	if len(world) <= detector.PoseRightHip {
		return Euler{}, false
	}
	ls := world[detector.PoseLeftShoulder]
	rs := world[detector.PoseRightShoulder]
	return t.Orientation(ls, rs,
		Midpoint(world[detector.PoseLeftHip], world[detector.PoseRightHip]),
		Midpoint(ls, rs))
}

// FullBodyYaw estimates the whole-body turn from the shoulder and hip lines
// together, assuming an upright spine. It is steadier than the torso frame
// when the person leans.
func (t *Transformer) FullBodyYaw(world []detector.Landmark) (float64, bool) {
	if len(world) <= detector.PoseRightHip {
		return 0, false
	}
	shoulders := vec(world[detector.PoseRightShoulder]).Sub(vec(world[detector.PoseLeftShoulder]))
	hips := vec(world[detector.PoseRightHip]).Sub(vec(world[detector.PoseLeftHip]))
	lateral := shoulders.Add(hips)
	if math.Hypot(lateral.X(), lateral.Z()) < 1e-9 {
		return 0, false
	}
	// cross(lateral, up) with up = -Y in perception space
	yaw := math.Atan2(lateral.Z(), -lateral.X())
	if t.Mirror {
		yaw = -yaw
	}
	return yaw, true
}

// Midpoint returns the point halfway between a and b. Visibility is the
// lower of the two.
func Midpoint(a, b detector.Landmark) detector.Landmark {
	return detector.Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}
