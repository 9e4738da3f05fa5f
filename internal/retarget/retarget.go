package retarget

import (
	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/scene"
	"github.com/ayusman/vestir/internal/transform"
	"github.com/cyclopcam/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// LimbSet selects which limb chains a garment articulates.
type LimbSet uint8

const (
	Arms LimbSet = 1 << iota
	Legs

	AllLimbs = Arms | Legs
)

// Config holds tuning for the Engine.
type Config struct {
	// Smoothing is the slerp factor applied toward the target pose each frame.
	Smoothing float64
	// MinVisibility is the landmark visibility below which a limb eases back
	// to its bind pose instead of tracking. Landmarks without a reported
	// visibility always track.
	MinVisibility float64
}

// DefaultConfig returns the default retargeting configuration.
func DefaultConfig() Config {
	return Config{
		Smoothing:     0.25,
		MinVisibility: 0.5,
	}
}

// segment drives one bone from a pair of world landmarks. end names the
// bone whose head marks this bone's tip; with no end the bone's first child
// is used.
type segment struct {
	role     Role
	end      Role
	from, to int
	limb     LimbSet
}

// Proximal bones come first so their children see the updated rotation.
var segments = []segment{
	{LeftUpperArm, LeftForearm, detector.PoseLeftShoulder, detector.PoseLeftElbow, Arms},
	{LeftForearm, "", detector.PoseLeftElbow, detector.PoseLeftWrist, Arms},
	{RightUpperArm, RightForearm, detector.PoseRightShoulder, detector.PoseRightElbow, Arms},
	{RightForearm, "", detector.PoseRightElbow, detector.PoseRightWrist, Arms},
	{LeftThigh, LeftShin, detector.PoseLeftHip, detector.PoseLeftKnee, Legs},
	{LeftShin, "", detector.PoseLeftKnee, detector.PoseLeftAnkle, Legs},
	{RightThigh, RightShin, detector.PoseRightHip, detector.PoseRightKnee, Legs},
	{RightShin, "", detector.PoseRightKnee, detector.PoseRightAnkle, Legs},
}

// mirrored swaps a landmark index with its contralateral twin.
func mirrored(i int) int {
	switch {
	case i >= detector.PoseLeftShoulder && i <= detector.PoseRightFootIndex:
		// Body landmarks from 11 on alternate left (odd) and right (even).
		if i%2 == 1 {
			return i + 1
		}
		return i - 1
	}
	return i
}

// Bone is a matched bone with its tip and bind-pose local rotation.
type Bone struct {
	Node *scene.Node
	Tip  *scene.Node
	Bind mgl64.Quat
}

// Rig is the cached view of one garment's skeleton.
type Rig struct {
	Bones map[Role]*Bone
}

// Articulated reports whether any bone was matched.
func (r *Rig) Articulated() bool {
	return r != nil && len(r.Bones) > 0
}

// Reference holds anatomical distances measured on the bind pose.
type Reference struct {
	Shoulder float64
	Hip      float64
}

// Engine rotates garment bones so limb directions follow the wearer.
// It keeps a rig per garment id; callers must Forget ids they remove.
type Engine struct {
	config  Config
	matcher Matcher
	tr      *transform.Transformer
	log     logs.Log
	rigs    map[string]*Rig
}

// NewEngine creates an Engine. A nil matcher selects NewDefaultMatcher.
func NewEngine(config Config, matcher Matcher, tr *transform.Transformer, log logs.Log) *Engine {
	if matcher == nil {
		matcher = NewDefaultMatcher()
	}
	return &Engine{
		config:  config,
		matcher: matcher,
		tr:      tr,
		log:     log,
		rigs:    make(map[string]*Rig),
	}
}

// SetSmoothing changes the slerp factor.
func (e *Engine) SetSmoothing(alpha float64) {
	e.config.Smoothing = alpha
}

// Discover matches the skeleton's bones against every role. Bones with no
// tip are skipped since their direction cannot be measured.
func Discover(skel *scene.Skeleton, m Matcher) *Rig {
	rig := &Rig{Bones: make(map[Role]*Bone)}
	if skel == nil {
		return rig
	}

	nodes := make(map[Role]*scene.Node)
	for _, role := range Roles {
		if n := m.Match(role, skel); n != nil {
			nodes[role] = n
		}
	}

	for _, seg := range segments {
		n, ok := nodes[seg.role]
		if !ok {
			continue
		}
		tip := nodes[seg.end]
		if tip == nil && len(n.Children) > 0 {
			tip = n.Children[0]
		}
		if tip == nil {
			continue
		}
		rig.Bones[seg.role] = &Bone{Node: n, Tip: tip, Bind: n.Rotation}
	}
	return rig
}

// MeasureReference returns the bind-pose distance between the shoulder
// joints and between the hip joints. Missing pairs read as zero.
func MeasureReference(skel *scene.Skeleton, m Matcher) Reference {
	var ref Reference
	if skel == nil {
		return ref
	}
	dist := func(a, b Role) float64 {
		na, nb := m.Match(a, skel), m.Match(b, skel)
		if na == nil || nb == nil {
			return 0
		}
		return na.WorldPosition().Sub(nb.WorldPosition()).Len()
	}
	ref.Shoulder = dist(LeftUpperArm, RightUpperArm)
	ref.Hip = dist(LeftThigh, RightThigh)
	return ref
}

// Matcher returns the engine's bone matcher.
func (e *Engine) Matcher() Matcher {
	return e.matcher
}

// Rig returns the cached rig for id, or nil if id has not been seen.
func (e *Engine) Rig(id string) *Rig {
	return e.rigs[id]
}

func (e *Engine) rig(id string, model *scene.Node) *Rig {
	if r, ok := e.rigs[id]; ok {
		return r
	}
	skel := model.FindSkeleton()
	r := Discover(skel, e.matcher)
	switch {
	case skel == nil:
		e.log.Infof("Garment %s has no skeleton, using rigid placement", id)
	case !r.Articulated():
		e.log.Warnf("Garment %s: no limb bones matched among %v, using rigid placement", id, skel.Names())
	default:
		e.log.Infof("Garment %s: retargeting %d bones", id, len(r.Bones))
	}
	e.rigs[id] = r
	return r
}

// Update poses the garment's limbs toward the world landmarks. It reports
// whether the garment is articulated; false means rigid placement only.
// Short or missing landmark sets leave the pose untouched.
func (e *Engine) Update(id string, model *scene.Node, world []detector.Landmark, limbs LimbSet) bool {
	r := e.rig(id, model)
	if !r.Articulated() {
		return false
	}

	for _, seg := range segments {
		if seg.limb&limbs == 0 {
			continue
		}
		bone, ok := r.Bones[seg.role]
		if !ok {
			continue
		}

		from, to := seg.from, seg.to
		if e.tr.Mirror {
			// The garment faces the viewer, so its left sleeve sits where a
			// mirrored right arm appears.
			from, to = mirrored(from), mirrored(to)
		}
		if len(world) <= max(from, to) {
			continue
		}
		a, b := world[from], world[to]

		if !a.Visible(e.config.MinVisibility) || !b.Visible(e.config.MinVisibility) {
			bone.Node.Rotation = slerp(bone.Node.Rotation, bone.Bind, e.config.Smoothing)
			continue
		}

		target, ok := e.tr.Direction(a, b)
		if !ok {
			continue
		}
		current := bone.Tip.WorldPosition().Sub(bone.Node.WorldPosition())
		if current.Len() < 1e-9 {
			continue
		}

		delta := mgl64.QuatBetweenVectors(current.Normalize(), target)
		rotated := delta.Mul(bone.Node.WorldRotation())
		parent := mgl64.QuatIdent()
		if bone.Node.Parent != nil {
			parent = bone.Node.Parent.WorldRotation()
		}
		local := parent.Inverse().Mul(rotated).Normalize()
		bone.Node.Rotation = slerp(bone.Node.Rotation, local, e.config.Smoothing)
	}
	return true
}

// ResetPose snaps every cached bone of id back to its bind pose.
func (e *Engine) ResetPose(id string) {
	r := e.rigs[id]
	if r == nil {
		return
	}
	for _, b := range r.Bones {
		b.Node.Rotation = b.Bind
	}
}

// Forget drops the cached rig for id.
func (e *Engine) Forget(id string) {
	delete(e.rigs, id)
}

// ForgetAll drops every cached rig.
func (e *Engine) ForgetAll() {
	clear(e.rigs)
}

// slerp interpolates along the shorter arc.
func slerp(from, to mgl64.Quat, t float64) mgl64.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	return mgl64.QuatSlerp(from, to, t).Normalize()
}
