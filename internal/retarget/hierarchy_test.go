package retarget

import (
	"fmt"
	"testing"

	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anonymize renames every bone of the T-pose rig to Bone.NNN and returns the
// bones keyed by their original names.
func anonymize(model *scene.Node) map[string]*scene.Node {
	byName := make(map[string]*scene.Node)
	for i, b := range model.FindSkeleton().Bones {
		byName[b.Name] = b
		b.Name = fmt.Sprintf("Bone.%03d", i)
	}
	return byName
}

func TestHierarchyMatcher(t *testing.T) {
	model := tPoseRig()
	bones := anonymize(model)
	skel := model.FindSkeleton()
	require.Nil(t, NewFuzzyMatcher().Match(LeftUpperArm, skel))

	want := map[Role]string{
		LeftUpperArm:  "mixamorig:LeftArm",
		LeftForearm:   "mixamorig:LeftForeArm",
		RightUpperArm: "mixamorig:RightArm",
		RightForearm:  "mixamorig:RightForeArm",
		LeftThigh:     "mixamorig:LeftUpLeg",
		LeftShin:      "mixamorig:LeftLeg",
		RightThigh:    "mixamorig:RightUpLeg",
		RightShin:     "mixamorig:RightLeg",
	}
	for role, name := range want {
		assert.Same(t, bones[name], HierarchyMatcher{}.Match(role, skel), string(role))
	}
}

func TestHierarchyMatcher_NoClavicles(t *testing.T) {
	model := scene.NewNode("model")
	hips := bone(model, "a", 0, 1)
	chest := bone(hips, "b", 0, 0.5)
	lArm := bone(chest, "c", 0.2, 0)
	lFore := bone(lArm, "d", 0.3, 0)
	lHand := bone(lFore, "e", 0.25, 0)
	rArm := bone(chest, "f", -0.2, 0)
	rFore := bone(rArm, "g", -0.3, 0)
	mesh := scene.NewNode("Shirt")
	mesh.Skin = &scene.Skeleton{Bones: []*scene.Node{hips, chest, lArm, lFore, lHand, rArm, rFore}}
	model.Add(mesh)
	skel := mesh.Skin

	m := HierarchyMatcher{}
	assert.Same(t, lArm, m.Match(LeftUpperArm, skel))
	assert.Same(t, lFore, m.Match(LeftForearm, skel))
	assert.Same(t, rArm, m.Match(RightUpperArm, skel))
	assert.Same(t, rFore, m.Match(RightForearm, skel))
	assert.Nil(t, m.Match(LeftThigh, skel))
}

func TestHierarchyMatcher_Degenerate(t *testing.T) {
	m := HierarchyMatcher{}
	assert.Nil(t, m.Match(LeftUpperArm, nil))
	assert.Nil(t, m.Match(LeftUpperArm, &scene.Skeleton{}))
	assert.Nil(t, m.Match(LeftUpperArm, &scene.Skeleton{Bones: []*scene.Node{scene.NewNode("Bone.001")}}))
}

func TestFallbackMatcher(t *testing.T) {
	m := NewDefaultMatcher()

	t.Run("names win when they match", func(t *testing.T) {
		model := tPoseRig()
		got := m.Match(LeftUpperArm, model.FindSkeleton())
		require.NotNil(t, got)
		assert.Equal(t, "mixamorig:LeftArm", got.Name)
	})

	t.Run("shape when no name matches", func(t *testing.T) {
		model := tPoseRig()
		bones := anonymize(model)
		assert.Same(t, bones["mixamorig:RightForeArm"], m.Match(RightForearm, model.FindSkeleton()))

		ref := MeasureReference(model.FindSkeleton(), m)
		assert.InDelta(t, 0.4, ref.Shoulder, 1e-9)
		assert.InDelta(t, 0.2, ref.Hip, 1e-9)
	})

	t.Run("nothing matches", func(t *testing.T) {
		skel := &scene.Skeleton{Bones: []*scene.Node{scene.NewNode("Bone.001")}}
		assert.Nil(t, m.Match(LeftUpperArm, skel))
	})
}

func TestEngine_UnnamedRig(t *testing.T) {
	e := newEngine(t, false)
	model := tPoseRig()
	bones := anonymize(model)
	_, world := detector.BodyPose()

	for i := 0; i < 60; i++ {
		require.True(t, e.Update("shirt", model, world, AllLimbs))
	}
	assert.Len(t, e.Rig("shirt").Bones, 8)
	arm := bones["mixamorig:LeftArm"]
	assert.False(t, arm.Rotation.ApproxEqualThreshold(mgl64.QuatIdent(), 1e-3), "arm stayed in bind pose")
}
