// Package retarget poses a garment's skeleton to follow tracked body
// landmarks.
package retarget

import (
	"strings"

	"github.com/ayusman/vestir/internal/scene"
)

// Role is an anatomical bone the retargeter drives.
type Role string

const (
	LeftUpperArm  Role = "left_upper_arm"
	LeftForearm   Role = "left_forearm"
	RightUpperArm Role = "right_upper_arm"
	RightForearm  Role = "right_forearm"
	LeftThigh     Role = "left_thigh"
	LeftShin      Role = "left_shin"
	RightThigh    Role = "right_thigh"
	RightShin     Role = "right_shin"
)

// Roles lists every role, proximal bones before distal ones.
var Roles = []Role{
	LeftUpperArm, LeftForearm, RightUpperArm, RightForearm,
	LeftThigh, LeftShin, RightThigh, RightShin,
}

// Matcher finds the bone that plays a role in a skeleton.
type Matcher interface {
	Match(role Role, skel *scene.Skeleton) *scene.Node
}

// ExactMatcher maps roles to exact, case-sensitive bone names.
type ExactMatcher struct {
	Names map[Role]string
}

// Match implements Matcher.
func (m ExactMatcher) Match(role Role, skel *scene.Skeleton) *scene.Node {
	name, ok := m.Names[role]
	if !ok {
		return nil
	}
	return skel.BoneByName(name)
}

// FuzzyMatcher matches bones through ordered alias lists. Names are compared
// after normalization (lower case, namespace prefix such as "mixamorig:"
// dropped, spaces, dots, dashes and underscores removed). Each alias is first
// tried as an exact match across the skeleton, then as a substring.
type FuzzyMatcher struct {
	Aliases map[Role][]string
}

// NewFuzzyMatcher returns a FuzzyMatcher with the default aliases, which
// cover Mixamo, Blender and generic humanoid naming.
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{Aliases: DefaultAliases()}
}

// DefaultAliases returns the built-in alias table. Upper-arm aliases come
// before shoulder aliases so a clavicle named "LeftShoulder" loses to a real
// "LeftArm" bone.
func DefaultAliases() map[Role][]string {
	side := func(s, l string, names ...string) []string {
		out := make([]string, 0, len(names))
		for _, n := range names {
			n = strings.ReplaceAll(n, "{S}", s)
			n = strings.ReplaceAll(n, "{l}", l)
			out = append(out, n)
		}
		return out
	}

	aliases := make(map[Role][]string)
	for _, sd := range []struct {
		side, letter         string
		upper, fore, up, low Role
	}{
		{"Left", "L", LeftUpperArm, LeftForearm, LeftThigh, LeftShin},
		{"Right", "R", RightUpperArm, RightForearm, RightThigh, RightShin},
	} {
		aliases[sd.upper] = side(sd.side, sd.letter,
			"{S}Arm", "{S}UpperArm", "upperarm.{l}", "upper_arm.{l}", "{S}Shoulder", "{S} Shoulder", "shoulder.{l}")
		aliases[sd.fore] = side(sd.side, sd.letter,
			"{S}ForeArm", "{S}LowerArm", "forearm.{l}", "lowerarm.{l}", "{S}Elbow", "{S} Elbow", "elbow.{l}")
		aliases[sd.up] = side(sd.side, sd.letter,
			"{S}UpLeg", "{S}UpperLeg", "{S}Thigh", "thigh.{l}", "upperleg.{l}", "{S}Hip", "{S} Hip")
		aliases[sd.low] = side(sd.side, sd.letter,
			"{S}Leg", "{S}LowerLeg", "{S}Shin", "{S}Calf", "shin.{l}", "calf.{l}", "lowerleg.{l}", "{S}Knee", "{S} Knee")
	}
	return aliases
}

// Match implements Matcher.
func (m *FuzzyMatcher) Match(role Role, skel *scene.Skeleton) *scene.Node {
	aliases := m.Aliases[role]
	if len(aliases) == 0 {
		return nil
	}

	names := make([]string, len(skel.Bones))
	for i, b := range skel.Bones {
		names[i] = NormalizeBoneName(b.Name)
	}

	for _, alias := range aliases {
		a := NormalizeBoneName(alias)
		for i, n := range names {
			if n == a {
				return skel.Bones[i]
			}
		}
	}

	for _, alias := range aliases {
		a := NormalizeBoneName(alias)
		for i, n := range names {
			if strings.Contains(n, a) {
				return skel.Bones[i]
			}
		}
	}
	return nil
}

// NormalizeBoneName folds a bone name for comparison.
func NormalizeBoneName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
