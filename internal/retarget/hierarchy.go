package retarget

import (
	"math"
	"sort"

	"github.com/ayusman/vestir/internal/scene"
)

// Arm chains start between these bone depths below the skeleton root.
const (
	minArmDepth = 1
	maxArmDepth = 4
)

// centreTolerance is how far from the root's X a bone may sit and still
// count as part of the spine.
const centreTolerance = 1e-3

// clavicleRatio: a first arm bone shorter than this fraction of the next
// one is a clavicle and is skipped.
const clavicleRatio = 0.6

// HierarchyMatcher finds limb bones from the shape of the skeleton instead
// of bone names. The root is the shallowest bone; legs are root children
// whose first child hangs below them; arms are the side chains that leave
// the spine a few levels down. The model's left side is +X.
type HierarchyMatcher struct{}

// Match implements Matcher.
func (HierarchyMatcher) Match(role Role, skel *scene.Skeleton) *scene.Node {
	return detectLimbs(skel)[role]
}

func detectLimbs(skel *scene.Skeleton) map[Role]*scene.Node {
	found := make(map[Role]*scene.Node)
	if skel == nil || len(skel.Bones) == 0 {
		return found
	}

	inSkel := make(map[*scene.Node]bool, len(skel.Bones))
	for _, b := range skel.Bones {
		inSkel[b] = true
	}
	depth := func(n *scene.Node) int {
		d := 0
		for p := n.Parent; p != nil && inSkel[p]; p = p.Parent {
			d++
		}
		return d
	}

	root := skel.Bones[0]
	for _, b := range skel.Bones[1:] {
		if depth(b) < depth(root) {
			root = b
		}
	}
	rootX := root.WorldPosition().X()
	side := func(n *scene.Node) float64 {
		return n.WorldPosition().X() - rootX
	}

	legs := make(map[*scene.Node]bool)
	for _, c := range root.Children {
		if !inSkel[c] || len(c.Children) == 0 {
			continue
		}
		if c.Children[0].WorldPosition().Y() >= c.WorldPosition().Y() {
			continue
		}
		x := side(c)
		switch {
		case x > centreTolerance && found[LeftThigh] == nil:
			found[LeftThigh], found[LeftShin] = c, c.Children[0]
		case x < -centreTolerance && found[RightThigh] == nil:
			found[RightThigh], found[RightShin] = c, c.Children[0]
		default:
			continue
		}
		legs[c] = true
	}

	underLeg := func(n *scene.Node) bool {
		for p := n; p != nil; p = p.Parent {
			if legs[p] {
				return true
			}
		}
		return false
	}

	// An arm chain starts at a bone off the centre line whose parent is on it.
	var starts []*scene.Node
	for _, b := range skel.Bones {
		d := depth(b)
		if d < minArmDepth || d > maxArmDepth || b.Parent == nil || underLeg(b) {
			continue
		}
		if math.Abs(side(b)) > centreTolerance && math.Abs(side(b.Parent)) <= centreTolerance {
			starts = append(starts, b)
		}
	}
	sort.SliceStable(starts, func(i, j int) bool {
		return depth(starts[i]) < depth(starts[j])
	})

	for _, s := range starts {
		upper, fore := LeftUpperArm, LeftForearm
		if side(s) < 0 {
			upper, fore = RightUpperArm, RightForearm
		}
		if found[upper] != nil {
			continue
		}
		chain := firstChildChain(s, 3)
		if len(chain) < 2 {
			continue
		}
		if len(chain) == 3 && boneLength(chain[0], chain[1]) < clavicleRatio*boneLength(chain[1], chain[2]) {
			chain = chain[1:]
		}
		found[upper], found[fore] = chain[0], chain[1]
	}
	return found
}

// firstChildChain follows first children from n, returning at most limit
// nodes including n.
func firstChildChain(n *scene.Node, limit int) []*scene.Node {
	chain := []*scene.Node{n}
	for len(chain) < limit && len(n.Children) > 0 {
		n = n.Children[0]
		chain = append(chain, n)
	}
	return chain
}

func boneLength(a, b *scene.Node) float64 {
	return b.WorldPosition().Sub(a.WorldPosition()).Len()
}

// FallbackMatcher resolves a skeleton with the first matcher that finds
// any limb bone in it, so a rig is never matched half by one strategy and
// half by another.
type FallbackMatcher struct {
	Matchers []Matcher
}

// NewDefaultMatcher matches by name and falls back to the skeleton's shape.
func NewDefaultMatcher() *FallbackMatcher {
	return &FallbackMatcher{Matchers: []Matcher{NewFuzzyMatcher(), HierarchyMatcher{}}}
}

// Match implements Matcher.
func (m *FallbackMatcher) Match(role Role, skel *scene.Skeleton) *scene.Node {
	for _, mm := range m.Matchers {
		for _, r := range Roles {
			if mm.Match(r, skel) != nil {
				return mm.Match(role, skel)
			}
		}
	}
	return nil
}
