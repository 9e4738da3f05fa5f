// Package scene holds the retained scene graph shared with the renderer:
// nodes with local transforms, skeletons and bounding boxes.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns a box that any Extend call will replace.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box holds no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include p.
func (b AABB) Extend(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union grows the box to include o.
func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the box extent along each axis.
func (b AABB) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b AABB) Center() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Transform returns the box enclosing b's eight corners after m.
func (b AABB) Transform(m mgl64.Mat4) AABB {
	out := EmptyAABB()
	if b.IsEmpty() {
		return out
	}
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(mgl64.TransformCoordinate(corner, m))
	}
	return out
}

// Node is a scene-graph node. Its transform is position, rotation and scale
// relative to its parent.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Parent   *Node
	Children []*Node

	// Bounds is the local-space extent of geometry attached to this node.
	Bounds *AABB

	// Skin is set on nodes whose geometry is bound to a skeleton.
	Skin *Skeleton
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Add attaches child under n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches child from n. It is a no-op if child is not attached to n.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// Detach removes n from its parent.
func (n *Node) Detach() {
	if n.Parent != nil {
		n.Parent.Remove(n)
	}
}

// Traverse visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindSkeleton returns the first skeleton bound anywhere in the subtree.
func (n *Node) FindSkeleton() *Skeleton {
	var skel *Skeleton
	n.Traverse(func(c *Node) bool {
		if skel != nil {
			return false
		}
		if c.Skin != nil && len(c.Skin.Bones) > 0 {
			skel = c.Skin
			return false
		}
		return true
	})
	return skel
}

// LocalMatrix returns T * R * S.
func (n *Node) LocalMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := n.Rotation.Normalize().Mat4()
	s := mgl64.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix returns the node's transform composed with every ancestor's.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	if n.Parent == nil {
		return n.LocalMatrix()
	}
	return n.Parent.WorldMatrix().Mul4(n.LocalMatrix())
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// WorldRotation returns the product of the rotations from the root down to
// n. Scales are assumed uniform, so they do not shear the result.
func (n *Node) WorldRotation() mgl64.Quat {
	if n.Parent == nil {
		return n.Rotation.Normalize()
	}
	return n.Parent.WorldRotation().Mul(n.Rotation).Normalize()
}

// WorldBounds returns the world-space box around every node's geometry in
// the subtree.
func (n *Node) WorldBounds() AABB {
	box := EmptyAABB()
	n.Traverse(func(c *Node) bool {
		if c.Bounds != nil {
			box = box.Union(c.Bounds.Transform(c.WorldMatrix()))
		}
		return true
	})
	return box
}
