package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
)

// ErrNoMesh is returned when a model carries no measurable geometry.
var ErrNoMesh = errors.New("model has no mesh geometry")

// OpenGLTF loads a .gltf or .glb file into a node tree.
func OpenGLTF(path string) (*Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	root, err := ImportGLTF(doc)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return root, nil
}

// ImportGLTF builds a node tree from a glTF document. The returned node is a
// fresh root holding the default scene's top-level nodes. Mesh nodes get
// local bounds from their POSITION accessor extents, and skinned nodes get a
// Skeleton referencing their joint nodes.
func ImportGLTF(doc *gltf.Document) (*Node, error) {
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		nodes[i] = convertNode(gn, i)
	}

	hasParent := make([]bool, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if int(c) >= len(nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			nodes[i].Add(nodes[c])
			hasParent[c] = true
		}
	}

	foundMesh := false
	for i, gn := range doc.Nodes {
		if gn.Mesh != nil {
			box, ok := meshBounds(doc, *gn.Mesh)
			if ok {
				nodes[i].Bounds = &box
				foundMesh = true
			}
		}
		if gn.Skin != nil {
			if int(*gn.Skin) >= len(doc.Skins) {
				return nil, fmt.Errorf("node %d: skin index %d out of range", i, *gn.Skin)
			}
			skel := &Skeleton{}
			for _, j := range doc.Skins[*gn.Skin].Joints {
				if int(j) >= len(nodes) {
					return nil, fmt.Errorf("skin %d: joint index %d out of range", *gn.Skin, j)
				}
				skel.Bones = append(skel.Bones, nodes[j])
			}
			nodes[i].Skin = skel
		}
	}
	if !foundMesh {
		return nil, ErrNoMesh
	}

	root := NewNode("model")
	for _, idx := range sceneRoots(doc, hasParent) {
		root.Add(nodes[idx])
	}
	return root, nil
}

func sceneRoots(doc *gltf.Document, hasParent []bool) []uint32 {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			s = int(*doc.Scene)
		}
		return doc.Scenes[s].Nodes
	}

	var roots []uint32
	for i, p := range hasParent {
		if !p {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func convertNode(gn *gltf.Node, index int) *Node {
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node%d", index)
	}
	n := NewNode(name)

	if m, ok := nodeMatrix(gn); ok {
		n.Position, n.Rotation, n.Scale = decompose(m)
		return n
	}

	t := gn.Translation
	n.Position = mgl64.Vec3{float64(t[0]), float64(t[1]), float64(t[2])}

	r := gn.Rotation
	if r != [4]float32{} {
		n.Rotation = mgl64.Quat{
			W: float64(r[3]),
			V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])},
		}.Normalize()
	}

	s := gn.Scale
	if s != [3]float32{} {
		n.Scale = mgl64.Vec3{float64(s[0]), float64(s[1]), float64(s[2])}
	}
	return n
}

// nodeMatrix returns the node's explicit matrix if it has a non-identity one.
func nodeMatrix(gn *gltf.Node) (mgl64.Mat4, bool) {
	var m mgl64.Mat4
	zero := true
	for i, v := range gn.Matrix {
		m[i] = float64(v)
		if v != 0 {
			zero = false
		}
	}
	if zero || m.ApproxEqual(mgl64.Ident4()) {
		return m, false
	}
	return m, true
}

// decompose splits an affine matrix into translation, rotation and scale.
func decompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	pos := m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()

	rot := mgl64.Ident4()
	if sx > 0 && sy > 0 && sz > 0 {
		rot.SetCol(0, m.Col(0).Mul(1/sx))
		rot.SetCol(1, m.Col(1).Mul(1/sy))
		rot.SetCol(2, m.Col(2).Mul(1/sz))
		rot.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	}
	return pos, mgl64.Mat4ToQuat(rot).Normalize(), mgl64.Vec3{sx, sy, sz}
}

func meshBounds(doc *gltf.Document, mesh uint32) (AABB, bool) {
	if int(mesh) >= len(doc.Meshes) {
		return AABB{}, false
	}
	box := EmptyAABB()
	for _, p := range doc.Meshes[mesh].Primitives {
		idx, ok := p.Attributes["POSITION"]
		if !ok || int(idx) >= len(doc.Accessors) {
			continue
		}
		acc := doc.Accessors[idx]
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}
		box = box.Extend(mgl64.Vec3{float64(acc.Min[0]), float64(acc.Min[1]), float64(acc.Min[2])})
		box = box.Extend(mgl64.Vec3{float64(acc.Max[0]), float64(acc.Max[1]), float64(acc.Max[2])})
	}
	return box, !box.IsEmpty()
}
