package scene

import "sync"

// Transform is a renderer-facing snapshot of one node.
type Transform struct {
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"` // x, y, z, w
	Scale    [3]float64 `json:"scale"`
}

// RootTransform is a snapshot of a registered root and its posed bones.
type RootTransform struct {
	Transform
	Bones []Transform `json:"bones,omitempty"`
}

// Scene is the registry of root nodes the renderer draws. It does not own
// the nodes; whoever adds a root is responsible for removing it.
type Scene struct {
	mu    sync.RWMutex
	roots []*Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add registers a root. Adding a root twice is a no-op.
func (s *Scene) Add(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roots {
		if r == n {
			return
		}
	}
	s.roots = append(s.roots, n)
}

// Remove unregisters a root.
func (s *Scene) Remove(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.roots {
		if r == n {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

// Roots returns the registered roots in insertion order.
func (s *Scene) Roots() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Node(nil), s.roots...)
}

// Len returns the number of registered roots.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roots)
}

// Snapshot captures every root's transform and the local rotation of every
// skinned bone beneath it.
func (s *Scene) Snapshot() []RootTransform {
	roots := s.Roots()
	out := make([]RootTransform, 0, len(roots))
	for _, r := range roots {
		rt := RootTransform{Transform: snapshot(r)}
		if skel := r.FindSkeleton(); skel != nil {
			for _, b := range skel.Bones {
				rt.Bones = append(rt.Bones, snapshot(b))
			}
		}
		out = append(out, rt)
	}
	return out
}

func snapshot(n *Node) Transform {
	q := n.Rotation
	return Transform{
		Name:     n.Name,
		Position: [3]float64{n.Position[0], n.Position[1], n.Position[2]},
		Rotation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
		Scale:    [3]float64{n.Scale[0], n.Scale[1], n.Scale[2]},
	}
}
