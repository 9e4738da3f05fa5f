package scene

// Skeleton is the flat list of joint nodes a skinned mesh is bound to. The
// bones live in the node tree; the skeleton only references them.
type Skeleton struct {
	Bones []*Node
}

// BoneByName returns the bone with an exact name, or nil.
func (s *Skeleton) BoneByName(name string) *Node {
	for _, b := range s.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Names lists the bone names in skeleton order.
func (s *Skeleton) Names() []string {
	names := make([]string, len(s.Bones))
	for i, b := range s.Bones {
		names[i] = b.Name
	}
	return names
}
