package scene

// NodeBuilderOption is a functional option for configuring a Node in NewNode.
type NodeBuilderOption func(n *node)

// WithMesh attaches geometry to the node.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithMesh(m *Mesh) NodeBuilderOption {
	return func(n *node) {
		n.mesh = m
	}
}

// WithPosition sets the initial local translation.
//
// Parameters:
//   - x, y, z: the translation
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithPosition(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.position = [3]float32{x, y, z}
	}
}

// WithScale sets the initial local scale.
//
// Parameters:
//   - sx, sy, sz: the scale
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithScale(sx, sy, sz float32) NodeBuilderOption {
	return func(n *node) {
		n.scale = [3]float32{sx, sy, sz}
	}
}

// WithParent attaches the new node under parent.
//
// Parameters:
//   - parent: the parent node
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithParent(parent Node) NodeBuilderOption {
	return func(n *node) {
		p := parent.(*node)
		p.mu.Lock()
		p.children = append(p.children, n)
		p.mu.Unlock()
		n.parent = p
	}
}

// WithTag attaches a string tag.
//
// Parameters:
//   - key: the tag key
//   - value: the tag value
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithTag(key, value string) NodeBuilderOption {
	return func(n *node) {
		n.tags[key] = value
	}
}

// WithHidden hides the node from the given camera bits.
//
// Parameters:
//   - mask: the camera bits to hide from
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithHidden(mask CameraMask) NodeBuilderOption {
	return func(n *node) {
		n.hidden |= mask
	}
}

// WithDepth sets the depth test and write state inherited by descendants.
//
// Parameters:
//   - test: the depth test state
//   - write: the depth write state
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithDepth(test, write bool) NodeBuilderOption {
	return func(n *node) {
		n.depthTest = &test
		n.depthWrite = &write
	}
}
