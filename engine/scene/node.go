package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// CameraMask selects which cameras see a node. A camera with mask m renders a node only if
// neither the node nor any ancestor is hidden from a bit in m.
type CameraMask uint32

// AllCameras is the mask matching every camera.
const AllCameras CameraMask = 0xFFFFFFFF

// MaskBit returns the mask with only bit i set.
func MaskBit(i int) CameraMask {
	return CameraMask(1) << uint(i)
}

// nextNodeID is the process-wide node identifier counter. Identifiers start at 1.
var nextNodeID atomic.Uint64

// node is the implementation of the Node interface.
type node struct {
	mu *sync.Mutex

	id       uint64
	name     string
	parent   *node
	children []*node

	position [3]float32
	rotation [3]float32
	scale    [3]float32

	hidden CameraMask
	tags   map[string]string

	// depth state is inherited from the nearest ancestor that sets it; nil means inherit.
	depthTest  *bool
	depthWrite *bool

	mesh *Mesh
}

// Node is an element of the scene graph: a named transform with optional geometry,
// per-camera visibility, string tags and inheritable depth state.
// Nodes are safe to mutate between frames from any goroutine.
type Node interface {
	// ID returns the node's process-unique identifier.
	//
	// Returns:
	//   - uint64: the node ID
	ID() uint64

	// Name returns the node's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Parent returns the parent node, or nil for a root.
	//
	// Returns:
	//   - Node: the parent
	Parent() Node

	// Children returns a snapshot of the node's children in insertion order.
	//
	// Returns:
	//   - []Node: the children
	Children() []Node

	// ReparentTo detaches the node from its current parent and appends it to parent's children.
	// Passing nil detaches the node.
	//
	// Parameters:
	//   - parent: the new parent
	ReparentTo(parent Node)

	// Detach removes the node from its parent. The node keeps its own children.
	Detach()

	// Find returns the first descendant (depth first, including the node itself) with the given name.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Node: the node, or nil
	Find(name string) Node

	// Walk visits the node and its descendants depth first. Returning false from fn skips the
	// visited node's children.
	//
	// Parameters:
	//   - fn: the visitor
	Walk(fn func(n Node) bool)

	// Position returns the local translation.
	Position() [3]float32
	// SetPosition sets the local translation.
	SetPosition(x, y, z float32)
	// Rotation returns the local Euler rotation in radians.
	Rotation() [3]float32
	// SetRotation sets the local Euler rotation in radians.
	SetRotation(rx, ry, rz float32)
	// Scale returns the local scale.
	Scale() [3]float32
	// SetScale sets the local scale.
	SetScale(sx, sy, sz float32)

	// LocalMatrix returns the node's transform relative to its parent.
	//
	// Returns:
	//   - [16]float32: the column-major matrix
	LocalMatrix() [16]float32

	// WorldMatrix returns the node's transform relative to the root of its graph.
	//
	// Returns:
	//   - [16]float32: the column-major matrix
	WorldMatrix() [16]float32

	// Hide hides the node and its descendants from every camera whose mask overlaps mask.
	//
	// Parameters:
	//   - mask: the camera bits to hide from
	Hide(mask CameraMask)

	// Show clears hidden bits previously set with Hide on this node.
	//
	// Parameters:
	//   - mask: the camera bits to show to
	Show(mask CameraMask)

	// VisibleTo reports whether a camera with the given mask renders this node, taking ancestors into account.
	//
	// Parameters:
	//   - mask: the camera mask
	//
	// Returns:
	//   - bool: true if visible
	VisibleTo(mask CameraMask) bool

	// SetTag attaches a string tag under key, replacing any previous value.
	//
	// Parameters:
	//   - key: the tag key
	//   - value: the tag value
	SetTag(key, value string)

	// Tag returns the tag stored under key.
	//
	// Parameters:
	//   - key: the tag key
	//
	// Returns:
	//   - string: the value
	//   - bool: true if set
	Tag(key string) (string, bool)

	// ClearTag removes the tag stored under key.
	//
	// Parameters:
	//   - key: the tag key
	ClearTag(key string)

	// SetDepthTest sets the depth test state for this node and the descendants that do not override it.
	SetDepthTest(enabled bool)
	// SetDepthWrite sets the depth write state for this node and the descendants that do not override it.
	SetDepthWrite(enabled bool)

	// DepthState returns the effective depth state, inherited from the nearest ancestor that set it.
	//
	// Returns:
	//   - test: whether depth testing is enabled (default true)
	//   - write: whether depth writes are enabled (default true)
	DepthState() (test, write bool)

	// Mesh returns the node's geometry, or nil.
	Mesh() *Mesh
	// SetMesh attaches geometry to the node.
	SetMesh(m *Mesh)
}

var _ Node = &node{}

// NewNode creates a detached node with an identity transform.
//
// Parameters:
//   - name: the node name
//   - options: functional options
//
// Returns:
//   - Node: the node
func NewNode(name string, options ...NodeBuilderOption) Node {
	n := &node{
		mu:    &sync.Mutex{},
		id:    nextNodeID.Add(1),
		name:  name,
		scale: [3]float32{1, 1, 1},
		tags:  make(map[string]string),
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func (n *node) ID() uint64 {
	return n.id
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Parent() Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *node) ReparentTo(parent Node) {
	n.Detach()
	if parent == nil {
		return
	}
	p := parent.(*node)
	p.mu.Lock()
	p.children = append(p.children, n)
	p.mu.Unlock()

	n.mu.Lock()
	n.parent = p
	n.mu.Unlock()
}

func (n *node) Detach() {
	n.mu.Lock()
	p := n.parent
	n.parent = nil
	n.mu.Unlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
}

func (n *node) Find(name string) Node {
	var found Node
	n.Walk(func(c Node) bool {
		if found != nil {
			return false
		}
		if c.Name() == name {
			found = c
			return false
		}
		return true
	})
	return found
}

func (n *node) Walk(fn func(n Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

func (n *node) Position() [3]float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.position
}

func (n *node) SetPosition(x, y, z float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = [3]float32{x, y, z}
}

func (n *node) Rotation() [3]float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rotation
}

func (n *node) SetRotation(rx, ry, rz float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotation = [3]float32{rx, ry, rz}
}

func (n *node) Scale() [3]float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.scale
}

func (n *node) SetScale(sx, sy, sz float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scale = [3]float32{sx, sy, sz}
}

func (n *node) LocalMatrix() [16]float32 {
	n.mu.Lock()
	p, r, s := n.position, n.rotation, n.scale
	n.mu.Unlock()

	var m [16]float32
	common.BuildModelMatrix(m[:], p[0], p[1], p[2], r[0], r[1], r[2], s[0], s[1], s[2])
	return m
}

func (n *node) WorldMatrix() [16]float32 {
	local := n.LocalMatrix()
	n.mu.Lock()
	p := n.parent
	n.mu.Unlock()
	if p == nil {
		return local
	}
	parent := p.WorldMatrix()
	var out [16]float32
	common.Mul4(out[:], parent[:], local[:])
	return out
}

func (n *node) Hide(mask CameraMask) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hidden |= mask
}

func (n *node) Show(mask CameraMask) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hidden &^= mask
}

func (n *node) VisibleTo(mask CameraMask) bool {
	for cur := n; cur != nil; {
		cur.mu.Lock()
		hidden, parent := cur.hidden, cur.parent
		cur.mu.Unlock()
		if hidden&mask != 0 {
			return false
		}
		cur = parent
	}
	return true
}

func (n *node) SetTag(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tags[key] = value
}

func (n *node) Tag(key string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.tags[key]
	return v, ok
}

func (n *node) ClearTag(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.tags, key)
}

func (n *node) SetDepthTest(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.depthTest = &enabled
}

func (n *node) SetDepthWrite(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.depthWrite = &enabled
}

func (n *node) DepthState() (test, write bool) {
	var testSet, writeSet bool
	test, write = true, true
	for cur := n; cur != nil && !(testSet && writeSet); {
		cur.mu.Lock()
		if !testSet && cur.depthTest != nil {
			test, testSet = *cur.depthTest, true
		}
		if !writeSet && cur.depthWrite != nil {
			write, writeSet = *cur.depthWrite, true
		}
		parent := cur.parent
		cur.mu.Unlock()
		cur = parent
	}
	return test, write
}

func (n *node) Mesh() *Mesh {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mesh
}

func (n *node) SetMesh(m *Mesh) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mesh = m
}
