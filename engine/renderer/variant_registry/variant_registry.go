package variant_registry

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"go.uber.org/zap"
)

// nodeKey identifies a tag assignment.
type nodeKey struct {
	passID string
	nodeID uint64
}

// tagKey identifies a resolved tag state.
type tagKey struct {
	passID  string
	tagName string
}

type registry struct {
	mu *sync.Mutex

	tags      map[nodeKey]string
	overrides map[tagKey]material.Material
	defaults  map[string]material.Material
}

// Registry resolves the shader state each node renders with in each pass.
//
// A pass has one default state. A node may additionally carry one tag per pass; when the pass has a
// state registered for that tag name, the node renders with the default state composed with that
// override. Assignments are keyed by (pass id, node id), so a tag for one pass never affects another.
// Tags are inherited: a node without its own tag for a pass uses the nearest tagged ancestor's.
type Registry interface {
	// Tag assigns tagName to node for passID, replacing any tag the node already had for that pass.
	// The assignment is mirrored onto the node's string tags under the pass id.
	//
	// Parameters:
	//   - node: the scene node
	//   - passID: the pass the tag applies to
	//   - tagName: the tag name, matched against ResolveTagState registrations
	Tag(node scene.Node, passID, tagName string)

	// Untag removes the node's tag for passID.
	//
	// Parameters:
	//   - node: the scene node
	//   - passID: the pass
	Untag(node scene.Node, passID string)

	// TagOf returns the tag a node carries for passID, ignoring ancestors.
	//
	// Parameters:
	//   - node: the scene node
	//   - passID: the pass
	//
	// Returns:
	//   - string: the tag name
	//   - bool: true when the node is tagged for the pass
	TagOf(node scene.Node, passID string) (string, bool)

	// ResolveDefaultState records the state untagged nodes render with in passID.
	//
	// Parameters:
	//   - passID: the pass
	//   - base: the pass default state
	ResolveDefaultState(passID string, base material.Material)

	// ResolveTagState records the override composed over the default state for nodes tagged tagName
	// in passID.
	//
	// Parameters:
	//   - passID: the pass
	//   - tagName: the tag name
	//   - override: the partial state to compose over the default
	ResolveTagState(passID, tagName string, override material.Material)

	// DefaultState returns the default state recorded for passID.
	DefaultState(passID string) (material.Material, bool)

	// TagState returns the override recorded for (passID, tagName).
	TagState(passID, tagName string) (material.Material, bool)

	// StateFor returns the state node renders with in passID: the default state, or the default
	// composed with the node's tag override. Returns nil when the pass has no default state.
	//
	// Parameters:
	//   - passID: the pass
	//   - node: the scene node
	//
	// Returns:
	//   - material.Material: the resolved state
	StateFor(passID string, node scene.Node) material.Material

	// TaggedNodes returns the number of tag assignments for passID.
	TaggedNodes(passID string) int
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry.
func NewRegistry() Registry {
	return &registry{
		mu:        &sync.Mutex{},
		tags:      make(map[nodeKey]string),
		overrides: make(map[tagKey]material.Material),
		defaults:  make(map[string]material.Material),
	}
}

func (r *registry) Tag(node scene.Node, passID, tagName string) {
	if node == nil {
		return
	}
	r.mu.Lock()
	key := nodeKey{passID: passID, nodeID: node.ID()}
	if prev, ok := r.tags[key]; ok && prev != tagName {
		common.Logger().Debug("variant tag replaced", zap.String("pass", passID), zap.String("node", node.Name()), zap.String("from", prev), zap.String("to", tagName))
	}
	r.tags[key] = tagName
	r.mu.Unlock()
	node.SetTag(passID, tagName)
}

func (r *registry) Untag(node scene.Node, passID string) {
	if node == nil {
		return
	}
	r.mu.Lock()
	delete(r.tags, nodeKey{passID: passID, nodeID: node.ID()})
	r.mu.Unlock()
	node.ClearTag(passID)
}

func (r *registry) TagOf(node scene.Node, passID string) (string, bool) {
	if node == nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.tags[nodeKey{passID: passID, nodeID: node.ID()}]
	return name, ok
}

func (r *registry) ResolveDefaultState(passID string, base material.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[passID] = base
}

func (r *registry) ResolveTagState(passID, tagName string, override material.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[tagKey{passID: passID, tagName: tagName}] = override
}

func (r *registry) DefaultState(passID string) (material.Material, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.defaults[passID]
	return m, ok
}

func (r *registry) TagState(passID, tagName string) (material.Material, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.overrides[tagKey{passID: passID, tagName: tagName}]
	return m, ok
}

func (r *registry) StateFor(passID string, node scene.Node) material.Material {
	r.mu.Lock()
	base, ok := r.defaults[passID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	var override material.Material
	for n := node; n != nil; n = n.Parent() {
		if name, tagged := r.tags[nodeKey{passID: passID, nodeID: n.ID()}]; tagged {
			override = r.overrides[tagKey{passID: passID, tagName: name}]
			break
		}
	}
	r.mu.Unlock()

	if override == nil {
		return base
	}
	return base.Compose(override)
}

func (r *registry) TaggedNodes(passID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for k := range r.tags {
		if k.passID == passID {
			count++
		}
	}
	return count
}
