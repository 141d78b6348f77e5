package variant_registry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputValue(t *testing.T, m material.Material, name string) float32 {
	t.Helper()
	in, ok := m.Input(name)
	require.True(t, ok, "missing input %s", name)
	return in.Component(0)
}

func TestUntaggedNodesUseDefault(t *testing.T) {
	r := NewRegistry()
	base := material.NewMaterial("geometry", material.WithInput("isWater", shader.Float(0)))
	r.ResolveDefaultState("geometry", base)

	n := scene.NewNode("terrain")
	assert.Same(t, base, r.StateFor("geometry", n))
	assert.Nil(t, r.StateFor("unknown", n))
}

func TestTagIsolationBetweenPasses(t *testing.T) {
	r := NewRegistry()
	r.ResolveDefaultState("passA", material.NewMaterial("a", material.WithInput("isWater", shader.Float(0))))
	r.ResolveDefaultState("passB", material.NewMaterial("b", material.WithInput("isWater", shader.Float(0))))
	r.ResolveTagState("passA", "isWater", material.NewMaterial("water", material.WithInput("isWater", shader.Float(1))))
	r.ResolveTagState("passB", "isWater", material.NewMaterial("water", material.WithInput("isWater", shader.Float(1))))

	water := scene.NewNode("water")
	r.Tag(water, "passA", "isWater")

	assert.Equal(t, float32(1), inputValue(t, r.StateFor("passA", water), "isWater"))
	assert.Equal(t, float32(0), inputValue(t, r.StateFor("passB", water), "isWater"))

	tag, ok := water.Tag("passA")
	assert.True(t, ok)
	assert.Equal(t, "isWater", tag)
	_, ok = water.Tag("passB")
	assert.False(t, ok)
}

func TestRetagReplacesAndUntagRemoves(t *testing.T) {
	r := NewRegistry()
	r.ResolveDefaultState("geometry", material.NewMaterial("g", material.WithInput("kind", shader.Float(0))))
	r.ResolveTagState("geometry", "isWater", material.NewMaterial("w", material.WithInput("kind", shader.Float(1))))
	r.ResolveTagState("geometry", "isSmoke", material.NewMaterial("s", material.WithInput("kind", shader.Float(2))))

	n := scene.NewNode("n")
	r.Tag(n, "geometry", "isWater")
	r.Tag(n, "geometry", "isSmoke")
	assert.Equal(t, 1, r.TaggedNodes("geometry"))
	assert.Equal(t, float32(2), inputValue(t, r.StateFor("geometry", n), "kind"))

	r.Untag(n, "geometry")
	assert.Equal(t, 0, r.TaggedNodes("geometry"))
	assert.Equal(t, float32(0), inputValue(t, r.StateFor("geometry", n), "kind"))
	_, ok := n.Tag("geometry")
	assert.False(t, ok)
}

func TestTagInheritedByDescendants(t *testing.T) {
	r := NewRegistry()
	r.ResolveDefaultState("geometry", material.NewMaterial("g", material.WithInput("kind", shader.Float(0))))
	r.ResolveTagState("geometry", "isWater", material.NewMaterial("w", material.WithInput("kind", shader.Float(1))))

	parent := scene.NewNode("lake")
	child := scene.NewNode("surface", scene.WithParent(parent))
	r.Tag(parent, "geometry", "isWater")

	assert.Equal(t, float32(1), inputValue(t, r.StateFor("geometry", child), "kind"))
	_, ok := r.TagOf(child, "geometry")
	assert.False(t, ok)
}

func TestOverrideKeepsProgramAndSeesLaterPushes(t *testing.T) {
	r := NewRegistry()
	prog := shader.NewProgram("", "", shader.Reflection{Kernel: "geometry"})
	base := material.NewMaterial("g", material.WithProgram(prog), material.WithInput("time", shader.Float(0)))
	r.ResolveDefaultState("geometry", base)
	r.ResolveTagState("geometry", "isWater", material.NewMaterial("w", material.WithInput("isWater", shader.Float(1))))

	n := scene.NewNode("water")
	r.Tag(n, "geometry", "isWater")

	base.SetInput("time", shader.Float(3))
	state := r.StateFor("geometry", n)
	assert.Same(t, prog, state.Program())
	assert.Equal(t, float32(3), inputValue(t, state, "time"))
	assert.Equal(t, float32(1), inputValue(t, state, "isWater"))
}

func TestTagWithoutResolvedStateFallsBack(t *testing.T) {
	r := NewRegistry()
	base := material.NewMaterial("g")
	r.ResolveDefaultState("geometry", base)
	n := scene.NewNode("n")
	r.Tag(n, "geometry", "unregistered")
	assert.Same(t, base, r.StateFor("geometry", n))
}
