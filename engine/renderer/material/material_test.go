package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial("base")
	assert.True(t, m.DepthTest())
	assert.True(t, m.DepthWrite())
	assert.False(t, m.Blend())
	assert.Equal(t, CullNone, m.CullMode())
	assert.Nil(t, m.Program())
}

func TestComposeOverlaysInputs(t *testing.T) {
	prog := shader.NewProgram("", "", shader.Reflection{Kernel: "base"})
	base := NewMaterial("base", WithProgram(prog), WithInput("a", shader.Float(1)), WithInput("b", shader.Float(2)))
	over := NewMaterial("water", WithInput("b", shader.Float(3)), WithInput("isWater", shader.Float(1)), WithDepthWrite(false))

	c := base.Compose(over)
	assert.Same(t, prog, c.Program())
	in, _ := c.Input("a")
	assert.Equal(t, float32(1), in.Component(0))
	in, _ = c.Input("b")
	assert.Equal(t, float32(3), in.Component(0))
	_, ok := c.Input("isWater")
	assert.True(t, ok)
	assert.True(t, c.DepthTest())
	assert.False(t, c.DepthWrite())

	// Neither side changed.
	in, _ = base.Input("b")
	assert.Equal(t, float32(2), in.Component(0))
	assert.True(t, base.DepthWrite())
	_, ok = base.Input("isWater")
	assert.False(t, ok)
}

func TestComposeReplacesProgram(t *testing.T) {
	p1 := shader.NewProgram("", "", shader.Reflection{Kernel: "one"})
	p2 := shader.NewProgram("", "", shader.Reflection{Kernel: "two"})
	base := NewMaterial("base", WithProgram(p1))

	c := base.Compose(NewMaterial("alt", WithProgram(p2)))
	assert.Same(t, p2, c.Program())
	assert.NotEqual(t, base.PipelineKey(), c.PipelineKey())
	assert.Equal(t, base.PipelineKey(), base.Compose(nil).PipelineKey())
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMaterial("m", WithInput("x", shader.Float(1)))
	c := m.Clone()
	c.SetInput("x", shader.Float(5))
	in, _ := m.Input("x")
	assert.Equal(t, float32(1), in.Component(0))
	assert.Len(t, c.Inputs(), 1)
}
