package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestProviderWithoutResources(t *testing.T) {
	p := NewBindGroupProvider("draw", WithMesh(nil, nil, 6))
	assert.Equal(t, "draw", p.Label())
	assert.Equal(t, 6, p.IndexCount())
	assert.False(t, p.Uploaded())
	assert.Nil(t, p.Buffer(0))
	assert.Empty(t, p.BindGroups())

	// nil slots are skipped on release
	p.SetBindGroups(make([]*wgpu.BindGroup, 3))
	assert.Len(t, p.BindGroups(), 3)
	p.Release()
	p.Release()
	assert.Nil(t, p.BindGroups())
	assert.Zero(t, p.IndexCount())
}
