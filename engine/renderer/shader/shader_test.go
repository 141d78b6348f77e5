package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `//@oxy:include scene_vertex
`

const testFragment = `//@oxy:include varyings
//@oxy:kernel scale

struct Inputs {
    factor: f32,
    tint: vec3<f32>,
    view: mat4x4<f32>,
    samples: array<vec4<f32>, 4>,
};

@group(0) @binding(0) var<uniform> inputs: Inputs;
@group(1) @binding(0) var source: texture_2d<f32>;
@group(1) @binding(1) var mask: texture_2d<f32>;

struct FragmentOutput {
    @location(0) color: vec4<f32>,
    @location(1) aux: vec4<f32>,
};

@fragment
fn fs_main(in: VertexOutput) -> FragmentOutput {
    var out: FragmentOutput;
    let c = textureLoad(source, vec2<i32>(in.clip.xy), 0);
    out.color = c * inputs.factor;
    out.aux = c;
    return out;
}
`

func TestReflect(t *testing.T) {
	pp := NewPreProcessor()
	vs, err := pp.Process(testVertex)
	require.NoError(t, err)
	fs, err := pp.Process(testFragment)
	require.NoError(t, err)

	r, err := Reflect(vs, fs)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", r.VertexEntry)
	assert.Equal(t, "fs_main", r.FragmentEntry)
	assert.Equal(t, "scale", r.Kernel)
	assert.Equal(t, 2, r.FragmentOutputs)
	assert.Equal(t, []string{"source", "mask"}, r.TextureNames())

	factor, ok := r.Uniform("factor")
	require.True(t, ok)
	assert.Equal(t, uint64(0), factor.Offset)
	tint, _ := r.Uniform("tint")
	assert.Equal(t, uint64(16), tint.Offset)
	view, _ := r.Uniform("view")
	assert.Equal(t, uint64(32), view.Offset)
	samples, _ := r.Uniform("samples")
	assert.Equal(t, uint64(96), samples.Offset)
	assert.Equal(t, uint64(64), samples.Size)
	assert.Equal(t, uint64(160), r.UniformSize)

	require.Len(t, r.VertexAttributes, 4)
	assert.Equal(t, uint64(48), r.VertexStride)
	assert.Equal(t, uint64(40), r.VertexAttributes[3].Offset)

	// Draw transforms come from the vertex include.
	var draw *Binding
	for i := range r.Bindings {
		if r.Bindings[i].Group == DrawGroup {
			draw = &r.Bindings[i]
		}
	}
	require.NotNil(t, draw)
	assert.Equal(t, uint64(192), draw.Size)
}

func TestReflectErrors(t *testing.T) {
	_, err := Reflect("fn nope() {}", testFragment)
	assert.Error(t, err)

	_, err = Reflect("@vertex fn vs(in: V) -> @builtin(position) vec4<f32> { return vec4<f32>(); }", "fn nope() {}")
	assert.Error(t, err)

	badGroup := `@group(1) @binding(0) var<uniform> x: vec4<f32>;
@fragment fn fs() -> @location(0) vec4<f32> { return x; }`
	_, err = Reflect("@vertex fn vs() -> @builtin(position) vec4<f32> { return vec4<f32>(); }", badGroup)
	assert.Error(t, err)
}

func TestSoftwareCompiler(t *testing.T) {
	kernels := NewKernelRegistry()
	called := false
	kernels.Register("scale", func(f *Fragment) { called = true })
	c := NewSoftwareCompiler(kernels)

	p, err := c.Compile(testVertex, testFragment)
	require.NoError(t, err)
	assert.Equal(t, "scale", p.Name())
	require.NotNil(t, p.Kernel())
	p.Kernel()(&Fragment{})
	assert.True(t, called)
	assert.NotContains(t, p.VertexSource(), "@oxy:include")
}

func TestCompileErrors(t *testing.T) {
	c := NewSoftwareCompiler(NewKernelRegistry())

	_, err := c.Compile(testVertex, testFragment)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "scale", ce.Program)
	assert.True(t, errors.Is(err, ErrUnknownKernel))

	_, err = c.Compile(testVertex, "@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(); }")
	require.ErrorAs(t, err, &ce)
	assert.True(t, errors.Is(err, ErrMissingKernel))

	_, err = c.Compile("//@oxy:include nothing", testFragment)
	require.ErrorAs(t, err, &ce)
}

func TestPackUniforms(t *testing.T) {
	_, fs, r, err := Prepare(testVertex, testFragment)
	require.NoError(t, err)
	require.NotEmpty(t, fs)

	buf := PackUniforms(r, map[string]Input{
		"factor":  Float(2),
		"tint":    Vec3(1, 2, 3),
		"samples": Vec3Array([3]float32{1, 1, 1}, [3]float32{2, 2, 2}),
		"source":  Tex(texture.NewTexture("t", 1, 1, texture.RGBA8())),
	})
	require.Len(t, buf, int(r.UniformSize))
	assert.Equal(t, []byte{0, 0, 0, 0x40}, buf[0:4])
	assert.Equal(t, []byte{0, 0, 0x40, 0x40}, buf[24:28])
	assert.Equal(t, []byte{0, 0, 0, 0x40}, buf[112:116])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[124:128])
}

func TestFragmentAccessors(t *testing.T) {
	tex := texture.NewTexture("t", 2, 2, texture.RGBA32F())
	tex.Set(1, 0, [4]float32{0.5, 0.25, 0, 1})

	var f Fragment
	f.Reset(map[string]Input{
		"base":   Tex(tex),
		"amount": Vec2(0.5, 0.5),
		"kernel": Vec3Array([3]float32{1, 2, 3}, [3]float32{4, 5, 6}),
	}, 8, 4)

	assert.Equal(t, [4]float32{0.5, 0.25, 0, 1}, f.Sample("base", [2]float32{0.75, 0.25}))
	assert.Equal(t, [4]float32{0.5, 0.25, 0, 1}, f.Load("base", 1, 0))
	assert.Equal(t, [4]float32{}, f.Sample("missing", [2]float32{0.5, 0.5}))
	assert.Equal(t, float32(0.5), f.Float("amount"))
	assert.Equal(t, [2]float32{0.5, 0.5}, f.Vec2("amount"))
	assert.Equal(t, [3]float32{4, 5, 6}, f.Vec3At("kernel", 1))
	assert.Equal(t, [2]float32{2, 2}, f.TextureSize("base"))
	assert.Equal(t, [2]float32{8, 4}, f.Resolution())
	assert.Equal(t, float32(1), f.Mat4("none")[15])
}

func TestInputEqual(t *testing.T) {
	assert.True(t, Vec2(1, 1).Equal(Vec2(1, 1)))
	assert.False(t, Vec2(1, 1).Equal(Vec3(1, 1, 0)))
	assert.False(t, Float(0).Equal(Float(1)))
}
