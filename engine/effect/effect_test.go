package effect

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gradientFragment = `//@oxy:include varyings
//@oxy:kernel gradient

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.uv, 0.5, 1.0);
}
`

const testSize = 16

func testKernels() shader.KernelRegistry {
	k := shader.NewKernelRegistry()
	RegisterAll(k)
	k.Register("gradient", func(f *shader.Fragment) {
		f.Out[0] = [4]float32{float32(f.X) / testSize, float32(f.Y) / testSize, 0.5, 1}
	})
	return k
}

func TestEveryEffectCompiles(t *testing.T) {
	compiler := shader.NewSoftwareCompiler(testKernels())
	for _, name := range Names() {
		src, err := Source(name)
		require.NoError(t, err, name)

		prog, err := compiler.Compile(renderer.SceneVertexSource, src)
		require.NoError(t, err, name)
		assert.Equal(t, name, prog.Reflection().Kernel)
		assert.Equal(t, "fs_main", prog.Reflection().FragmentEntry)
	}
}

func TestSourceUnknownEffect(t *testing.T) {
	_, err := Source("nope")
	assert.ErrorIs(t, err, shader.ErrUnknownKernel)
}

func TestToggledEffectsDeclareTheirToggle(t *testing.T) {
	compiler := shader.NewSoftwareCompiler(testKernels())
	for _, name := range Names() {
		e, ok := Lookup(name)
		require.True(t, ok)
		if e.Toggle == "" {
			continue
		}
		src, err := Source(name)
		require.NoError(t, err)
		prog, err := compiler.Compile(renderer.SceneVertexSource, src)
		require.NoError(t, err)

		found := false
		for _, u := range prog.Reflection().Uniforms {
			if u.Name == toggle.InputName(e.Toggle) {
				found = true
			}
		}
		assert.True(t, found, "%s does not declare %s", name, toggle.InputName(e.Toggle))
	}
}

func TestSSAOSamplesLieInHemisphere(t *testing.T) {
	in := SSAOSamples(NewRand(7))
	require.Len(t, in.Values, SSAOSampleCount*3)
	for i := range SSAOSampleCount {
		s := [3]float32{in.Values[i*3], in.Values[i*3+1], in.Values[i*3+2]}
		assert.GreaterOrEqual(t, s[2], float32(0))
		assert.LessOrEqual(t, length3(s), float32(1)+1e-5)
	}

	again := SSAOSamples(NewRand(7))
	assert.Equal(t, in.Values, again.Values)

	noise := SSAONoise(NewRand(7))
	assert.Equal(t, SSAONoiseSize, noise.Width())
	assert.Equal(t, texture.WrapRepeat, noise.Sampler().Wrap)
}

// runEffect renders a gradient into a source target and feeds it to the named effect.
func runEffect(t *testing.T, name, colorInput string, inputs ...pipeline.PassBuilderOption) (src, out texture.Texture) {
	t.Helper()
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, nil,
		renderer.WithSize(testSize, testSize),
		renderer.WithWorkers(2),
		renderer.WithKernels(testKernels()),
	)
	t.Cleanup(r.Release)

	srcTarget, err := r.Targets().Create(render_target.Config{Name: "source", Format: texture.RGBA32F()})
	require.NoError(t, err)
	srcProg, err := r.Compiler().Compile(renderer.SceneVertexSource, gradientFragment)
	require.NoError(t, err)
	srcPass := pipeline.NewPass("source")
	require.NoError(t, srcPass.Bind(srcTarget, srcProg, 1))
	require.NoError(t, r.AddPass(srcPass))

	fragment, err := Source(name)
	require.NoError(t, err)
	prog, err := r.Compiler().Compile(renderer.SceneVertexSource, fragment)
	require.NoError(t, err)
	outTarget, err := r.Targets().Create(render_target.Config{Name: name, Format: texture.RGBA32F(), AuxCount: 1})
	require.NoError(t, err)
	opts := append([]pipeline.PassBuilderOption{
		pipeline.WithInput(colorInput, shader.Tex(srcTarget.Texture(0))),
	}, inputs...)
	p := pipeline.NewPass(name, opts...)
	require.NoError(t, p.Bind(outTarget, prog, 2))
	require.NoError(t, r.AddPass(p))

	require.NoError(t, r.Run(context.Background()))
	return srcTarget.Texture(0), outTarget.Texture(0)
}

func TestDisabledEffectsPassColorThrough(t *testing.T) {
	cases := []struct {
		effect string
		input  string
		params shader.Input
	}{
		{Sharpen, "colorTexture", shader.Vec2(0, 0)},
		{Posterize, "colorTexture", shader.Vec2(4, 0)},
		{Pixelize, "colorTexture", shader.Vec2(4, 0)},
		{Outline, "colorTexture", shader.Vec2(1, 0.5)},
		{Painterly, "colorTexture", shader.Vec2(2, 0)},
		{MotionBlur, "colorTexture", shader.Vec2(2, 1)},
		{FilmGrain, "colorTexture", shader.Vec2(0.5, 0)},
		{LookupTable, "colorTexture", shader.Vec2(0, 0)},
		{DepthOfField, "focusTexture", shader.Vec2(1, 10)},
		{ChromaticAberration, "colorTexture", shader.Vec2(0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.effect, func(t *testing.T) {
			e, _ := Lookup(tc.effect)
			src, out := runEffect(t, tc.effect, tc.input,
				pipeline.WithInput("parameters", tc.params),
				pipeline.WithInput(toggle.InputName(e.Toggle), toggle.Value(false)),
			)
			for y := range testSize {
				for x := range testSize {
					assert.Equal(t, src.At(x, y), out.At(x, y), "texel %d,%d", x, y)
				}
			}
		})
	}
}

func TestUnboundToggleReadsAsDisabled(t *testing.T) {
	src, out := runEffect(t, Pixelize, "colorTexture", pipeline.WithInput("parameters", shader.Vec2(4, 0)))
	assert.Equal(t, src.At(3, 3), out.At(3, 3))
}

func TestPixelizeSnapsToBlock(t *testing.T) {
	src, out := runEffect(t, Pixelize, "colorTexture",
		pipeline.WithInput("parameters", shader.Vec2(4, 0)),
		pipeline.WithInput(toggle.InputName(toggle.Pixelize), toggle.Value(true)),
	)
	assert.Equal(t, src.At(4, 8), out.At(5, 10))
	assert.Equal(t, src.At(0, 0), out.At(3, 3))
}

func TestScalePass(t *testing.T) {
	src, out := runEffect(t, Scale, "colorTexture", pipeline.WithInput("parameters", shader.Vec2(2, 0)))
	s, o := src.At(6, 2), out.At(6, 2)
	assert.InDelta(t, s[0]*2, o[0], 1e-6)
	assert.InDelta(t, s[2]*2, o[2], 1e-6)
	assert.InDelta(t, s[3], o[3], 1e-6)
}

// fragmentAt prepares a fragment at (x, y) of a testSize square target.
func fragmentAt(x, y int, inputs map[string]shader.Input) *shader.Fragment {
	f := &shader.Fragment{}
	f.Reset(inputs, testSize, testSize)
	f.X, f.Y = x, y
	f.UV = [2]float32{(float32(x) + 0.5) / testSize, (float32(y) + 0.5) / testSize}
	return f
}

func solid(name string, c [4]float32) texture.Texture {
	tex := texture.NewTexture(name, testSize, testSize, texture.RGBA32F())
	tex.Fill(c)
	return tex
}

func TestBloomDisabledContributesNothing(t *testing.T) {
	bright := solid("bright", [4]float32{1, 1, 1, 1})
	f := fragmentAt(4, 4, map[string]shader.Input{
		"colorTexture": shader.Tex(bright),
		"parameters":   shader.Vec2(2, 1),
	})
	bloom(f)
	assert.Equal(t, [4]float32{}, f.Out[0])

	f = fragmentAt(4, 4, map[string]shader.Input{
		"colorTexture":                 shader.Tex(bright),
		"parameters":                   shader.Vec2(2, 1),
		toggle.InputName(toggle.Bloom): toggle.Value(true),
	})
	bloom(f)
	assert.InDelta(t, bloomAmount, f.Out[0][0], 1e-5)
}

func TestChromaticAberrationSplitsChannels(t *testing.T) {
	ramp := texture.NewTexture("ramp", 256, 1, texture.RGBA32F())
	for x := range 256 {
		v := float32(x) / 255
		ramp.Set(x, 0, [4]float32{v, v, v, 1})
	}
	inputs := map[string]shader.Input{
		"colorTexture":    shader.Tex(ramp),
		"mouseFocusPoint": shader.Vec2(0.5, 0.5),
	}

	f := fragmentAt(0, 0, inputs)
	chromaticAberration(f)
	assert.Equal(t, ramp.At(0, 0), f.Out[0])

	inputs[toggle.InputName(toggle.ChromaticAberration)] = toggle.Value(true)
	f = fragmentAt(0, 0, inputs)
	chromaticAberration(f)
	// Red and green clamp at the left edge, blue reads one texel towards the focus point.
	assert.Zero(t, f.Out[0][0])
	assert.Zero(t, f.Out[0][1])
	assert.InDelta(t, 1.0/255, f.Out[0][2], 1e-6)
	assert.Equal(t, float32(1), f.Out[0][3])

	f = fragmentAt(128, 0, inputs)
	chromaticAberration(f)
	assert.Equal(t, ramp.At(128, 0), f.Out[0], "no split at the focus point")
}

func TestNormalMapsPerturbNormals(t *testing.T) {
	// tangent space normal tilted 30 degrees towards the tangent
	tilted := solid("tilted", [4]float32{0.75, 0.5, 0.5 + 0.5*math32.Cos(math32.Pi/6), 1})
	inputs := map[string]shader.Input{"normalMapTexture": shader.Tex(tilted)}

	f := fragmentAt(4, 4, inputs)
	f.ViewNormal = [3]float32{0, 0, 1}
	geometryBuffer0(f)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, f.Out[1], "disabled")

	inputs[toggle.InputName(toggle.NormalMaps)] = toggle.Value(true)
	f = fragmentAt(4, 4, inputs)
	f.ViewNormal = [3]float32{0, 0, 1}
	geometryBuffer0(f)
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.866025, 1}, f.Out[1][:], 1e-5)

	f = fragmentAt(4, 4, inputs)
	f.ViewNormal = [3]float32{0, 0, 1}
	geometryBuffer1(f)
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.866025, 1}, f.Out[1][:], 1e-5)

	lit := func(inputs map[string]shader.Input) [4]float32 {
		in := map[string]shader.Input{
			"lightDirection": shader.Vec3(0, 0, -1),
			"lightColor":     shader.Vec4(1, 1, 1, 1),
			"gamma":          shader.Vec2(1, 1),
		}
		for k, v := range inputs {
			in[k] = v
		}
		f := fragmentAt(4, 4, in)
		f.Color = [4]float32{1, 1, 1, 1}
		f.WorldNormal = [3]float32{0, 0, 1}
		f.WorldPosition = [3]float32{0, 0, -5}
		base(f)
		return f.Out[0]
	}
	mapped := lit(inputs)
	assert.InDeltaSlice(t, []float32{0.866025, 0.866025, 0.866025, 1}, mapped[:], 1e-5)
	inputs[toggle.InputName(toggle.NormalMaps)] = toggle.Value(false)
	flat := lit(inputs)
	assert.InDeltaSlice(t, []float32{1, 1, 1, 1}, flat[:], 1e-5)
}

func TestGammaCorrectionEncodes(t *testing.T) {
	f := fragmentAt(0, 0, map[string]shader.Input{
		"colorTexture": shader.Tex(solid("c", [4]float32{0.25, 0.5, 1, 1})),
		"gamma":        GammaInput(),
	})
	gammaCorrection(f)
	assert.InDelta(t, math32.Pow(0.25, 1/Gamma), f.Out[0][0], 1e-5)
	assert.InDelta(t, 1, f.Out[0][2], 1e-6)
	assert.InDelta(t, 1, f.Out[0][3], 1e-6)
}

func TestPosterizeQuantizes(t *testing.T) {
	f := fragmentAt(0, 0, map[string]shader.Input{
		"colorTexture":                     shader.Tex(solid("c", [4]float32{0.3, 0.3, 0.3, 1})),
		"parameters":                       shader.Vec2(2, 0),
		toggle.InputName(toggle.Posterize): toggle.Value(true),
	})
	posterize(f)
	// 0.3 encodes to ~0.58, which floors to 0.5 at two levels.
	assert.InDelta(t, math32.Pow(0.5, Gamma), f.Out[0][0], 1e-5)
}

func TestKuwaharaKeepsFlatRegions(t *testing.T) {
	f := fragmentAt(8, 8, map[string]shader.Input{
		"colorTexture": shader.Tex(solid("c", [4]float32{0.2, 0.4, 0.6, 1})),
		"parameters":   shader.Vec2(2, 0),
	})
	kuwaharaFilter(f)
	assert.InDelta(t, 0.2, f.Out[0][0], 1e-5)
	assert.InDelta(t, 0.6, f.Out[0][2], 1e-5)
}

func TestDepthOfFieldWritesBlurToSecondSlot(t *testing.T) {
	pos := solid("pos", [4]float32{0, 0, -100, 1})
	pos.Set(2, 2, [4]float32{0, 0, -400, 1})
	inputs := map[string]shader.Input{
		"positionTexture":                     shader.Tex(pos),
		"focusTexture":                        shader.Tex(solid("focus", [4]float32{1, 0, 0, 1})),
		"outOfFocusTexture":                   shader.Tex(solid("blur", [4]float32{0, 0, 1, 1})),
		"mouseFocusPoint":                     shader.Vec2(0.5, 0.5),
		"parameters":                          shader.Vec2(10, 50),
		toggle.InputName(toggle.DepthOfField): toggle.Value(true),
	}

	f := fragmentAt(8, 8, inputs)
	depthOfField(f)
	assert.InDelta(t, 1, f.Out[0][0], 1e-6)
	assert.InDelta(t, 0, f.Out[1][0], 1e-6)

	f = fragmentAt(2, 2, inputs)
	depthOfField(f)
	assert.InDelta(t, 1, f.Out[0][2], 1e-6)
	assert.InDelta(t, 1, f.Out[1][0], 1e-6)
}

func TestLookupTableNeutralIsIdentity(t *testing.T) {
	lut := texture.NewTexture("lut", lutSize*lutSize, lutSize, texture.RGBA32F())
	for b := range lutSize {
		for g := range lutSize {
			for r := range lutSize {
				lut.Set(b*lutSize+r, g, [4]float32{
					float32(r) / (lutSize - 1),
					float32(g) / (lutSize - 1),
					float32(b) / (lutSize - 1),
					1,
				})
			}
		}
	}
	c := [4]float32{0.2, 0.5, 0.8, 1}
	f := fragmentAt(0, 0, map[string]shader.Input{
		"colorTexture":                       shader.Tex(solid("c", c)),
		"lookupTableTexture0":                shader.Tex(lut),
		"lookupTableTexture1":                shader.Tex(lut),
		"gamma":                              GammaInput(),
		toggle.InputName(toggle.LookupTable): toggle.Value(true),
	})
	lookupTable(f)
	// The red and green channels snap to the nearest table entry.
	assert.InDelta(t, c[0], f.Out[0][0], 0.05)
	assert.InDelta(t, c[2], f.Out[0][2], 1e-3)
}

func TestDaylight(t *testing.T) {
	f := fragmentAt(0, 0, map[string]shader.Input{"sunPosition": shader.Vec2(270, 0)})
	assert.InDelta(t, 1, daylight(f), 1e-5)
	f = fragmentAt(0, 0, map[string]shader.Input{"sunPosition": shader.Vec2(90, 0)})
	assert.InDelta(t, 0, daylight(f), 1e-5)
}

func TestProjectUVCenter(t *testing.T) {
	var proj [16]float32
	common.Perspective(proj[:], 1, 1, 1, 100)
	uvw := projectUV(proj, [3]float32{0, 0, -10})
	assert.InDelta(t, 0.5, uvw[0], 1e-5)
	assert.InDelta(t, 0.5, uvw[1], 1e-5)
	assert.Greater(t, uvw[2], float32(0))
}
