package effect

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/chewxy/math32"
)

// Water surface constants written into the geometry buffer masks.
const (
	waterReflectivity = 0.6
	waterRoughness    = 0.25
	foamTiling        = 4
	flowSpeed         = 0.05
	normalTiling      = 4
)

// mappedNormal perturbs n by the tangent space normal map when normal maps are enabled and a map is
// bound. The tangent frame is derived from n, so it works in view and world space alike.
func mappedNormal(f *shader.Fragment, n [3]float32, offset [2]float32) [3]float32 {
	n = common.Normalize3(n)
	if !enabled(f, toggle.NormalMaps) {
		return n
	}
	if _, ok := f.Input("normalMapTexture"); !ok {
		return n
	}
	uv := [2]float32{fract(f.UV[0]*normalTiling + offset[0]), fract(f.UV[1]*normalTiling + offset[1])}
	return perturb(n, texelUV(f, "normalMapTexture", uv))
}

// perturb applies an encoded tangent space normal to n.
func perturb(n [3]float32, encoded [4]float32) [3]float32 {
	up := [3]float32{0, 0, 1}
	if math32.Abs(n[2]) > 0.999 {
		up = [3]float32{0, 1, 0}
	}
	t := common.Normalize3(cross3(up, n))
	b := cross3(n, t)
	m := [3]float32{encoded[0]*2 - 1, encoded[1]*2 - 1, encoded[2]*2 - 1}
	return common.Normalize3(add3(add3(scale3(t, m[0]), scale3(b, m[1])), scale3(n, m[2])))
}

// geometryBuffer0 writes view space positions and normals of everything but water and particles.
func geometryBuffer0(f *shader.Fragment) {
	f.Out[0] = rgba(f.ViewPosition, 1)
	f.Out[1] = rgba(mappedNormal(f, f.ViewNormal, [2]float32{}), 1)
}

// geometryBuffer1 writes positions and normals including water, plus the reflection, refraction
// and foam masks. Water is selected by the isWater tag state; its normal map scrolls with the flow.
func geometryBuffer1(f *shader.Fragment) {
	water := f.Vec2("isWater")[0] > 0
	var flow [2]float32
	if water && enabled(f, toggle.FlowMaps) {
		dir := texelUV(f, "flowTexture", f.UV)
		t := f.Float("frameTime") * flowSpeed
		flow = [2]float32{(dir[0]*2 - 1) * t, (dir[1]*2 - 1) * t}
	}

	f.Out[0] = rgba(f.ViewPosition, 1)
	f.Out[1] = rgba(mappedNormal(f, f.ViewNormal, flow), 1)
	if !water {
		f.Out[2] = [4]float32{}
		f.Out[3] = [4]float32{}
		f.Out[4] = [4]float32{}
		return
	}

	foamUV := [2]float32{fract(f.UV[0]*foamTiling + flow[0]), fract(f.UV[1]*foamTiling + flow[1])}
	foam := texelUV(f, "foamPatternTexture", foamUV)[0]

	f.Out[2] = [4]float32{waterReflectivity, waterRoughness, 0, 1}
	f.Out[3] = [4]float32{1, 1, 1, 1}
	f.Out[4] = [4]float32{foam, foam, foam, 1}
}

// geometryBuffer2 copies the positions of geometry buffer 1 and overlays particles tagged isSmoke,
// writing their coverage into the smoke mask.
func geometryBuffer2(f *shader.Fragment) {
	if f.Vec2("isSmoke")[0] > 0 {
		if f.Color[3] <= 0 {
			f.Discard = true
			return
		}
		a := f.Color[3]
		f.Out[0] = rgba(f.ViewPosition, 1)
		f.Out[1] = [4]float32{a, a, a, 1}
		return
	}
	f.Out[0] = texel(f, "positionTexture")
	f.Out[1] = [4]float32{}
}

// ssao estimates ambient occlusion from the view space positions and normals of geometry buffer 0.
func ssao(f *shader.Fragment) {
	if !enabled(f, toggle.SSAO) {
		f.Out[0] = [4]float32{1, 1, 1, 1}
		return
	}
	pos := texel(f, "positionTexture")
	if pos[3] <= 0 {
		f.Out[0] = [4]float32{1, 1, 1, 1}
		return
	}
	params := f.Vec2("parameters")
	radius, bias := params[0], params[1]
	if radius <= 0 {
		radius = 1
	}

	p := rgb(pos)
	n := common.Normalize3(rgb(texel(f, "normalTexture")))
	random := rgb(f.Load("noiseTexture", f.X%SSAONoiseSize, f.Y%SSAONoiseSize))
	tangent := common.Normalize3(sub3(random, scale3(n, common.Dot3(random, n))))
	if length3(tangent) == 0 {
		tangent = common.Normalize3(cross3(n, [3]float32{0, 1, 0}))
	}
	bitangent := cross3(n, tangent)
	projection := f.Mat4("lensProjection")

	var occlusion float32
	for i := range SSAOSampleCount {
		s := f.Vec3At("samples", i)
		offset := add3(add3(scale3(tangent, s[0]), scale3(bitangent, s[1])), scale3(n, s[2]))
		sample := add3(p, scale3(offset, radius))
		uvw := projectUV(projection, sample)
		if uvw[2] <= 0 {
			continue
		}
		hit := texelUV(f, "positionTexture", [2]float32{uvw[0], uvw[1]})
		if hit[3] <= 0 {
			continue
		}
		rangeCheck := smoothstep(0, 1, radius/math32.Max(math32.Abs(p[2]-hit[2]), 1e-4))
		if hit[2] >= sample[2]+bias {
			occlusion += rangeCheck
		}
	}
	ao := 1 - occlusion/SSAOSampleCount
	f.Out[0] = [4]float32{ao, ao, ao, 1}
}
