package effect

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/chewxy/math32"
)

// Ray march defaults used when the pass leaves "parameters" unset.
const (
	marchDistance = 8
	marchSteps    = 16
)

var (
	shallowWater = [3]float32{0.35, 0.55, 0.6}
	deepWater    = [3]float32{0.05, 0.15, 0.2}
)

// march walks a view space ray from origin along dir and returns the texture coordinates of the first
// point that falls behind the surface stored in the named position texture.
func march(f *shader.Fragment, positions string, origin, dir [3]float32) ([2]float32, bool) {
	params := f.Vec2("parameters")
	distance, steps := params[0], int(params[1])
	if distance <= 0 {
		distance = marchDistance
	}
	if steps <= 0 {
		steps = marchSteps
	}
	projection := f.Mat4("lensProjection")
	for i := 1; i <= steps; i++ {
		p := add3(origin, scale3(dir, distance*float32(i)/float32(steps)))
		uvw := projectUV(projection, p)
		if uvw[2] <= 0 || uvw[0] < 0 || uvw[0] > 1 || uvw[1] < 0 || uvw[1] > 1 {
			return [2]float32{}, false
		}
		hit := texelUV(f, positions, [2]float32{uvw[0], uvw[1]})
		if hit[3] > 0 && hit[2] >= p[2] {
			return [2]float32{uvw[0], uvw[1]}, true
		}
	}
	return [2]float32{}, false
}

// screenSpaceRefraction traces the refracted view ray through the water surface into the scene
// without water and writes the texture coordinates it lands on.
func screenSpaceRefraction(f *shader.Fragment) {
	f.Out[0] = [4]float32{}
	if !enabled(f, toggle.Refraction) {
		return
	}
	from := texel(f, "positionFromTexture")
	if from[3] <= 0 {
		return
	}
	rior := f.Vec2("rior")[0]
	if rior <= 0 {
		rior = 1
	}
	n := common.Normalize3(rgb(texel(f, "normalFromTexture")))
	dir := refract3(common.Normalize3(rgb(from)), n, 1/rior)
	if dir == ([3]float32{}) {
		return
	}
	if uv, ok := march(f, "positionToTexture", rgb(from), dir); ok {
		f.Out[0] = [4]float32{uv[0], uv[1], 0, 1}
		return
	}
	f.Out[0] = [4]float32{f.UV[0], f.UV[1], 0, 1}
}

// screenSpaceReflection traces the reflected view ray of reflective surfaces and writes the texture
// coordinates of the scene point it hits.
func screenSpaceReflection(f *shader.Fragment) {
	f.Out[0] = [4]float32{}
	if !enabled(f, toggle.Reflection) {
		return
	}
	mask := texel(f, "maskTexture")
	pos := texel(f, "positionTexture")
	if mask[0] <= 0 || pos[3] <= 0 {
		return
	}
	n := common.Normalize3(rgb(texel(f, "normalTexture")))
	dir := common.Normalize3(reflect3(common.Normalize3(rgb(pos)), n))
	if uv, ok := march(f, "positionTexture", rgb(pos), dir); ok {
		edge := math32.Min(math32.Min(uv[0], 1-uv[0]), math32.Min(uv[1], 1-uv[1]))
		f.Out[0] = [4]float32{uv[0], uv[1], 0, smoothstep(0, 0.1, edge)}
	}
}

// refraction reads the base color through the refraction coordinates and tints it by water depth.
func refraction(f *shader.Fragment) {
	mask := texel(f, "maskTexture")[0]
	if mask <= 0 {
		f.Out[0] = [4]float32{}
		return
	}
	uv := f.UV
	if refr := texel(f, "uvTexture"); refr[3] > 0 {
		uv = [2]float32{refr[0], refr[1]}
	}
	background := rgb(texelUV(f, "backgroundColorTexture", uv))

	from := texel(f, "positionFromTexture")
	to := texel(f, "positionToTexture")
	depth := float32(marchDistance)
	if to[3] > 0 {
		depth = math32.Abs(from[2] - to[2])
	}
	tint := scale3(mix3(shallowWater, deepWater, smoothstep(0, marchDistance, depth)), mix(0.3, 1, daylight(f)))
	c := mix3(background, pow3(tint, gamma(f)), 0.2+0.6*smoothstep(0, marchDistance/2, depth))
	f.Out[0] = rgba(c, mask)
}

// foam whitens the water where it meets the scene below, using the world space height difference.
func foam(f *shader.Fragment) {
	f.Out[0] = [4]float32{}
	mask := texel(f, "maskTexture")[0]
	from := texel(f, "positionFromTexture")
	to := texel(f, "positionToTexture")
	if mask <= 0 || from[3] <= 0 || to[3] <= 0 {
		return
	}
	viewWorld := f.Mat4("viewWorldMat")
	wf := common.TransformPoint(viewWorld[:], from[0], from[1], from[2])
	wt := common.TransformPoint(viewWorld[:], to[0], to[1], to[2])
	depth := f.Vec2("foamDepth")[0]
	if depth <= 0 {
		depth = 1
	}
	amount := (1 - smoothstep(0, depth, math32.Abs(wf[2]-wt[2]))) * mask
	white := mix(0.4, 1, daylight(f))
	f.Out[0] = [4]float32{white, white, white, amount}
}

// reflectionColor reads the refracted scene color at the reflection coordinates.
func reflectionColor(f *shader.Fragment) {
	uv := texel(f, "uvTexture")
	if uv[3] <= 0 {
		f.Out[0] = [4]float32{}
		return
	}
	f.Out[0] = rgba(rgb(texelUV(f, "colorTexture", [2]float32{uv[0], uv[1]})), uv[3])
}

// reflection blends the sharp and blurred reflection colors by surface roughness and scales the
// result by reflectivity.
func reflection(f *shader.Fragment) {
	mask := texel(f, "maskTexture")
	if mask[0] <= 0 {
		f.Out[0] = [4]float32{}
		return
	}
	sharp := texel(f, "colorTexture")
	blurred := texel(f, "colorBlurTexture")
	c := mix3(rgb(sharp), rgb(blurred), mask[1])
	f.Out[0] = rgba(c, sharp[3]*mask[0])
}
