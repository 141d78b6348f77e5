package effect

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/chewxy/math32"
)

// Shading constants of the base pass.
const (
	shininess      = 32
	waterShininess = 128
	rimPower       = 4
	rimStrength    = 0.5
	fresnelBase    = 0.04
)

// base shades the scene with a single directional light, ambient light attenuated by the blurred
// occlusion and the blinn-phong, fresnel, rim, cel and normal map toggles. Specular light goes to slot 1 so the
// combine pass can add it after refraction.
func base(f *shader.Fragment) {
	albedo := pow3(rgb(f.Color), gamma(f))
	if f.Vec2("isParticle")[0] > 0 {
		f.Out[0] = rgba(albedo, f.Color[3])
		f.Out[1] = [4]float32{}
		return
	}

	viewWorld := f.Mat4("viewWorldMat")
	eye := [3]float32{viewWorld[12], viewWorld[13], viewWorld[14]}
	n := mappedNormal(f, f.WorldNormal, [2]float32{})
	v := common.Normalize3(sub3(eye, f.WorldPosition))
	l := common.Normalize3(scale3(f.Vec3("lightDirection"), -1))
	light := rgb(f.Vec4("lightColor"))
	cel := enabled(f, toggle.CelShading)

	ndl := math32.Max(common.Dot3(n, l), 0)
	if cel {
		switch {
		case ndl > 0.5:
			ndl = 1
		case ndl > 0.1:
			ndl = 0.5
		default:
			ndl = 0
		}
	}
	diffuse := mul3(albedo, scale3(light, ndl))

	var specular float32
	if enabled(f, toggle.BlinnPhong) && ndl > 0 {
		h := common.Normalize3(add3(l, v))
		power := float32(shininess)
		if f.Vec2("isWater")[0] > 0 {
			power = waterShininess
		}
		specular = math32.Pow(math32.Max(common.Dot3(n, h), 0), power)
		if cel {
			specular = smoothstep(0.45, 0.55, specular)
		}
	}
	ndv := math32.Max(common.Dot3(n, v), 0)
	if enabled(f, toggle.Fresnel) {
		specular *= fresnelBase + (1-fresnelBase)*math32.Pow(1-ndv, 5) + 0.5
	}

	var rim [3]float32
	if enabled(f, toggle.RimLight) {
		rim = scale3(light, math32.Pow(1-ndv, rimPower)*rimStrength*math32.Max(ndl, 0.25))
	}

	ao := float32(1)
	if _, ok := f.Input("ssaoBlurTexture"); ok {
		ao = texel(f, "ssaoBlurTexture")[0]
	}
	ambient := mul3(albedo, scale3(rgb(f.Vec4("ambientColor")), ao))

	f.Out[0] = rgba(add3(add3(ambient, diffuse), rim), f.Color[3])
	f.Out[1] = rgba(scale3(light, specular), 1)
}

// fog computes the fog color from the time of day and its intensity from view distance, thickened
// where smoke covers the scene. Alpha carries the intensity.
func fog(f *shader.Fragment) {
	if !enabled(f, toggle.Fog) {
		f.Out[0] = [4]float32{}
		return
	}
	day := daylight(f)
	color := mix3(rgb(f.Vec4("backgroundColor0")), rgb(f.Vec4("backgroundColor1")), day)

	nearFar := f.Vec2("nearFar")
	p0 := texel(f, "positionTexture0")
	p1 := texel(f, "positionTexture1")
	intensity := float32(1)
	if p0[3] > 0 || p1[3] > 0 {
		p := p0
		if p1[3] > 0 {
			p = p1
		}
		intensity = common.Clamp((length3(rgb(p))-nearFar[0])/math32.Max(nearFar[1]-nearFar[0], 1e-4), 0, 1)
	}
	smoke := texel(f, "smokeMaskTexture")[0]
	intensity = common.Clamp(intensity+smoke*0.5, 0, 1)
	f.Out[0] = rgba(color, intensity)
}

// baseCombine layers refraction, reflection, foam and specular light over the base color.
func baseCombine(f *shader.Fragment) {
	baseColor := texel(f, "baseTexture")
	refr := texel(f, "refractionTexture")
	refl := texel(f, "reflectionTexture")
	foamColor := texel(f, "foamTexture")
	spec := texel(f, "specularTexture")

	c := rgb(baseColor)
	c = mix3(c, rgb(refr), refr[3])
	c = mix3(c, rgb(refl), refl[3])
	c = mix3(c, rgb(foamColor), foamColor[3])
	c = add3(c, rgb(spec))
	f.Out[0] = rgba(c, math32.Max(baseColor[3], refr[3]))
}

// sceneCombine fills empty pixels with the background, adds bloom and blends in the fog.
func sceneCombine(f *shader.Fragment) {
	day := daylight(f)
	background := mix3(rgb(f.Vec4("backgroundColor0")), rgb(f.Vec4("backgroundColor1")), day)
	background = pow3(background, gamma(f))

	baseColor := texel(f, "baseTexture")
	c := mix3(background, rgb(baseColor), common.Clamp(baseColor[3], 0, 1))
	c = add3(c, rgb(texel(f, "bloomTexture")))

	fogColor := texel(f, "fogTexture")
	c = mix3(c, pow3(rgb(fogColor), gamma(f)), fogColor[3])
	f.Out[0] = rgba(c, 1)
}
