package effect

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

func add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale3(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

func mul3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func length3(a [3]float32) float32 {
	return math32.Sqrt(common.Dot3(a, a))
}

func rgb(c [4]float32) [3]float32 {
	return [3]float32{c[0], c[1], c[2]}
}

func rgba(c [3]float32, a float32) [4]float32 {
	return [4]float32{c[0], c[1], c[2], a}
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

func mix3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{mix(a[0], b[0], t), mix(a[1], b[1], t), mix(a[2], b[2], t)}
}

func pow3(a [3]float32, e float32) [3]float32 {
	return [3]float32{math32.Pow(max(a[0], 0), e), math32.Pow(max(a[1], 0), e), math32.Pow(max(a[2], 0), e)}
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := common.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

func luminance(c [3]float32) float32 {
	return common.Dot3(c, [3]float32{0.2126, 0.7152, 0.0722})
}

// reflect3 mirrors the incident direction i about the normal n.
func reflect3(i, n [3]float32) [3]float32 {
	return sub3(i, scale3(n, 2*common.Dot3(n, i)))
}

// refract3 bends the incident direction i through a surface with normal n and index ratio eta.
// It returns the zero vector on total internal reflection.
func refract3(i, n [3]float32, eta float32) [3]float32 {
	d := common.Dot3(n, i)
	k := 1 - eta*eta*(1-d*d)
	if k < 0 {
		return [3]float32{}
	}
	return sub3(scale3(i, eta), scale3(n, eta*d+math32.Sqrt(k)))
}

// projectUV projects a view space point to texture coordinates, (0, 0) at the top-left.
// The third component is the clip w; points behind the camera have w <= 0.
func projectUV(projection [16]float32, p [3]float32) [3]float32 {
	clip := common.MulVec4(projection[:], [4]float32{p[0], p[1], p[2], 1})
	if clip[3] == 0 {
		return [3]float32{0, 0, 0}
	}
	return [3]float32{clip[0]/clip[3]*0.5 + 0.5, 0.5 - clip[1]/clip[3]*0.5, clip[3]}
}
