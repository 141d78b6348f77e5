package effect

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/chewxy/math32"
)

// Filter constants shared with the WGSL sources.
const (
	sharpenAmount    = 0.8
	bloomThreshold   = 0.6
	bloomAmount      = 1.0
	dilationMin      = 0.1
	dilationMax      = 0.3
	filmGrainDefault = 0.1
	lutSize          = 16
)

func passthrough(f *shader.Fragment) {
	f.Out[0] = texel(f, "colorTexture")
}

// scale multiplies the color by parameters.x.
func scale(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	s := f.Vec2("parameters")[0]
	f.Out[0] = rgba(scale3(rgb(c), s), c[3])
}

// gammaCorrection encodes linear color for display.
func gammaCorrection(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	f.Out[0] = rgba(pow3(rgb(c), 1/gamma(f)), c[3])
}

// Channel offsets of chromatic aberration, as fractions of the distance to the focus point.
const (
	aberrationRed   = 0.009
	aberrationGreen = 0.006
	aberrationBlue  = -0.006
)

// chromaticAberration pulls the red, green and blue channels apart along the direction away from
// the focus point, so the split grows towards the edges.
func chromaticAberration(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	size := f.TextureSize("colorTexture")
	if !enabled(f, toggle.ChromaticAberration) || size[0] == 0 || size[1] == 0 {
		f.Out[0] = c
		return
	}
	uv := [2]float32{(float32(f.X) + 0.5) / size[0], (float32(f.Y) + 0.5) / size[1]}
	focus := f.Vec2("mouseFocusPoint")
	dir := [2]float32{uv[0] - focus[0], uv[1] - focus[1]}
	at := func(offset float32) [4]float32 {
		return texelUV(f, "colorTexture", [2]float32{uv[0] + dir[0]*offset, uv[1] + dir[1]*offset})
	}
	r, g, b := at(aberrationRed), at(aberrationGreen), at(aberrationBlue)
	f.Out[0] = [4]float32{r[0], g[1], b[2], b[3]}
}

// boxBlur averages a (2 size + 1)^2 window with taps separation pixels apart.
func boxBlur(f *shader.Fragment) {
	params := f.Vec2("parameters")
	size, sep := int(params[0]), int(math32.Max(params[1], 1))
	if size <= 0 {
		passthrough(f)
		return
	}
	var sum [4]float32
	var count float32
	for dy := -size; dy <= size; dy++ {
		for dx := -size; dx <= size; dx++ {
			c := f.Load("colorTexture", f.X+dx*sep, f.Y+dy*sep)
			for i := range sum {
				sum[i] += c[i]
			}
			count++
		}
	}
	f.Out[0] = [4]float32{sum[0] / count, sum[1] / count, sum[2] / count, sum[3] / count}
}

// kuwaharaFilter smooths while keeping edges: of the four quadrant windows around the pixel it
// outputs the mean of the one with the lowest variance.
func kuwaharaFilter(f *shader.Fragment) {
	kuwahara(f, int(f.Vec2("parameters")[0]))
}

// painterly is the kuwahara filter gated by the painterly toggle.
func painterly(f *shader.Fragment) {
	if !enabled(f, toggle.Painterly) {
		passthrough(f)
		return
	}
	kuwahara(f, int(f.Vec2("parameters")[0]))
}

func kuwahara(f *shader.Fragment, size int) {
	if size <= 0 {
		passthrough(f)
		return
	}
	quadrants := [4][4]int{
		{-size, 0, -size, 0},
		{0, size, -size, 0},
		{-size, 0, 0, size},
		{0, size, 0, size},
	}
	best := float32(math32.MaxFloat32)
	var out [3]float32
	for _, q := range quadrants {
		var mean [3]float32
		var sq float32
		var count float32
		for y := q[2]; y <= q[3]; y++ {
			for x := q[0]; x <= q[1]; x++ {
				c := rgb(f.Load("colorTexture", f.X+x, f.Y+y))
				mean = add3(mean, c)
				l := luminance(c)
				sq += l * l
				count++
			}
		}
		mean = scale3(mean, 1/count)
		l := luminance(mean)
		variance := sq/count - l*l
		if variance < best {
			best = variance
			out = mean
		}
	}
	f.Out[0] = rgba(out, texel(f, "colorTexture")[3])
}

// dilation spreads bright pixels over a circular window so out-of-focus highlights grow into discs.
func dilation(f *shader.Fragment) {
	params := f.Vec2("parameters")
	size, sep := int(params[0]), math32.Max(params[1], 1)
	c := texel(f, "colorTexture")
	if size <= 0 {
		f.Out[0] = c
		return
	}
	brightest := float32(0)
	brightestColor := rgb(c)
	for dy := -size; dy <= size; dy++ {
		for dx := -size; dx <= size; dx++ {
			if dx*dx+dy*dy > size*size {
				continue
			}
			n := rgb(f.Load("colorTexture", f.X+int(float32(dx)*sep), f.Y+int(float32(dy)*sep)))
			if l := luminance(n); l > brightest {
				brightest = l
				brightestColor = n
			}
		}
	}
	f.Out[0] = rgba(mix3(rgb(c), brightestColor, smoothstep(dilationMin, dilationMax, brightest)), c[3])
}

// sharpen applies an unsharp cross kernel.
func sharpen(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	if !enabled(f, toggle.Sharpen) {
		f.Out[0] = c
		return
	}
	up := rgb(f.Load("colorTexture", f.X, f.Y-1))
	down := rgb(f.Load("colorTexture", f.X, f.Y+1))
	left := rgb(f.Load("colorTexture", f.X-1, f.Y))
	right := rgb(f.Load("colorTexture", f.X+1, f.Y))
	sum := scale3(rgb(c), sharpenAmount*4+1)
	sum = sub3(sum, scale3(add3(add3(up, down), add3(left, right)), sharpenAmount))
	f.Out[0] = rgba(sum, c[3])
}

// posterize quantizes the gamma-encoded color to parameters.x levels per channel.
func posterize(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	levels := f.Vec2("parameters")[0]
	if !enabled(f, toggle.Posterize) || levels < 1 {
		f.Out[0] = c
		return
	}
	g := gamma(f)
	e := pow3(rgb(c), 1/g)
	for i := range e {
		e[i] = math32.Floor(e[i]*levels) / levels
	}
	f.Out[0] = rgba(pow3(e, g), c[3])
}

// bloom gathers the pixels above the brightness threshold in a window around the pixel.
// Disabled bloom contributes nothing.
func bloom(f *shader.Fragment) {
	f.Out[0] = [4]float32{}
	if !enabled(f, toggle.Bloom) {
		return
	}
	params := f.Vec2("parameters")
	size, sep := int(params[0]), int(math32.Max(params[1], 1))
	if size <= 0 {
		return
	}
	var sum [3]float32
	var count float32
	for dy := -size; dy <= size; dy++ {
		for dx := -size; dx <= size; dx++ {
			c := rgb(f.Load("colorTexture", f.X+dx*sep, f.Y+dy*sep))
			if luminance(c) > bloomThreshold {
				sum = add3(sum, c)
			}
			count++
		}
	}
	f.Out[0] = rgba(scale3(sum, bloomAmount/count), 1)
}

// depthOfField blends the in-focus and out-of-focus images by distance from the focus point.
// Slot 1 receives the blur amount.
func depthOfField(f *shader.Fragment) {
	focus := texel(f, "focusTexture")
	if !enabled(f, toggle.DepthOfField) {
		f.Out[0] = focus
		f.Out[1] = [4]float32{}
		return
	}
	params := f.Vec2("parameters")
	minDistance, maxDistance := params[0], params[1]
	if maxDistance <= minDistance {
		maxDistance = minDistance + 1
	}

	pos := texel(f, "positionTexture")
	point := texelUV(f, "positionTexture", f.Vec2("mouseFocusPoint"))
	blur := float32(1)
	if pos[3] > 0 && point[3] > 0 {
		blur = smoothstep(minDistance, maxDistance, math32.Abs(pos[2]-point[2]))
	}
	out := texel(f, "outOfFocusTexture")
	f.Out[0] = rgba(mix3(rgb(focus), rgb(out), blur), focus[3])
	f.Out[1] = [4]float32{blur, blur, blur, 1}
}

// outline darkens depth discontinuities. Lines fade with fog and depth of field blur.
func outline(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	if !enabled(f, toggle.Outline) {
		f.Out[0] = c
		return
	}
	params := f.Vec2("parameters")
	size := max(int(params[0]), 1)
	threshold := math32.Max(params[1], 1e-3)
	far := f.Vec2("nearFar")[1]

	depthAt := func(x, y int) float32 {
		p := f.Load("positionTexture", x, y)
		if p[3] <= 0 {
			return -far
		}
		return p[2]
	}
	center := depthAt(f.X, f.Y)
	var diff float32
	for _, o := range [4][2]int{{size, 0}, {-size, 0}, {0, size}, {0, -size}} {
		diff = math32.Max(diff, math32.Abs(depthAt(f.X+o[0], f.Y+o[1])-center))
	}
	line := smoothstep(threshold, threshold*2, diff)
	line *= 1 - texel(f, "fogTexture")[3]
	line *= 1 - texel(f, "depthOfFieldTexture")[0]
	f.Out[0] = rgba(mix3(rgb(c), scale3(rgb(c), 0.1), line), c[3])
}

// pixelize snaps every pixel to the top-left pixel of its parameters.x sized block.
func pixelize(f *shader.Fragment) {
	size := int(f.Vec2("parameters")[0])
	if !enabled(f, toggle.Pixelize) || size <= 1 {
		passthrough(f)
		return
	}
	f.Out[0] = f.Load("colorTexture", f.X-f.X%size, f.Y-f.Y%size)
}

// motionBlur reprojects the pixel into the previous frame and averages samples along the screen
// space motion vector.
func motionBlur(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	pos := texel(f, "positionTexture")
	if !enabled(f, toggle.MotionBlur) || pos[3] <= 0 {
		f.Out[0] = c
		return
	}
	params := f.Vec2("parameters")
	size, sep := int(params[0]), math32.Max(params[1], 1)
	if size <= 0 {
		f.Out[0] = c
		return
	}

	viewWorld := f.Mat4("viewWorldMat")
	previousWorldView := f.Mat4("previousWorldViewMat")
	world := common.TransformPoint(viewWorld[:], pos[0], pos[1], pos[2])
	previous := common.TransformPoint(previousWorldView[:], world[0], world[1], world[2])
	uvw := projectUV(f.Mat4("lensProjection"), previous)
	if uvw[2] <= 0 {
		f.Out[0] = c
		return
	}
	res := f.Resolution()
	dir := [2]float32{(f.UV[0] - uvw[0]) * res[0], (f.UV[1] - uvw[1]) * res[1]}
	length := math32.Sqrt(dir[0]*dir[0] + dir[1]*dir[1])
	if length < 1e-3 {
		f.Out[0] = c
		return
	}
	dir = [2]float32{dir[0] / length, dir[1] / length}

	sum := rgb(c)
	count := float32(1)
	for i := 1; i <= size; i++ {
		step := float32(i) * sep
		s := f.Load("colorTexture", f.X-int(math32.Round(dir[0]*step)), f.Y-int(math32.Round(dir[1]*step)))
		sum = add3(sum, rgb(s))
		count++
	}
	f.Out[0] = rgba(scale3(sum, 1/count), c[3])
}

// filmGrain adds animated hash noise.
func filmGrain(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	if !enabled(f, toggle.FilmGrain) {
		f.Out[0] = c
		return
	}
	amount := f.Vec2("parameters")[0]
	if amount == 0 {
		amount = filmGrainDefault
	}
	t := f.Float("frameTime")
	n := fract(math32.Sin((float32(f.X)+t)*12.9898+(float32(f.Y)+t)*78.233) * 43758.5453)
	offset := (n - 0.5) * amount
	f.Out[0] = [4]float32{c[0] + offset, c[1] + offset, c[2] + offset, c[3]}
}

// lookupTable grades the gamma-encoded color through a 16^3 table laid out as sixteen 16x16 slices
// side by side, blending the night and day tables by the time of day.
func lookupTable(f *shader.Fragment) {
	c := texel(f, "colorTexture")
	if !enabled(f, toggle.LookupTable) {
		f.Out[0] = c
		return
	}
	g := gamma(f)
	e := pow3(rgb(c), 1/g)
	night := lookup(f, "lookupTableTexture0", e)
	day := lookup(f, "lookupTableTexture1", e)
	graded := mix3(night, day, daylight(f))
	f.Out[0] = rgba(pow3(graded, g), c[3])
}

func lookup(f *shader.Fragment, name string, c [3]float32) [3]float32 {
	for i := range c {
		c[i] = common.Clamp(c[i], 0, 1)
	}
	b := c[2] * (lutSize - 1)
	lo, hi := math32.Floor(b), math32.Ceil(b)
	x := int(c[0]*(lutSize-1) + 0.5)
	y := int(c[1]*(lutSize-1) + 0.5)
	a := rgb(f.Load(name, int(lo)*lutSize+x, y))
	bb := rgb(f.Load(name, int(hi)*lutSize+x, y))
	return mix3(a, bb, b-lo)
}
