package loader

import (
	"image"

	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
)

// convertOptions controls how decoded images become textures.
type convertOptions struct {
	format    texture.PixelFormat
	sampler   texture.Sampler
	maxSize   int
	linearize bool
	flipY     bool
}

// toTexture converts a decoded image to a CPU-backed texture. Images larger than maxSize on
// either side are downscaled preserving aspect. Pixels are stored unpremultiplied, row 0 at the top.
func toTexture(name string, img image.Image, opts convertOptions) texture.Texture {
	b := img.Bounds()
	if opts.maxSize > 0 && (b.Dx() > opts.maxSize || b.Dy() > opts.maxSize) {
		w, h := fitWithin(b.Dx(), b.Dy(), opts.maxSize)
		img = transform.Resize(img, w, h, transform.Linear)
	}
	if opts.flipY {
		img = transform.FlipV(img)
	}
	rgba := clone.AsRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()

	pixels := make([]float32, 0, w*h*4)
	for y := range h {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := range w {
			pixels = append(pixels, unpremultiply(row[x*4:x*4+4], opts.linearize)...)
		}
	}
	return texture.NewTexture(name, w, h, opts.format,
		texture.WithPixels(pixels),
		texture.WithSampler(opts.sampler),
	)
}

func unpremultiply(p []uint8, linearize bool) []float32 {
	a := float32(p[3]) / 255
	if a == 0 {
		return []float32{0, 0, 0, 0}
	}
	out := []float32{
		float32(p[0]) / 255 / a,
		float32(p[1]) / 255 / a,
		float32(p[2]) / 255 / a,
		a,
	}
	for i := range 3 {
		out[i] = min(out[i], 1)
		if linearize {
			out[i] = texture.SRGBToLinear(out[i])
		}
	}
	return out
}

// fitWithin scales (w, h) so the longer side equals limit.
func fitWithin(w, h, limit int) (int, int) {
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}
