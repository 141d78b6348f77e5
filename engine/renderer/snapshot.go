package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/anthonynsimon/bild/imgio"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Snapshot copies the presented attachment into an 8-bit image. Values are clamped to [0, 1]
// and written as stored, the same way the display pass shows them.
//
// Returns:
//   - *image.NRGBA: the image
//   - error: ErrNothingPresented, or ErrReadbackUnsupported from GPU backends
func (r *renderer) Snapshot() (*image.NRGBA, error) {
	r.mu.Lock()
	target, slot := r.presented, r.presentedSlot
	r.mu.Unlock()
	if target == nil {
		return nil, ErrNothingPresented
	}

	tex := target.Texture(slot)
	pixels, err := r.backend.ReadPixels(tex)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", tex.Name(), err)
	}

	w, h := tex.Width(), tex.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			i := (y*w + x) * 4
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(pixels[i]),
				G: toByte(pixels[i+1]),
				B: toByte(pixels[i+2]),
				A: toByte(pixels[i+3]),
			})
		}
	}
	return img, nil
}

// SnapshotScaled returns the snapshot resampled to the given size.
//
// Parameters:
//   - width, height: the output size in pixels
//
// Returns:
//   - *image.NRGBA: the scaled image
//   - error: see Snapshot
func (r *renderer) SnapshotScaled(width, height int) (*image.NRGBA, error) {
	src, err := r.Snapshot()
	if err != nil {
		return nil, err
	}
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		return src, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// SaveSnapshot writes the snapshot to a PNG file.
//
// Parameters:
//   - path: the output file
//
// Returns:
//   - error: see Snapshot, or the write error
func (r *renderer) SaveSnapshot(path string) error {
	img, err := r.Snapshot()
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	common.Logger().Info("snapshot saved", zap.String("path", path), zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return nil
}

func toByte(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}
