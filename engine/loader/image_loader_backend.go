package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageLoaderBackendImpl is the implementation of imageLoaderBackend.
type imageLoaderBackendImpl struct{}

// imageLoaderBackend is a loaderBackend for raster images: PNG, JPEG and GIF from the standard
// library, BMP, TIFF and WebP from golang.org/x/image.
type imageLoaderBackend interface {
	loaderBackend
}

var _ imageLoaderBackend = &imageLoaderBackendImpl{}

func newImageLoaderBackend() imageLoaderBackend {
	return &imageLoaderBackendImpl{}
}

func (b *imageLoaderBackendImpl) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

func (b *imageLoaderBackendImpl) Decode(data []byte, _ string) (*asset, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s image: empty bounds", format)
	}
	return &asset{Image: img}, nil
}
