package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for a file extension no backend reads.
var ErrUnsupportedFormat = errors.New("unsupported asset format")

// ErrNotAnImage is returned when a texture is requested from a file that decodes to meshes.
var ErrNotAnImage = errors.New("asset is not an image")

// ErrNoMeshes is returned when a model is requested from a file without triangle meshes.
var ErrNoMeshes = errors.New("asset has no meshes")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	backends map[string]loaderBackend
	convert  convertOptions
	workers  int

	textureCache map[string]texture.Texture
	meshCache    map[string][]importedMesh
}

// Loader loads the textures and meshes a pipeline consumes and caches them by path.
//
// Textures come from image files or, for paths starting with BuiltinPrefix, from the procedural
// generators (flow maps, foam pattern, noise, lookup tables). Loaded textures have no producer:
// they never create ordering edges between passes. Meshes come from glTF/GLB scenes.
type Loader interface {
	// LoadTexture loads an image file, or creates a builtin texture, and caches it.
	// A "~" prefix is expanded to the home directory.
	//
	// Parameters:
	//   - path: the file path or builtin name
	//
	// Returns:
	//   - texture.Texture: the cached texture
	//   - error: ErrUnsupportedFormat, ErrUnknownBuiltin, or the read/decode error
	LoadTexture(path string) (texture.Texture, error)

	// LoadTextureReader decodes an image from a stream and caches it under name.
	//
	// Parameters:
	//   - name: the cache key and texture name
	//   - r: the image data
	//   - ext: the file extension selecting the backend, e.g. ".png"
	//
	// Returns:
	//   - texture.Texture: the texture
	//   - error: error if decoding fails
	LoadTextureReader(name string, r io.Reader, ext string) (texture.Texture, error)

	// LoadTextures loads several textures concurrently. The first failure cancels the rest.
	//
	// Parameters:
	//   - ctx: cancels loading between files
	//   - paths: the paths, as accepted by LoadTexture
	//
	// Returns:
	//   - []texture.Texture: the textures, in the order of paths
	//   - error: the first failure
	LoadTextures(ctx context.Context, paths ...string) ([]texture.Texture, error)

	// LoadModel loads a glTF/GLB scene and returns a new node holding one child per primitive.
	// Node world transforms are baked into the vertices; node extras tags are copied onto the
	// children. Each call returns fresh nodes built from the cached meshes.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - scene.Node: the model root, not yet attached
	//   - error: ErrUnsupportedFormat, ErrNoMeshes, or the read/decode error
	LoadModel(path string) (scene.Node, error)

	// Texture returns a cached texture, or nil.
	Texture(path string) texture.Texture

	// Textures returns a copy of the texture cache.
	Textures() map[string]texture.Texture
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the image and glTF backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		backends:     make(map[string]loaderBackend),
		convert:      convertOptions{format: texture.RGBA8(), sampler: texture.Sampler{Filter: texture.FilterLinear}},
		workers:      4,
		textureCache: make(map[string]texture.Texture),
		meshCache:    make(map[string][]importedMesh),
	}
	for _, b := range []loaderBackend{newImageLoaderBackend(), newGLTFLoaderBackend()} {
		for _, ext := range b.Extensions() {
			l.backends[ext] = b
		}
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) LoadTexture(path string) (texture.Texture, error) {
	if tex := l.Texture(path); tex != nil {
		return tex, nil
	}

	var tex texture.Texture
	if IsBuiltin(path) {
		t, err := Builtin(path)
		if err != nil {
			return nil, err
		}
		tex = t
	} else {
		a, err := l.decodeFile(path)
		if err != nil {
			return nil, err
		}
		if a.Image == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotAnImage, path)
		}
		tex = toTexture(textureName(path), a.Image, l.convert)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.textureCache[path]; ok {
		return cached, nil
	}
	l.textureCache[path] = tex
	common.Logger().Debug("texture loaded", zap.String("path", path), zap.Int("width", tex.Width()), zap.Int("height", tex.Height()))
	return tex, nil
}

func (l *loader) LoadTextureReader(name string, r io.Reader, ext string) (texture.Texture, error) {
	backend, err := l.resolveBackend(ext)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	a, err := backend.Decode(data, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if a.Image == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, name)
	}
	tex := toTexture(name, a.Image, l.convert)

	l.mu.Lock()
	l.textureCache[name] = tex
	l.mu.Unlock()
	return tex, nil
}

func (l *loader) LoadTextures(ctx context.Context, paths ...string) ([]texture.Texture, error) {
	out := make([]texture.Texture, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, l.workers))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tex, err := l.LoadTexture(path)
			if err != nil {
				return err
			}
			out[i] = tex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *loader) LoadModel(path string) (scene.Node, error) {
	l.mu.RLock()
	meshes, ok := l.meshCache[path]
	l.mu.RUnlock()

	if !ok {
		a, err := l.decodeFile(path)
		if err != nil {
			return nil, err
		}
		if len(a.Meshes) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMeshes, path)
		}
		meshes = a.Meshes
		l.mu.Lock()
		l.meshCache[path] = meshes
		l.mu.Unlock()
		common.Logger().Debug("model loaded", zap.String("path", path), zap.Int("meshes", len(meshes)))
	}

	root := scene.NewNode(textureName(path))
	for _, m := range meshes {
		child := scene.NewNode(m.Name,
			scene.WithMesh(scene.NewMesh(m.Vertices, m.Indices)),
			scene.WithParent(root),
		)
		for k, v := range m.Tags {
			child.SetTag(k, v)
		}
	}
	return root, nil
}

func (l *loader) Texture(path string) texture.Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.textureCache[path]
}

func (l *loader) Textures() map[string]texture.Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]texture.Texture, len(l.textureCache))
	for k, v := range l.textureCache {
		out[k] = v
	}
	return out
}

// decodeFile expands, reads and decodes a file with the backend for its extension.
func (l *loader) decodeFile(path string) (*asset, error) {
	full, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	backend, err := l.resolveBackend(filepath.Ext(full))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	a, err := backend.Decode(data, filepath.Dir(full))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return a, nil
}

// resolveBackend selects the backend for a file extension.
func (l *loader) resolveBackend(ext string) (loaderBackend, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	b, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return b, nil
}

// textureName derives a readable texture name from a path or builtin name.
func textureName(path string) string {
	if IsBuiltin(path) {
		return strings.TrimPrefix(path, BuiltinPrefix)
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
