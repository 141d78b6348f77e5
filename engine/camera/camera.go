package camera

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// cameraCount is an atomic counter used to generate unique default names for each camera instance.
var cameraCount atomic.Uint64

// Lens selects the projection model of a camera.
type Lens int

const (
	// LensPerspective projects through a vertical field of view.
	LensPerspective Lens = iota
	// LensOrthographic projects the film rectangle without foreshortening.
	LensOrthographic
)

// String returns a human-readable lens name.
func (l Lens) String() string {
	switch l {
	case LensOrthographic:
		return "orthographic"
	default:
		return "perspective"
	}
}

type cameraImpl struct {
	mu *sync.Mutex

	name string
	lens Lens
	mask scene.CameraMask

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov        float32
	aspect     float32
	near       float32
	far        float32
	filmSize   [2]float32
	filmOffset [2]float32

	viewMatrix              [16]float32
	projectionMatrix        [16]float32
	viewProjectionMatrix    [16]float32
	inverseProjectionMatrix [16]float32
	transform               [16]float32

	controller CameraController
}

// Camera defines the interface for the camera system.
// A camera holds a lens (perspective or orthographic), a placement (position, target, up) and a
// camera mask selecting which scene nodes it sees. The view and projection matrices are derived
// from those whenever one of them changes, or from an attached CameraController via Update().
type Camera interface {
	// Name returns the camera's name.
	//
	// Returns:
	//   - string: the camera name
	Name() string

	// Lens returns the projection model of the camera.
	//
	// Returns:
	//   - Lens: LensPerspective or LensOrthographic
	Lens() Lens

	// SetLens switches the projection model and recomputes matrices.
	//
	// Parameters:
	//   - lens: the new projection model
	SetLens(lens Lens)

	// Mask returns the camera mask used to filter scene nodes hidden from this camera.
	//
	// Returns:
	//   - scene.CameraMask: the camera's mask bits
	Mask() scene.CameraMask

	// SetMask sets the camera mask.
	//
	// Parameters:
	//   - mask: the camera mask bits
	SetMask(mask scene.CameraMask)

	// Position returns the camera position in world space.
	//
	// Returns:
	//   - [3]float32: the eye position
	Position() [3]float32

	// Target returns the world-space point the camera looks at.
	//
	// Returns:
	//   - [3]float32: the look-at target
	Target() [3]float32

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - [3]float32: up vector components
	Up() [3]float32

	// LookAt places the camera at eye looking toward target, with the given up vector.
	//
	// Parameters:
	//   - eye: the camera position
	//   - target: the point to look at
	//   - up: the up vector
	LookAt(eye, target, up [3]float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// SetFov sets the vertical field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// NearFar returns the near and far clipping distances.
	//
	// Returns:
	//   - near: near plane distance
	//   - far: far plane distance
	NearFar() (near, far float32)

	// SetNearFar sets the near and far clipping distances and recomputes matrices.
	// Orthographic lenses accept negative near distances.
	//
	// Parameters:
	//   - near: near plane distance
	//   - far: far plane distance
	SetNearFar(near, far float32)

	// FilmSize returns the width and height of the film rectangle.
	// For orthographic lenses this is the view volume extent in world units.
	//
	// Returns:
	//   - [2]float32: film width and height
	FilmSize() [2]float32

	// SetFilmSize sets the film rectangle and recomputes matrices.
	//
	// Parameters:
	//   - width, height: film extents
	SetFilmSize(width, height float32)

	// FilmOffset returns the film offset in film units.
	//
	// Returns:
	//   - [2]float32: horizontal and vertical offset
	FilmOffset() [2]float32

	// SetFilmOffset shifts the film rectangle and recomputes matrices.
	//
	// Parameters:
	//   - x, y: offset in film units
	SetFilmOffset(x, y float32)

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// InverseProjectionMatrix returns the inverse of the current projection matrix.
	//
	// Returns:
	//   - [16]float32: the inverse projection matrix
	InverseProjectionMatrix() [16]float32

	// Transform returns the camera-to-world matrix, the inverse of the view matrix.
	//
	// Returns:
	//   - [16]float32: the camera-to-world transform (column-major)
	Transform() [16]float32

	// Frustum returns the world-space view frustum of the camera.
	//
	// Returns:
	//   - common.Frustum: the six frustum planes
	Frustum() common.Frustum

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Update reads position/target from the controller and recomputes matrices.
	// If no controller is attached, this method does nothing.
	Update()

	// Clone returns an independent camera with the same lens, placement and mask.
	// The clone does not share the controller.
	//
	// Returns:
	//   - Camera: the copy
	Clone() Camera

	// CopyFrom replaces this camera's lens and placement with those of other.
	// The name, mask and controller are kept.
	//
	// Parameters:
	//   - other: the camera to copy from
	CopyFrom(other Camera)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new perspective Camera at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		name:     "camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		lens:     LensPerspective,
		mask:     scene.AllCameras,
		target:   [3]float32{0, 0, -1},
		up:       [3]float32{0, 1, 0},
		fov:      common.Radians(45),
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
		filmSize: [2]float32{2, 2},
	}
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.pullController()
	}
	c.updateMatrices()
	return c
}

// NewOrthographicCamera creates the camera used by full-screen passes: an orthographic lens with a
// 2x2 film, near/far -1..1, placed at the origin looking down -Z at the XY plane.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - Camera: the orthographic camera
func NewOrthographicCamera(options ...CameraBuilderOption) Camera {
	opts := append([]CameraBuilderOption{
		WithLens(LensOrthographic),
		WithFilmSize(2, 2),
		WithNearFar(-1, 1),
		WithLookAt([3]float32{0, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}),
	}, options...)
	return NewCamera(opts...)
}

func (c *cameraImpl) Name() string {
	return c.name
}

func (c *cameraImpl) Lens() Lens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens
}

func (c *cameraImpl) SetLens(lens Lens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens = lens
	c.updateMatrices()
}

func (c *cameraImpl) Mask() scene.CameraMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mask
}

func (c *cameraImpl) SetMask(mask scene.CameraMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mask = mask
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) LookAt(eye, target, up [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = eye
	c.target = target
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) NearFar() (near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near, c.far
}

func (c *cameraImpl) SetNearFar(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) FilmSize() [2]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filmSize
}

func (c *cameraImpl) SetFilmSize(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filmSize = [2]float32{width, height}
	c.updateMatrices()
}

func (c *cameraImpl) FilmOffset() [2]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filmOffset
}

func (c *cameraImpl) SetFilmOffset(x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filmOffset = [2]float32{x, y}
	c.updateMatrices()
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) Transform() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.pullController()
	c.updateMatrices()
}

func (c *cameraImpl) Clone() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := &cameraImpl{
		mu:                      &sync.Mutex{},
		name:                    c.name + "_clone",
		lens:                    c.lens,
		mask:                    c.mask,
		position:                c.position,
		target:                  c.target,
		up:                      c.up,
		fov:                     c.fov,
		aspect:                  c.aspect,
		near:                    c.near,
		far:                     c.far,
		filmSize:                c.filmSize,
		filmOffset:              c.filmOffset,
		viewMatrix:              c.viewMatrix,
		projectionMatrix:        c.projectionMatrix,
		viewProjectionMatrix:    c.viewProjectionMatrix,
		inverseProjectionMatrix: c.inverseProjectionMatrix,
		transform:               c.transform,
	}
	return clone
}

func (c *cameraImpl) CopyFrom(other Camera) {
	if other == nil {
		return
	}
	lens := other.Lens()
	eye, target, up := other.Position(), other.Target(), other.Up()
	near, far := other.NearFar()
	fov, aspect := other.Fov(), other.Aspect()
	film, offset := other.FilmSize(), other.FilmOffset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens = lens
	c.position, c.target, c.up = eye, target, up
	c.near, c.far = near, far
	c.fov, c.aspect = fov, aspect
	c.filmSize, c.filmOffset = film, offset
	c.updateMatrices()
}

// pullController copies position and target from the attached controller.
// Caller must hold the mutex.
func (c *cameraImpl) pullController() {
	px, py, pz := c.controller.Position()
	tx, ty, tz := c.controller.Target()
	c.position = [3]float32{px, py, pz}
	c.target = [3]float32{tx, ty, tz}
	ux, uy, uz := c.controller.Up()
	c.up = [3]float32{ux, uy, uz}
}

// updateMatrices recalculates the view, projection, view-projection, inverse projection and
// camera-to-world matrices. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2],
	)

	switch c.lens {
	case LensOrthographic:
		hw, hh := c.filmSize[0]/2, c.filmSize[1]/2
		common.Orthographic(c.projectionMatrix[:], -hw, hw, -hh, hh, c.near, c.far)
	default:
		common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	}

	// Film offset shifts the image in normalized device space: x' = x + s*w.
	if c.filmOffset != [2]float32{} && c.filmSize[0] != 0 && c.filmSize[1] != 0 {
		sx := 2 * c.filmOffset[0] / c.filmSize[0]
		sy := 2 * c.filmOffset[1] / c.filmSize[1]
		for col := range 4 {
			w := c.projectionMatrix[col*4+3]
			c.projectionMatrix[col*4+0] -= sx * w
			c.projectionMatrix[col*4+1] -= sy * w
		}
	}

	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	common.Invert4(c.inverseProjectionMatrix[:], c.projectionMatrix[:])
	if !common.Invert4(c.transform[:], c.viewMatrix[:]) {
		c.transform = common.IdentityMatrix()
	}
}
