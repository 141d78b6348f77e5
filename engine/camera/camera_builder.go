package camera

import "github.com/Carmen-Shannon/oxy-deferred/engine/scene"

type CameraBuilderOption func(*cameraImpl)

// WithName sets the camera's name.
//
// Parameters:
//   - name: the camera name
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's name
func WithName(name string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.name = name
	}
}

// WithLens sets the camera's projection model.
//
// Parameters:
//   - lens: LensPerspective or LensOrthographic
//
// Returns:
//   - CameraBuilderOption: a function that sets the lens
func WithLens(lens Lens) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens = lens
	}
}

// WithMask sets the camera mask.
//
// Parameters:
//   - mask: the camera mask bits
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera mask
func WithMask(mask scene.CameraMask) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.mask = mask
	}
}

// WithLookAt places the camera at eye looking toward target.
//
// Parameters:
//   - eye: camera position
//   - target: point to look at
//   - up: up vector
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera placement
func WithLookAt(eye, target, up [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = eye
		c.target = target
		c.up = up
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNearFar sets the near and far clipping distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clipping planes
func WithNearFar(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithFilmSize sets the film rectangle.
func WithFilmSize(width, height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.filmSize = [2]float32{width, height}
	}
}

// WithFilmOffset sets the film offset.
func WithFilmOffset(x, y float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.filmOffset = [2]float32{x, y}
	}
}

// WithController attaches a camera controller.
//
// Parameters:
//   - ctrl: the camera controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
