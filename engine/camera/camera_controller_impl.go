package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32

	radius float32
	theta  float32 // degrees around +Z
	phi    float32 // degrees from +Z

	minRadius float32
	maxRadius float32
	minPhi    float32
	maxPhi    float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32

	panSpeed float32

	initial       [3]float32 // radius, theta, phi
	initialTarget [3]float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates an orbit controller around the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the controller with its position derived from the spherical coordinates
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},

		radius: 25.0,
		theta:  231.721,
		phi:    67.5095,

		minRadius: 1.0,
		maxRadius: 2000.0,
		minPhi:    1.0,
		maxPhi:    179.0,

		orbitSpeed:       2.0,
		mouseSensitivity: 0.25,
		zoomSpeed:        1.0,

		panSpeed: 1.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.radius = common.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.phi = common.Clamp(cc.phi, cc.minPhi, cc.maxPhi)
	cc.initial = [3]float32{cc.radius, cc.theta, cc.phi}
	cc.initialTarget = cc.target
	cc.updatePosition()
	return cc
}

// NewOrbitController is an alias of NewCameraController.
func NewOrbitController(options ...CameraControllerOption) CameraController {
	return NewCameraController(options...)
}

// SphericalPosition evaluates the orbit formula for a radius and angles in degrees around lookAt.
//
// Parameters:
//   - radius: distance from lookAt
//   - phi: polar angle from +Z in degrees
//   - theta: azimuth around +Z in degrees
//   - lookAt: the pivot point
//
// Returns:
//   - [3]float32: the world-space position
func SphericalPosition(radius, phi, theta float32, lookAt [3]float32) [3]float32 {
	sp, cp := math32.Sincos(common.Radians(phi))
	st, ct := math32.Sincos(common.Radians(theta))
	return [3]float32{
		radius*sp*ct + lookAt[0],
		radius*sp*st + lookAt[1],
		radius*cp + lookAt[2],
	}
}

// updatePosition recomputes position from the spherical coordinates. Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cc.position = SphericalPosition(cc.radius, cc.phi, cc.theta, cc.target)
}

// groundAxes returns the right and forward axes projected onto the XY plane.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) groundAxes() (right, forward [3]float32) {
	fx := cc.target[0] - cc.position[0]
	fy := cc.target[1] - cc.position[1]
	l := math32.Sqrt(fx*fx + fy*fy)
	if l < 1e-8 {
		st, ct := math32.Sincos(common.Radians(cc.theta))
		fx, fy, l = -ct, -st, 1
	}
	forward = [3]float32{fx / l, fy / l, 0}
	right = [3]float32{forward[1], -forward[0], 0}
	return
}

func (cc *cameraControllerImpl) translate(d [3]float32, amount float32) {
	for i := range 3 {
		cc.target[i] += d[i] * amount
		cc.position[i] += d[i] * amount
	}
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target[0], cc.target[1], cc.target[2]
}

func (cc *cameraControllerImpl) Up() (x, y, z float32) {
	return 0, 0, 1
}

func (cc *cameraControllerImpl) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = [3]float32{x, y, z}
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius, cc.theta, cc.phi = cc.initial[0], cc.initial[1], cc.initial[2]
	cc.target = cc.initialTarget
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.theta -= cc.orbitSpeed
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.theta += cc.orbitSpeed
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.phi = common.Clamp(cc.phi-cc.orbitSpeed, cc.minPhi, cc.maxPhi)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.phi = common.Clamp(cc.phi+cc.orbitSpeed, cc.minPhi, cc.maxPhi)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Rotate(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.theta += dx * cc.mouseSensitivity
	cc.phi = common.Clamp(cc.phi+dy*cc.mouseSensitivity, cc.minPhi, cc.maxPhi)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(radius, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Theta() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.theta
}

func (cc *cameraControllerImpl) SetTheta(theta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.theta = theta
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Phi() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.phi
}

func (cc *cameraControllerImpl) SetPhi(phi float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.phi = common.Clamp(phi, cc.minPhi, cc.maxPhi)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

// --- planarCameraController implementation ---

func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	right, _ := cc.groundAxes()
	cc.translate(right, delta*cc.panSpeed)
}

func (cc *cameraControllerImpl) PanUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.translate([3]float32{0, 0, 1}, delta*cc.panSpeed)
}

func (cc *cameraControllerImpl) PanForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, forward := cc.groundAxes()
	cc.translate(forward, delta*cc.panSpeed)
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}
