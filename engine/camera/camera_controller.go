package camera

// CameraController defines the union interface for camera control systems.
// Controllers own positional state (position, target). Camera reads from controller
// and computes view/projection matrices. Embeds both orbitCameraController and
// planarCameraController, enabling orbit and planar controls to work simultaneously
// from a single controller instance.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns the look-at point.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// Up returns the world up vector the controller orbits around (+Z).
	//
	// Returns:
	//   - x, y, z: up vector
	Up() (x, y, z float32)

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Zoom adjusts the camera's distance by modifying orbit radius.
	// Positive delta zooms in (closer to target).
	//
	// Parameters:
	//   - delta: zoom amount scaled by ZoomSpeed
	Zoom(delta float32)

	// Reset restores the radius, angles and target the controller was created with.
	Reset()
}

// orbitCameraController defines orbit-specific control methods.
// Provides orbit controls using spherical coordinates relative to the target with +Z up:
//
//	x = r sin(phi) cos(theta) + tx
//	y = r sin(phi) sin(theta) + ty
//	z = r cos(phi)            + tz
//
// Angles are in degrees; phi is measured from +Z.
type orbitCameraController interface {
	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp raises the camera toward +Z by one orbit speed step, clamped to min phi.
	OrbitUp()

	// OrbitDown lowers the camera toward the horizon by one orbit speed step, clamped to max phi.
	OrbitDown()

	// Rotate applies a mouse drag, scaled by MouseSensitivity.
	//
	// Parameters:
	//   - dx: horizontal drag, changes theta
	//   - dy: vertical drag, changes phi
	Rotate(dx, dy float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Theta returns the azimuth around +Z in degrees.
	//
	// Returns:
	//   - float32: azimuth in degrees
	Theta() float32

	// SetTheta sets the azimuth in degrees and recomputes position.
	//
	// Parameters:
	//   - theta: azimuth in degrees
	SetTheta(theta float32)

	// Phi returns the polar angle from +Z in degrees.
	//
	// Returns:
	//   - float32: polar angle in degrees
	Phi() float32

	// SetPhi sets the polar angle in degrees, clamped to the phi bounds, and recomputes position.
	//
	// Parameters:
	//   - phi: polar angle in degrees
	SetPhi(phi float32)

	OrbitSpeed() float32

	MouseSensitivity() float32

	ZoomSpeed() float32
}

// planarCameraController defines panning methods. Panning moves both the position and target.
type planarCameraController interface {
	// PanRight moves along the camera's horizontal right axis.
	//
	// Parameters:
	//   - delta: distance scaled by PanSpeed
	PanRight(delta float32)

	// PanUp moves along world +Z.
	//
	// Parameters:
	//   - delta: distance scaled by PanSpeed
	PanUp(delta float32)

	// PanForward moves along the camera's viewing direction projected onto the ground plane.
	//
	// Parameters:
	//   - delta: distance scaled by PanSpeed
	PanForward(delta float32)

	PanSpeed() float32
}
