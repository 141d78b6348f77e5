package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func TestOrthographicCameraFramesUnitQuad(t *testing.T) {
	cam := NewOrthographicCamera()
	require.Equal(t, LensOrthographic, cam.Lens())

	vp := cam.ViewProjectionMatrix()
	corners := [][3]float32{{-1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	for _, c := range corners {
		clip := common.MulVec4(vp[:], [4]float32{c[0], c[1], c[2], 1})
		assert.InDelta(t, c[0], clip[0]/clip[3], eps)
		assert.InDelta(t, c[1], clip[1]/clip[3], eps)
		assert.InDelta(t, 0.5, clip[2]/clip[3], eps)
	}

	id := common.IdentityMatrix()
	tr := cam.Transform()
	for i := range 16 {
		assert.InDelta(t, id[i], tr[i], eps)
	}
}

func TestTransformIsInverseView(t *testing.T) {
	cam := NewCamera(WithLookAt([3]float32{3, -4, 5}, [3]float32{0, 0, 0}, [3]float32{0, 0, 1}))
	tr := cam.Transform()
	assert.InDelta(t, 3, tr[12], eps)
	assert.InDelta(t, -4, tr[13], eps)
	assert.InDelta(t, 5, tr[14], eps)

	view := cam.ViewMatrix()
	var product [16]float32
	common.Mul4(product[:], view[:], tr[:])
	id := common.IdentityMatrix()
	for i := range 16 {
		assert.InDelta(t, id[i], product[i], eps)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cam := NewCamera(WithMask(scene.MaskBit(2)), WithFov(common.Radians(60)))
	clone := cam.Clone()
	assert.Equal(t, cam.ViewMatrix(), clone.ViewMatrix())
	assert.Equal(t, cam.ProjectionMatrix(), clone.ProjectionMatrix())
	assert.Equal(t, scene.MaskBit(2), clone.Mask())

	cam.LookAt([3]float32{0, 0, 10}, [3]float32{}, [3]float32{0, 1, 0})
	assert.NotEqual(t, cam.ViewMatrix(), clone.ViewMatrix())
}

func TestCopyFromKeepsMask(t *testing.T) {
	main := NewCamera(WithLookAt([3]float32{1, 2, 3}, [3]float32{0, 0, 0}, [3]float32{0, 0, 1}), WithNearFar(1, 50))
	target := NewCamera(WithMask(scene.MaskBit(6)))
	target.CopyFrom(main)

	assert.Equal(t, main.Transform(), target.Transform())
	assert.Equal(t, main.ProjectionMatrix(), target.ProjectionMatrix())
	assert.Equal(t, scene.MaskBit(6), target.Mask())
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10), WithPhi(90), WithTheta(0))
	cam := NewCamera(WithController(ctrl))
	pos := cam.Position()
	assert.InDelta(t, 10, pos[0], eps)
	assert.InDelta(t, 0, pos[1], eps)
	assert.InDelta(t, 0, pos[2], eps)

	ctrl.SetTheta(90)
	cam.Update()
	pos = cam.Position()
	assert.InDelta(t, 0, pos[0], eps)
	assert.InDelta(t, 10, pos[1], eps)
	assert.Equal(t, [3]float32{0, 0, 1}, cam.Up())
}

func TestSphericalPosition(t *testing.T) {
	p := SphericalPosition(2, 0, 45, [3]float32{1, 1, 1})
	assert.InDelta(t, 1, p[0], eps)
	assert.InDelta(t, 1, p[1], eps)
	assert.InDelta(t, 3, p[2], eps)

	p = SphericalPosition(1, 90, 180, [3]float32{})
	assert.InDelta(t, -1, p[0], eps)
	assert.InDelta(t, 0, p[1], eps)
	assert.InDelta(t, 0, p[2], eps)
}

func TestControllerClampsAndResets(t *testing.T) {
	ctrl := NewCameraController(
		WithRadius(5),
		WithRadiusBounds(2, 8),
		WithPhi(3),
		WithPhiBounds(2, 170),
		WithOrbitSpeed(5),
		WithZoomSpeed(1),
	)
	ctrl.OrbitUp()
	assert.Equal(t, float32(2), ctrl.Phi())

	ctrl.Zoom(10)
	assert.Equal(t, float32(2), ctrl.Radius())
	ctrl.Zoom(-100)
	assert.Equal(t, float32(8), ctrl.Radius())

	ctrl.Reset()
	assert.Equal(t, float32(5), ctrl.Radius())
	assert.Equal(t, float32(3), ctrl.Phi())
}

func TestControllerPanMovesTargetAndPosition(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10), WithPhi(90), WithTheta(0))
	ctrl.PanForward(1)
	tx, ty, tz := ctrl.Target()
	assert.InDelta(t, -1, tx, eps)
	assert.InDelta(t, 0, ty, eps)
	assert.InDelta(t, 0, tz, eps)
	px, _, _ := ctrl.Position()
	assert.InDelta(t, 9, px, eps)

	ctrl.PanUp(2)
	_, _, tz = ctrl.Target()
	assert.InDelta(t, 2, tz, eps)
}
