package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// Mesh is indexed triangle geometry in object space. Triangles wind counter-clockwise when seen
// from their front side. Meshes are immutable once attached to a node; the backend may cache
// GPU buffers for them in Handle.
type Mesh struct {
	Vertices []common.Vertex
	Indices  []uint32

	once   sync.Once
	center [3]float32
	radius float32

	mu     sync.Mutex
	handle any
}

// NewMesh wraps vertices and indices in a Mesh.
//
// Parameters:
//   - vertices: the interleaved vertices
//   - indices: triangle list indices into vertices
//
// Returns:
//   - *Mesh: the mesh
func NewMesh(vertices []common.Vertex, indices []uint32) *Mesh {
	return &Mesh{Vertices: vertices, Indices: indices}
}

// Bounds returns an object-space bounding sphere.
//
// Returns:
//   - [3]float32: the sphere center
//   - float32: the sphere radius
func (m *Mesh) Bounds() ([3]float32, float32) {
	m.once.Do(func() {
		if len(m.Vertices) == 0 {
			return
		}
		lo, hi := m.Vertices[0].Position, m.Vertices[0].Position
		for _, v := range m.Vertices[1:] {
			for i := 0; i < 3; i++ {
				lo[i] = min(lo[i], v.Position[i])
				hi[i] = max(hi[i], v.Position[i])
			}
		}
		for i := 0; i < 3; i++ {
			m.center[i] = (lo[i] + hi[i]) / 2
		}
		for _, v := range m.Vertices {
			d := [3]float32{v.Position[0] - m.center[0], v.Position[1] - m.center[1], v.Position[2] - m.center[2]}
			m.radius = max(m.radius, math32.Sqrt(common.Dot3(d, d)))
		}
	})
	return m.center, m.radius
}

// Handle returns the backend resource cached for this mesh.
func (m *Mesh) Handle() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// SetHandle caches a backend resource for this mesh.
func (m *Mesh) SetHandle(h any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handle = h
}

// NewQuadMesh returns the full-screen quad: [-1, 1] in X and Y at z = 0, facing +Z, with
// UV (0, 0) at the top-left corner (-1, 1) and (1, 1) at the bottom-right corner (1, -1).
//
// Returns:
//   - *Mesh: the quad
func NewQuadMesh() *Mesh {
	white := [4]float32{1, 1, 1, 1}
	n := [3]float32{0, 0, 1}
	return NewMesh([]common.Vertex{
		{Position: [3]float32{-1, -1, 0}, Normal: n, Color: white, UV: [2]float32{0, 1}},
		{Position: [3]float32{1, -1, 0}, Normal: n, Color: white, UV: [2]float32{1, 1}},
		{Position: [3]float32{1, 1, 0}, Normal: n, Color: white, UV: [2]float32{1, 0}},
		{Position: [3]float32{-1, 1, 0}, Normal: n, Color: white, UV: [2]float32{0, 0}},
	}, []uint32{0, 1, 2, 0, 2, 3})
}

// NewPlaneMesh returns a flat rectangle in the XY plane centered on the origin, facing +Z.
//
// Parameters:
//   - width, depth: the extents along X and Y
//   - color: the vertex color
//
// Returns:
//   - *Mesh: the plane
func NewPlaneMesh(width, depth float32, color [4]float32) *Mesh {
	hw, hd := width/2, depth/2
	n := [3]float32{0, 0, 1}
	return NewMesh([]common.Vertex{
		{Position: [3]float32{-hw, -hd, 0}, Normal: n, Color: color, UV: [2]float32{0, 1}},
		{Position: [3]float32{hw, -hd, 0}, Normal: n, Color: color, UV: [2]float32{1, 1}},
		{Position: [3]float32{hw, hd, 0}, Normal: n, Color: color, UV: [2]float32{1, 0}},
		{Position: [3]float32{-hw, hd, 0}, Normal: n, Color: color, UV: [2]float32{0, 0}},
	}, []uint32{0, 1, 2, 0, 2, 3})
}

// NewBoxMesh returns an axis aligned box centered on the origin with outward facing sides.
//
// Parameters:
//   - sx, sy, sz: the extents along each axis
//   - color: the vertex color
//
// Returns:
//   - *Mesh: the box
func NewBoxMesh(sx, sy, sz float32, color [4]float32) *Mesh {
	h := [3]float32{sx / 2, sy / 2, sz / 2}
	// Each face: normal, then two in-plane axes u and v with u x v = normal.
	faces := [6][3][3]float32{
		{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	}
	vertices := make([]common.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for i := 0; i < 3; i++ {
				p[i] = (n[i] + u[i]*c[0] + v[i]*c[1]) * h[i]
			}
			vertices = append(vertices, common.Vertex{
				Position: p,
				Normal:   n,
				Color:    color,
				UV:       [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(vertices, indices)
}

// NewTerrainMesh returns a height field over a square grid in the XY plane with Z up.
//
// Parameters:
//   - size: the extent of the grid along X and Y
//   - resolution: the number of cells along each side (minimum 1)
//   - height: the surface height at a point
//   - color: the vertex color at a point and height
//
// Returns:
//   - *Mesh: the terrain
func NewTerrainMesh(size float32, resolution int, height func(x, y float32) float32, color func(x, y, z float32) [4]float32) *Mesh {
	resolution = max(resolution, 1)
	step := size / float32(resolution)
	half := size / 2
	row := resolution + 1

	vertices := make([]common.Vertex, 0, row*row)
	for j := 0; j <= resolution; j++ {
		for i := 0; i <= resolution; i++ {
			x := -half + float32(i)*step
			y := half - float32(j)*step
			z := height(x, y)

			// Central differences for the normal.
			dx := height(x+step, y) - height(x-step, y)
			dy := height(x, y+step) - height(x, y-step)
			n := common.Normalize3([3]float32{-dx, -dy, 2 * step})

			vertices = append(vertices, common.Vertex{
				Position: [3]float32{x, y, z},
				Normal:   n,
				Color:    color(x, y, z),
				UV:       [2]float32{float32(i) / float32(resolution), float32(j) / float32(resolution)},
			})
		}
	}

	indices := make([]uint32, 0, resolution*resolution*6)
	for j := 0; j < resolution; j++ {
		for i := 0; i < resolution; i++ {
			tl := uint32(j*row + i)
			tr := tl + 1
			bl := tl + uint32(row)
			br := bl + 1
			indices = append(indices, bl, br, tr, bl, tr, tl)
		}
	}
	return NewMesh(vertices, indices)
}
