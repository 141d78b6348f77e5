package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// importedMesh is one glTF primitive with the world transform of its node baked into the vertices.
type importedMesh struct {
	Name     string
	Vertices []common.Vertex
	Indices  []uint32
	// Tags are copied from the node's extras.
	Tags map[string]string
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor walks the default scene of a parsed document and flattens every mesh node into
// world space triangle lists.
type gltfMeshExtractor interface {
	// ExtractScene extracts every primitive reachable from the default scene, or from every root
	// node when the document has no scenes.
	//
	// Returns:
	//   - []importedMesh: one entry per primitive, in node order
	//   - error: error if a primitive cannot be read
	ExtractScene() ([]importedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractScene() ([]importedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		roots = rootNodes(doc)
	}

	var out []importedMesh
	visited := make(map[int]bool)
	var walk func(idx int, parent [16]float32) error
	walk = func(idx int, parent [16]float32) error {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return nil
		}
		visited[idx] = true
		n := &doc.Nodes[idx]
		local := nodeMatrix(n)
		var world [16]float32
		common.Mul4(world[:], parent[:], local[:])

		if n.Mesh != nil {
			meshes, err := e.extractMesh(*n.Mesh, world)
			if err != nil {
				return fmt.Errorf("node %d: %w", idx, err)
			}
			for i := range meshes {
				if n.Name != "" {
					meshes[i].Name = n.Name
					if len(meshes) > 1 {
						meshes[i].Name = fmt.Sprintf("%s_prim%d", n.Name, i)
					}
				}
				meshes[i].Tags = n.Extras.Tags
			}
			out = append(out, meshes...)
		}
		for _, c := range n.Children {
			if err := walk(c, world); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := walk(r, common.IdentityMatrix()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// extractMesh reads each triangle primitive of a mesh into world space.
func (e *gltfMeshExtractorImpl) extractMesh(meshIndex int, world [16]float32) ([]importedMesh, error) {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	mesh := &doc.Meshes[meshIndex]

	var normalMat [16]float32
	if !common.Invert4(normalMat[:], world[:]) {
		normalMat = common.IdentityMatrix()
	}
	normalMat = transpose4(normalMat)

	result := make([]importedMesh, 0, len(mesh.Primitives))
	for pi := range mesh.Primitives {
		prim := &mesh.Primitives[pi]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			return nil, fmt.Errorf("mesh %d primitive %d: unsupported mode %d", meshIndex, pi, *prim.Mode)
		}
		posAcc, ok := prim.Attributes["POSITION"]
		if !ok {
			return nil, fmt.Errorf("mesh %d primitive %d: no POSITION attribute", meshIndex, pi)
		}
		positions, err := e.parser.ReadFloats(posAcc, 3)
		if err != nil {
			return nil, fmt.Errorf("positions: %w", err)
		}

		verts := make([]common.Vertex, len(positions))
		for i, p := range positions {
			verts[i].Position = common.TransformPoint(world[:], p[0], p[1], p[2])
			verts[i].Color = [4]float32{1, 1, 1, 1}
		}

		hasNormals := false
		if acc, ok := prim.Attributes["NORMAL"]; ok {
			normals, err := e.parser.ReadFloats(acc, 3)
			if err != nil {
				return nil, fmt.Errorf("normals: %w", err)
			}
			for i := range min(len(normals), len(verts)) {
				n := normals[i]
				verts[i].Normal = common.Normalize3(common.TransformDirection(normalMat[:], n[0], n[1], n[2]))
			}
			hasNormals = true
		}
		if acc, ok := prim.Attributes["TEXCOORD_0"]; ok {
			uvs, err := e.parser.ReadFloats(acc, 2)
			if err != nil {
				return nil, fmt.Errorf("texcoords: %w", err)
			}
			for i := range min(len(uvs), len(verts)) {
				verts[i].UV = [2]float32{uvs[i][0], uvs[i][1]}
			}
		}
		if acc, ok := prim.Attributes["COLOR_0"]; ok {
			if err := e.readColors(acc, verts); err != nil {
				return nil, fmt.Errorf("colors: %w", err)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = e.parser.ReadIndices(*prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(verts))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		if !hasNormals {
			generateNormals(verts, indices)
		}

		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", meshIndex)
		}
		if pi > 0 {
			name = fmt.Sprintf("%s_prim%d", name, pi)
		}
		result = append(result, importedMesh{Name: name, Vertices: verts, Indices: indices})
	}
	return result, nil
}

// readColors reads COLOR_0, which may be VEC3 or VEC4.
func (e *gltfMeshExtractorImpl) readColors(acc int, verts []common.Vertex) error {
	doc := e.parser.Document()
	n := gltfAccessorTypeComponentCount(doc.Accessors[acc].Type)
	colors, err := e.parser.ReadFloats(acc, n)
	if err != nil {
		return err
	}
	for i := range min(len(colors), len(verts)) {
		c := colors[i]
		if n == 3 {
			c[3] = 1
		}
		verts[i].Color = c
	}
	return nil
}

// generateNormals computes smooth area-weighted vertex normals for primitives without NORMAL.
func generateNormals(vertices []common.Vertex, indices []uint32) {
	n := len(vertices)
	accum := make([][3]float32, n)
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}
		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx][0] += face[0]
			accum[idx][1] += face[1]
			accum[idx][2] += face[2]
		}
	}
	for i := range n {
		if common.Dot3(accum[i], accum[i]) < 1e-12 {
			vertices[i].Normal = [3]float32{0, 0, 1}
			continue
		}
		vertices[i].Normal = common.Normalize3(accum[i])
	}
}

// rootNodes returns the nodes no other node lists as a child.
func rootNodes(doc *gltfDocument) []int {
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeMatrix returns the node's local matrix from its matrix or its translation, rotation and scale.
func nodeMatrix(n *gltfNode) [16]float32 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := [3]float32{}
	q := [4]float32{0, 0, 0, 1}
	s := [3]float32{1, 1, 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		q = *n.Rotation
	}
	if n.Scale != nil {
		s = *n.Scale
	}
	return trsMatrix(t, q, s)
}

// trsMatrix builds a column-major T * R * S matrix from a unit quaternion (x, y, z, w).
func trsMatrix(t [3]float32, q [4]float32, s [3]float32) [16]float32 {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l > 0 {
		q = [4]float32{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
	}
	x, y, z, w := q[0], q[1], q[2], q[3]
	return [16]float32{
		(1 - 2*(y*y+z*z)) * s[0], (2 * (x*y + z*w)) * s[0], (2 * (x*z - y*w)) * s[0], 0,
		(2 * (x*y - z*w)) * s[1], (1 - 2*(x*x+z*z)) * s[1], (2 * (y*z + x*w)) * s[1], 0,
		(2 * (x*z + y*w)) * s[2], (2 * (y*z - x*w)) * s[2], (1 - 2*(x*x+y*y)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}

func transpose4(m [16]float32) [16]float32 {
	var out [16]float32
	for c := range 4 {
		for r := range 4 {
			out[c*4+r] = m[r*4+c]
		}
	}
	return out
}
