package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/chewxy/math32"
)

// clipEpsilon is the smallest clip-space w a vertex may have before its triangle is dropped.
const clipEpsilon = 1e-5

// attributeCount is the number of interpolated floats per vertex:
// uv(2) world position(3) world normal(3) view position(3) view normal(3) color(4).
const attributeCount = 18

// rasterVertex is a vertex after the vertex stage, in screen space.
type rasterVertex struct {
	x, y, z float32
	invW    float32
	// attrs are the varyings pre-divided by clip w for perspective-correct interpolation.
	attrs [attributeCount]float32
}

// rasterTriangle is a triangle ready for scan conversion, wound clockwise on screen.
type rasterTriangle struct {
	draw int
	v    [3]rasterVertex
	area float32
	minX int
	maxX int
	minY int
	maxY int
}

// rasterDraw holds what every fragment of one DrawItem shares.
type rasterDraw struct {
	kernel     shader.Kernel
	inputs     map[string]shader.Input
	outputs    int
	blend      bool
	depthTest  bool
	depthWrite bool
}

// rasterJob is one pass flattened into triangles and the buffers they render into.
type rasterJob struct {
	width, height int
	attachments   []texture.Texture
	depth         []float32
	draws         []rasterDraw
	triangles     []rasterTriangle
}

// setupJob runs the vertex stage of every draw in submission order and collects the triangles that
// survive clipping and face culling.
func setupJob(job *PassJob, attachments []texture.Texture, depth []float32, width, height int) (*rasterJob, error) {
	rj := &rasterJob{
		width:       width,
		height:      height,
		attachments: attachments,
		depth:       depth,
	}
	var viewProj [16]float32
	common.Mul4(viewProj[:], job.Projection[:], job.View[:])

	for _, item := range job.Draws {
		prog := item.State.Program()
		if prog == nil {
			continue
		}
		kernel := prog.Kernel()
		if kernel == nil {
			return nil, shader.ErrMissingKernel
		}
		drawIndex := len(rj.draws)
		rj.draws = append(rj.draws, rasterDraw{
			kernel:     kernel,
			inputs:     item.State.Inputs(),
			outputs:    min(len(attachments), max(1, prog.Reflection().FragmentOutputs)),
			blend:      item.State.Blend(),
			depthTest:  item.DepthTest,
			depthWrite: item.DepthWrite,
		})

		var mvp [16]float32
		common.Mul4(mvp[:], viewProj[:], item.Model[:])
		verts := make([]rasterVertex, len(item.Mesh.Vertices))
		clipW := make([]float32, len(item.Mesh.Vertices))
		ndc := make([][2]float32, len(item.Mesh.Vertices))
		for i, v := range item.Mesh.Vertices {
			clip := common.MulVec4(mvp[:], [4]float32{v.Position[0], v.Position[1], v.Position[2], 1})
			clipW[i] = clip[3]
			if clip[3] <= clipEpsilon {
				continue
			}
			invW := 1 / clip[3]
			nx, ny := clip[0]*invW, clip[1]*invW
			ndc[i] = [2]float32{nx, ny}

			world := common.TransformPoint(item.Model[:], v.Position[0], v.Position[1], v.Position[2])
			worldN := common.Normalize3(common.TransformDirection(item.Model[:], v.Normal[0], v.Normal[1], v.Normal[2]))
			view := common.TransformPoint(job.View[:], world[0], world[1], world[2])
			viewN := common.Normalize3(common.TransformDirection(job.View[:], worldN[0], worldN[1], worldN[2]))

			rv := rasterVertex{
				x:    (nx + 1) * 0.5 * float32(width),
				y:    (1 - ny) * 0.5 * float32(height),
				z:    clip[2] * invW,
				invW: invW,
			}
			attrs := [attributeCount]float32{
				v.UV[0], v.UV[1],
				world[0], world[1], world[2],
				worldN[0], worldN[1], worldN[2],
				view[0], view[1], view[2],
				viewN[0], viewN[1], viewN[2],
				v.Color[0], v.Color[1], v.Color[2], v.Color[3],
			}
			for a := range attrs {
				rv.attrs[a] = attrs[a] * invW
			}
			verts[i] = rv
		}

		cull := item.State.CullMode()
		for t := 0; t+2 < len(item.Mesh.Indices); t += 3 {
			i0, i1, i2 := item.Mesh.Indices[t], item.Mesh.Indices[t+1], item.Mesh.Indices[t+2]
			if clipW[i0] <= clipEpsilon || clipW[i1] <= clipEpsilon || clipW[i2] <= clipEpsilon {
				continue
			}
			a, b, c := ndc[i0], ndc[i1], ndc[i2]
			ndcArea := (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
			if ndcArea == 0 {
				continue
			}
			front := ndcArea > 0
			if (cull == material.CullBack && !front) || (cull == material.CullFront && front) {
				continue
			}
			if tri, ok := newRasterTriangle(drawIndex, verts[i0], verts[i1], verts[i2], width, height); ok {
				rj.triangles = append(rj.triangles, tri)
			}
		}
	}
	return rj, nil
}

// newRasterTriangle orders the vertices clockwise on screen and computes the clipped bounds.
func newRasterTriangle(draw int, v0, v1, v2 rasterVertex, width, height int) (rasterTriangle, bool) {
	area := edge(v0, v1, v2.x, v2.y)
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}
	if area == 0 {
		return rasterTriangle{}, false
	}
	tri := rasterTriangle{
		draw: draw,
		v:    [3]rasterVertex{v0, v1, v2},
		area: area,
		minX: max(0, int(math32.Floor(min(v0.x, v1.x, v2.x)))),
		maxX: min(width-1, int(math32.Ceil(max(v0.x, v1.x, v2.x)))),
		minY: max(0, int(math32.Floor(min(v0.y, v1.y, v2.y)))),
		maxY: min(height-1, int(math32.Ceil(max(v0.y, v1.y, v2.y)))),
	}
	if tri.minX > tri.maxX || tri.minY > tri.maxY {
		return rasterTriangle{}, false
	}
	return tri, true
}

// edge is the signed edge function of (a, b) at p; positive on the inside of a clockwise
// on-screen triangle.
func edge(a, b rasterVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether the edge from a to b is a top or left edge of a clockwise triangle.
// Pixels exactly on such an edge belong to the triangle; shared edges are drawn once.
func topLeft(a, b rasterVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

func covers(w float32, a, b rasterVertex) bool {
	return w > 0 || (w == 0 && topLeft(a, b))
}

// run rasterizes the job in row bands on the pool and waits for every band.
func (rj *rasterJob) run(pool worker.DynamicWorkerPool, bands int) {
	if len(rj.triangles) == 0 || rj.height == 0 {
		return
	}
	bands = max(1, min(bands, rj.height))
	rows := (rj.height + bands - 1) / bands

	var wg sync.WaitGroup
	for b := range bands {
		y0 := b * rows
		y1 := min(rj.height, y0+rows)
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: b,
			Do: func() (any, error) {
				defer wg.Done()
				rj.rasterizeBand(y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// rasterizeBand draws every triangle, in submission order, clipped to rows [y0, y1).
func (rj *rasterJob) rasterizeBand(y0, y1 int) {
	var frag shader.Fragment
	for ti := range rj.triangles {
		tri := &rj.triangles[ti]
		if tri.maxY < y0 || tri.minY >= y1 {
			continue
		}
		draw := &rj.draws[tri.draw]
		v0, v1, v2 := tri.v[0], tri.v[1], tri.v[2]
		invArea := 1 / tri.area

		for y := max(tri.minY, y0); y <= min(tri.maxY, y1-1); y++ {
			py := float32(y) + 0.5
			for x := tri.minX; x <= tri.maxX; x++ {
				px := float32(x) + 0.5
				w0 := edge(v1, v2, px, py)
				w1 := edge(v2, v0, px, py)
				w2 := edge(v0, v1, px, py)
				if !covers(w0, v1, v2) || !covers(w1, v2, v0) || !covers(w2, v0, v1) {
					continue
				}
				l0, l1, l2 := w0*invArea, w1*invArea, w2*invArea

				z := l0*v0.z + l1*v1.z + l2*v2.z
				if z < 0 || z > 1 {
					continue
				}
				idx := y*rj.width + x
				if draw.depthTest && z > rj.depth[idx] {
					continue
				}

				invW := l0*v0.invW + l1*v1.invW + l2*v2.invW
				var attrs [attributeCount]float32
				for a := range attributeCount {
					attrs[a] = (l0*v0.attrs[a] + l1*v1.attrs[a] + l2*v2.attrs[a]) / invW
				}

				frag.Reset(draw.inputs, rj.width, rj.height)
				frag.X, frag.Y = x, y
				frag.Depth = z
				frag.UV = [2]float32{attrs[0], attrs[1]}
				frag.WorldPosition = [3]float32{attrs[2], attrs[3], attrs[4]}
				frag.WorldNormal = common.Normalize3([3]float32{attrs[5], attrs[6], attrs[7]})
				frag.ViewPosition = [3]float32{attrs[8], attrs[9], attrs[10]}
				frag.ViewNormal = common.Normalize3([3]float32{attrs[11], attrs[12], attrs[13]})
				frag.Color = [4]float32{attrs[14], attrs[15], attrs[16], attrs[17]}

				draw.kernel(&frag)
				if frag.Discard {
					continue
				}

				for slot := range draw.outputs {
					out := frag.Out[slot]
					tex := rj.attachments[slot]
					if draw.blend {
						dst := tex.At(x, y)
						a := out[3]
						out = [4]float32{
							out[0]*a + dst[0]*(1-a),
							out[1]*a + dst[1]*(1-a),
							out[2]*a + dst[2]*(1-a),
							a + dst[3]*(1-a),
						}
					}
					tex.Set(x, y, out)
				}
				if draw.depthWrite {
					rj.depth[idx] = frag.Depth
				}
			}
		}
	}
}
