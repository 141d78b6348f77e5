package main

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/chewxy/math32"
)

// Pass names the demo scene tags nodes for.
const (
	geometryBuffer1 = "geometryBuffer1"
	geometryBuffer2 = "geometryBuffer2"
	basePass        = "base"
)

// Camera mask bits of the geometry passes in the mill description.
const (
	maskPositions = 1
	maskWater     = 2
)

const (
	smokeCeiling = 6.0
	smokeRise    = 0.6
	waterLevel   = 0.15
)

// millScene holds the nodes the demo animates.
type millScene struct {
	root    scene.Node
	terrain scene.Node
	water   scene.Node
	smoke   []scene.Node
	chimney [3]float32

	smokeHidden bool
}

// smokeMask holds the camera bits of the geometry buffers the smoke never renders into.
var smokeMask = scene.MaskBit(maskPositions) | scene.MaskBit(maskWater)

// terrainHeight is a valley running along y with a basin around the water.
func terrainHeight(x, y float32) float32 {
	valley := math32.Abs(x) * 0.18
	hills := 0.35*math32.Sin(x*0.7)*math32.Cos(y*0.5) + 0.2*math32.Sin(y*1.3+x*0.4)
	return max(valley+hills, -0.4)
}

func terrainColor(_, _, z float32) [4]float32 {
	t := min(max((z+0.4)/2.0, 0), 1)
	return [4]float32{0.22 + 0.25*t, 0.36 + 0.18*t, 0.16 + 0.1*t, 1}
}

// buildMill creates the procedural mill scene under root: terrain, a water plane tagged for the
// water geometry buffer and the base pass, a mill house with a chimney, and smoke puffs tagged for
// the smoke buffer and hidden from the position and water buffers.
//
// Parameters:
//   - root: the renderer's scene root
//   - smokeCount: the number of smoke puffs
//   - seed: seeds the puff placement
//
// Returns:
//   - *millScene: the created nodes
func buildMill(root scene.Node, smokeCount int, seed uint64) *millScene {
	m := &millScene{root: root}

	m.terrain = scene.NewNode("terrain",
		scene.WithMesh(scene.NewTerrainMesh(24, 48, terrainHeight, terrainColor)),
		scene.WithParent(root),
	)

	m.water = scene.NewNode("water",
		scene.WithMesh(scene.NewPlaneMesh(4, 20, [4]float32{0.12, 0.3, 0.42, 1})),
		scene.WithParent(root),
		scene.WithPosition(0, 0, waterLevel),
		scene.WithTag(geometryBuffer1, "isWater"),
		scene.WithTag(basePass, "isWater"),
	)

	house := scene.NewNode("house",
		scene.WithMesh(scene.NewBoxMesh(2, 2.4, 1.6, [4]float32{0.62, 0.5, 0.38, 1})),
		scene.WithParent(root),
		scene.WithPosition(3.2, 1, 1.1),
	)
	scene.NewNode("roof",
		scene.WithMesh(scene.NewBoxMesh(2.3, 2.7, 0.3, [4]float32{0.45, 0.2, 0.16, 1})),
		scene.WithParent(house),
		scene.WithPosition(0, 0, 0.95),
	)
	scene.NewNode("wheel",
		scene.WithMesh(scene.NewBoxMesh(0.25, 1.8, 1.8, [4]float32{0.35, 0.26, 0.18, 1})),
		scene.WithParent(house),
		scene.WithPosition(-1.3, 0, -0.2),
	)
	scene.NewNode("chimney",
		scene.WithMesh(scene.NewBoxMesh(0.35, 0.35, 0.9, [4]float32{0.4, 0.38, 0.36, 1})),
		scene.WithParent(house),
		scene.WithPosition(0.5, 0.6, 1.3),
	)
	m.chimney = [3]float32{3.7, 1.6, 3.0}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for range smokeCount {
		size := 0.3 + 0.3*rng.Float32()
		z := m.chimney[2] + rng.Float32()*(smokeCeiling-m.chimney[2])
		puff := scene.NewNode("smoke",
			scene.WithMesh(scene.NewBoxMesh(size, size, size, [4]float32{0.85, 0.85, 0.88, 1})),
			scene.WithParent(root),
			scene.WithPosition(m.chimney[0]+(rng.Float32()-0.5)*0.4, m.chimney[1]+(rng.Float32()-0.5)*0.4, z),
			scene.WithTag(geometryBuffer2, "isSmoke"),
			scene.WithTag(basePass, "isParticle"),
			scene.WithHidden(smokeMask),
		)
		m.smoke = append(m.smoke, puff)
	}
	return m
}

// animate lifts the smoke puffs and drifts them with the wind, returning each puff to the chimney
// once it passes the ceiling.
//
// Parameters:
//   - dt: elapsed seconds
func (m *millScene) animate(dt float32) {
	for i, puff := range m.smoke {
		p := puff.Position()
		p[2] += smokeRise * dt
		p[0] += 0.15 * dt * (1 + 0.1*float32(i%3))
		if p[2] > smokeCeiling {
			p = m.chimney
		}
		puff.SetPosition(p[0], p[1], p[2])
	}
}

// toggleSmoke hides the smoke from every camera or shows it again to the ones it renders for.
//
// Returns:
//   - bool: true when the smoke is visible afterwards
func (m *millScene) toggleSmoke() bool {
	m.smokeHidden = !m.smokeHidden
	cameras := scene.AllCameras &^ smokeMask
	for _, puff := range m.smoke {
		if m.smokeHidden {
			puff.Hide(cameras)
		} else {
			puff.Show(cameras)
		}
	}
	return !m.smokeHidden
}
