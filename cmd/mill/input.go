package main

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"go.uber.org/zap"
)

// inputFocusPoint is the depth of field and chromatic aberration input set by a left click.
const inputFocusPoint = "mouseFocusPoint"

// controls routes window input to the toggles, the buffer viewer, the focus point, the sky and the camera.
type controls struct {
	toggles toggle.Set
	keys    toggle.KeyMap
	viewer  *renderer.BufferViewer
	restore func() error
	focus   []pipeline.Pass
	cam     camera.Camera
	size    func() (width, height int)
	sky     *light.Sky
	smoke   func() bool

	mu       *sync.Mutex
	held     map[uint32]bool
	dragging bool
	lastX    int32
	lastY    int32
}

// newControls creates the input routing. restore presents the pipeline output again when the
// viewer is closed and smoke flips the smoke visibility.
func newControls(toggles toggle.Set, viewer *renderer.BufferViewer, restore func() error, focus []pipeline.Pass, cam camera.Camera,
	size func() (int, int), sky *light.Sky, smoke func() bool) *controls {
	return &controls{
		toggles: toggles,
		keys:    toggle.DefaultKeyMap(),
		viewer:  viewer,
		restore: restore,
		focus:   focus,
		cam:     cam,
		size:    size,
		sky:     sky,
		smoke:   smoke,
		mu:      &sync.Mutex{},
		held:    make(map[uint32]bool),
	}
}

// attach registers the callbacks on a window. Every handler runs through enqueue, so input
// lands between frames.
func (c *controls) attach(w window.Window, enqueue func(func())) {
	w.SetKeyDownCallback(func(key uint32) {
		enqueue(func() { c.keyDown(key) })
	})
	w.SetKeyUpCallback(func(key uint32) {
		enqueue(func() { c.hold(key, false) })
	})
	w.SetMouseDownCallback(func(button window.MouseButton, x, y int32) {
		enqueue(func() { c.mouseDown(button, x, y) })
	})
	w.SetMouseUpCallback(func(button window.MouseButton, x, y int32) {
		enqueue(func() { c.mouseUp(button, x, y) })
	})
	w.SetMouseMoveCallback(func(x, y int32) {
		enqueue(func() { c.mouseMove(x, y) })
	})
	w.SetScrollCallback(func(delta float32) {
		enqueue(func() {
			if ctrl := c.cam.Controller(); ctrl != nil {
				ctrl.Zoom(delta)
			}
		})
	})
}

// keyDown flips bound toggles, steps the buffer viewer with Tab and the arrow keys, and drives the
// sky with 1, 2 and /.
func (c *controls) keyDown(key uint32) {
	c.hold(key, true)

	switch key {
	case common.KeyTab:
		if c.viewer.Hidden() {
			c.report(c.viewer.Show())
		} else {
			c.viewer.Hide()
			c.report(c.restore())
		}
		return
	case common.KeyRight:
		c.report(c.viewer.Next())
		return
	case common.KeyLeft:
		c.report(c.viewer.Previous())
		return
	case common.Key1:
		c.sky.SetAngle(light.MiddayAngle)
		return
	case common.Key2:
		c.sky.SetAngle(light.MidnightAngle)
		return
	case common.KeySlash:
		common.Logger().Debug("sky animation", zap.Bool("enabled", c.sky.ToggleAnimation()))
		return
	case common.Key5:
		common.Logger().Debug("smoke", zap.Bool("visible", c.smoke()))
		return
	}

	name, err := c.keys.Handle(c.toggles, int(key))
	if err != nil {
		c.report(err)
		return
	}
	if name != "" {
		common.Logger().Debug("toggle queued", zap.String("toggle", name), zap.Uint32("key", key))
	}
}

func (c *controls) mouseDown(button window.MouseButton, x, y int32) {
	switch button {
	case window.MouseLeft:
		c.setFocus(x, y)
	case window.MouseMiddle:
		c.dragging = true
		c.lastX, c.lastY = x, y
	}
}

func (c *controls) mouseUp(button window.MouseButton, _, _ int32) {
	if button == window.MouseMiddle {
		c.dragging = false
	}
}

// mouseMove orbits the camera while the middle button is held.
func (c *controls) mouseMove(x, y int32) {
	if !c.dragging {
		return
	}
	if ctrl := c.cam.Controller(); ctrl != nil {
		ctrl.Rotate(float32(x-c.lastX), float32(y-c.lastY))
	}
	c.lastX, c.lastY = x, y
}

func (c *controls) hold(key uint32, down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held[key] = down
}

// tick pans the camera with WASD and QE.
func (c *controls) tick(_ float32) {
	ctrl := c.cam.Controller()
	if ctrl == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[common.KeyW] {
		ctrl.PanForward(1)
	}
	if c.held[common.KeyS] {
		ctrl.PanForward(-1)
	}
	if c.held[common.KeyA] {
		ctrl.PanRight(-1)
	}
	if c.held[common.KeyD] {
		ctrl.PanRight(1)
	}
	if c.held[common.KeyQ] {
		ctrl.PanUp(1)
	}
	if c.held[common.KeyE] {
		ctrl.PanUp(-1)
	}
}

// setFocus pushes the clicked point, in texture coordinates with v up, to every pass reading the focus.
func (c *controls) setFocus(x, y int32) {
	if len(c.focus) == 0 {
		return
	}
	u, v := focusPoint(x, y, c.size)
	for _, p := range c.focus {
		p.SetInput(inputFocusPoint, shader.Vec2(u, v))
	}
}

func focusPoint(x, y int32, size func() (int, int)) (float32, float32) {
	w, h := size()
	if w <= 0 || h <= 0 {
		return 0.5, 0.5
	}
	u := common.Clamp(float32(x)/float32(w), 0, 1)
	v := common.Clamp(1-float32(y)/float32(h), 0, 1)
	return u, v
}

func (c *controls) report(err error) {
	if err != nil {
		common.Logger().Warn("input", zap.Error(err))
	}
}
