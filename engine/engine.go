package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/temporal"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"go.uber.org/zap"
)

var (
	// ErrNoRenderer is returned by Frame when the engine was built without a renderer.
	ErrNoRenderer = errors.New("engine has no renderer")
	// ErrNoWindow is returned by Run when the engine was built without a window.
	ErrNoWindow = errors.New("engine has no window")
)

// engine implements the Engine interface.
// Coordinates the tick goroutine, the render goroutine and the window message loop.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once
	err         error

	window   window.Window
	renderer renderer.Renderer
	pipeline *config.Pipeline
	toggles  toggle.Set
	temporal temporal.State

	// passes declaring the per-frame inputs, resolved once
	timePasses []pipeline.Pass
	lensPasses []pipeline.Pass
	broadcast  bool

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	// updates queued from other goroutines, run by the next frame before it renders
	queueMu *sync.Mutex
	queue   []func()

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration

	now   func() time.Time
	start time.Time
}

// Engine drives the deferred pipeline frame by frame.
//
// A frame runs the updates queued with Enqueue and the tick callbacks since the previous frame,
// applies the queued toggle changes, broadcasts toggles to the passes watching them, advances the temporal state with the main camera transform, pushes the
// frame time and lens projection, runs every pass in order key order and ticks the profiler.
type Engine interface {
	// Window returns the window, or nil when running headless.
	Window() window.Window

	// Renderer returns the renderer.
	Renderer() renderer.Renderer

	// Pipeline returns the assembled pipeline, or nil when passes were added by hand.
	Pipeline() *config.Pipeline

	// Toggles returns the feature toggle set owned by the frame driver.
	Toggles() toggle.Set

	// Temporal returns the temporal state advanced every frame.
	Temporal() temporal.State

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick, e.g. camera controls. Ticks are
	// queued and run by the render goroutine between frames, so the callback may move the camera,
	// the scene and pass inputs.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Enqueue queues fn to run before the next frame renders. Scene, camera and pass input
	// changes made from other goroutines go through it so that every pass of a frame sees the
	// same state.
	//
	// Parameters:
	//   - fn: the update
	Enqueue(fn func())

	// Frame renders one frame on the calling goroutine.
	//
	// Parameters:
	//   - ctx: checked before the frame starts
	//
	// Returns:
	//   - error: ErrNoRenderer, ordering violations or pass errors from the renderer
	Frame(ctx context.Context) error

	// RunFrames renders n frames headless on the calling goroutine.
	//
	// Parameters:
	//   - ctx: checked before every frame
	//   - n: the number of frames
	//
	// Returns:
	//   - error: the first frame error
	RunFrames(ctx context.Context, n int) error

	// Run starts the tick and render goroutines and runs the window message loop. Blocks until
	// the window closes or Quit is called.
	//
	// Returns:
	//   - error: ErrNoWindow, or the frame error that stopped the render goroutine
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine.
//
// When a pipeline is given, its toggle receivers are sent the initial toggle values on the
// first frame and its temporal receivers are subscribed to the temporal state.
//
// Parameters:
//   - options: functional options (renderer, pipeline, window, toggles, profiling, tick rate)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:               &sync.Mutex{},
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		profiler:         profiler.NewProfiler(),
		queueMu:          &sync.Mutex{},
		engineTickRate:   time.Second / 60,
		broadcast:        true,
		now:              time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.toggles == nil {
		e.toggles = toggle.NewSet()
	}
	if e.temporal == nil {
		e.temporal = temporal.NewState()
	}
	if e.pipeline != nil {
		for _, r := range e.pipeline.TemporalReceivers() {
			e.temporal.Subscribe(r)
		}
		e.timePasses = e.pipeline.Declaring(config.InputFrameTime)
		e.lensPasses = e.pipeline.Declaring(config.InputLensProjection)
	}

	if e.window != nil && e.renderer != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.mu.Lock()
			defer e.mu.Unlock()
			if err := e.renderer.Resize(width, height); err != nil {
				common.Logger().Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Pipeline() *config.Pipeline {
	return e.pipeline
}

func (e *engine) Toggles() toggle.Set {
	return e.toggles
}

func (e *engine) Temporal() temporal.State {
	return e.temporal
}

func (e *engine) Frame(ctx context.Context) error {
	if e.renderer == nil {
		return ErrNoRenderer
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.start.IsZero() {
		e.start = e.now()
	}

	e.drain()

	changed := e.toggles.Apply()
	if e.pipeline != nil && (e.broadcast || len(changed) > 0) {
		e.toggles.Broadcast(e.pipeline.ToggleReceivers()...)
		e.broadcast = false
	}

	cam := e.renderer.Camera()
	cam.Update()
	e.temporal.AdvanceFrame(cam.Transform())

	frameTime := shader.Float(float32(e.now().Sub(e.start).Seconds()))
	for _, p := range e.timePasses {
		p.SetInput(config.InputFrameTime, frameTime)
	}
	lens := shader.Mat4(cam.ProjectionMatrix())
	for _, p := range e.lensPasses {
		p.SetInput(config.InputLensProjection, lens)
	}

	if err := e.renderer.Run(ctx); err != nil {
		return fmt.Errorf("frame %d: %w", e.renderer.Frame(), err)
	}

	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick(e.renderer.Timings())
	}
	return nil
}

func (e *engine) Enqueue(fn func()) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	e.queue = append(e.queue, fn)
}

// drain runs the queued updates in order.
func (e *engine) drain() {
	e.queueMu.Lock()
	queue := e.queue
	e.queue = nil
	e.queueMu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

func (e *engine) RunFrames(ctx context.Context, n int) error {
	for range n {
		if err := e.Frame(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.running = true
	e.handle()
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	return e.err
}

// Quit signals all engine goroutines to stop and closes the window.
func (e *engine) Quit() {
	e.signalQuit()
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Logger().Debug("window close", zap.Error(err))
		}
	}
}

// signalQuit closes the quit channel once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the tick and render goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleTick()
	go e.handleRender()
}

// handleTick runs the fixed-rate tick loop. Listens for rate changes via tickRateChannel and
// exits when the quit channel is closed.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if cb := e.tickCallback; cb != nil {
				e.Enqueue(func() { cb(dt) })
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender renders frames until quit. A frame error or a panic stops the loop and the engine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.err = fmt.Errorf("render goroutine panic: %v", r)
			common.Logger().Error("render goroutine recovered from panic", zap.Any("panic", r))
			e.signalQuit()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-e.quitChannel:
			cancel()
		case <-ctx.Done():
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.Frame(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				e.err = err
				common.Logger().Error("frame failed", zap.Error(err))
			}
			e.signalQuit()
			return
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if e.renderFrameLimit > 0 {
			elapsed := time.Since(lastRender)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// replace a pending update rather than block
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
