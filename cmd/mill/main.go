// Command mill renders the mill demo through the deferred pipeline, either in a window on the
// wgpu backend or headless on the software backend writing a PNG snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"go.uber.org/zap"
)

// options holds the parsed command line.
type options struct {
	config  string
	toggles string
	model   string
	backend string
	frames  int
	out     string
	width   int
	height  int
	smoke   int
	seed    uint64
	verbose bool
	profile bool
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("mill", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "pipeline description file (.toml, .yaml); empty uses the built-in mill pipeline")
	fs.StringVar(&o.toggles, "toggles", "", "toggle file (.toml, .yaml), reloaded on change")
	fs.StringVar(&o.model, "model", "", "glTF model added to the scene")
	fs.StringVar(&o.backend, "backend", "wgpu", "renderer backend: software or wgpu")
	fs.IntVar(&o.frames, "frames", 0, "render this many frames headless on the software backend, then exit")
	fs.StringVar(&o.out, "out", "mill.png", "snapshot written after headless frames")
	fs.IntVar(&o.width, "width", 1280, "framebuffer width")
	fs.IntVar(&o.height, "height", 720, "framebuffer height")
	fs.IntVar(&o.smoke, "smoke", 24, "number of smoke puffs")
	fs.Uint64Var(&o.seed, "seed", 1, "seed for procedural inputs")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.BoolVar(&o.profile, "profile", false, "log frame statistics")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.backend != "software" && o.backend != "wgpu" {
		return o, fmt.Errorf("unknown backend %q", o.backend)
	}
	if o.frames > 0 {
		o.backend = "software"
	}
	if o.width <= 0 || o.height <= 0 {
		return o, fmt.Errorf("invalid size %dx%d", o.width, o.height)
	}
	return o, nil
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := common.NewLogger(o.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	common.SetLogger(logger)

	if err := run(o); err != nil {
		common.Logger().Error("mill", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(o options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	desc, err := loadDescription(o.config)
	if err != nil {
		return err
	}

	var win window.Window
	cam := camera.NewCamera(camera.WithName("main"))
	rendererOpts := []renderer.RendererBuilderOption{renderer.WithCamera(cam)}
	backend := renderer.BackendTypeSoftware
	if o.backend == "wgpu" {
		backend = renderer.BackendTypeWGPU
		win = window.NewWindow(window.WithTitle("oxy-deferred: mill"), window.WithSize(o.width, o.height))
		rendererOpts = append(rendererOpts, renderer.WithPresentMode(renderer.PresentModeVSync))
	} else {
		rendererOpts = append(rendererOpts, renderer.WithSize(o.width, o.height))
	}
	r := renderer.NewRenderer(backend, win, rendererOpts...)
	defer r.Release()

	config.ApplyCamera(cam, desc.Camera)
	mill := buildMill(r.SceneRoot(), o.smoke, o.seed)

	ld := loader.NewLoader()
	if o.model != "" {
		model, err := ld.LoadModel(o.model)
		if err != nil {
			return err
		}
		model.ReparentTo(mill.root)
	}

	toggles := toggle.NewSet()

	p, err := config.Assemble(ctx, r, desc,
		config.WithLoader(ld),
		config.WithSeed(o.seed),
		config.WithToggleSet(toggles),
	)
	if err != nil {
		return err
	}
	tagged := p.TagScene(r.SceneRoot())
	common.Logger().Info("scene tagged", zap.Int("nodes", tagged), zap.Int("smoke", len(mill.smoke)))

	sky := light.NewSky()
	sky.Push(lightReceivers(p))

	eng := engine.NewEngine(
		engine.WithRenderer(r),
		engine.WithPipeline(p),
		engine.WithToggles(toggles),
		engine.WithWindow(win),
		engine.WithProfiling(o.profile),
		engine.WithTickRate(60),
	)

	if o.toggles != "" {
		w, err := toggle.NewWatcher(toggles, o.toggles, toggle.WithOnLoad(func(err error) {
			if err != nil {
				common.Logger().Warn("toggle reload", zap.String("path", o.toggles), zap.Error(err))
			}
		}))
		if err != nil {
			return err
		}
		defer w.Close()
		// the initial load is queued and applied by the first frame
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	if win == nil {
		return runHeadless(ctx, eng, mill, sky, p, o)
	}
	return runWindowed(ctx, eng, mill, sky, p, win)
}

// lightReceivers returns the passes reading a light input as sky receivers.
func lightReceivers(p *config.Pipeline) func(name string) []light.Receiver {
	return func(name string) []light.Receiver {
		passes := p.Declaring(name)
		out := make([]light.Receiver, 0, len(passes))
		for _, pass := range passes {
			out = append(out, pass)
		}
		return out
	}
}

// loadDescription reads the description file, or the built-in mill description when path is empty.
func loadDescription(path string) (*config.Description, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// runHeadless renders the requested frames, advancing the smoke and the sky by a fixed step, and
// writes the presented image.
func runHeadless(ctx context.Context, eng engine.Engine, mill *millScene, sky *light.Sky, p *config.Pipeline, o options) error {
	const step = 1.0 / 30
	receivers := lightReceivers(p)
	for range o.frames {
		mill.animate(step)
		if sky.Advance(step) {
			sky.Push(receivers)
		}
		if err := eng.Frame(ctx); err != nil {
			return err
		}
	}
	if err := eng.Renderer().SaveSnapshot(o.out); err != nil {
		return err
	}
	common.Logger().Info("snapshot written", zap.String("path", o.out), zap.Int("frames", o.frames))
	return nil
}

func runWindowed(ctx context.Context, eng engine.Engine, mill *millScene, sky *light.Sky, p *config.Pipeline, win window.Window) error {
	ctrl := newControls(eng.Toggles(), p.Viewer(), p.Present, p.Declaring(inputFocusPoint), eng.Renderer().Camera(),
		func() (int, int) { return win.Width(), win.Height() }, sky, mill.toggleSmoke)
	ctrl.attach(win, eng.Enqueue)

	receivers := lightReceivers(p)
	// ticks run between frames on the render goroutine
	eng.SetTickCallback(func(dt float32) {
		ctrl.tick(dt)
		mill.animate(dt)
		// also covers jumps to midday or midnight while paused
		sky.Advance(dt)
		sky.Push(receivers)
	})
	eng.SetRenderCallback(func(_ float32) {
		if entry, ok := p.Viewer().Current(); ok && !p.Viewer().Hidden() {
			win.SetTitle("oxy-deferred: mill [" + entry.Name + "]")
		} else {
			win.SetTitle("oxy-deferred: mill")
		}
	})

	go func() {
		<-ctx.Done()
		eng.Quit()
	}()

	fmt.Println("mill: 0-9 and letters toggle effects, Tab shows buffers, arrows cycle them,")
	fmt.Println("      1/2 midday/midnight, / pauses the sun, 5 hides smoke,")
	fmt.Println("      left click sets focus, middle drag orbits, WASD/QE pan, scroll zooms")
	return eng.Run()
}
