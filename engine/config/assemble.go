package config

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/effect"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/render_target"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/temporal"
	"github.com/Carmen-Shannon/oxy-deferred/engine/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/toggle"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// assembler holds the state of one Assemble call.
type assembler struct {
	renderer renderer.Renderer
	desc     *Description

	loader  loader.Loader
	seed    uint64
	toggles toggle.Set

	rng     *rand.Rand
	targets map[string]render_target.RenderTarget
	samples *shader.Input
	noise   texture.Texture
}

// Pipeline is an assembled description: the bound passes, the presented attachment and the buffer
// viewer over the pipeline's attachments.
type Pipeline struct {
	Name   string
	Camera CameraSpec

	renderer    renderer.Renderer
	passes      []pipeline.Pass
	byName      map[string]pipeline.Pass
	tags        map[string][]string
	present     pipeline.Pass
	presentSlot int
	viewer      *renderer.BufferViewer
}

// Assemble creates a render target and a bound pass for every pass of the description, adds them
// to the renderer and presents the description's output.
//
// Catalog effects are compiled with renderer.SceneVertexSource; on the software backend their
// kernels are registered first. Globals are pushed to every pass whose program declares them.
// Passes whose programs declare a "<toggle>Enabled" input watch that toggle, and passes declaring
// a temporal matrix receive temporal broadcasts. Loader textures are fetched concurrently before
// any pass is bound.
//
// Parameters:
//   - ctx: cancels texture loading
//   - r: the renderer to add passes to
//   - desc: the description
//   - options: functional options
//
// Returns:
//   - *Pipeline: the assembled pipeline
//   - error: allocation, compile, loading, input or ordering errors
func Assemble(ctx context.Context, r renderer.Renderer, desc *Description, options ...AssembleOption) (*Pipeline, error) {
	a := &assembler{
		renderer: r,
		desc:     desc,
		seed:     1,
		targets:  make(map[string]render_target.RenderTarget),
	}
	for _, option := range options {
		option(a)
	}
	if a.loader == nil {
		a.loader = loader.NewLoader()
	}
	a.rng = effect.NewRand(a.seed)

	if k := r.Kernels(); k != nil {
		effect.RegisterAll(k)
	}

	keys, auto, err := orderKeys(desc.Passes)
	if err != nil {
		return nil, err
	}
	globals, err := parseInputs(desc.Globals)
	if err != nil {
		return nil, fmt.Errorf("globals: %w", err)
	}
	if err := a.prefetch(ctx, globals); err != nil {
		return nil, err
	}

	for _, spec := range desc.Passes {
		cfg, err := targetConfig(spec)
		if err != nil {
			return nil, err
		}
		rt, err := r.Targets().Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("pass %q: %w", spec.Name, err)
		}
		a.targets[spec.Name] = rt
	}

	p := &Pipeline{
		Name:     desc.Name,
		Camera:   desc.Camera,
		renderer: r,
		byName:   make(map[string]pipeline.Pass),
		tags:     make(map[string][]string),
	}
	for _, spec := range desc.Passes {
		pass, err := a.buildPass(spec, keys[spec.Name], globals)
		if err != nil {
			return nil, err
		}
		if err := r.AddPass(pass); err != nil {
			return nil, fmt.Errorf("pass %q: %w", spec.Name, err)
		}
		if err := a.resolveTags(spec, pass); err != nil {
			return nil, err
		}
		p.passes = append(p.passes, pass)
		p.byName[spec.Name] = pass
		for tag := range spec.Tags {
			p.tags[spec.Name] = append(p.tags[spec.Name], tag)
		}
		sort.Strings(p.tags[spec.Name])
	}

	if auto {
		if err := r.AssignOrderKeys(); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if desc.Present.Pass != "" {
		p.present = p.byName[desc.Present.Pass]
		p.presentSlot = desc.Present.Slot
		if err := p.Present(); err != nil {
			return nil, err
		}
	}
	p.viewer = renderer.NewBufferViewer(r, a.viewerEntries()...)

	if a.toggles != nil {
		a.toggles.Broadcast(p.ToggleReceivers()...)
	}
	common.Logger().Info("pipeline assembled", zap.String("name", desc.Name), zap.Int("passes", len(p.passes)), zap.Bool("auto_order", auto))
	return p, nil
}

// prefetch loads every loader texture the description references.
func (a *assembler) prefetch(ctx context.Context, globals map[string]inputSpec) error {
	var paths []string
	collect := func(specs map[string]inputSpec) {
		for _, s := range specs {
			if s.kind == inputAsset && !slices.Contains(paths, s.asset) {
				paths = append(paths, s.asset)
			}
		}
	}
	collect(globals)
	for _, spec := range a.desc.Passes {
		inputs, err := parseInputs(spec.Inputs)
		if err != nil {
			return fmt.Errorf("pass %q: %w", spec.Name, err)
		}
		collect(inputs)
		for tag, raw := range spec.Tags {
			inputs, err := parseInputs(raw)
			if err != nil {
				return fmt.Errorf("pass %q tag %q: %w", spec.Name, tag, err)
			}
			collect(inputs)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)
	if _, err := a.loader.LoadTextures(ctx, paths...); err != nil {
		return fmt.Errorf("load textures: %w", err)
	}
	return nil
}

// buildPass compiles the pass program and binds it with its resolved inputs.
func (a *assembler) buildPass(spec PassSpec, key int, globals map[string]inputSpec) (pipeline.Pass, error) {
	fragment, err := a.fragmentSource(spec)
	if err != nil {
		return nil, err
	}
	prog, err := a.renderer.Compiler().Compile(renderer.SceneVertexSource, fragment)
	if err != nil {
		return nil, fmt.Errorf("pass %q: %w", spec.Name, err)
	}

	declared := declaredInputs(prog.Reflection())
	var opts []pipeline.PassBuilderOption

	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}
	sort.Strings(globalNames)
	for _, name := range globalNames {
		if _, own := spec.Inputs[name]; own || !declared[name] {
			continue
		}
		in, err := a.resolve(globals[name])
		if err != nil {
			return nil, fmt.Errorf("pass %q global %q: %w", spec.Name, name, err)
		}
		opts = append(opts, pipeline.WithInput(name, in))
	}

	inputs, err := parseInputs(spec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("pass %q: %w", spec.Name, err)
	}
	for name, s := range inputs {
		in, err := a.resolve(s)
		if err != nil {
			return nil, fmt.Errorf("pass %q input %q: %w", spec.Name, name, err)
		}
		opts = append(opts, pipeline.WithInput(name, in))
	}
	if declared[InputLensProjection] {
		if _, own := spec.Inputs[InputLensProjection]; !own {
			opts = append(opts, pipeline.WithInput(InputLensProjection, shader.Mat4(a.renderer.Camera().ProjectionMatrix())))
		}
	}

	if toggles := watchedToggles(declared); len(toggles) > 0 {
		opts = append(opts, pipeline.WithToggles(toggles...))
	}
	if wantsTemporal(declared) {
		opts = append(opts, pipeline.WithTemporalInputs())
	}
	if len(spec.Mask) > 0 {
		var mask scene.CameraMask
		for _, bit := range spec.Mask {
			mask |= scene.MaskBit(bit)
		}
		opts = append(opts, pipeline.WithCameraMask(mask))
	}
	if len(spec.After) > 0 {
		opts = append(opts, pipeline.WithAfter(spec.After...))
	}

	pass := pipeline.NewPass(spec.Name, opts...)
	if err := pass.Bind(a.targets[spec.Name], prog, key); err != nil {
		return nil, fmt.Errorf("pass %q: %w", spec.Name, err)
	}
	return pass, nil
}

// resolveTags registers the tag overrides of a pass with the variant registry.
func (a *assembler) resolveTags(spec PassSpec, pass pipeline.Pass) error {
	for tag, raw := range spec.Tags {
		inputs, err := parseInputs(raw)
		if err != nil {
			return fmt.Errorf("pass %q tag %q: %w", spec.Name, tag, err)
		}
		resolved := make(map[string]shader.Input, len(inputs))
		for name, s := range inputs {
			in, err := a.resolve(s)
			if err != nil {
				return fmt.Errorf("pass %q tag %q input %q: %w", spec.Name, tag, name, err)
			}
			resolved[name] = in
		}
		a.renderer.Registry().ResolveTagState(pass.Name(), tag,
			material.NewMaterial(spec.Name+"/"+tag, material.WithInputs(resolved)))
	}
	return nil
}

func (a *assembler) fragmentSource(spec PassSpec) (string, error) {
	if spec.Fragment == "" {
		src, err := effect.Source(spec.Effect)
		if err != nil {
			return "", fmt.Errorf("pass %q: %w", spec.Name, err)
		}
		return src, nil
	}
	path, err := homedir.Expand(spec.Fragment)
	if err != nil {
		return "", fmt.Errorf("pass %q: %w", spec.Name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("pass %q: %w", spec.Name, err)
	}
	return string(data), nil
}

// resolve converts a decoded input to a shader input.
func (a *assembler) resolve(s inputSpec) (shader.Input, error) {
	switch s.kind {
	case inputNumbers:
		return numbersInput(s.numbers), nil
	case inputTarget:
		rt, ok := a.targets[s.target]
		if !ok {
			return shader.Input{}, fmt.Errorf("%w: %q", ErrUnknownPass, s.target)
		}
		if s.slot >= rt.AttachmentCount() {
			return shader.Input{}, fmt.Errorf("%w: %s has no attachment %d", ErrInvalidInput, s.target, s.slot)
		}
		return shader.Tex(rt.Texture(s.slot)), nil
	case inputAsset:
		tex, err := a.loader.LoadTexture(s.asset)
		if err != nil {
			return shader.Input{}, err
		}
		return shader.Tex(tex), nil
	case inputGenerated:
		switch s.generate {
		case GeneratedSSAOSamples:
			if a.samples == nil {
				in := effect.SSAOSamples(a.rng)
				a.samples = &in
			}
			return *a.samples, nil
		case GeneratedSSAONoise:
			if a.noise == nil {
				a.noise = effect.SSAONoise(a.rng)
			}
			return shader.Tex(a.noise), nil
		}
	}
	return shader.Input{}, ErrInvalidInput
}

// viewerEntries returns the description's viewer list, or every attachment of every pass.
func (a *assembler) viewerEntries() []renderer.BufferEntry {
	var entries []renderer.BufferEntry
	if len(a.desc.Viewer) > 0 {
		for _, v := range a.desc.Viewer {
			rt := a.targets[v.Pass]
			if rt == nil || v.Slot >= rt.AttachmentCount() {
				continue
			}
			entries = append(entries, renderer.BufferEntry{Name: v.Name, Target: rt, Slot: v.Slot})
		}
		return entries
	}
	for _, spec := range a.desc.Passes {
		rt := a.targets[spec.Name]
		for slot := range rt.AttachmentCount() {
			entries = append(entries, renderer.BufferEntry{
				Name:   fmt.Sprintf("%s#%d", spec.Name, slot),
				Target: rt,
				Slot:   slot,
			})
		}
	}
	return entries
}

// Passes returns the passes in description order.
func (p *Pipeline) Passes() []pipeline.Pass {
	return append([]pipeline.Pass(nil), p.passes...)
}

// Pass returns a pass by name, or nil.
func (p *Pipeline) Pass(name string) pipeline.Pass {
	return p.byName[name]
}

// Viewer returns the buffer viewer over the pipeline's attachments.
func (p *Pipeline) Viewer() *renderer.BufferViewer {
	return p.viewer
}

// Present shows the description's output attachment again, e.g. after the buffer viewer was used.
//
// Returns:
//   - error: the renderer's Present error
func (p *Pipeline) Present() error {
	if p.present == nil {
		return nil
	}
	return p.renderer.Present(p.present.Target(), p.presentSlot)
}

// ToggleReceivers returns the passes that watch at least one toggle.
func (p *Pipeline) ToggleReceivers() []toggle.Receiver {
	var out []toggle.Receiver
	for _, pass := range p.passes {
		if len(pass.WatchedToggles()) > 0 {
			out = append(out, pass)
		}
	}
	return out
}

// TemporalReceivers returns the passes that read temporal matrices.
func (p *Pipeline) TemporalReceivers() []temporal.Receiver {
	var out []temporal.Receiver
	for _, pass := range p.passes {
		if pass.WantsTemporal() {
			out = append(out, pass)
		}
	}
	return out
}

// Declaring returns the passes whose program declares the named input.
//
// Parameters:
//   - name: the input name, e.g. "frameTime"
//
// Returns:
//   - []pipeline.Pass: the passes, in description order
func (p *Pipeline) Declaring(name string) []pipeline.Pass {
	var out []pipeline.Pass
	for _, pass := range p.passes {
		if declaredInputs(pass.Program().Reflection())[name] {
			out = append(out, pass)
		}
	}
	return out
}

// TagScene mirrors the string tags of scene nodes into the variant registry: a node whose tag under
// a pass name equals one of that pass's tag states is tagged for the pass. Nodes loaded from
// assets carry such tags from their extras.
//
// Parameters:
//   - root: the subtree to walk
//
// Returns:
//   - int: the number of tag assignments made
func (p *Pipeline) TagScene(root scene.Node) int {
	if root == nil {
		return 0
	}
	count := 0
	reg := p.renderer.Registry()
	root.Walk(func(n scene.Node) bool {
		for passName, tags := range p.tags {
			value, ok := n.Tag(passName)
			if !ok || !slices.Contains(tags, value) {
				continue
			}
			reg.Tag(n, passName, value)
			count++
		}
		return true
	})
	return count
}

// ApplyCamera places a camera on the orbit described by spec and attaches an orbit controller
// with z up. A zero radius leaves the camera untouched.
//
// Parameters:
//   - cam: the camera
//   - spec: the orbit
func ApplyCamera(cam camera.Camera, spec CameraSpec) {
	if spec.Radius <= 0 {
		return
	}
	if spec.Fov > 0 {
		cam.SetFov(common.Radians(spec.Fov))
	}
	if spec.Far > spec.Near && spec.Near > 0 {
		cam.SetNearFar(spec.Near, spec.Far)
	}
	ctrl := camera.NewOrbitController(
		camera.WithRadius(spec.Radius),
		camera.WithPhi(spec.Phi),
		camera.WithTheta(spec.Theta),
		camera.WithTarget(spec.LookAt[0], spec.LookAt[1], spec.LookAt[2]),
		camera.WithRadiusBounds(1, spec.Radius*4),
	)
	cam.SetController(ctrl)
	cam.Update()
}

// InputLensProjection is the name of the input carrying the main camera's projection matrix.
const InputLensProjection = "lensProjection"

// InputFrameTime is the name of the input carrying the seconds since the first frame.
const InputFrameTime = "frameTime"

// declaredInputs returns the uniform and texture names a program declares.
func declaredInputs(r shader.Reflection) map[string]bool {
	out := make(map[string]bool, len(r.Uniforms)+len(r.Textures))
	for _, u := range r.Uniforms {
		out[u.Name] = true
	}
	for _, t := range r.Textures {
		out[t] = true
	}
	return out
}

func watchedToggles(declared map[string]bool) []string {
	var out []string
	for name := range toggle.Defaults() {
		if declared[toggle.InputName(name)] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func wantsTemporal(declared map[string]bool) bool {
	for _, name := range []string{
		temporal.InputViewWorld, temporal.InputPreviousViewWorld,
		temporal.InputWorldView, temporal.InputPreviousWorldView,
	} {
		if declared[name] {
			return true
		}
	}
	return false
}

func numbersInput(n []float32) shader.Input {
	switch len(n) {
	case 1:
		return shader.Float(n[0])
	case 2:
		return shader.Vec2(n[0], n[1])
	case 3:
		return shader.Vec3(n[0], n[1], n[2])
	case 4:
		return shader.Vec4(n[0], n[1], n[2], n[3])
	case 16:
		var m [16]float32
		copy(m[:], n)
		return shader.Mat4(m)
	}
	return shader.FloatArray(n...)
}

// targetConfig converts a resolved target spec.
func targetConfig(spec PassSpec) (render_target.Config, error) {
	format, err := pixelFormat(spec.Target.Format)
	if err != nil {
		return render_target.Config{}, fmt.Errorf("pass %q: %w", spec.Name, err)
	}
	cfg := render_target.Config{Name: spec.Name, Format: format}
	if spec.Target.Aux != nil {
		cfg.AuxCount = *spec.Target.Aux
	}
	if spec.Target.UsesFullScene != nil {
		cfg.UsesFullScene = *spec.Target.UsesFullScene
	}
	for _, c := range spec.Target.Clears {
		enabled := c.Enabled == nil || *c.Enabled
		cfg.Clears = append(cfg.Clears, render_target.Clear{Enabled: enabled, Color: c.Color})
	}
	return cfg, nil
}

// pixelFormat maps a format name to a pixel format. Nil selects RGBA8.
func pixelFormat(name *string) (texture.PixelFormat, error) {
	if name == nil {
		return texture.RGBA8(), nil
	}
	switch strings.ToLower(*name) {
	case "rgba8", "":
		return texture.RGBA8(), nil
	case "rgba16f":
		return texture.RGBA16F(), nil
	case "rgba32f":
		return texture.RGBA32F(), nil
	case "srgba8":
		return texture.SRGBA8(), nil
	}
	return texture.PixelFormat{}, fmt.Errorf("%w: %q", ErrUnknownPixelFormat, *name)
}
