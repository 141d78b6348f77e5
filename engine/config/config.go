// Package config reads pipeline descriptions and assembles them into render passes.
//
// A description lists render target templates, passes and their inputs in TOML or YAML. Every pass
// names an effect from the catalog (or a WGSL file), the target it renders into, its inputs and the
// formula its order key is derived from. Assemble turns a description into bound passes on a
// renderer.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jinzhu/copier"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed assets/*.toml
var assets embed.FS

// VersionConstraint is the range of description format versions this package reads.
const VersionConstraint = "^1.0.0"

var (
	// ErrUnsupportedVersion is returned when format_version is missing or outside VersionConstraint.
	ErrUnsupportedVersion = errors.New("unsupported description format version")
	// ErrUnsupportedFormat is returned for description files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported description file format")
	// ErrUnknownTemplate is returned when a target extends a template that does not exist.
	ErrUnknownTemplate = errors.New("unknown target template")
	// ErrUnknownPass is returned when a pass, order formula, present or viewer entry names a pass
	// the description does not define.
	ErrUnknownPass = errors.New("unknown pass")
	// ErrDuplicatePass is returned when two passes share a name.
	ErrDuplicatePass = errors.New("duplicate pass")
	// ErrUnknownPixelFormat is returned for a target format name that is not recognized.
	ErrUnknownPixelFormat = errors.New("unknown pixel format")
	// ErrInvalidOrder is returned for order formulas that mix forms or form a cycle.
	ErrInvalidOrder = errors.New("invalid order formula")
	// ErrInvalidInput is returned for input values that cannot be converted to a shader input.
	ErrInvalidInput = errors.New("invalid input value")
)

// Description is a complete pipeline description.
type Description struct {
	FormatVersion string `toml:"format_version" yaml:"format_version"`
	Name          string `toml:"name" yaml:"name"`

	Camera CameraSpec `toml:"camera" yaml:"camera"`

	// Globals are pushed to every pass whose program declares an input of that name.
	Globals map[string]any `toml:"globals" yaml:"globals"`

	Templates map[string]TargetSpec `toml:"templates" yaml:"templates"`
	Passes    []PassSpec            `toml:"passes" yaml:"passes"`

	Present PresentSpec   `toml:"present" yaml:"present"`
	Viewer  []ViewerEntry `toml:"viewer" yaml:"viewer"`
}

// CameraSpec is the initial placement of the main camera as an orbit around LookAt. Angles and the
// field of view are in degrees.
type CameraSpec struct {
	Phi    float32    `toml:"phi" yaml:"phi"`
	Theta  float32    `toml:"theta" yaml:"theta"`
	Radius float32    `toml:"radius" yaml:"radius"`
	LookAt [3]float32 `toml:"look_at" yaml:"look_at"`
	Fov    float32    `toml:"fov" yaml:"fov"`
	Near   float32    `toml:"near" yaml:"near"`
	Far    float32    `toml:"far" yaml:"far"`
}

// TargetSpec describes a render target. Pointer fields left nil inherit from the template named
// by Extends.
type TargetSpec struct {
	Extends       string      `toml:"extends" yaml:"extends"`
	Format        *string     `toml:"format" yaml:"format"`
	Aux           *int        `toml:"aux" yaml:"aux"`
	UsesFullScene *bool       `toml:"uses_full_scene" yaml:"uses_full_scene"`
	Clears        []ClearSpec `toml:"clears" yaml:"clears"`
}

// ClearSpec is the clear behavior of one attachment. A nil Enabled clears.
type ClearSpec struct {
	Enabled *bool      `toml:"enabled" yaml:"enabled"`
	Color   [4]float32 `toml:"color" yaml:"color"`
}

// OrderSpec is the order key formula of a pass. Exactly one form may be used:
//
//	{ key = N }                         fixed key
//	{ after = "pass", offset = K }      key of pass plus K (default 1), raised to Min when set
//	{ auto = true }                     placed by topological sort of the texture graph
//
// An empty formula follows the preceding pass with offset 1.
type OrderSpec struct {
	Key    *int   `toml:"key" yaml:"key"`
	After  string `toml:"after" yaml:"after"`
	Offset *int   `toml:"offset" yaml:"offset"`
	Min    *int   `toml:"min" yaml:"min"`
	Auto   bool   `toml:"auto" yaml:"auto"`
}

// PassSpec describes one pass and the target it renders into. The target takes the pass name.
type PassSpec struct {
	Name string `toml:"name" yaml:"name"`

	// Effect names a catalog effect. Fragment, when set, is a WGSL file used instead; its kernel
	// annotation must name a registered kernel.
	Effect   string `toml:"effect" yaml:"effect"`
	Fragment string `toml:"fragment" yaml:"fragment"`

	Target TargetSpec `toml:"target" yaml:"target"`
	Order  OrderSpec  `toml:"order" yaml:"order"`

	// Mask lists camera mask bits; nodes hidden from any of them are skipped by this pass.
	Mask []int `toml:"mask" yaml:"mask"`
	// After lists passes this pass runs after without reading their textures.
	After []string `toml:"after" yaml:"after"`

	Inputs map[string]any `toml:"inputs" yaml:"inputs"`
	// Tags maps a tag name to the inputs overriding the pass defaults for nodes carrying it.
	Tags map[string]map[string]any `toml:"tags" yaml:"tags"`
}

// PresentSpec names the attachment shown on the display.
type PresentSpec struct {
	Pass string `toml:"pass" yaml:"pass"`
	Slot int    `toml:"slot" yaml:"slot"`
}

// ViewerEntry is one attachment the buffer viewer cycles through.
type ViewerEntry struct {
	Name string `toml:"name" yaml:"name"`
	Pass string `toml:"pass" yaml:"pass"`
	Slot int    `toml:"slot" yaml:"slot"`
}

// Default returns the embedded description of the mill demonstration pipeline.
//
// Returns:
//   - *Description: the parsed description
//   - error: decode or validation errors
func Default() (*Description, error) {
	data, err := assets.ReadFile("assets/mill.toml")
	if err != nil {
		return nil, err
	}
	return Decode(".toml", data)
}

// Load reads a description from a TOML (.toml) or YAML (.yaml, .yml) file. A leading ~ in the
// path is expanded to the home directory.
//
// Parameters:
//   - path: the description file
//
// Returns:
//   - *Description: the parsed and validated description
//   - error: read, decode or validation errors
func Load(path string) (*Description, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("description %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("description: %w", err)
	}
	desc, err := Decode(filepath.Ext(expanded), data)
	if err != nil {
		return nil, fmt.Errorf("description %s: %w", path, err)
	}
	return desc, nil
}

// Decode parses a description encoded in the format named by a file extension, resolves target
// templates and validates it.
//
// Parameters:
//   - ext: ".toml", ".yaml" or ".yml"
//   - data: the encoded description
//
// Returns:
//   - *Description: the description with every target template resolved
//   - error: decode errors, ErrUnsupportedFormat, or validation errors
func Decode(ext string, data []byte) (*Description, error) {
	var desc Description
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &desc); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := desc.resolveTemplates(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Validate checks the format version, pass names and every cross reference between passes.
//
// Returns:
//   - error: the joined validation errors, or nil
func (d *Description) Validate() error {
	if err := CheckVersion(d.FormatVersion); err != nil {
		return err
	}

	var errs []error
	names := make(map[string]struct{}, len(d.Passes))
	for i, p := range d.Passes {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("pass %d: missing name", i))
			continue
		}
		if _, dup := names[p.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicatePass, p.Name))
		}
		names[p.Name] = struct{}{}
		if p.Effect == "" && p.Fragment == "" {
			errs = append(errs, fmt.Errorf("pass %q: no effect or fragment", p.Name))
		}
		if _, err := pixelFormat(p.Target.Format); err != nil {
			errs = append(errs, fmt.Errorf("pass %q: %w", p.Name, err))
		}
	}

	known := func(name string) bool {
		_, ok := names[name]
		return ok
	}
	for _, p := range d.Passes {
		if p.Order.After != "" && !known(p.Order.After) {
			errs = append(errs, fmt.Errorf("pass %q order: %w: %q", p.Name, ErrUnknownPass, p.Order.After))
		}
		for _, a := range p.After {
			if !known(a) {
				errs = append(errs, fmt.Errorf("pass %q after: %w: %q", p.Name, ErrUnknownPass, a))
			}
		}
	}
	if d.Present.Pass != "" && !known(d.Present.Pass) {
		errs = append(errs, fmt.Errorf("present: %w: %q", ErrUnknownPass, d.Present.Pass))
	}
	for _, v := range d.Viewer {
		if !known(v.Pass) {
			errs = append(errs, fmt.Errorf("viewer %q: %w: %q", v.Name, ErrUnknownPass, v.Pass))
		}
	}
	return errors.Join(errs...)
}

// Pass returns the spec of a pass by name.
func (d *Description) Pass(name string) (PassSpec, bool) {
	for _, p := range d.Passes {
		if p.Name == name {
			return p, true
		}
	}
	return PassSpec{}, false
}

// CheckVersion reports whether a format version satisfies VersionConstraint.
//
// Parameters:
//   - version: the format_version value
//
// Returns:
//   - error: ErrUnsupportedVersion, or nil
func CheckVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: format_version is not set", ErrUnsupportedVersion)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, version, err)
	}
	c, err := semver.NewConstraint(VersionConstraint)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, v, VersionConstraint)
	}
	return nil
}

// resolveTemplates replaces every target that extends a template by the template deep-copied and
// overlaid with the target's own fields. Templates may extend other templates.
func (d *Description) resolveTemplates() error {
	resolved := make(map[string]TargetSpec, len(d.Templates))
	var resolve func(name string, chain []string) (TargetSpec, error)
	resolve = func(name string, chain []string) (TargetSpec, error) {
		if t, ok := resolved[name]; ok {
			return t, nil
		}
		for _, c := range chain {
			if c == name {
				return TargetSpec{}, fmt.Errorf("%w: template cycle %s -> %s", ErrUnknownTemplate, strings.Join(chain, " -> "), name)
			}
		}
		t, ok := d.Templates[name]
		if !ok {
			return TargetSpec{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
		}
		if t.Extends != "" {
			parent, err := resolve(t.Extends, append(chain, name))
			if err != nil {
				return TargetSpec{}, err
			}
			merged, err := overlay(parent, t)
			if err != nil {
				return TargetSpec{}, err
			}
			t = merged
		}
		resolved[name] = t
		return t, nil
	}

	for i := range d.Passes {
		spec := d.Passes[i].Target
		if spec.Extends == "" {
			continue
		}
		parent, err := resolve(spec.Extends, nil)
		if err != nil {
			return fmt.Errorf("pass %q: %w", d.Passes[i].Name, err)
		}
		merged, err := overlay(parent, spec)
		if err != nil {
			return fmt.Errorf("pass %q: %w", d.Passes[i].Name, err)
		}
		d.Passes[i].Target = merged
	}
	return nil
}

// overlay deep-copies base and copies the fields set in top over it.
func overlay(base, top TargetSpec) (TargetSpec, error) {
	var out TargetSpec
	if err := copier.CopyWithOption(&out, &base, copier.Option{DeepCopy: true}); err != nil {
		return TargetSpec{}, err
	}
	if err := copier.CopyWithOption(&out, &top, copier.Option{DeepCopy: true, IgnoreEmpty: true}); err != nil {
		return TargetSpec{}, err
	}
	out.Extends = ""
	return out, nil
}
