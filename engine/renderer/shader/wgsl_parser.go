package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Bind group convention shared by every program.
const (
	// InputGroup holds the pass input uniform struct at InputBinding.
	InputGroup   = 0
	InputBinding = 0
	// TextureGroup holds one texture binding per texture input, named after the input.
	TextureGroup = 1
	// DrawGroup holds the per-draw transforms written by the backend.
	DrawGroup = 2
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex captures the @vertex function name and its parameter list
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\s+fn\s+(\w+)\s*\(([^)]*)\)`)

	// fragmentEntryRegex captures the @fragment function name and its return type
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\s+fn\s+(\w+)\s*\([^)]*\)\s*(?:->\s*([^{]+))?\{`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> inputs: Inputs;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// Reflect extracts a program's interface from its pre-processed WGSL sources.
// Both sources are scanned for bindings and structs; entry points are taken from their own stage.
//
// Parameters:
//   - vertexSource: the vertex stage WGSL
//   - fragmentSource: the fragment stage WGSL
//
// Returns:
//   - Reflection: the reflected interface
//   - error: an error if an entry point is missing or a declaration cannot be laid out
func Reflect(vertexSource, fragmentSource string) (Reflection, error) {
	var r Reflection

	vs := stripComments(vertexSource)
	fs := stripComments(fragmentSource)

	vm := vertexEntryRegex.FindStringSubmatch(vs)
	if vm == nil {
		return r, fmt.Errorf("vertex source has no @vertex entry point")
	}
	r.VertexEntry = vm[1]

	fm := fragmentEntryRegex.FindStringSubmatch(fs)
	if fm == nil {
		return r, fmt.Errorf("fragment source has no @fragment entry point")
	}
	r.FragmentEntry = fm[1]

	r.Kernel = parseKernelAnnotation(fragmentSource)
	if r.Kernel == "" {
		r.Kernel = parseKernelAnnotation(vertexSource)
	}

	structs := append(parseStructBlocks(vs), parseStructBlocks(fs)...)
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}
	layouts := computeStructSizes(structs)

	seen := make(map[[2]int]string)
	for _, src := range []string{vs, fs} {
		for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(src, -1) {
			b, err := parseBinding(match, layouts)
			if err != nil {
				return r, err
			}
			key := [2]int{b.Group, b.Binding}
			if prev, ok := seen[key]; ok {
				if prev != b.Name {
					return r, fmt.Errorf("@group(%d) @binding(%d) declared as both %q and %q", b.Group, b.Binding, prev, b.Name)
				}
				continue
			}
			seen[key] = b.Name
			r.Bindings = append(r.Bindings, b)
		}
	}
	sort.Slice(r.Bindings, func(i, j int) bool {
		if r.Bindings[i].Group != r.Bindings[j].Group {
			return r.Bindings[i].Group < r.Bindings[j].Group
		}
		return r.Bindings[i].Binding < r.Bindings[j].Binding
	})

	r.Textures = make(map[int]string)
	for _, b := range r.Bindings {
		switch {
		case b.Group == InputGroup && b.Binding == InputBinding:
			if b.Kind != BindingKindUniform {
				return r, fmt.Errorf("input binding %q must be var<uniform>", b.Name)
			}
			ps, ok := byName[b.Type]
			if !ok {
				return r, fmt.Errorf("input binding %q has unknown struct type %q", b.Name, b.Type)
			}
			fields, size, err := computeUniformFields(ps, layouts)
			if err != nil {
				return r, err
			}
			r.Uniforms, r.UniformSize = fields, size
		case b.Group == TextureGroup:
			if b.Kind != BindingKindTexture {
				return r, fmt.Errorf("binding %q in texture group must be a texture", b.Name)
			}
			r.Textures[b.Binding] = b.Name
		}
	}

	if params := strings.TrimSpace(vm[2]); params != "" {
		if typeName := paramStructType(params); typeName != "" {
			if ps, ok := byName[typeName]; ok && isVertexInputStruct(ps) {
				attrs, stride, err := buildVertexAttributes(ps)
				if err != nil {
					return r, err
				}
				r.VertexAttributes, r.VertexStride = attrs, stride
			}
		}
	}

	r.FragmentOutputs = countFragmentOutputs(strings.TrimSpace(fm[2]), byName)
	return r, nil
}

// parseBinding converts a bindGroupDeclRegex match into a Binding.
func parseBinding(match []string, layouts map[string]wgslTypeLayout) (Binding, error) {
	group, _ := strconv.Atoi(match[1])
	binding, _ := strconv.Atoi(match[2])
	b := Binding{
		Group:        group,
		Binding:      binding,
		AddressSpace: strings.TrimSpace(match[3]),
		Name:         strings.TrimSpace(match[4]),
		Type:         strings.TrimSpace(match[5]),
	}

	switch {
	case b.AddressSpace == "uniform":
		b.Kind = BindingKindUniform
	case strings.HasPrefix(b.AddressSpace, "storage"):
		b.Kind = BindingKindStorage
	case b.AddressSpace != "":
		return b, fmt.Errorf("binding %q: unsupported address space %q", b.Name, b.AddressSpace)
	case strings.HasPrefix(b.Type, "sampler"):
		b.Kind = BindingKindSampler
	case strings.HasPrefix(b.Type, "texture_"):
		b.Kind = BindingKindTexture
	default:
		return b, fmt.Errorf("binding %q: unsupported handle type %q", b.Name, b.Type)
	}

	if b.Kind == BindingKindUniform || b.Kind == BindingKindStorage {
		layout, ok := resolveTypeLayout(b.Type, layouts)
		if !ok {
			return b, fmt.Errorf("binding %q: cannot lay out type %q", b.Name, b.Type)
		}
		b.Size = layout.size
	}
	return b, nil
}

// paramStructType returns the type of the first parameter of an entry point when it is a
// plain struct reference, e.g. "in: VertexInput" -> "VertexInput".
func paramStructType(params string) string {
	first := splitAtTopLevelCommas(params)[0]
	_, typeName, ok := strings.Cut(first, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(typeName)
}

// countFragmentOutputs counts the @location outputs declared by a fragment return type.
func countFragmentOutputs(ret string, structs map[string]parsedStruct) int {
	if ret == "" {
		return 0
	}
	if locationRegex.MatchString(ret) {
		return 1
	}
	ps, ok := structs[strings.TrimSpace(ret)]
	if !ok {
		return 0
	}
	n := 0
	for _, f := range ps.fields {
		if f.location >= 0 {
			n++
		}
	}
	return n
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		field.isBuiltin = builtinRegex.MatchString(line)
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}
