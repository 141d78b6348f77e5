package shader

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
// Used to compute uniform field offsets and buffer binding sizes.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// BindingKind classifies a @group/@binding resource declaration.
type BindingKind int

const (
	// BindingKindUniform is a var<uniform> buffer.
	BindingKindUniform BindingKind = iota
	// BindingKindStorage is a var<storage> buffer.
	BindingKindStorage
	// BindingKindTexture is a sampled texture.
	BindingKindTexture
	// BindingKindSampler is a sampler or comparison sampler.
	BindingKindSampler
)

// Binding is a resource declaration reflected from WGSL source.
type Binding struct {
	Group        int
	Binding      int
	Name         string
	AddressSpace string
	Type         string
	Kind         BindingKind
	// Size is the minimum buffer size for buffer bindings, 0 otherwise.
	Size uint64
}

// UniformField is one member of the pass input uniform struct with its byte placement.
type UniformField struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// VertexAttribute is one @location member of the vertex input struct.
type VertexAttribute struct {
	Name     string
	Type     string
	Location int
	Offset   uint64
}

// Reflection is everything the compilers and backends need to know about a program's interface,
// extracted from its WGSL sources.
type Reflection struct {
	// VertexEntry and FragmentEntry are the names of the @vertex and @fragment functions.
	VertexEntry   string
	FragmentEntry string

	// Kernel is the name given by the "@oxy:kernel" annotation, empty if absent.
	Kernel string

	// Bindings lists every @group/@binding declaration of both stages, sorted by group then binding.
	Bindings []Binding

	// Uniforms lists the members of the struct bound at InputGroup/InputBinding, in declaration order.
	Uniforms    []UniformField
	UniformSize uint64

	// Textures lists the names of the textures in TextureGroup, indexed by binding.
	Textures map[int]string

	// VertexAttributes is the vertex input layout and VertexStride its total size.
	VertexAttributes []VertexAttribute
	VertexStride     uint64

	// FragmentOutputs is the number of @location outputs written by the fragment entry point.
	FragmentOutputs int
}

// Uniform returns the uniform field with the given name.
//
// Parameters:
//   - name: the field name
//
// Returns:
//   - UniformField: the field
//   - bool: true if the field exists
func (r Reflection) Uniform(name string) (UniformField, bool) {
	for _, f := range r.Uniforms {
		if f.Name == name {
			return f, true
		}
	}
	return UniformField{}, false
}

// TextureNames returns the names of every texture binding.
func (r Reflection) TextureNames() []string {
	out := make([]string, 0, len(r.Textures))
	for i := 0; len(out) < len(r.Textures); i++ {
		if name, ok := r.Textures[i]; ok {
			out = append(out, name)
		}
	}
	return out
}
