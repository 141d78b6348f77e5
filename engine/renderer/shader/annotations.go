// annotations.go defines the annotation types and parser for the Oxy WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that inject shared WGSL
// snippets and name the CPU kernel implementing a program on the software backend.
package shader

import (
	"fmt"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered WGSL snippet at the annotation site.
	//
	// Syntax: //@oxy:include <snippet>
	//
	// Example: //@oxy:include varyings
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeKernel names the kernel registered with a KernelRegistry that evaluates
	// the program's fragment stage on the software backend. The line is kept in the output.
	//
	// Syntax: //@oxy:kernel <name>
	//
	// Example: //@oxy:kernel gamma_correction
	AnnotationTypeKernel AnnotationType = "kernel"
)

// Annotation represents a single parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType
	Args []AnnotationArg
	// Line is the 1-based source line, used for error reporting.
	Line int
}

// AnnotationArg is a typed string argument of an annotation.
type AnnotationArg string

const (
	// AnnotationArgVertexInput is the VertexInput struct matching common.Vertex.
	AnnotationArgVertexInput AnnotationArg = "vertex_input"

	// AnnotationArgDraw is the Draw struct and its @group(2) binding.
	AnnotationArgDraw AnnotationArg = "draw"

	// AnnotationArgVaryings is the VertexOutput struct shared by both stages.
	AnnotationArgVaryings AnnotationArg = "varyings"

	// AnnotationArgSceneVertex is the complete scene vertex stage: vertex input, draw, varyings and vs_main.
	AnnotationArgSceneVertex AnnotationArg = "scene_vertex"

	// AnnotationArgPostProcess holds the helper functions shared by full-screen effect passes.
	AnnotationArgPostProcess AnnotationArg = "post_process"
)

// validIncludes lists the snippets accepted by @oxy:include.
var validIncludes = []AnnotationArg{
	AnnotationArgVertexInput,
	AnnotationArgDraw,
	AnnotationArgVaryings,
	AnnotationArgSceneVertex,
	AnnotationArgPostProcess,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validIncludes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown snippet %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	case AnnotationTypeKernel:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy kernel annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: AnnotationTypeKernel, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

// parseKernelAnnotation returns the argument of the first well-formed @oxy:kernel annotation in source.
func parseKernelAnnotation(source string) string {
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil || a == nil {
			continue
		}
		if a.Type == AnnotationTypeKernel {
			return string(a.Args[0])
		}
	}
	return ""
}
