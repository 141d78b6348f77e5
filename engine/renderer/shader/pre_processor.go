// pre_processor.go implements the Oxy WGSL pre-processor. It replaces @oxy:include
// annotations with shared WGSL snippets and keeps every other line untouched.
package shader

import (
	"fmt"
	"strings"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// snippets maps include arguments to their WGSL source.
	snippets map[AnnotationArg]string

	// declarations accumulates the non-include annotations found during a Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in raw WGSL source.
type PreProcessor interface {
	// Process replaces @oxy:include annotations with their snippet source. Other annotations
	// are kept in place and recorded in the declarations list, which is reset on every call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code
	//   - error: an error if any annotation is malformed
	Process(source string) (string, error)

	// Declarations returns the non-include annotations collected during the most recent call to Process.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the built-in snippets registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		snippets: map[AnnotationArg]string{
			AnnotationArgVertexInput: GPUVertexInputSource,
			AnnotationArgDraw:        GPUDrawSource,
			AnnotationArgVaryings:    GPUVaryingsSource,
			AnnotationArgPostProcess: GPUPostProcessSource,
			AnnotationArgSceneVertex: strings.Join([]string{
				GPUVertexInputSource,
				GPUDrawSource,
				GPUVaryingsSource,
				GPUSceneVertexSource,
			}, "\n"),
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			snippet, ok := p.snippets[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, snippet)
		default:
			out = append(out, line)
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
