package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// inputKind classifies a decoded input value.
type inputKind int

const (
	inputNumbers inputKind = iota
	inputTarget
	inputAsset
	inputGenerated
)

// Generated input names.
const (
	// GeneratedSSAOSamples is the hemisphere sample kernel of the ssao effect.
	GeneratedSSAOSamples = "ssao-samples"
	// GeneratedSSAONoise is the rotation noise texture of the ssao effect.
	GeneratedSSAONoise = "ssao-noise"
)

// inputSpec is one decoded input value. The forms accepted in a description are:
//
//	name = 0.5                                    float
//	name = [1, 2]                                 vec2, vec3, vec4 or mat4 by length; other lengths are float arrays
//	name = "pass" or "pass#1"                     attachment of a pass target, slot 0 by default
//	name = { target = "pass", slot = 1 }          same, explicit
//	name = { texture = "builtin:noise" }          texture from the loader
//	name = { generate = "ssao-samples" }          value generated at assembly
type inputSpec struct {
	kind     inputKind
	numbers  []float32
	target   string
	slot     int
	asset    string
	generate string
}

// parseInputs decodes a table of input values.
func parseInputs(raw map[string]any) (map[string]inputSpec, error) {
	out := make(map[string]inputSpec, len(raw))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec, err := parseInput(raw[name])
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		out[name] = spec
	}
	return out, nil
}

func parseInput(v any) (inputSpec, error) {
	if f, ok := number(v); ok {
		return inputSpec{kind: inputNumbers, numbers: []float32{f}}, nil
	}
	switch val := v.(type) {
	case string:
		return parseTargetRef(val)
	case []any:
		nums := make([]float32, len(val))
		for i, e := range val {
			f, ok := number(e)
			if !ok {
				return inputSpec{}, fmt.Errorf("%w: element %d is %T", ErrInvalidInput, i, e)
			}
			nums[i] = f
		}
		if len(nums) == 0 {
			return inputSpec{}, fmt.Errorf("%w: empty array", ErrInvalidInput)
		}
		return inputSpec{kind: inputNumbers, numbers: nums}, nil
	case map[string]any:
		return parseInputTable(val)
	}
	return inputSpec{}, fmt.Errorf("%w: %T", ErrInvalidInput, v)
}

func parseInputTable(t map[string]any) (inputSpec, error) {
	str := func(key string) (string, bool) {
		s, ok := t[key].(string)
		return s, ok && s != ""
	}
	switch {
	case t["target"] != nil:
		name, ok := str("target")
		if !ok {
			return inputSpec{}, fmt.Errorf("%w: target must be a pass name", ErrInvalidInput)
		}
		slot := 0
		if raw, present := t["slot"]; present {
			f, ok := number(raw)
			if !ok || f < 0 || f != float32(int(f)) {
				return inputSpec{}, fmt.Errorf("%w: slot must be a non-negative integer", ErrInvalidInput)
			}
			slot = int(f)
		}
		return inputSpec{kind: inputTarget, target: name, slot: slot}, nil
	case t["texture"] != nil:
		path, ok := str("texture")
		if !ok {
			return inputSpec{}, fmt.Errorf("%w: texture must be a path", ErrInvalidInput)
		}
		return inputSpec{kind: inputAsset, asset: path}, nil
	case t["generate"] != nil:
		name, _ := str("generate")
		switch name {
		case GeneratedSSAOSamples, GeneratedSSAONoise:
			return inputSpec{kind: inputGenerated, generate: name}, nil
		}
		return inputSpec{}, fmt.Errorf("%w: unknown generated input %q", ErrInvalidInput, name)
	}
	return inputSpec{}, fmt.Errorf("%w: table needs one of target, texture or generate", ErrInvalidInput)
}

// parseTargetRef reads "pass" or "pass#slot".
func parseTargetRef(s string) (inputSpec, error) {
	name, slotStr, hasSlot := strings.Cut(s, "#")
	if name == "" {
		return inputSpec{}, fmt.Errorf("%w: empty target reference", ErrInvalidInput)
	}
	slot := 0
	if hasSlot {
		n, err := strconv.Atoi(slotStr)
		if err != nil || n < 0 {
			return inputSpec{}, fmt.Errorf("%w: bad slot in %q", ErrInvalidInput, s)
		}
		slot = n
	}
	return inputSpec{kind: inputTarget, target: name, slot: slot}, nil
}

// number converts the numeric types produced by the TOML and YAML decoders.
func number(v any) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int64:
		return float32(n), true
	case int:
		return float32(n), true
	case uint64:
		return float32(n), true
	}
	return 0, false
}
