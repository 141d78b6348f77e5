package toggle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for toggle files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported toggle file format")

// ErrInvalidValue is returned for toggle file values that are neither booleans nor numbers.
var ErrInvalidValue = errors.New("toggle value is not a boolean or number")

// ReadFile reads a flat table of toggle values from a TOML (.toml) or YAML (.yaml, .yml) file.
// Values are booleans or numbers. A leading ~ in the path is expanded to the home directory.
//
// Parameters:
//   - path: the toggle file
//
// Returns:
//   - map[string]float32: toggle name to level
//   - error: read, decode or ErrUnsupportedFormat errors
func ReadFile(path string) (map[string]float32, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("toggle file %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("toggle file: %w", err)
	}
	values, err := Decode(filepath.Ext(expanded), data)
	if err != nil {
		return nil, fmt.Errorf("toggle file %s: %w", path, err)
	}
	return values, nil
}

// Decode parses toggle values encoded in the format named by a file extension. Booleans become
// the levels 0 and 1; numbers are taken as levels.
//
// Parameters:
//   - ext: ".toml", ".yaml" or ".yml"
//   - data: the encoded table
//
// Returns:
//   - map[string]float32: toggle name to level
//   - error: decode errors, ErrInvalidValue or ErrUnsupportedFormat
func Decode(ext string, data []byte) (map[string]float32, error) {
	raw := make(map[string]any)
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	values := make(map[string]float32, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case bool:
			values[name] = level(v)
		case int:
			values[name] = float32(v)
		case int64:
			values[name] = float32(v)
		case float64:
			values[name] = float32(v)
		default:
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidValue, name, v)
		}
	}
	return values, nil
}

// LoadFile reads a toggle file and queues its values on the set.
//
// Parameters:
//   - s: the toggle set
//   - path: the toggle file
//
// Returns:
//   - error: read errors, or joined ErrUnknownToggle errors for names the set does not know
func LoadFile(s Set, path string) error {
	values, err := ReadFile(path)
	if err != nil {
		return err
	}
	return s.Load(values)
}
