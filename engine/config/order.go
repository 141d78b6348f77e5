package config

import (
	"fmt"
	"strings"
)

// orderKeys evaluates the order formula of every pass.
//
// Parameters:
//   - passes: the passes in description order
//
// Returns:
//   - map[string]int: pass name to order key
//   - bool: true when any pass asked for topological placement
//   - error: ErrInvalidOrder or ErrUnknownPass
func orderKeys(passes []PassSpec) (map[string]int, bool, error) {
	index := make(map[string]int, len(passes))
	for i, p := range passes {
		index[p.Name] = i
	}

	keys := make(map[string]int, len(passes))
	visiting := make(map[string]bool)
	auto := false

	var eval func(i int, chain []string) (int, error)
	eval = func(i int, chain []string) (int, error) {
		p := passes[i]
		if k, ok := keys[p.Name]; ok {
			return k, nil
		}
		if visiting[p.Name] {
			return 0, fmt.Errorf("%w: cycle %s -> %s", ErrInvalidOrder, strings.Join(chain, " -> "), p.Name)
		}
		visiting[p.Name] = true
		defer delete(visiting, p.Name)
		chain = append(chain, p.Name)

		o := p.Order
		forms := 0
		if o.Key != nil {
			forms++
		}
		if o.After != "" {
			forms++
		}
		if o.Auto {
			forms++
		}
		if forms > 1 {
			return 0, fmt.Errorf("pass %q: %w: key, after and auto are exclusive", p.Name, ErrInvalidOrder)
		}

		var key int
		switch {
		case o.Key != nil:
			key = *o.Key
		case o.After != "":
			j, ok := index[o.After]
			if !ok {
				return 0, fmt.Errorf("pass %q: %w: %q", p.Name, ErrUnknownPass, o.After)
			}
			pred, err := eval(j, chain)
			if err != nil {
				return 0, err
			}
			offset := 1
			if o.Offset != nil {
				offset = *o.Offset
			}
			key = pred + offset
		default:
			// auto and empty formulas follow the preceding pass
			if o.Auto {
				auto = true
			}
			if i == 0 {
				key = 1
				break
			}
			pred, err := eval(i-1, chain)
			if err != nil {
				return 0, err
			}
			key = pred + 1
		}
		if o.Min != nil && key < *o.Min {
			key = *o.Min
		}
		keys[p.Name] = key
		return key, nil
	}

	for i := range passes {
		if _, err := eval(i, nil); err != nil {
			return nil, false, err
		}
	}
	return keys, auto, nil
}
