package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw captured string into the slot's typed value.
func (a ArgSpec) Coerce(raw string) (interface{}, error) {
	switch a.Kind() {
	case TypeString:
		return raw, nil
	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case TypeEnum:
		for _, v := range a.Values {
			if v == raw {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %v", raw, a.Values)
	default:
		return nil, fmt.Errorf("unknown slot type %q", a.Type)
	}
}

// CoerceDefault converts a YAML-typed default value into the slot's typed
// value. YAML hands back native scalars (string, int, float), so this accepts
// a wider input set than Coerce.
func (a ArgSpec) CoerceDefault(v interface{}) (interface{}, error) {
	switch a.Kind() {
	case TypeString:
		return fmt.Sprint(v), nil
	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case uint64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("%v is not an integer", n)
			}
			return int(n), nil
		case string:
			return a.Coerce(n)
		default:
			return nil, fmt.Errorf("%v is not an integer", v)
		}
	case TypeEnum:
		return a.Coerce(fmt.Sprint(v))
	default:
		return nil, fmt.Errorf("unknown slot type %q", a.Type)
	}
}
