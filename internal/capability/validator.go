package capability

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidationError reports why a capability invocation was rejected before
// execution. Violations lists every failed field in one pass so the model can
// correct all of them on its next attempt.
type ValidationError struct {
	Capability string
	Unknown    bool
	Violations []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Unknown {
		return fmt.Sprintf("unknown capability: %s", e.Capability)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Capability, strings.Join(e.Violations, "; "))
}

// Validate checks raw model-supplied arguments against the capability's
// declared schema. On success it returns a deep copy of the arguments;
// callers must use the copy for execution, never the raw input. Validate is a
// pure function of registry and input.
func Validate(reg *Registry, name string, raw map[string]any) (Args, error) {
	desc, ok := reg.Get(name)
	if !ok {
		return nil, &ValidationError{Capability: strings.TrimSpace(name), Unknown: true}
	}

	violations := make([]string, 0)
	for key, param := range desc.Parameters {
		value, present := raw[key]
		if !present || value == nil {
			if param.Required {
				violations = append(violations, fmt.Sprintf("%s is required", key))
			}
			continue
		}
		violations = append(violations, checkParam(key, param, value)...)
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		return nil, &ValidationError{Capability: string(desc.Name), Violations: violations}
	}

	args := make(Args, len(raw))
	for key, value := range raw {
		if _, declared := desc.Parameters[key]; !declared {
			continue
		}
		args[key] = copyValue(value)
	}
	return args, nil
}

func checkParam(key string, param Param, value any) []string {
	violations := make([]string, 0, 1)
	switch param.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("%s must be a string", key)}
		}
		if param.MaxLength > 0 && len(s) > param.MaxLength {
			violations = append(violations, fmt.Sprintf("%s exceeds max length %d", key, param.MaxLength))
		}
		if len(param.Enum) > 0 && !enumContains(param.Enum, s) {
			violations = append(violations, fmt.Sprintf("%s must be one of %s", key, strings.Join(param.Enum, ", ")))
		}
	case "number", "integer":
		n, ok := asFloat(value)
		if !ok {
			return []string{fmt.Sprintf("%s must be a number", key)}
		}
		if param.Type == "integer" && math.Trunc(n) != n {
			violations = append(violations, fmt.Sprintf("%s must be an integer", key))
		}
		if param.Minimum != nil && n < *param.Minimum {
			violations = append(violations, fmt.Sprintf("%s must be >= %v", key, *param.Minimum))
		}
		if param.Maximum != nil && n > *param.Maximum {
			violations = append(violations, fmt.Sprintf("%s must be <= %v", key, *param.Maximum))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return []string{fmt.Sprintf("%s must be a boolean", key)}
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return []string{fmt.Sprintf("%s must be an array", key)}
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return []string{fmt.Sprintf("%s must be an object", key)}
		}
	}
	return violations
}

func enumContains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
