package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is the process-wide capability catalogue. It is populated once at
// startup and never mutated afterwards, so concurrent readers need no locks.
type Registry struct {
	caps map[ID]Descriptor
}

func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	caps := make(map[ID]Descriptor, len(descriptors))
	for _, desc := range descriptors {
		name := ID(strings.TrimSpace(string(desc.Name)))
		if name == "" {
			return nil, fmt.Errorf("capability name is required")
		}
		if _, exists := caps[name]; exists {
			return nil, fmt.Errorf("duplicate capability %q", name)
		}
		if desc.SiteParam != "" {
			if _, ok := desc.Parameters[desc.SiteParam]; !ok {
				return nil, fmt.Errorf("capability %q declares site param %q outside its schema", name, desc.SiteParam)
			}
		}
		desc.Name = name
		caps[name] = desc
	}
	return &Registry{caps: caps}, nil
}

func (r *Registry) Get(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	desc, ok := r.caps[ID(strings.TrimSpace(name))]
	return desc, ok
}

func (r *Registry) List() []Descriptor {
	if r == nil {
		return nil
	}
	result := make([]Descriptor, 0, len(r.caps))
	for _, desc := range r.caps {
		result = append(result, desc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.caps)
}

// Subset returns a registry restricted to the named capabilities. Unknown
// names are ignored; an empty name list returns the full registry.
func (r *Registry) Subset(names []string) *Registry {
	if r == nil || len(names) == 0 {
		return r
	}
	caps := make(map[ID]Descriptor, len(names))
	for _, name := range names {
		id := ID(strings.TrimSpace(name))
		if desc, ok := r.caps[id]; ok {
			caps[id] = desc
		}
	}
	return &Registry{caps: caps}
}

// Schemas renders the catalogue in the tool-definition shape model providers
// consume: name, description and a JSON-schema input object.
func (r *Registry) Schemas() []map[string]any {
	descs := r.List()
	schemas := make([]map[string]any, 0, len(descs))
	for _, desc := range descs {
		required := make([]string, 0)
		properties := make(map[string]any, len(desc.Parameters))
		for key, p := range desc.Parameters {
			prop := map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			if p.Minimum != nil {
				prop["minimum"] = *p.Minimum
			}
			if p.Maximum != nil {
				prop["maximum"] = *p.Maximum
			}
			if p.MaxLength > 0 {
				prop["maxLength"] = p.MaxLength
			}
			properties[key] = prop
			if p.Required {
				required = append(required, key)
			}
		}
		sort.Strings(required)
		schemas = append(schemas, map[string]any{
			"name":        string(desc.Name),
			"description": desc.Description,
			"input_schema": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return schemas
}
