package manifest

import "slices"

// Clone returns a deep copy of m. Nil lists and maps stay nil.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	out := *m
	out.Tags = slices.Clone(m.Tags)
	out.Permissions = slices.Clone(m.Permissions)
	out.Dependencies = slices.Clone(m.Dependencies)
	out.Screenshots = slices.Clone(m.Screenshots)
	if m.Author != nil {
		a := *m.Author
		out.Author = &a
	}
	if m.I18n != nil {
		i := *m.I18n
		out.I18n = &i
	}
	out.ConfigSchema = cloneMap(m.ConfigSchema)

	c := m.Components
	out.Components = Components{
		Agents:       slices.Clone(c.Agents),
		Skills:       slices.Clone(c.Skills),
		Workflows:    slices.Clone(c.Workflows),
		UIComponents: slices.Clone(c.UIComponents),
		Routes:       slices.Clone(c.Routes),
	}
	if c.MCPTools != nil {
		out.Components.MCPTools = make([]MCPToolComponent, len(c.MCPTools))
		for i, t := range c.MCPTools {
			t.InputSchema = cloneMap(t.InputSchema)
			out.Components.MCPTools[i] = t
		}
	}
	return &out
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		if val == nil {
			return val
		}
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
