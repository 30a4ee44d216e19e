package mcpserver

import (
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// args is a thin accessor over a tool call's arguments map, converting
// JSON-decoded values (float64 for any JSON number, []any for any JSON
// array) into the Go types the rest of the codebase expects, and raising
// ValidationError for missing required fields rather than panicking on a
// type assertion.
type args map[string]any

func (a args) str(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a args) requiredStr(name string) (string, error) {
	v := a.str(name)
	if v == "" {
		return "", store.NewValidationError(name, "required")
	}
	return v, nil
}

func (a args) strPtr(name string) *string {
	v, ok := a[name].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (a args) num(name string, def float64) float64 {
	v, ok := a[name].(float64)
	if !ok {
		return def
	}
	return v
}

// requiredNum distinguishes an omitted numeric argument from one explicitly
// set to its zero value (significance=0 is valid; a missing significance is
// not, spec §4.2).
func (a args) requiredNum(name string) (float64, error) {
	v, ok := a[name].(float64)
	if !ok {
		return 0, store.NewValidationError(name, "required")
	}
	return v, nil
}

func (a args) intVal(name string, def int) int {
	v, ok := a[name].(float64)
	if !ok {
		return def
	}
	return int(v)
}

func (a args) intPtr(name string) *int {
	v, ok := a[name].(float64)
	if !ok {
		return nil
	}
	iv := int(v)
	return &iv
}

func (a args) boolVal(name string) bool {
	v, _ := a[name].(bool)
	return v
}

func (a args) strSlice(name string) []string {
	raw, ok := a[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a args) objectVal(name string) map[string]any {
	v, _ := a[name].(map[string]any)
	return v
}
