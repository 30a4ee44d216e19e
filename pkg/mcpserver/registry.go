package mcpserver

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/identity"
)

// handlerFunc is the signature every registered tool's logic implements.
// tenant_id has already been injected into a by the time this runs (spec
// §4.6); principal carries the authenticated caller for tools that need
// to know who is asking (get_capsules' audience filter, the audit trail
// on feedback).
type handlerFunc func(ctx context.Context, principal identity.Principal, a args) (any, error)

// tool is one entry in the MCP tool registry (spec §4.6, §6.2): a name,
// a human-readable description, a JSON Schema the tools/list response
// advertises, and the handler tools/call invokes.
type tool struct {
	name        string
	description string
	inputSchema map[string]any
	handler     handlerFunc
}

func (d *Dispatcher) register(t tool) {
	d.tools[t.name] = t
}

// schema is a small literal-builder for the repetitive JSON Schema object
// every tool's inputSchema is (spec §6.2): {"type":"object","properties":
// {...},"required":[...]}.
func schema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func numProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func boolProp(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func arrProp(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

// registerTools populates the tool registry once at construction (28
// tools), grouped the way spec §4.6 groups them.
func (d *Dispatcher) registerTools() {
	d.registerSessionContinuityTools()
	d.registerNotesTools()
	d.registerCapsuleTools()
	d.registerFeedbackTools()
	d.registerGraphTools()
	d.registerRetrievalTools()
	d.registerObservabilityTools()
}
