package mcpserver

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// registerNotesTools wires create_knowledge_note, remember_note,
// get_knowledge_notes, and list_semantic_principles (spec §4.6 "Notes &
// principles").
func (d *Dispatcher) registerNotesTools() {
	d.register(tool{
		name:        "create_knowledge_note",
		description: "Record a durable, project-scoped knowledge note.",
		inputSchema: schema(map[string]any{
			"text":            strProp("note content"),
			"tags":            arrProp("free-form tags"),
			"project_path":    strProp("repository or project this note applies to"),
			"source_handoffs": arrProp("handoff ids this note distills"),
			"op_id":           strProp("client-generated idempotency key"),
		}, "text"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			n, err := d.memory.CreateKnowledgeNote(ctx, a.str("tenant_id"), memory.CreateKnowledgeNoteInput{
				Text:           a.str("text"),
				Tags:           a.strSlice("tags"),
				ProjectPath:    a.str("project_path"),
				SourceHandoffs: a.strSlice("source_handoffs"),
				OpID:           a.str("op_id"),
			})
			if err != nil {
				return nil, err
			}
			return n, nil
		},
	})

	d.register(tool{
		name:        "remember_note",
		description: "Record a lightweight, session-scoped note tied to with_whom rather than a project.",
		inputSchema: schema(map[string]any{
			"text":      strProp("note content"),
			"tags":      arrProp("free-form tags"),
			"with_whom": strProp("agent or human identifier"),
			"op_id":     strProp("client-generated idempotency key"),
		}, "text"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			n, err := d.memory.RememberNote(ctx, a.str("tenant_id"), memory.RememberNoteInput{
				Text:     a.str("text"),
				Tags:     a.strSlice("tags"),
				WithWhom: a.str("with_whom"),
				OpID:     a.str("op_id"),
			})
			if err != nil {
				return nil, err
			}
			return n, nil
		},
	})

	d.register(tool{
		name:        "get_knowledge_notes",
		description: "Page through knowledge notes, optionally filtered by project_path.",
		inputSchema: schema(map[string]any{
			"project_path": strProp("repository or project to filter by"),
			"limit":        numProp("page size, default 20, max 50"),
			"cursor":       strProp("opaque pagination cursor from a previous call"),
		}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			cur, err := store.DecodeCursor(a.str("cursor"))
			if err != nil {
				return nil, err
			}
			ns, err := d.memory.GetKnowledgeNotes(ctx, a.str("tenant_id"), memory.GetKnowledgeNotesFilter{
				ProjectPath: a.str("project_path"),
			}, cur, clampLimit(a.intVal("limit", 20)))
			if err != nil {
				return nil, err
			}
			return ns, nil
		},
	})

	d.register(tool{
		name:        "list_semantic_principles",
		description: "List the distilled principle decisions consolidation has emitted (scope=global).",
		inputSchema: schema(map[string]any{
			"limit":  numProp("page size, default 20, max 50"),
			"cursor": strProp("opaque pagination cursor from a previous call"),
		}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			cur, err := store.DecodeCursor(a.str("cursor"))
			if err != nil {
				return nil, err
			}
			ps, err := d.memory.ListPrinciples(ctx, a.str("tenant_id"), cur, clampLimit(a.intVal("limit", 20)))
			if err != nil {
				return nil, err
			}
			return ps, nil
		},
	})
}
