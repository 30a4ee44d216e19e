package mcpserver

import (
	"context"

	entschema "github.com/callin2/agent-memory-sub001/ent/schema"
	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// registerCapsuleTools wires create_capsule and get_capsules (spec §4.6
// "Capsules").
func (d *Dispatcher) registerCapsuleTools() {
	d.register(tool{
		name:        "create_capsule",
		description: "Curate a time-boxed bundle of chunks/decisions/artifacts for an audience of principals.",
		inputSchema: schema(map[string]any{
			"scope":              strProp("session|user|project|policy|global"),
			"subject_type":       strProp("what the capsule is about, e.g. project|agent"),
			"subject_id":         strProp("id of the subject"),
			"author_agent_id":    strProp("principal authoring this capsule"),
			"audience_agent_ids": arrProp(`principals who may read it; "*" for tenant-wide`),
			"ttl_days":           numProp("days until expiry, default 7"),
			"chunks":             arrProp("free-text chunks"),
			"decisions":          arrProp("linked decision ids"),
			"artifacts":          arrProp("free-form artifact references"),
			"risks":              arrProp("known risks to flag to readers"),
			"op_id":              strProp("client-generated idempotency key"),
		}, "scope", "subject_type", "subject_id", "author_agent_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			var ttl *int
			if v := a.intPtr("ttl_days"); v != nil {
				ttl = v
			}
			c, err := d.memory.CreateCapsule(ctx, a.str("tenant_id"), memory.CreateCapsuleInput{
				Scope:            a.str("scope"),
				SubjectType:      a.str("subject_type"),
				SubjectID:        a.str("subject_id"),
				AuthorAgentID:    a.str("author_agent_id"),
				AudienceAgentIDs: a.strSlice("audience_agent_ids"),
				TTLDays:          ttl,
				Items: entschema.CapsuleItems{
					Chunks:    a.strSlice("chunks"),
					Decisions: a.strSlice("decisions"),
					Artifacts: a.strSlice("artifacts"),
				},
				Risks: a.strSlice("risks"),
				OpID:  a.str("op_id"),
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	})

	d.register(tool{
		name:        "get_capsules",
		description: "Page through capsules visible to the calling principal, optionally filtered by subject.",
		inputSchema: schema(map[string]any{
			"subject_type": strProp("filter by subject type"),
			"subject_id":   strProp("filter by subject id"),
			"limit":        numProp("page size, default 20, max 50"),
			"cursor":       strProp("opaque pagination cursor from a previous call"),
		}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			cur, err := store.DecodeCursor(a.str("cursor"))
			if err != nil {
				return nil, err
			}
			cs, err := d.memory.GetCapsules(ctx, a.str("tenant_id"), memory.GetCapsulesFilter{
				SubjectType: a.str("subject_type"),
				SubjectID:   a.str("subject_id"),
				Principal:   p.PrincipalID,
			}, cur, clampLimit(a.intVal("limit", 20)))
			if err != nil {
				return nil, err
			}
			return cs, nil
		},
	})
}
