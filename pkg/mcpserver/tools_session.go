package mcpserver

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// registerSessionContinuityTools wires wake_up, create_handoff,
// get_last_handoff, get_identity_thread, and list_handoffs (spec §4.6
// "Session continuity").
func (d *Dispatcher) registerSessionContinuityTools() {
	d.register(tool{
		name:        "wake_up",
		description: "Compose the session-start context bundle for with_whom: recent handoffs, identity thread, active decisions, and live capsules.",
		inputSchema: schema(map[string]any{
			"with_whom":    strProp("agent or human identifier this session continues for"),
			"recent_count": numProp("how many recent handoffs to include, default 3, max 20"),
			"expand":       boolProp("return pre-compression fields on the included handoffs"),
		}, "with_whom"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			bundle, err := d.memory.WakeUp(ctx, a.str("tenant_id"), memory.WakeUpInput{
				WithWhom:    a.str("with_whom"),
				Principal:   p.PrincipalID,
				RecentCount: a.intVal("recent_count", 3),
				Expand:      a.boolVal("expand"),
			})
			if err != nil {
				return nil, err
			}
			return bundle, nil
		},
	})

	d.register(tool{
		name:        "create_handoff",
		description: "Record a full-fidelity handoff entry for the next session.",
		inputSchema: schema(map[string]any{
			"session_id":   strProp("the session this handoff concludes"),
			"with_whom":    strProp("agent or human identifier"),
			"experienced":  strProp("what happened this session"),
			"noticed":      strProp("what stood out"),
			"learned":      strProp("what was learned"),
			"story":        strProp("narrative summary"),
			"becoming":     strProp("optional identity-shaping statement"),
			"remember":     strProp("what the next session must remember"),
			"significance": numProp("0..1 importance score"),
			"tags":         arrProp("free-form tags"),
			"op_id":        strProp("client-generated idempotency key"),
		}, "session_id", "with_whom", "experienced", "noticed", "learned", "remember", "significance"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			significance, err := a.requiredNum("significance")
			if err != nil {
				return nil, err
			}
			h, err := d.memory.CreateHandoff(ctx, a.str("tenant_id"), memory.CreateHandoffInput{
				SessionID:    a.str("session_id"),
				WithWhom:     a.str("with_whom"),
				Experienced:  a.str("experienced"),
				Noticed:      a.str("noticed"),
				Learned:      a.str("learned"),
				Story:        a.str("story"),
				Becoming:     a.strPtr("becoming"),
				Remember:     a.str("remember"),
				Significance: significance,
				Tags:         a.strSlice("tags"),
				OpID:         a.str("op_id"),
			})
			if err != nil {
				return nil, err
			}
			return h, nil
		},
	})

	d.register(tool{
		name:        "get_last_handoff",
		description: "Fetch the most recent handoff for with_whom.",
		inputSchema: schema(map[string]any{
			"with_whom": strProp("agent or human identifier"),
			"expand":    boolProp("return pre-compression fields if the handoff has compressed past full"),
		}, "with_whom"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			h, err := d.memory.GetLastHandoff(ctx, a.str("tenant_id"), memory.GetLastHandoffFilter{
				WithWhom: a.str("with_whom"),
				Expand:   a.boolVal("expand"),
			})
			if err != nil {
				return nil, err
			}
			return h, nil
		},
	})

	d.register(tool{
		name:        "get_identity_thread",
		description: "Fetch the ordered becoming-statement thread for with_whom.",
		inputSchema: schema(map[string]any{
			"with_whom": strProp("agent or human identifier"),
			"limit":     numProp("max entries, default 20"),
		}, "with_whom"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			thread, err := d.memory.GetIdentityThread(ctx, a.str("tenant_id"), a.str("with_whom"), a.intVal("limit", 20))
			if err != nil {
				return nil, err
			}
			return thread, nil
		},
	})

	d.register(tool{
		name:        "list_handoffs",
		description: "Page through handoffs, optionally filtered by with_whom or compression_level.",
		inputSchema: schema(map[string]any{
			"with_whom":         strProp("agent or human identifier"),
			"compression_level": strProp("full|summary|quick_ref|integrated"),
			"limit":             numProp("page size, default 20, max 50"),
			"cursor":            strProp("opaque pagination cursor from a previous call"),
			"expand":            boolProp("return pre-compression fields on rows past full"),
		}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			cur, err := store.DecodeCursor(a.str("cursor"))
			if err != nil {
				return nil, err
			}
			hs, err := d.memory.ListHandoffs(ctx, a.str("tenant_id"), memory.ListHandoffsFilter{
				WithWhom:         a.str("with_whom"),
				CompressionLevel: a.str("compression_level"),
				Expand:           a.boolVal("expand"),
			}, cur, clampLimit(a.intVal("limit", 20)))
			if err != nil {
				return nil, err
			}
			return hs, nil
		},
	})
}

// clampLimit enforces the [1,50] page-size bound spec §8 names as a
// boundary property every listing tool must respect.
func clampLimit(n int) int {
	if n <= 0 {
		return 20
	}
	if n > 50 {
		return 50
	}
	return n
}
