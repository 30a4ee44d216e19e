package mcpserver

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// registerFeedbackTools wires agent_feedback, get_agent_feedback, and
// update_agent_feedback (spec §4.6 "Feedback").
func (d *Dispatcher) registerFeedbackTools() {
	d.register(tool{
		name:        "agent_feedback",
		description: "Submit feedback about the agent experience itself: friction, bug, suggestion, or praise.",
		inputSchema: schema(map[string]any{
			"kind":  strProp("friction|bug|suggestion|praise"),
			"text":  strProp("feedback content"),
			"op_id": strProp("client-generated idempotency key"),
		}, "kind", "text"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			f, err := d.memory.SubmitFeedback(ctx, a.str("tenant_id"), memory.SubmitFeedbackInput{
				Kind: a.str("kind"),
				Text: a.str("text"),
				OpID: a.str("op_id"),
			})
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	})

	d.register(tool{
		name:        "get_agent_feedback",
		description: "Page through submitted agent feedback, optionally filtered by status.",
		inputSchema: schema(map[string]any{
			"status": strProp("open|reviewed|addressed|rejected"),
			"limit":  numProp("page size, default 20, max 50"),
			"cursor": strProp("opaque pagination cursor from a previous call"),
		}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			cur, err := store.DecodeCursor(a.str("cursor"))
			if err != nil {
				return nil, err
			}
			fs, err := d.memory.GetAgentFeedback(ctx, a.str("tenant_id"), memory.GetAgentFeedbackFilter{
				Status: a.str("status"),
			}, cur, clampLimit(a.intVal("limit", 20)))
			if err != nil {
				return nil, err
			}
			return fs, nil
		},
	})

	d.register(tool{
		name:        "update_agent_feedback",
		description: "Transition a feedback item's status (open -> reviewed|addressed|rejected, reviewed -> addressed|rejected).",
		inputSchema: schema(map[string]any{
			"feedback_id": strProp("id of the feedback item"),
			"status":      strProp("reviewed|addressed|rejected"),
		}, "feedback_id", "status"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			f, err := d.memory.UpdateFeedbackStatus(ctx, a.str("tenant_id"), a.str("feedback_id"), a.str("status"))
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	})
}
