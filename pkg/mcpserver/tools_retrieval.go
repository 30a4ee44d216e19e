package mcpserver

import (
	"context"
	"time"

	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/retrieval"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// registerRetrievalTools wires recall, semantic_search, and hybrid_search
// (spec §4.6 "Retrieval"). recall is the one operation spec §4.4 actually
// defines; semantic_search and hybrid_search are the two other names the
// tool registry in §4.6 lists without a distinct scoring algorithm of
// their own, so both are thin aliases over the same hybrid recall.Service
// (DESIGN.md), identical to recall in every respect including scoring —
// neither narrows nor reweights anything.
func (d *Dispatcher) registerRetrievalTools() {
	d.register(tool{
		name:        "recall",
		description: "Hybrid full-text + vector search across handoffs, knowledge notes, feedback, and capsules.",
		inputSchema: recallSchema("Search handoffs, knowledge notes, feedback, and capsules by combined keyword + vector similarity."),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			return d.runRecall(ctx, a)
		},
	})

	d.register(tool{
		name:        "semantic_search",
		description: "Alias for recall: combined keyword and vector search, identically scored.",
		inputSchema: recallSchema("Search by meaning rather than keyword overlap."),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			return d.runRecall(ctx, a)
		},
	})

	d.register(tool{
		name:        "hybrid_search",
		description: "Alias for recall: combined keyword and vector search.",
		inputSchema: recallSchema("Search by combined keyword and vector similarity."),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			return d.runRecall(ctx, a)
		},
	})
}

// recallSchema is shared by recall/semantic_search/hybrid_search: all
// three accept the same argument shape (spec §6.2).
func recallSchema(queryDesc string) map[string]any {
	return schema(map[string]any{
		"query":          strProp(queryDesc),
		"types":          arrProp(`subset of session_handoffs|knowledge_notes|agent_feedback|capsules, or ["all"]`),
		"limit":          numProp("1..50, default 5"),
		"min_similarity": numProp("0..1, default 0.5"),
		"project_path":   strProp("filter by project_path"),
		"with_whom":      strProp("filter by with_whom"),
		"time_range":     map[string]any{"type": "object", "description": `{"start": RFC3339, "end": RFC3339}, both optional`},
		"expand":         boolProp("return pre-compression fields on matched handoffs"),
	}, "query")
}

// runRecall builds a retrieval.Request from a tool call's arguments and
// runs it. Shared by recall/semantic_search/hybrid_search (see
// registerRetrievalTools).
func (d *Dispatcher) runRecall(ctx context.Context, a args) (any, error) {
	// spec §8 boundary: limit=1 and limit=50 accepted, 0 and 51+ rejected
	// — but only when the caller supplies the field at all; an omitted
	// limit falls through to recall.Service's own default of 5.
	limit := 5
	if raw, present := a["limit"]; present {
		v, _ := raw.(float64)
		limit = int(v)
		if limit < 1 || limit > 50 {
			return nil, store.NewValidationError("limit", "must be between 1 and 50")
		}
	}

	req := retrieval.Request{
		Query:         a.str("query"),
		Types:         a.strSlice("types"),
		ProjectPath:   a.str("project_path"),
		WithWhom:      a.str("with_whom"),
		Limit:         limit,
		MinSimilarity: a.num("min_similarity", 0.5),
		Expand:        a.boolVal("expand"),
	}
	if tr := a.objectVal("time_range"); tr != nil {
		rng := &retrieval.TimeRange{}
		if s, ok := tr["start"].(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				rng.Start = t
			}
		}
		if s, ok := tr["end"].(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				rng.End = t
			}
		}
		req.TimeRange = rng
	}

	hits, err := d.retrieve.Recall(ctx, a.str("tenant_id"), req)
	if err != nil {
		return nil, err
	}
	return map[string]any{"hits": hits}, nil
}
