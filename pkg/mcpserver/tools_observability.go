package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/callin2/agent-memory-sub001/pkg/database"
	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// registerObservabilityTools wires get_compression_stats,
// get_system_health, get_next_actions, and get_quick_reference (spec §4.6
// "Consolidation/observability").
func (d *Dispatcher) registerObservabilityTools() {
	d.register(tool{
		name:        "get_compression_stats",
		description: "Rolling per-day, per-compression-type token savings (spec §3 ConsolidationStats).",
		inputSchema: schema(map[string]any{
			"since_days": numProp("only return stats from the last N days; 0 or omitted means all"),
		}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			if d.consol == nil {
				return nil, unavailable("consolidation engine")
			}
			rows, err := d.consol.GetCompressionStats(ctx, a.str("tenant_id"), a.intVal("since_days", 0))
			if err != nil {
				return nil, err
			}
			return rows, nil
		},
	})

	d.register(tool{
		name:        "get_system_health",
		description: "Operability snapshot: database connectivity, embedding queue depth, consolidation scheduler ticks, idempotency table size.",
		inputSchema: schema(map[string]any{}),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			return d.systemHealth(ctx), nil
		},
	})

	d.register(tool{
		name:        "get_next_actions",
		description: "Not-yet-done tasks (todo + doing buckets) under a project node, as a prioritized to-do list.",
		inputSchema: schema(map[string]any{
			"project_node_id": strProp("project node id whose parent_of children are tasks"),
		}, "project_node_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			if d.graph == nil {
				return nil, unavailable("graph service")
			}
			buckets, err := d.graph.GetProjectTasks(ctx, a.str("tenant_id"), a.str("project_node_id"))
			if err != nil {
				return nil, err
			}
			var next []any
			for _, b := range buckets {
				if b.Status == "done" {
					continue
				}
				for _, t := range b.Tasks {
					next = append(next, map[string]any{
						"node_id":    t.NodeID,
						"edge_id":    t.EdgeID,
						"status":     b.Status,
						"properties": t.Properties,
					})
				}
			}
			return map[string]any{"next_actions": next}, nil
		},
	})

	d.register(tool{
		name:        "get_quick_reference",
		description: "One-line-per-handoff quick reference for with_whom, using each handoff's current compression level.",
		inputSchema: schema(map[string]any{
			"with_whom": strProp("agent or human identifier"),
			"limit":     numProp("how many recent handoffs to condense, default 5"),
		}, "with_whom"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			if d.memory == nil {
				return nil, unavailable("memory operations")
			}
			return d.quickReference(ctx, a)
		},
	})
}

// unavailable reports a tool whose optional capability was never wired via
// the dispatcher's Set* methods (spec §4.6 only requires
// MemoryOperations/GraphService/Retrieval/ConsolidationEngine; the
// observability extras are best-effort on top of those).
func unavailable(capability string) error {
	return store.NewPermanentError(fmt.Errorf("%s not configured on this server", capability))
}

// systemHealth composes the richer internal health check SPEC_FULL.md
// adds on top of the bare GET /health liveness probe: database pool
// stats, embedding worker queue depth, consolidation scheduler tick
// times, and idempotency table size (mirrors the teacher's
// pkg/database/health.go + pkg/queue.WorkerPool.Health() composition).
func (d *Dispatcher) systemHealth(ctx context.Context) map[string]any {
	out := map[string]any{
		"status": "ok",
		"server": d.serverName,
	}

	if d.db != nil {
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		dbHealth, err := database.Health(reqCtx, d.db.DB())
		if err != nil {
			out["status"] = "degraded"
			out["database_error"] = err.Error()
		} else {
			out["database"] = dbHealth
		}
	}

	if d.embedPool != nil {
		out["embedding"] = d.embedPool.Health()
	}

	if d.scheduler != nil {
		ticks := d.scheduler.LastTicks()
		formatted := make(map[string]string, len(ticks))
		for k, v := range ticks {
			formatted[k] = v.Format(time.RFC3339)
		}
		out["consolidation_last_ticks"] = formatted
	}

	if d.store != nil {
		if n, err := d.store.CountIdempotency(ctx); err == nil {
			out["idempotency_table_size"] = n
		}
	}

	return out
}

// quickReference condenses with_whom's most recent handoffs into one line
// each, reusing each handoff's already-computed quick_ref/summary when the
// Consolidator has already produced one, and falling back to an on-the-fly
// one-liner in the same "date — with_whom — becoming — sentence" shape
// (spec §4.3.1 step 2) for handoffs still at compression_level=full. This
// never mutates a handoff or advances its compression_level: it is a
// read-only projection, not a consolidation step.
func (d *Dispatcher) quickReference(ctx context.Context, a args) (any, error) {
	limit := a.intVal("limit", 5)
	if limit <= 0 {
		limit = 5
	}
	hs, err := d.memory.ListHandoffs(ctx, a.str("tenant_id"), memory.ListHandoffsFilter{WithWhom: a.str("with_whom")}, store.Cursor{}, limit)
	if err != nil {
		return nil, err
	}

	lines := make([]map[string]any, 0, len(hs))
	for _, h := range hs {
		var line string
		switch {
		case h.QuickRef != nil:
			line = *h.QuickRef
		case h.Summary != nil:
			line = oneLiner(h.CreatedAt.Format("2006-01-02"), h.WithWhom, h.Becoming, *h.Summary)
		default:
			line = oneLiner(h.CreatedAt.Format("2006-01-02"), h.WithWhom, h.Becoming, h.Experienced)
		}
		lines = append(lines, map[string]any{
			"handoff_id":        h.ID,
			"compression_level": string(h.CompressionLevel),
			"line":              line,
		})
	}
	return map[string]any{"quick_reference": lines}, nil
}

func oneLiner(date, withWhom string, becoming *string, source string) string {
	line := date + " — " + withWhom
	if becoming != nil && *becoming != "" {
		line += " — " + *becoming
	}
	sentence := strings.TrimSpace(source)
	if idx := strings.IndexAny(sentence, ".!?"); idx >= 0 {
		sentence = strings.TrimSpace(sentence[:idx+1])
	}
	return line + " — " + sentence
}
