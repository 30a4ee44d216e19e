package mcpserver

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/graph"
	"github.com/callin2/agent-memory-sub001/pkg/identity"
)

// registerGraphTools wires create_edge, get_edges, traverse,
// update_edge_properties, delete_edge, get_project_tasks, and
// resolve_node (spec §4.6 "Graph").
func (d *Dispatcher) registerGraphTools() {
	d.register(tool{
		name:        "create_edge",
		description: "Link two nodes in the typed memory graph (parent_of, child_of, references, related_to, created_by, depends_on).",
		inputSchema: schema(map[string]any{
			"from_node_id": strProp("source node id"),
			"to_node_id":   strProp("target node id"),
			"type":         strProp("parent_of|child_of|references|related_to|created_by|depends_on"),
			"properties":   map[string]any{"type": "object", "description": "free-form edge properties, e.g. status for parent_of task edges"},
			"op_id":        strProp("client-generated idempotency key"),
		}, "from_node_id", "to_node_id", "type"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			e, err := d.graph.CreateEdge(ctx, a.str("tenant_id"), a.str("from_node_id"), a.str("to_node_id"), a.str("type"), a.objectVal("properties"), a.str("op_id"))
			if err != nil {
				return nil, err
			}
			return e, nil
		},
	})

	d.register(tool{
		name:        "get_edges",
		description: "List edges touching a node, optionally filtered by direction and type.",
		inputSchema: schema(map[string]any{
			"node_id":   strProp("node id"),
			"direction": strProp("out|in|both, default out"),
			"type":      strProp("filter by edge type"),
		}, "node_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			dir := graph.Direction(a.str("direction"))
			if dir == "" {
				dir = graph.DirectionOut
			}
			edges, err := d.graph.GetEdges(ctx, a.str("tenant_id"), a.str("node_id"), dir, a.str("type"))
			if err != nil {
				return nil, err
			}
			return edges, nil
		},
	})

	d.register(tool{
		name:        "traverse",
		description: "Breadth-first walk from a node, following edges of one type (or every type) up to depth hops.",
		inputSchema: schema(map[string]any{
			"node_id":   strProp("node id to start from"),
			"direction": strProp("in|out|both, default both"),
			"type":      strProp("filter by edge type"),
			"depth":     numProp("max hops, 1..5, default 1"),
		}, "node_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			dir := graph.Direction(a.str("direction"))
			if dir == "" {
				dir = graph.DirectionBoth
			}
			depth := a.intVal("depth", 1)
			hops, err := d.graph.Traverse(ctx, a.str("tenant_id"), a.str("node_id"), dir, a.str("type"), depth)
			if err != nil {
				return nil, err
			}
			return hops, nil
		},
	})

	d.register(tool{
		name:        "update_edge_properties",
		description: "Merge a patch into an edge's free-form properties, e.g. to move a task between status buckets.",
		inputSchema: schema(map[string]any{
			"edge_id": strProp("edge id"),
			"patch":   map[string]any{"type": "object", "description": "keys to merge into the edge's properties"},
		}, "edge_id", "patch"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			e, err := d.graph.UpdateEdgeProperties(ctx, a.str("tenant_id"), a.str("edge_id"), a.objectVal("patch"))
			if err != nil {
				return nil, err
			}
			return e, nil
		},
	})

	d.register(tool{
		name:        "delete_edge",
		description: "Remove an edge from the graph.",
		inputSchema: schema(map[string]any{
			"edge_id": strProp("edge id"),
		}, "edge_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			if err := d.graph.DeleteEdge(ctx, a.str("tenant_id"), a.str("edge_id")); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		},
	})

	d.register(tool{
		name:        "get_project_tasks",
		description: "List a project's parent_of children, bucketed by properties.status.",
		inputSchema: schema(map[string]any{
			"project_node_id": strProp("the project's node id"),
		}, "project_node_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			buckets, err := d.graph.GetProjectTasks(ctx, a.str("tenant_id"), a.str("project_node_id"))
			if err != nil {
				return nil, err
			}
			return buckets, nil
		},
	})

	d.register(tool{
		name:        "resolve_node",
		description: "Resolve a graph node id to its underlying knowledge note, feedback, or capsule record.",
		inputSchema: schema(map[string]any{
			"node_id": strProp("node id"),
		}, "node_id"),
		handler: func(ctx context.Context, p identity.Principal, a args) (any, error) {
			n, err := d.graph.ResolveNode(ctx, a.str("tenant_id"), a.str("node_id"))
			if err != nil {
				return nil, err
			}
			return n, nil
		},
	})
}
