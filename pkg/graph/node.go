package graph

import (
	"context"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/knowledgenote"
	"github.com/callin2/agent-memory-sub001/ent/nodeindex"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// Node is the tagged-variant result of resolve_node (spec §9 "Cross-type
// polymorphic nodes" -> "tagged-variant Node{kind, payload}").
type Node struct {
	NodeID string
	Kind   string
	Note   *ent.KnowledgeNote
	// Feedback/Capsule are non-nil depending on Kind; exactly one of
	// Note/Feedback/Capsule is populated per resolved node.
	Feedback *ent.AgentFeedback
	Capsule  *ent.Capsule
}

// ResolveNode inspects the node_index registry and fetches the underlying
// row, scoped to tenantID (spec §4.5).
func (s *Service) ResolveNode(ctx context.Context, tenantID, nodeID string) (*Node, error) {
	idx, err := s.store.Client().NodeIndex.Query().
		Where(nodeindex.TenantID(tenantID), nodeindex.ID(nodeID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, store.NewNotFound("node", nodeID)
		}
		return nil, store.MapEntError(err)
	}

	n := &Node{NodeID: nodeID, Kind: string(idx.Kind)}
	switch idx.Kind {
	case nodeindex.KindKnowledgeNote, nodeindex.KindTask:
		note, err := s.store.Client().KnowledgeNote.Query().
			Where(knowledgenote.TenantID(tenantID), knowledgenote.ID(nodeID)).
			Only(ctx)
		if err != nil {
			return nil, store.MapEntError(err)
		}
		n.Note = note
	case nodeindex.KindAgentFeedback:
		fb, err := s.store.Client().AgentFeedback.Get(ctx, nodeID)
		if err != nil {
			return nil, store.MapEntError(err)
		}
		n.Feedback = fb
	case nodeindex.KindCapsule:
		bundle, err := s.store.Client().Capsule.Get(ctx, nodeID)
		if err != nil {
			return nil, store.MapEntError(err)
		}
		n.Capsule = bundle
	default:
		return nil, store.NewPermanentError(nil)
	}
	return n, nil
}

// nodeExists is create_edge's lighter-weight endpoint-existence check
// (spec §4.5 "verifies both endpoints resolve in tenant").
func (s *Service) nodeExists(ctx context.Context, tenantID, nodeID string) (bool, error) {
	exists, err := s.store.Client().NodeIndex.Query().
		Where(nodeindex.TenantID(tenantID), nodeindex.ID(nodeID)).
		Exist(ctx)
	if err != nil {
		return false, store.MapEntError(err)
	}
	return exists, nil
}

// TaskBucket is one Kanban column of get_project_tasks (spec §4.5).
type TaskBucket struct {
	Status string
	Tasks  []TaskEntry
}

// TaskEntry is one parent_of child surfaced as a task.
type TaskEntry struct {
	NodeID     string
	EdgeID     string
	Properties map[string]any
}

// GetProjectTasks returns parent_of children of projectNodeID grouped by
// properties.status; unknown/missing statuses bucket as "todo" (spec §4.5).
func (s *Service) GetProjectTasks(ctx context.Context, tenantID, projectNodeID string) ([]TaskBucket, error) {
	children, err := s.GetEdges(ctx, tenantID, projectNodeID, DirectionOut, "parent_of")
	if err != nil {
		return nil, err
	}

	buckets := map[string][]TaskEntry{"todo": nil, "doing": nil, "done": nil}
	order := []string{"todo", "doing", "done"}
	for _, e := range children {
		status, _ := e.Properties["status"].(string)
		switch status {
		case "doing", "done":
		default:
			status = "todo"
		}
		buckets[status] = append(buckets[status], TaskEntry{
			NodeID: e.ToNodeID, EdgeID: e.EdgeID, Properties: e.Properties,
		})
	}

	out := make([]TaskBucket, 0, len(order))
	for _, status := range order {
		out = append(out, TaskBucket{Status: status, Tasks: buckets[status]})
	}
	return out, nil
}
