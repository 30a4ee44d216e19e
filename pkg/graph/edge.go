package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/callin2/agent-memory-sub001/ent"
	entedge "github.com/callin2/agent-memory-sub001/ent/edge"
	"github.com/callin2/agent-memory-sub001/ent/predicate"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// storableEdgeTypes are the only types ever written to the edges table;
// child_of is accepted at the API boundary and rewritten as a
// direction-swapped parent_of (spec §9 Open Question #4, DESIGN.md).
var storableEdgeTypes = map[string]bool{
	"parent_of": true, "references": true, "related_to": true,
	"created_by": true, "depends_on": true,
}

// CreateEdge verifies both endpoints resolve in tenant, rejects depends_on
// cycles, and persists a deterministic-id edge row (spec §4.5). A non-empty
// opID makes the call idempotent across retries/WAL replay (spec §4.7/§8).
func (s *Service) CreateEdge(ctx context.Context, tenantID, fromNodeID, toNodeID, edgeType string, properties map[string]any, opID string) (*ent.Edge, error) {
	if opID != "" {
		if rec, found, err := s.store.CheckIdempotency(ctx, tenantID, opID); err != nil {
			return nil, err
		} else if found {
			return s.store.Client().Edge.Get(ctx, rec.ResultRef)
		}
	}

	storedFrom, storedTo, storedType, err := canonicalizeEdge(fromNodeID, toNodeID, edgeType)
	if err != nil {
		return nil, err
	}

	fromOK, err := s.nodeExists(ctx, tenantID, storedFrom)
	if err != nil {
		return nil, err
	}
	if !fromOK {
		return nil, store.NewNotFound("node", storedFrom)
	}
	toOK, err := s.nodeExists(ctx, tenantID, storedTo)
	if err != nil {
		return nil, err
	}
	if !toOK {
		return nil, store.NewNotFound("node", storedTo)
	}

	if storedType == "depends_on" {
		cyclic, err := s.reachesDependsOn(ctx, tenantID, storedTo, storedFrom, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, store.NewCircularDependency(fmt.Sprintf("depends_on edge %s -> %s would create a cycle", storedFrom, storedTo))
		}
	}

	nonce := uuid.NewString()
	id := deterministicEdgeID(tenantID, storedFrom, storedTo, storedType, nonce)

	now := time.Now().UTC()
	var created *ent.Edge
	err = s.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		create := tx.Edge.Create().
			SetID(id).
			SetTenantID(tenantID).
			SetFromNodeID(storedFrom).
			SetToNodeID(storedTo).
			SetType(entedge.Type(storedType)).
			SetUpdatedAt(now)
		if len(properties) > 0 {
			create = create.SetProperties(properties)
		}
		e, err := create.Save(ctx)
		if err != nil {
			return err
		}
		created = e
		if err := s.events.Publish(ctx, tx, tenantID, "edge.created", id); err != nil {
			return err
		}
		if opID != "" {
			if err := store.RecordIdempotency(ctx, tx, tenantID, opID, id, map[string]any{"edge_id": id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return created, nil
}

// canonicalizeEdge swaps endpoints for the accepted child_of alias and
// rejects any other unknown type.
func canonicalizeEdge(from, to, edgeType string) (storedFrom, storedTo, storedType string, err error) {
	if edgeType == "child_of" {
		return to, from, "parent_of", nil
	}
	if !storableEdgeTypes[edgeType] {
		return "", "", "", store.NewValidationError("type", fmt.Sprintf("unsupported edge type %q", edgeType))
	}
	return from, to, edgeType, nil
}

func deterministicEdgeID(tenantID, from, to, edgeType, nonce string) string {
	h := sha256.Sum256([]byte(tenantID + "|" + from + "|" + to + "|" + edgeType + "|" + nonce))
	return "edge_" + hex.EncodeToString(h[:])[:24]
}

// reachesDependsOn is a BFS from start following depends_on outgoing
// edges; returns true if target is reached (spec §4.5 cycle check: "from
// is_node reached" when traversing depends_on from the new edge's `to`).
func (s *Service) reachesDependsOn(ctx context.Context, tenantID, start, target string, visited map[string]bool) (bool, error) {
	if start == target {
		return true, nil
	}
	if visited[start] {
		return false, nil
	}
	visited[start] = true

	next, err := s.store.Client().Edge.Query().
		Where(entedge.TenantID(tenantID), entedge.FromNodeID(start), entedge.TypeEQ(entedge.TypeDependsOn)).
		All(ctx)
	if err != nil {
		return false, store.MapEntError(err)
	}
	for _, e := range next {
		reached, err := s.reachesDependsOn(ctx, tenantID, e.ToNodeID, target, visited)
		if err != nil {
			return false, err
		}
		if reached {
			return true, nil
		}
	}
	return false, nil
}

// EdgeView is the direction/type-normalized shape GetEdges/traverse
// return, re-presenting stored parent_of rows as child_of when queried
// from the child's side (spec §3 invariant (c): "implementation chooses
// one direction of storage but traversal MUST accept both names").
type EdgeView struct {
	EdgeID     string
	FromNodeID string
	ToNodeID   string
	Type       string
	Properties map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func toEdgeView(e *ent.Edge, fromNodeID, toNodeID, asType string) EdgeView {
	return EdgeView{
		EdgeID: e.ID, FromNodeID: fromNodeID, ToNodeID: toNodeID, Type: asType,
		Properties: e.Properties, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

// GetEdges is an indexed lookup of edges incident on nodeID (spec §4.5).
// typeFilter == "" matches every type including both mirror views of
// parent_of/child_of.
func (s *Service) GetEdges(ctx context.Context, tenantID, nodeID string, direction Direction, typeFilter string) ([]EdgeView, error) {
	var out []EdgeView

	if typeFilter == "" || typeFilter == "parent_of" {
		rows, err := s.queryByColumn(ctx, tenantID, nodeID, direction, entedge.TypeParentOf)
		if err != nil {
			return nil, err
		}
		for _, e := range rows {
			out = append(out, toEdgeView(e, e.FromNodeID, e.ToNodeID, "parent_of"))
		}
	}

	if typeFilter == "" || typeFilter == "child_of" {
		rows, err := s.queryByColumn(ctx, tenantID, nodeID, invertDirection(direction), entedge.TypeParentOf)
		if err != nil {
			return nil, err
		}
		for _, e := range rows {
			// Re-present the parent_of row as the child_of mirror: child
			// is always ToNodeID of the stored row, parent is FromNodeID.
			out = append(out, toEdgeView(e, e.ToNodeID, e.FromNodeID, "child_of"))
		}
	}

	for t := range storableEdgeTypes {
		if t == "parent_of" || (typeFilter != "" && typeFilter != t) {
			continue
		}
		if typeFilter == "" && t == "parent_of" {
			continue
		}
		rows, err := s.queryByColumn(ctx, tenantID, nodeID, direction, entedge.Type(t))
		if err != nil {
			return nil, err
		}
		for _, e := range rows {
			out = append(out, toEdgeView(e, e.FromNodeID, e.ToNodeID, t))
		}
	}

	return out, nil
}

func invertDirection(d Direction) Direction {
	switch d {
	case DirectionOut:
		return DirectionIn
	case DirectionIn:
		return DirectionOut
	default:
		return DirectionBoth
	}
}

func (s *Service) queryByColumn(ctx context.Context, tenantID, nodeID string, direction Direction, edgeType entedge.Type) ([]*ent.Edge, error) {
	base := []predicate.Edge{entedge.TenantID(tenantID), entedge.TypeEQ(edgeType)}
	switch direction {
	case DirectionOut:
		base = append(base, entedge.FromNodeID(nodeID))
	case DirectionIn:
		base = append(base, entedge.ToNodeID(nodeID))
	default:
		base = append(base, entedge.Or(entedge.FromNodeID(nodeID), entedge.ToNodeID(nodeID)))
	}
	rows, err := s.store.Client().Edge.Query().Where(base...).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return rows, nil
}

// UpdateEdgeProperties JSON-merges into an edge's existing properties and
// bumps updated_at (spec §4.5).
func (s *Service) UpdateEdgeProperties(ctx context.Context, tenantID, edgeID string, patch map[string]any) (*ent.Edge, error) {
	var updated *ent.Edge
	err := s.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		e, err := tx.Edge.Query().Where(entedge.TenantID(tenantID), entedge.ID(edgeID)).Only(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return store.NewNotFound("edge", edgeID)
			}
			return err
		}

		merged := map[string]any{}
		for k, v := range e.Properties {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}

		u, err := tx.Edge.UpdateOneID(edgeID).
			SetProperties(merged).
			SetUpdatedAt(time.Now().UTC()).
			Save(ctx)
		if err != nil {
			return err
		}
		updated = u
		return s.events.Publish(ctx, tx, tenantID, "edge.updated", edgeID)
	})
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return updated, nil
}

// DeleteEdge removes an edge row (spec §4.5). Edges themselves carry no
// referential-integrity protection — that invariant guards node deletion,
// which no MemoryOperations verb exposes (spec §4.2's deletion policy is
// about nodes, not the edges pointing at them).
func (s *Service) DeleteEdge(ctx context.Context, tenantID, edgeID string) error {
	return s.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		n, err := tx.Edge.Delete().Where(entedge.TenantID(tenantID), entedge.ID(edgeID)).Exec(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return store.NewNotFound("edge", edgeID)
		}
		return s.events.Publish(ctx, tx, tenantID, "edge.deleted", edgeID)
	})
}
