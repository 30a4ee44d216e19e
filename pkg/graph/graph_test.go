package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/graph"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
	util "github.com/callin2/agent-memory-sub001/test/util"
)

func newServices(t *testing.T) (*graph.Service, *memory.Operations) {
	t.Helper()
	s := util.SetupTestStore(t)
	pub := events.NewPublisher()
	return graph.New(s, pub), memory.New(s, pub, nil)
}

func newNode(t *testing.T, ops *memory.Operations, tenantID, text string) string {
	t.Helper()
	n, err := ops.CreateKnowledgeNote(context.Background(), tenantID, memory.CreateKnowledgeNoteInput{Text: text})
	require.NoError(t, err)
	return n.ID
}

func TestCreateEdge_RoundTripsThroughGetEdges(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")
	b := newNode(t, ops, "t1", "node b")

	e, err := g.CreateEdge(ctx, "t1", a, b, "references", nil, "")
	require.NoError(t, err)

	out, err := g.GetEdges(ctx, "t1", a, graph.DirectionOut, "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, e.ID, out[0].EdgeID)
	assert.Equal(t, b, out[0].ToNodeID)
}

func TestCreateEdge_RejectsUnknownType(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")
	b := newNode(t, ops, "t1", "node b")

	_, err := g.CreateEdge(ctx, "t1", a, b, "bogus_type", nil, "")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeValidationError))
}

func TestCreateEdge_RejectsCrossTenantEndpoint(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")
	b := newNode(t, ops, "t2", "node b")

	_, err := g.CreateEdge(ctx, "t1", a, b, "references", nil, "")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeNotFound))
}

func TestCreateEdge_DependsOnRejectsCycle(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")
	b := newNode(t, ops, "t1", "node b")

	_, err := g.CreateEdge(ctx, "t1", a, b, "depends_on", nil, "")
	require.NoError(t, err)

	_, err = g.CreateEdge(ctx, "t1", b, a, "depends_on", nil, "")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeCircularDependency))
}

func TestCreateEdge_IdempotentOnRepeatedOpID(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")
	b := newNode(t, ops, "t1", "node b")

	e1, err := g.CreateEdge(ctx, "t1", a, b, "references", nil, "op-1")
	require.NoError(t, err)
	e2, err := g.CreateEdge(ctx, "t1", a, b, "references", nil, "op-1")
	require.NoError(t, err)
	assert.Equal(t, e1.ID, e2.ID)

	out, err := g.GetEdges(ctx, "t1", a, graph.DirectionOut, "references")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestCreateEdge_ChildOfIsParentOfInverse(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	parent := newNode(t, ops, "t1", "parent")
	child := newNode(t, ops, "t1", "child")

	_, err := g.CreateEdge(ctx, "t1", child, parent, "child_of", nil, "")
	require.NoError(t, err)

	out, err := g.GetEdges(ctx, "t1", parent, graph.DirectionOut, "parent_of")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, child, out[0].ToNodeID)
}

func TestTraverse_RejectsOutOfRangeDepth(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")

	_, err := g.Traverse(ctx, "t1", a, graph.DirectionBoth, "", 0)
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeValidationError))

	_, err = g.Traverse(ctx, "t1", a, graph.DirectionBoth, "", 6)
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeValidationError))
}

func TestTraverse_FollowsChainAndTracksDepth(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "a")
	b := newNode(t, ops, "t1", "b")
	c := newNode(t, ops, "t1", "c")

	_, err := g.CreateEdge(ctx, "t1", a, b, "related_to", nil, "")
	require.NoError(t, err)
	_, err = g.CreateEdge(ctx, "t1", b, c, "related_to", nil, "")
	require.NoError(t, err)

	hops, err := g.Traverse(ctx, "t1", a, graph.DirectionOut, "related_to", 5)
	require.NoError(t, err)
	require.Len(t, hops, 2)
	assert.Equal(t, 1, hops[0].Depth)
	assert.Equal(t, b, hops[0].NodeID)
	assert.Equal(t, 2, hops[1].Depth)
	assert.Equal(t, c, hops[1].NodeID)
}

func TestGetProjectTasks_BucketsByStatusDefaultingUnknownToTodo(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	project := newNode(t, ops, "t1", "project")
	todo := newNode(t, ops, "t1", "task todo")
	doing := newNode(t, ops, "t1", "task doing")
	done := newNode(t, ops, "t1", "task done")
	unknownStatus := newNode(t, ops, "t1", "task unknown")

	_, err := g.CreateEdge(ctx, "t1", project, todo, "parent_of", map[string]any{"status": "todo"}, "")
	require.NoError(t, err)
	_, err = g.CreateEdge(ctx, "t1", project, doing, "parent_of", map[string]any{"status": "doing"}, "")
	require.NoError(t, err)
	_, err = g.CreateEdge(ctx, "t1", project, done, "parent_of", map[string]any{"status": "done"}, "")
	require.NoError(t, err)
	_, err = g.CreateEdge(ctx, "t1", project, unknownStatus, "parent_of", nil, "")
	require.NoError(t, err)

	buckets, err := g.GetProjectTasks(ctx, "t1", project)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "todo", buckets[0].Status)
	assert.Len(t, buckets[0].Tasks, 2)
	assert.Equal(t, "doing", buckets[1].Status)
	assert.Len(t, buckets[1].Tasks, 1)
	assert.Equal(t, "done", buckets[2].Status)
	assert.Len(t, buckets[2].Tasks, 1)
}

func TestResolveNode_ReturnsNotFoundForUnknownID(t *testing.T) {
	g, _ := newServices(t)
	ctx := context.Background()

	_, err := g.ResolveNode(ctx, "t1", "kn_does-not-exist")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeNotFound))
}

func TestResolveNode_ResolvesKnowledgeNote(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	id := newNode(t, ops, "t1", "a note")

	n, err := g.ResolveNode(ctx, "t1", id)
	require.NoError(t, err)
	require.NotNil(t, n.Note)
	assert.Equal(t, "knowledge_note", n.Kind)
}

// DeleteEdge has no referential-integrity guard of its own (edge.go:285-287):
// that invariant protects nodes, not the edges pointing at them. Deleting an
// edge must remove only the edge row and must never cascade to either
// endpoint node.
func TestDeleteEdge_RemovesOnlyTheEdgeNotEitherEndpointNode(t *testing.T) {
	g, ops := newServices(t)
	ctx := context.Background()

	a := newNode(t, ops, "t1", "node a")
	b := newNode(t, ops, "t1", "node b")

	e, err := g.CreateEdge(ctx, "t1", a, b, "references", nil, "")
	require.NoError(t, err)

	require.NoError(t, g.DeleteEdge(ctx, "t1", e.ID))

	out, err := g.GetEdges(ctx, "t1", a, graph.DirectionOut, "")
	require.NoError(t, err)
	assert.Len(t, out, 0)

	_, err = g.ResolveNode(ctx, "t1", a)
	assert.NoError(t, err, "endpoint a must survive edge deletion")
	_, err = g.ResolveNode(ctx, "t1", b)
	assert.NoError(t, err, "endpoint b must survive edge deletion")
}

func TestDeleteEdge_UnknownIDIsNotFound(t *testing.T) {
	g, _ := newServices(t)
	ctx := context.Background()

	err := g.DeleteEdge(ctx, "t1", "edge_does-not-exist")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeNotFound))
}
