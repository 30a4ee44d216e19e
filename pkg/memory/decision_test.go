package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/ent/decision"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
)

func TestCreateDecision_SupersessionFlipsTargetStatus(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	original, err := ops.CreateDecision(ctx, "t1", memory.CreateDecisionInput{
		Scope: "project", Text: "use postgres",
	})
	require.NoError(t, err)

	supersedes := original.ID
	next, err := ops.CreateDecision(ctx, "t1", memory.CreateDecisionInput{
		Scope: "project", Text: "use postgres with pgvector", Supersedes: &supersedes,
	})
	require.NoError(t, err)
	assert.Equal(t, supersedes, *next.Supersedes)

	active, err := ops.ListActiveDecisions(ctx, "t1", []string{"project"})
	require.NoError(t, err)
	for _, d := range active {
		assert.NotEqual(t, original.ID, d.ID)
	}

	got, err := ops.ListActiveDecisions(ctx, "t1", nil)
	require.NoError(t, err)
	found := false
	for _, d := range got {
		if d.ID == next.ID {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, decision.StatusActive, next.Status)
}

func TestCreateDecision_SupersedingUnknownFails(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	missing := "dec_does_not_exist"
	_, err := ops.CreateDecision(ctx, "t1", memory.CreateDecisionInput{
		Scope: "project", Text: "x", Supersedes: &missing,
	})
	require.Error(t, err)
}
