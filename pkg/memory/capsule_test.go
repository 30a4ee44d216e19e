package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/ent/capsule"
	entschema "github.com/callin2/agent-memory-sub001/ent/schema"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

func TestCreateCapsule_ZeroTTLIsExpiredOnFirstRead(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	zero := 0
	c, err := ops.CreateCapsule(ctx, "t1", memory.CreateCapsuleInput{
		Scope: "session", SubjectType: "session", SubjectID: "s1",
		AuthorAgentID: "agent-a", TTLDays: &zero,
		Items: entschema.CapsuleItems{Chunks: []string{"hello"}},
	})
	require.NoError(t, err)
	assert.True(t, !c.ExpiresAt.After(c.CreatedAt))

	cs, err := ops.GetCapsules(ctx, "t1", memory.GetCapsulesFilter{}, store.Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, capsule.StatusExpired, cs[0].Status)
}

func TestCreateCapsule_NormalizesAllToWildcardAudience(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	c, err := ops.CreateCapsule(ctx, "t1", memory.CreateCapsuleInput{
		Scope: "global", SubjectType: "project", SubjectID: "p1",
		AuthorAgentID: "agent-a", AudienceAgentIDs: []string{"all"},
		Items: entschema.CapsuleItems{Chunks: []string{"x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, c.AudienceAgentIds)
}

func TestRevokeCapsule_RejectsNonAuthorNonGlobalAudience(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	c, err := ops.CreateCapsule(ctx, "t1", memory.CreateCapsuleInput{
		Scope: "session", SubjectType: "session", SubjectID: "s1",
		AuthorAgentID: "agent-a",
		Items:         entschema.CapsuleItems{Chunks: []string{"x"}},
	})
	require.NoError(t, err)

	err = ops.RevokeCapsule(ctx, "t1", c.ID, "someone-else")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeConflict))

	err = ops.RevokeCapsule(ctx, "t1", c.ID, "agent-a")
	require.NoError(t, err)
}

func TestRevokeCapsule_FailsOnExpired(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	zero := 0
	c, err := ops.CreateCapsule(ctx, "t1", memory.CreateCapsuleInput{
		Scope: "session", SubjectType: "session", SubjectID: "s1",
		AuthorAgentID: "agent-a", TTLDays: &zero,
		Items: entschema.CapsuleItems{Chunks: []string{"x"}},
	})
	require.NoError(t, err)

	err = ops.RevokeCapsule(ctx, "t1", c.ID, "agent-a")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeExpiredCapsule))
}
