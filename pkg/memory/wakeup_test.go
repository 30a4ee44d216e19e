package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/memory"
)

func TestWakeUp_ProjectsOutFullFieldsOnRecentHandoffsUnlessExpanded(t *testing.T) {
	s, ops := newOpsWithStore(t)
	ctx := context.Background()
	createSummarizedHandoff(t, s, "t1", "Callin")

	bundle, err := ops.WakeUp(ctx, "t1", memory.WakeUpInput{WithWhom: "Callin"})
	require.NoError(t, err)
	require.Len(t, bundle.RecentHandoffs, 1)
	assert.Empty(t, bundle.RecentHandoffs[0].Experienced)

	expanded, err := ops.WakeUp(ctx, "t1", memory.WakeUpInput{WithWhom: "Callin", Expand: true})
	require.NoError(t, err)
	require.Len(t, expanded.RecentHandoffs, 1)
	assert.Equal(t, "built X in great detail", expanded.RecentHandoffs[0].Experienced)
}

func TestWakeUp_RequiresWithWhom(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	_, err := ops.WakeUp(ctx, "t1", memory.WakeUpInput{})
	require.Error(t, err)
}
