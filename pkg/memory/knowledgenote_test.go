package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

func TestCreateKnowledgeNote_RequiresText(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	_, err := ops.CreateKnowledgeNote(ctx, "t1", memory.CreateKnowledgeNoteInput{})
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeValidationError))
}

func TestCreateKnowledgeNote_RoundTripsThroughGetKnowledgeNotes(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	n, err := ops.CreateKnowledgeNote(ctx, "t1", memory.CreateKnowledgeNoteInput{
		Text:        "users table with OAuth credentials",
		Tags:        []string{"db"},
		ProjectPath: "proj/a",
	})
	require.NoError(t, err)

	notes, err := ops.GetKnowledgeNotes(ctx, "t1", memory.GetKnowledgeNotesFilter{ProjectPath: "proj/a"}, store.Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, n.ID, notes[0].ID)

	other, err := ops.GetKnowledgeNotes(ctx, "t1", memory.GetKnowledgeNotesFilter{ProjectPath: "proj/other"}, store.Cursor{}, 10)
	require.NoError(t, err)
	assert.Len(t, other, 0)
}

func TestRememberNote_OnlyRequiresText(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	n, err := ops.RememberNote(ctx, "t1", memory.RememberNoteInput{
		Text:     "remember this",
		WithWhom: "Callin",
	})
	require.NoError(t, err)

	notes, err := ops.GetKnowledgeNotes(ctx, "t1", memory.GetKnowledgeNotesFilter{}, store.Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, n.ID, notes[0].ID)
	assert.Contains(t, notes[0].Tags, "with:Callin")
}

func TestCreateKnowledgeNote_TenantIsolated(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	_, err := ops.CreateKnowledgeNote(ctx, "t1", memory.CreateKnowledgeNoteInput{Text: "a"})
	require.NoError(t, err)
	_, err = ops.CreateKnowledgeNote(ctx, "t2", memory.CreateKnowledgeNoteInput{Text: "b"})
	require.NoError(t, err)

	notes, err := ops.GetKnowledgeNotes(ctx, "t1", memory.GetKnowledgeNotesFilter{}, store.Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a", notes[0].Text)
}

func TestCreateKnowledgeNote_IdempotentOnRepeatedOpID(t *testing.T) {
	ops := newOps(t)
	ctx := context.Background()

	in := memory.CreateKnowledgeNoteInput{Text: "a", OpID: "01HOPIDNOTE0000000000001"}
	first, err := ops.CreateKnowledgeNote(ctx, "t1", in)
	require.NoError(t, err)
	second, err := ops.CreateKnowledgeNote(ctx, "t1", in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	notes, err := ops.GetKnowledgeNotes(ctx, "t1", memory.GetKnowledgeNotesFilter{}, store.Cursor{}, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}
