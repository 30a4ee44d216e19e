package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/knowledgenote"
	"github.com/callin2/agent-memory-sub001/ent/nodeindex"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// CreateKnowledgeNoteInput mirrors createKnowledgeNote (spec §4.2).
type CreateKnowledgeNoteInput struct {
	Text           string
	Tags           []string
	ProjectPath    string
	SourceHandoffs []string
	OpID           string
}

// RememberNoteInput mirrors rememberNote: identical storage to
// createKnowledgeNote, but only text is required (spec §4.2).
type RememberNoteInput struct {
	Text     string
	Tags     []string
	WithWhom string
	OpID     string
}

func (o *Operations) createKnowledgeNoteRow(ctx context.Context, tenantID string, kind knowledgenote.Kind, text string, tags []string, projectPath string, sourceHandoffs []string, opID string) (*ent.KnowledgeNote, error) {
	if text == "" {
		return nil, store.NewValidationError("text", "required")
	}

	id := "kn_" + uuid.NewString()

	var created *ent.KnowledgeNote
	err := o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		create := tx.KnowledgeNote.Create().
			SetID(id).
			SetTenantID(tenantID).
			SetKind(kind).
			SetText(text)
		if len(tags) > 0 {
			create = create.SetTags(tags)
		}
		if projectPath != "" {
			create = create.SetProjectPath(projectPath)
		}
		if len(sourceHandoffs) > 0 {
			create = create.SetSourceHandoffs(sourceHandoffs)
		}

		n, err := create.Save(ctx)
		if err != nil {
			return err
		}
		created = n

		nodeKind := nodeindex.KindKnowledgeNote
		if kind == knowledgenote.KindTask {
			nodeKind = nodeindex.KindTask
		}
		if err := registerNode(ctx, tx, tenantID, id, nodeKind); err != nil {
			return err
		}
		if err := o.events.Publish(ctx, tx, tenantID, "knowledge_note.created", id); err != nil {
			return err
		}
		if opID != "" {
			if err := store.RecordIdempotency(ctx, tx, tenantID, opID, id, map[string]any{"note_id": id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.enqueueEmbed(text, func(ctx context.Context, vec []float32) error {
		v := pgvector.NewVector(vec)
		return o.store.Client().KnowledgeNote.UpdateOneID(id).SetEmbedding(&v).Exec(ctx)
	})

	return created, nil
}

// CreateKnowledgeNote stores and asynchronously embeds a durable note
// (spec §4.2).
func (o *Operations) CreateKnowledgeNote(ctx context.Context, tenantID string, in CreateKnowledgeNoteInput) (*ent.KnowledgeNote, error) {
	return o.createKnowledgeNoteRow(ctx, tenantID, knowledgenote.KindNote, in.Text, in.Tags, in.ProjectPath, in.SourceHandoffs, in.OpID)
}

// RememberNote is createKnowledgeNote's convenience sibling: identical
// storage, looser validation (spec §4.2). with_whom is folded into tags
// since KnowledgeNote has no dedicated with_whom column.
func (o *Operations) RememberNote(ctx context.Context, tenantID string, in RememberNoteInput) (*ent.KnowledgeNote, error) {
	tags := in.Tags
	if in.WithWhom != "" {
		tags = append(append([]string{}, tags...), "with:"+in.WithWhom)
	}
	return o.createKnowledgeNoteRow(ctx, tenantID, knowledgenote.KindNote, in.Text, tags, "", nil, in.OpID)
}

// GetKnowledgeNotesFilter narrows get_knowledge_notes.
type GetKnowledgeNotesFilter struct {
	ProjectPath string
}

// GetKnowledgeNotes lists notes (kind=note) for a tenant, optionally by
// project_path, newest first.
func (o *Operations) GetKnowledgeNotes(ctx context.Context, tenantID string, filter GetKnowledgeNotesFilter, cursor store.Cursor, limit int) ([]*ent.KnowledgeNote, error) {
	q := o.store.Client().KnowledgeNote.Query().
		Where(knowledgenote.TenantID(tenantID), knowledgenote.KindEQ(knowledgenote.KindNote))
	if filter.ProjectPath != "" {
		q = q.Where(knowledgenote.ProjectPath(filter.ProjectPath))
	}
	if !cursor.IsZero() {
		q = q.Where(
			knowledgenote.Or(
				knowledgenote.CreatedAtLT(cursor.Time()),
				knowledgenote.And(knowledgenote.CreatedAtEQ(cursor.Time()), knowledgenote.IDLT(cursor.ID)),
			),
		)
	}
	ns, err := q.Order(ent.Desc(knowledgenote.FieldCreatedAt), ent.Desc(knowledgenote.FieldID)).Limit(limit).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return ns, nil
}
