package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/agentfeedback"
	"github.com/callin2/agent-memory-sub001/ent/nodeindex"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// feedbackTransitions is the status state machine from spec §4.2:
// "open -> reviewed|addressed|rejected; reviewed -> addressed|rejected;
// terminal states may not transition."
var feedbackTransitions = map[agentfeedback.Status]map[agentfeedback.Status]bool{
	agentfeedback.StatusOpen: {
		agentfeedback.StatusReviewed:  true,
		agentfeedback.StatusAddressed: true,
		agentfeedback.StatusRejected:  true,
	},
	agentfeedback.StatusReviewed: {
		agentfeedback.StatusAddressed: true,
		agentfeedback.StatusRejected:  true,
	},
}

// SubmitFeedbackInput mirrors submitFeedback (spec §4.2).
type SubmitFeedbackInput struct {
	Kind string
	Text string
	OpID string
}

// SubmitFeedback stores agent feedback with status=open (spec §4.2).
func (o *Operations) SubmitFeedback(ctx context.Context, tenantID string, in SubmitFeedbackInput) (*ent.AgentFeedback, error) {
	switch in.Kind {
	case "friction", "bug", "suggestion", "praise":
	default:
		return nil, store.NewValidationError("kind", "must be one of friction|bug|suggestion|praise")
	}
	if in.Text == "" {
		return nil, store.NewValidationError("text", "required")
	}

	id := "fb_" + uuid.NewString()

	var created *ent.AgentFeedback
	err := o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		f, err := tx.AgentFeedback.Create().
			SetID(id).
			SetTenantID(tenantID).
			SetKind(agentfeedback.Kind(in.Kind)).
			SetText(in.Text).
			Save(ctx)
		if err != nil {
			return err
		}
		created = f

		if err := registerNode(ctx, tx, tenantID, id, nodeindex.KindAgentFeedback); err != nil {
			return err
		}
		if err := o.events.Publish(ctx, tx, tenantID, "agent_feedback.created", id); err != nil {
			return err
		}
		if in.OpID != "" {
			if err := store.RecordIdempotency(ctx, tx, tenantID, in.OpID, id, map[string]any{"feedback_id": id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.enqueueEmbed(in.Text, func(ctx context.Context, vec []float32) error {
		v := pgvector.NewVector(vec)
		return o.store.Client().AgentFeedback.UpdateOneID(id).SetEmbedding(&v).Exec(ctx)
	})

	return created, nil
}

// UpdateFeedbackStatus transitions feedback status per the table above,
// rejecting disallowed or terminal-state transitions with Conflict
// (spec §4.2).
func (o *Operations) UpdateFeedbackStatus(ctx context.Context, tenantID, feedbackID, newStatus string) (*ent.AgentFeedback, error) {
	target := agentfeedback.Status(newStatus)
	switch target {
	case agentfeedback.StatusReviewed, agentfeedback.StatusAddressed, agentfeedback.StatusRejected:
	default:
		return nil, store.NewValidationError("status", "must be one of reviewed|addressed|rejected")
	}

	var updated *ent.AgentFeedback
	err := o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		f, err := tx.AgentFeedback.Query().
			Where(agentfeedback.TenantID(tenantID), agentfeedback.ID(feedbackID)).
			Only(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return store.NewNotFound("agent_feedback", feedbackID)
			}
			return err
		}

		allowed := feedbackTransitions[f.Status]
		if !allowed[target] {
			return store.NewConflict("feedback status transition " + string(f.Status) + " -> " + string(target) + " is not permitted")
		}

		u, err := tx.AgentFeedback.UpdateOneID(feedbackID).SetStatus(target).Save(ctx)
		if err != nil {
			return err
		}
		updated = u

		return o.events.Publish(ctx, tx, tenantID, "agent_feedback.status_updated", feedbackID)
	})
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return updated, nil
}

// GetAgentFeedbackFilter narrows get_agent_feedback.
type GetAgentFeedbackFilter struct {
	Status string
}

// GetAgentFeedback lists feedback for a tenant, newest first.
func (o *Operations) GetAgentFeedback(ctx context.Context, tenantID string, filter GetAgentFeedbackFilter, cursor store.Cursor, limit int) ([]*ent.AgentFeedback, error) {
	q := o.store.Client().AgentFeedback.Query().Where(agentfeedback.TenantID(tenantID))
	if filter.Status != "" {
		q = q.Where(agentfeedback.StatusEQ(agentfeedback.Status(filter.Status)))
	}
	if !cursor.IsZero() {
		q = q.Where(
			agentfeedback.Or(
				agentfeedback.CreatedAtLT(cursor.Time()),
				agentfeedback.And(agentfeedback.CreatedAtEQ(cursor.Time()), agentfeedback.IDLT(cursor.ID)),
			),
		)
	}
	fs, err := q.Order(ent.Desc(agentfeedback.FieldCreatedAt), ent.Desc(agentfeedback.FieldID)).Limit(limit).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return fs, nil
}
