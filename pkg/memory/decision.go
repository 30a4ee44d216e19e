package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/decision"
	"github.com/callin2/agent-memory-sub001/ent/predicate"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// decisionTenantAndID is shared by CreateCapsule's referenced-item check
// and CreateDecision's supersession check.
func decisionTenantAndID(tenantID, decisionID string) predicate.Decision {
	return decision.And(decision.TenantID(tenantID), decision.ID(decisionID))
}

// CreateDecisionInput mirrors createDecision (spec §4.2).
type CreateDecisionInput struct {
	Scope      string
	Text       string
	Supersedes *string
	OpID       string
}

func (in CreateDecisionInput) validate() error {
	switch in.Scope {
	case "session", "project", "global":
	default:
		return store.NewValidationError("scope", "must be one of session|project|global")
	}
	if in.Text == "" {
		return store.NewValidationError("text", "required")
	}
	return nil
}

// CreateDecision persists a decision and, when supersedes is set, flips the
// target decision's status to superseded inside the same transaction
// (spec §4.2).
func (o *Operations) CreateDecision(ctx context.Context, tenantID string, in CreateDecisionInput) (*ent.Decision, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	id := "dec_" + uuid.NewString()

	var created *ent.Decision
	err := o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		if in.Supersedes != nil {
			target, err := tx.Decision.Query().Where(decisionTenantAndID(tenantID, *in.Supersedes)).Only(ctx)
			if err != nil {
				if ent.IsNotFound(err) {
					return store.NewNotFound("decision", *in.Supersedes)
				}
				return err
			}
			if err := tx.Decision.UpdateOneID(target.ID).SetStatus(decision.StatusSuperseded).Exec(ctx); err != nil {
				return err
			}
		}

		create := tx.Decision.Create().
			SetID(id).
			SetTenantID(tenantID).
			SetScope(decision.Scope(in.Scope)).
			SetText(in.Text)
		if in.Supersedes != nil {
			create = create.SetSupersedes(*in.Supersedes)
		}
		d, err := create.Save(ctx)
		if err != nil {
			return err
		}
		created = d

		if err := o.events.Publish(ctx, tx, tenantID, "decision.created", id); err != nil {
			return err
		}
		if in.OpID != "" {
			if err := store.RecordIdempotency(ctx, tx, tenantID, in.OpID, id, map[string]any{"decision_id": id}); err != nil {
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

// ListActiveDecisions returns active decisions in the given scopes, used
// by the wake_up composed operation (spec §4.8 step 3).
func (o *Operations) ListActiveDecisions(ctx context.Context, tenantID string, scopes []string) ([]*ent.Decision, error) {
	q := o.store.Client().Decision.Query().
		Where(decision.TenantID(tenantID), decision.StatusEQ(decision.StatusActive))
	if len(scopes) > 0 {
		preds := make([]predicate.Decision, 0, len(scopes))
		for _, s := range scopes {
			preds = append(preds, decision.ScopeEQ(decision.Scope(s)))
		}
		q = q.Where(decision.Or(preds...))
	}
	ds, err := q.Order(ent.Desc(decision.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return ds, nil
}

// ListPrinciples returns consolidated identity principles — global-scope
// decisions produced by identity-thread consolidation (spec §4.3.2: "a
// principle IS a Decision, not a separate table") — backing the
// list_semantic_principles tool (spec §4.6).
func (o *Operations) ListPrinciples(ctx context.Context, tenantID string, cursor store.Cursor, limit int) ([]*ent.Decision, error) {
	q := o.store.Client().Decision.Query().
		Where(decision.TenantID(tenantID), decision.ScopeEQ(decision.ScopeGlobal))
	if !cursor.IsZero() {
		q = q.Where(
			decision.Or(
				decision.CreatedAtLT(cursor.Time()),
				decision.And(decision.CreatedAtEQ(cursor.Time()), decision.IDLT(cursor.ID)),
			),
		)
	}
	ds, err := q.Order(ent.Desc(decision.FieldCreatedAt), ent.Desc(decision.FieldID)).Limit(limit).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return ds, nil
}
