package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/capsule"
	"github.com/callin2/agent-memory-sub001/ent/nodeindex"
	entschema "github.com/callin2/agent-memory-sub001/ent/schema"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// audienceWildcard is the tenant-wide pseudo-principal (spec §3, §9 Open
// Question #2: "all" is accepted at write time and normalized to "*").
const audienceWildcard = "*"

func normalizeAudience(audience []string) []string {
	out := make([]string, 0, len(audience))
	for _, a := range audience {
		if a == "all" {
			a = audienceWildcard
		}
		out = append(out, a)
	}
	return out
}

func audienceContains(audience []string, principal string) bool {
	for _, a := range audience {
		if a == audienceWildcard || a == principal {
			return true
		}
	}
	return false
}

// CreateCapsuleInput mirrors the create_capsule verb (spec §4.2).
type CreateCapsuleInput struct {
	Scope            string
	SubjectType      string
	SubjectID        string
	AuthorAgentID    string
	AudienceAgentIDs []string
	TTLDays          *int
	Items            entschema.CapsuleItems
	Risks            []string
	OpID             string
}

func (in CreateCapsuleInput) validate() error {
	if in.SubjectType == "" {
		return store.NewValidationError("subject_type", "required")
	}
	if in.SubjectID == "" {
		return store.NewValidationError("subject_id", "required")
	}
	if in.AuthorAgentID == "" {
		return store.NewValidationError("author_agent_id", "required")
	}
	switch in.Scope {
	case "session", "user", "project", "policy", "global":
	default:
		return store.NewValidationError("scope", "must be one of session|user|project|policy|global")
	}
	if in.TTLDays != nil && *in.TTLDays < 0 {
		return store.NewValidationError("ttl_days", "must be >= 0")
	}
	return nil
}

// CreateCapsule validates referenced items, computes expires_at, and
// persists a curated bundle (spec §4.2). ttl_days=0 creates an
// already-expired capsule (spec §8 boundary behavior); referenced item
// existence is only checked for capsule.Items.Decisions, the one item
// kind this package can resolve against another table.
func (o *Operations) CreateCapsule(ctx context.Context, tenantID string, in CreateCapsuleInput) (*ent.Capsule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ttlDays := 7
	if in.TTLDays != nil {
		ttlDays = *in.TTLDays
	}
	audience := normalizeAudience(in.AudienceAgentIDs)

	for _, decID := range in.Items.Decisions {
		exists, err := o.store.Client().Decision.Query().
			Where(decisionTenantAndID(tenantID, decID)).
			Exist(ctx)
		if err != nil {
			return nil, store.MapEntError(err)
		}
		if !exists {
			return nil, store.NewNotFound("decision", decID)
		}
	}

	id := "cap_" + uuid.NewString()
	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(ttlDays) * 24 * time.Hour)

	var created *ent.Capsule
	err := o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		create := tx.Capsule.Create().
			SetID(id).
			SetTenantID(tenantID).
			SetScope(capsule.Scope(in.Scope)).
			SetSubjectType(in.SubjectType).
			SetSubjectID(in.SubjectID).
			SetAuthorAgentID(in.AuthorAgentID).
			SetAudienceAgentIds(audience).
			SetTTLDays(ttlDays).
			SetItems(in.Items).
			SetExpiresAt(expiresAt)
		if len(in.Risks) > 0 {
			create = create.SetRisks(in.Risks)
		}

		c, err := create.Save(ctx)
		if err != nil {
			return err
		}
		created = c

		if err := registerNode(ctx, tx, tenantID, id, nodeindex.KindCapsule); err != nil {
			return err
		}
		if err := o.events.Publish(ctx, tx, tenantID, "capsule.created", id); err != nil {
			return err
		}
		if in.OpID != "" {
			if err := store.RecordIdempotency(ctx, tx, tenantID, in.OpID, id, map[string]any{"capsule_id": id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	text := joinNonEmpty(in.Items.Chunks, " ")
	o.enqueueEmbed(text, func(ctx context.Context, vec []float32) error {
		v := pgvector.NewVector(vec)
		return o.store.Client().Capsule.UpdateOneID(id).SetEmbedding(&v).Exec(ctx)
	})

	return created, nil
}

// RevokeCapsule sets status to revoked, enforcing author/audience
// authorization and expiry (spec §4.2).
func (o *Operations) RevokeCapsule(ctx context.Context, tenantID, capsuleID, principalID string) error {
	return o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		c, err := tx.Capsule.Query().Where(capsule.TenantID(tenantID), capsule.ID(capsuleID)).Only(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return store.NewNotFound("capsule", capsuleID)
			}
			return err
		}
		if c.Status == capsule.StatusExpired || time.Now().UTC().After(c.ExpiresAt) || time.Now().UTC().Equal(c.ExpiresAt) {
			return store.NewExpiredCapsule(capsuleID)
		}
		authorized := c.AuthorAgentID == principalID ||
			(c.Scope == capsule.ScopeGlobal && audienceContains(c.AudienceAgentIds, principalID))
		if !authorized {
			return store.NewConflict("principal is not authorized to revoke this capsule")
		}

		if err := tx.Capsule.UpdateOneID(capsuleID).SetStatus(capsule.StatusRevoked).Exec(ctx); err != nil {
			return err
		}
		return o.events.Publish(ctx, tx, tenantID, "capsule.revoked", capsuleID)
	})
}

// GetCapsulesFilter narrows get_capsules.
type GetCapsulesFilter struct {
	SubjectType string
	SubjectID   string
	Principal   string // only capsules this principal is in audience_agent_ids for, or author of
}

// GetCapsules lists capsules visible to the caller, presenting
// already-expired rows with status=expired even if the stored row hasn't
// been transitioned yet (spec §3 "on read ... returned with status
// expired"; no write is performed here).
func (o *Operations) GetCapsules(ctx context.Context, tenantID string, filter GetCapsulesFilter, cursor store.Cursor, limit int) ([]*ent.Capsule, error) {
	q := o.store.Client().Capsule.Query().Where(capsule.TenantID(tenantID))
	if filter.SubjectType != "" {
		q = q.Where(capsule.SubjectType(filter.SubjectType))
	}
	if filter.SubjectID != "" {
		q = q.Where(capsule.SubjectID(filter.SubjectID))
	}
	if !cursor.IsZero() {
		q = q.Where(
			capsule.Or(
				capsule.CreatedAtLT(cursor.Time()),
				capsule.And(capsule.CreatedAtEQ(cursor.Time()), capsule.IDLT(cursor.ID)),
			),
		)
	}
	cs, err := q.Order(ent.Desc(capsule.FieldCreatedAt), ent.Desc(capsule.FieldID)).Limit(limit).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}

	now := time.Now().UTC()
	out := make([]*ent.Capsule, 0, len(cs))
	for _, c := range cs {
		if filter.Principal != "" && c.AuthorAgentID != filter.Principal && !audienceContains(c.AudienceAgentIds, filter.Principal) {
			continue
		}
		if c.Status == capsule.StatusActive && !now.Before(c.ExpiresAt) {
			c.Status = capsule.StatusExpired
		}
		out = append(out, c)
	}
	return out, nil
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
