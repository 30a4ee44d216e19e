package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/handoff"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// CreateHandoffInput mirrors the create_handoff tool argument schema
// (spec §6.2).
type CreateHandoffInput struct {
	SessionID    string
	WithWhom     string
	Experienced  string
	Noticed      string
	Learned      string
	Story        string
	Becoming     *string
	Remember     string
	Significance float64
	Tags         []string
	OpID         string
}

func (in CreateHandoffInput) validate() error {
	if in.SessionID == "" {
		return store.NewValidationError("session_id", "required")
	}
	if in.WithWhom == "" {
		return store.NewValidationError("with_whom", "required")
	}
	if in.Experienced == "" {
		return store.NewValidationError("experienced", "required")
	}
	if in.Noticed == "" {
		return store.NewValidationError("noticed", "required")
	}
	if in.Learned == "" {
		return store.NewValidationError("learned", "required")
	}
	if in.Remember == "" {
		return store.NewValidationError("remember", "required")
	}
	if in.Significance < 0 || in.Significance > 1 {
		return store.NewValidationError("significance", "must be within [0, 1]")
	}
	return nil
}

// handoffEmbedText concatenates the fields the spec names for the async embed
// request: "experienced||noticed||learned||story||becoming" (spec §4.2).
func handoffEmbedText(in CreateHandoffInput) string {
	parts := []string{in.Experienced, in.Noticed, in.Learned}
	if in.Story != "" {
		parts = append(parts, in.Story)
	}
	if in.Becoming != nil {
		parts = append(parts, *in.Becoming)
	}
	return strings.Join(parts, " ")
}

// CreateHandoff validates, persists a full-compression-level handoff, and
// asynchronously enqueues its embedding (spec §4.2).
func (o *Operations) CreateHandoff(ctx context.Context, tenantID string, in CreateHandoffInput) (*ent.Handoff, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.OpID != "" {
		if rec, found, err := o.store.CheckIdempotency(ctx, tenantID, in.OpID); err != nil {
			return nil, err
		} else if found {
			return o.store.Client().Handoff.Get(ctx, rec.ResultRef)
		}
	}

	id := "hof_" + uuid.NewString()

	var created *ent.Handoff
	err := o.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		create := tx.Handoff.Create().
			SetID(id).
			SetTenantID(tenantID).
			SetSessionID(in.SessionID).
			SetWithWhom(in.WithWhom).
			SetExperienced(in.Experienced).
			SetNoticed(in.Noticed).
			SetLearned(in.Learned).
			SetRemember(in.Remember).
			SetSignificance(in.Significance).
			SetCompressionLevel(handoff.CompressionLevelFull)
		if in.Story != "" {
			create = create.SetStory(in.Story)
		}
		if in.Becoming != nil {
			create = create.SetBecoming(*in.Becoming)
		}
		if len(in.Tags) > 0 {
			create = create.SetTags(in.Tags)
		}

		h, err := create.Save(ctx)
		if err != nil {
			return err
		}
		created = h

		if err := o.events.Publish(ctx, tx, tenantID, "handoff.created", id); err != nil {
			return err
		}
		if in.OpID != "" {
			if err := store.RecordIdempotency(ctx, tx, tenantID, in.OpID, id, map[string]any{"handoff_id": id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	text := handoffEmbedText(in)
	o.enqueueEmbed(text, func(ctx context.Context, vec []float32) error {
		v := pgvector.NewVector(vec)
		return o.store.Client().Handoff.UpdateOneID(id).SetEmbedding(&v).Exec(ctx)
	})

	return created, nil
}

// projectCompression enforces spec §4.3.1's default-read rule: "lower-level
// fields are retained on disk but no longer returned from default reads; an
// explicit expand=true returns them." A handoff still at compression_level
// full has no lower-level fields to hide, so it is returned unchanged
// either way. Returns a shallow copy; the stored row is never mutated.
func projectCompression(h *ent.Handoff, expand bool) *ent.Handoff {
	if expand || h.CompressionLevel == handoff.CompressionLevelFull {
		return h
	}
	cp := *h
	cp.Experienced = ""
	cp.Noticed = ""
	cp.Learned = ""
	cp.Story = ""
	return &cp
}

// GetLastHandoffFilter narrows getLastHandoff (spec §4.2).
type GetLastHandoffFilter struct {
	WithWhom string
	Expand   bool
}

// GetLastHandoff returns the most recent handoff by created_at, optionally
// filtered by with_whom. The full-fidelity narrative fields are projected
// out once the handoff has compressed past "full" unless filter.Expand is
// set (spec §4.3.1, §8 scenario 2).
func (o *Operations) GetLastHandoff(ctx context.Context, tenantID string, filter GetLastHandoffFilter) (*ent.Handoff, error) {
	q := o.store.Client().Handoff.Query().Where(handoff.TenantID(tenantID))
	if filter.WithWhom != "" {
		q = q.Where(handoff.WithWhom(filter.WithWhom))
	}
	h, err := q.Order(ent.Desc(handoff.FieldCreatedAt)).First(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return projectCompression(h, filter.Expand), nil
}

// ListHandoffsFilter narrows listHandoffs (spec §4.2).
type ListHandoffsFilter struct {
	WithWhom         string
	CompressionLevel string
	Expand           bool
}

// ListHandoffs pages through handoffs keyset-paginated by created_at desc
// (spec §4.2, §6.6). Each row is projected per filter.Expand the same way
// GetLastHandoff projects its single row (spec §4.3.1).
func (o *Operations) ListHandoffs(ctx context.Context, tenantID string, filter ListHandoffsFilter, cursor store.Cursor, limit int) ([]*ent.Handoff, error) {
	q := o.store.Client().Handoff.Query().Where(handoff.TenantID(tenantID))
	if filter.WithWhom != "" {
		q = q.Where(handoff.WithWhom(filter.WithWhom))
	}
	if filter.CompressionLevel != "" {
		q = q.Where(handoff.CompressionLevelEQ(handoff.CompressionLevel(filter.CompressionLevel)))
	}
	if !cursor.IsZero() {
		q = q.Where(
			handoff.Or(
				handoff.CreatedAtLT(cursor.Time()),
				handoff.And(handoff.CreatedAtEQ(cursor.Time()), handoff.IDLT(cursor.ID)),
			),
		)
	}
	hs, err := q.Order(ent.Desc(handoff.FieldCreatedAt), ent.Desc(handoff.FieldID)).Limit(limit).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	for i, h := range hs {
		hs[i] = projectCompression(h, filter.Expand)
	}
	return hs, nil
}

// IdentityThreadEntry is one tuple of the materialized identity thread
// projection (spec §3 "IdentityThread (derived)").
type IdentityThreadEntry struct {
	HandoffID    string
	Becoming     string
	CreatedAtUTC int64
	Significance float64
}

// GetIdentityThread materializes the ordered becoming-statement sequence
// for (tenant, with_whom) (spec §4.2).
func (o *Operations) GetIdentityThread(ctx context.Context, tenantID string, withWhom string, limit int) ([]IdentityThreadEntry, error) {
	q := o.store.Client().Handoff.Query().
		Where(handoff.TenantID(tenantID), handoff.BecomingNotNil())
	if withWhom != "" {
		q = q.Where(handoff.WithWhom(withWhom))
	}
	hs, err := q.Order(ent.Desc(handoff.FieldCreatedAt)).Limit(limit).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}

	entries := make([]IdentityThreadEntry, 0, len(hs))
	for _, h := range hs {
		becoming := ""
		if h.Becoming != nil {
			becoming = *h.Becoming
		}
		entries = append(entries, IdentityThreadEntry{
			HandoffID:    h.ID,
			Becoming:     becoming,
			CreatedAtUTC: h.CreatedAt.UnixMilli(),
			Significance: h.Significance,
		})
	}
	return entries, nil
}
