package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Idempotency holds the schema definition for the server-side half of
// at-most-once WAL replay (spec §4.7): each mutating tool accepts an
// optional op_id; a duplicate op_id returns the stored result without
// re-executing. There is no database expiry mechanism (ent has no
// first-class row TTL primitive); pkg/store's ReapIdempotency deletes rows
// older than 24h when called, and nothing schedules it, so rows are kept
// at least that long (spec §4.7 "TTL >= 24h").
type Idempotency struct {
	ent.Schema
}

func (Idempotency) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
	}
}

func (Idempotency) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("op_id").
			Unique().
			Immutable().
			Comment("ULID assigned client-side by WALClient"),
		field.String("result_ref").
			NotEmpty().
			Immutable().
			Comment("id of the entity the original call created/mutated"),
		field.JSON("result_snapshot", map[string]any{}).
			Optional().
			Immutable().
			Comment("tool result payload to replay verbatim on duplicate op_id"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Idempotency) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
	}
}

func (Idempotency) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "idempotency"},
	}
}
