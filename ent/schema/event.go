package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Event holds the schema definition for the observability trail every
// mutating MemoryOperations call appends (spec §4.2 "Side effects").
type Event struct {
	ent.Schema
}

func (Event) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
	}
}

func (Event) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("evt_id").
			Unique().
			Immutable().
			Comment("evt_ prefixed"),
		field.String("kind").
			NotEmpty().
			Immutable(),
		field.String("subject_id").
			NotEmpty().
			Immutable(),
	}
}

func (Event) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
		index.Fields("tenant_id", "subject_id"),
	}
}

func (Event) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "events"},
	}
}
