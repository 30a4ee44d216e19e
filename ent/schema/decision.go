package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Decision holds the schema definition for a scoped decision record.
// Also used to persist consolidated identity principles (scope=global,
// spec §4.3.2) — a principle IS a Decision, not a separate table.
type Decision struct {
	ent.Schema
}

func (Decision) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
	}
}

func (Decision) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("decision_id").
			Unique().
			Immutable().
			Comment("dec_ prefixed"),
		field.Enum("scope").
			Values("session", "project", "global"),
		field.Text("text").
			NotEmpty(),
		field.Enum("status").
			Values("active", "superseded", "archived").
			Default("active"),
		field.String("supersedes").
			Optional().
			Nillable().
			Comment("required when status=superseded"),
	}
}

func (Decision) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "status", "created_at"),
		index.Fields("tenant_id", "scope", "status"),
	}
}

func (Decision) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "decisions"},
	}
}
