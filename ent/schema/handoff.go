package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Handoff holds the schema definition for a single session summary.
//
// Compression is progressive (full -> summary -> quick_ref -> integrated,
// spec §3/§4.3). Lower-level fields are never cleared when the row
// advances a level: Handoff non-deletion (spec §8) requires that a fully
// "integrated" handoff is still retrievable with expand=true.
type Handoff struct {
	ent.Schema
}

func (Handoff) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
		embeddingMixin{},
	}
}

func (Handoff) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("handoff_id").
			Unique().
			Immutable().
			Comment("hof_ prefixed"),
		field.String("session_id").
			NotEmpty().
			Immutable(),
		field.String("with_whom").
			NotEmpty().
			Immutable().
			Comment("counterpart identity this handoff is addressed to"),
		field.Text("experienced").
			NotEmpty().
			Immutable(),
		field.Text("noticed").
			NotEmpty().
			Immutable(),
		field.Text("learned").
			NotEmpty().
			Immutable(),
		field.Text("story").
			Optional().
			Immutable(),
		field.Text("becoming").
			Optional().
			Nillable().
			Immutable().
			Comment("identity-trajectory statement; drives the identity thread"),
		field.Text("remember").
			NotEmpty().
			Immutable(),
		field.Float("significance").
			Min(0).
			Max(1),
		field.Strings("tags").
			Optional(),
		field.Enum("compression_level").
			Values("full", "summary", "quick_ref", "integrated").
			Default("full"),
		field.Text("summary").
			Optional().
			Nillable().
			Comment("~500 tokens; populated when compression_level >= summary"),
		field.Text("quick_ref").
			Optional().
			Nillable().
			Comment("~100 tokens; populated when compression_level >= quick_ref"),
		field.String("integrated_into").
			Optional().
			Nillable().
			Comment("fk to the consolidated principle Decision this handoff rolled into"),
		field.String("parent_handoff_id").
			Optional().
			Nillable(),
		field.String("influenced_by").
			Optional().
			Nillable(),
		field.Time("consolidated_at").
			Optional().
			Nillable(),
	}
}

func (Handoff) Edges() []ent.Edge {
	return nil
}

func (Handoff) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "with_whom", "created_at"),
		index.Fields("tenant_id", "compression_level", "created_at"),
		index.Fields("tenant_id", "session_id"),
	}
}

func (Handoff) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "handoffs"},
	}
}
