package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// KnowledgeNote holds the schema definition for a durable note. Its id
// doubles as a graph node_id (spec §3 "note_id (also usable as node_id)"):
// GraphService.resolve_node treats the knowledge_notes table as one of the
// kinds it probes directly, no separate content table needed.
//
// kind distinguishes a plain note from a "task-as-note" (spec §4.5
// get_project_tasks projects parent_of children of kind=task, grouped by
// edge properties.status).
type KnowledgeNote struct {
	ent.Schema
}

func (KnowledgeNote) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
		embeddingMixin{},
	}
}

func (KnowledgeNote) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("note_id").
			Unique().
			Immutable().
			Comment("kn_ prefixed"),
		field.Enum("kind").
			Values("note", "task").
			Default("note"),
		field.Text("text").
			NotEmpty(),
		field.Strings("tags").
			Optional(),
		field.String("project_path").
			Optional().
			Nillable(),
		field.Float("confidence").
			Min(0).
			Max(1).
			Default(1),
		field.Strings("source_handoffs").
			Optional(),
	}
}

func (KnowledgeNote) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "created_at"),
		index.Fields("tenant_id", "project_path"),
		index.Fields("tenant_id", "kind"),
	}
}

func (KnowledgeNote) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "knowledge_notes"},
	}
}
