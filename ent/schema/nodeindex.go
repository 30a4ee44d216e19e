package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// NodeIndex holds the schema definition for the thin, tenant-scoped
// registry GraphService.resolve_node consults first (spec §4.5): rather
// than probing every node-bearing table on each lookup, every persistable
// memory entity that can be addressed by the graph registers one row here
// at creation time, pointing back at its kind and id. The row IS the node;
// there is no separate node content table (spec §3's Node type is "a
// logical view spanning knowledge_notes, tasks-as-notes, feedback,
// capsules").
type NodeIndex struct {
	ent.Schema
}

func (NodeIndex) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
	}
}

func (NodeIndex) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("node_id").
			Unique().
			Immutable().
			Comment("identical to the underlying entity's own prefixed id"),
		field.Enum("kind").
			Values("knowledge_note", "task", "agent_feedback", "capsule").
			Immutable(),
	}
}

func (NodeIndex) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "kind"),
	}
}

func (NodeIndex) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "node_index"},
	}
}
