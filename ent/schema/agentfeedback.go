package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentFeedback holds the schema definition for agent-submitted feedback
// about the memory system itself (friction, bugs, suggestions, praise).
type AgentFeedback struct {
	ent.Schema
}

func (AgentFeedback) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
		embeddingMixin{},
	}
}

func (AgentFeedback) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("feedback_id").
			Unique().
			Immutable().
			Comment("fb_ prefixed"),
		field.Enum("kind").
			Values("friction", "bug", "suggestion", "praise"),
		field.Text("text").
			NotEmpty(),
		field.Enum("status").
			Values("open", "reviewed", "addressed", "rejected").
			Default("open"),
	}
}

func (AgentFeedback) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "status", "created_at"),
		index.Fields("tenant_id", "kind"),
	}
}

func (AgentFeedback) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "agent_feedback"},
	}
}
