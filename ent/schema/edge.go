package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Edge holds the schema definition for a typed relation between two
// addressable nodes (spec §3/§4.5).
//
// parent_of/child_of are mirror-semantic (spec §9 Open Question): only
// parent_of is ever stored; pkg/graph rewrites an incoming child_of write
// by swapping from/to before persisting, and answers child_of reads by
// flipping direction on parent_of rows. See DESIGN.md.
type Edge struct {
	ent.Schema
}

func (Edge) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
	}
}

func (Edge) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("edge_id").
			Unique().
			Immutable().
			Comment("edge_ prefixed; deterministic hash of (tenant, from, to, type, nonce)"),
		field.String("from_node_id").
			NotEmpty().
			Immutable(),
		field.String("to_node_id").
			NotEmpty().
			Immutable(),
		field.Enum("type").
			Values("parent_of", "references", "related_to", "created_by", "depends_on").
			Immutable().
			Comment("child_of is accepted at the API boundary and stored as a direction-swapped parent_of"),
		field.JSON("properties", map[string]any{}).
			Optional(),
		field.Time("updated_at"),
	}
}

func (Edge) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "from_node_id", "type"),
		index.Fields("tenant_id", "to_node_id", "type"),
		index.Fields("tenant_id", "type"),
	}
}

func (Edge) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "edges"},
	}
}
