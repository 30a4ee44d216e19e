package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConsolidationStats holds the schema definition for rolling per-day,
// per-compression-type counters (spec §3). One row per
// (tenant_id, stat_date, compression_type); the consolidation engine
// upserts it after every compression job.
type ConsolidationStats struct {
	ent.Schema
}

func (ConsolidationStats) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
	}
}

func (ConsolidationStats) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("stat_id").
			Unique().
			Immutable(),
		field.Time("stat_date").
			Immutable(),
		field.Enum("compression_type").
			Values("summary", "quick_ref", "integrated").
			Immutable(),
		field.Int("before_count").
			Default(0),
		field.Int("after_count").
			Default(0),
		field.Int("tokens_saved").
			Default(0).
			Comment("ceil(chars_before / 4) - ceil(chars_after / 4), an estimate — see pkg/consolidation token accounting"),
		field.Float("percentage_saved").
			Default(0),
	}
}

func (ConsolidationStats) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "stat_date", "compression_type").
			Unique(),
	}
}

func (ConsolidationStats) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "consolidation_stats"},
	}
}
