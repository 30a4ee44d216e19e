package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConsolidationJob holds the schema definition for one scheduled or
// manually-triggered compression/archival/identity-merge run (spec §4.3).
//
// At most one row per (tenant_id, job_type) may be status=running; this is
// enforced by a partial unique index over running rows. pkg/consolidation's
// claim inserts the running row directly and treats a constraint error as
// "another job already holds the slot" (spec §4.3.4).
type ConsolidationJob struct {
	ent.Schema
}

func (ConsolidationJob) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
	}
}

func (ConsolidationJob) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("job_id").
			Unique().
			Immutable().
			Comment("cj_ prefixed"),
		field.Enum("job_type").
			Values("identity_consolidation", "handoff_compression", "decision_archival", "chunk_reorganization").
			Immutable(),
		field.Enum("status").
			Values("pending", "running", "completed", "failed").
			Default("pending"),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Int("items_processed").
			Default(0),
		field.Int("items_affected").
			Default(0),
		field.Text("error_message").
			Optional().
			Nillable(),
		field.JSON("metadata", map[string]any{}).
			Optional(),
	}
}

// Indexes of the ConsolidationJob. The "only one running job per
// (tenant_id, job_type)" rule (spec §4.3.4) is a Postgres partial unique
// index (WHERE status = 'running'), expressed the same way the teacher
// pins its soft-delete partial index: entsql.IndexWhere on a plain
// index.Fields(), not a raw-SQL migration.
func (ConsolidationJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "job_type", "status"),
		index.Fields("tenant_id", "created_at"),
		index.Fields("tenant_id", "job_type").
			Unique().
			Annotations(entsql.IndexWhere("status = 'running'")),
	}
}

func (ConsolidationJob) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "consolidation_jobs"},
	}
}
