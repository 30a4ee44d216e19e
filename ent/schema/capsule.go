package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Capsule holds the schema definition for a curated, TTL-bounded memory
// bundle. expires_at is computed and stored at write time
// (created_at + ttl_days, spec §3 invariant) rather than derived on every
// read, so a keyset/range query can filter expiry directly in SQL.
type Capsule struct {
	ent.Schema
}

func (Capsule) Mixin() []ent.Mixin {
	return []ent.Mixin{
		tenantMixin{},
		createdAtMixin{},
		embeddingMixin{},
	}
}

func (Capsule) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("capsule_id").
			Unique().
			Immutable().
			Comment("cap_ prefixed"),
		field.Enum("scope").
			Values("session", "user", "project", "policy", "global"),
		field.String("subject_type").
			NotEmpty(),
		field.String("subject_id").
			NotEmpty(),
		field.String("author_agent_id").
			NotEmpty().
			Immutable(),
		field.Strings("audience_agent_ids").
			Comment(`"*" is the tenant-wide pseudo-principal; "all" is accepted as a write-time synonym and normalized to "*"`),
		field.Int("ttl_days").
			Default(7).
			Min(0),
		field.Enum("status").
			Values("active", "revoked", "expired").
			Default("active"),
		field.JSON("items", CapsuleItems{}),
		field.Strings("risks").
			Optional(),
		field.Time("expires_at").
			Immutable(),
	}
}

// CapsuleItems is the curated bundle payload: chunks of text, linked
// decision ids, and free-form artifact references.
type CapsuleItems struct {
	Chunks    []string `json:"chunks,omitempty"`
	Decisions []string `json:"decisions,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
}

func (Capsule) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "subject_type", "subject_id"),
		index.Fields("tenant_id", "status", "expires_at"),
	}
}

func (Capsule) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "capsules"},
	}
}
