package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// tenantMixin stamps every row with its owning tenant. Spec §3: "every row
// carries tenant_id"; §5 isolation is enforced at the Store layer by always
// filtering on this column, read from request context — never from payload.
type tenantMixin struct {
	mixin.Schema
}

func (tenantMixin) Fields() []ent.Field {
	return []ent.Field{
		field.String("tenant_id").
			NotEmpty().
			Immutable(),
	}
}

func (tenantMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id"),
	}
}

// createdAtMixin stamps a UTC creation timestamp with millisecond
// resolution (spec §3), indexed for keyset pagination (spec §6.6).
type createdAtMixin struct {
	mixin.Schema
}

func (createdAtMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("UTC, millisecond resolution"),
	}
}

func (createdAtMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
	}
}
