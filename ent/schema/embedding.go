package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/mixin"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimension is the pinned width of every embedding column.
// Spec §6.5: changing this after data exists is a breaking operation —
// there is deliberately no migration path that resizes existing vectors.
const EmbeddingDimension = 1536

// embeddingMixin adds a nullable fixed-width vector column to any entity
// that Retrieval's ANN search covers (handoffs, knowledge notes, agent
// feedback, capsules). Rows without an embedding are simply excluded from
// ann() results rather than rejected — spec §4.1 "missing embeddings are
// allowed".
type embeddingMixin struct {
	mixin.Schema
}

func (embeddingMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Other("embedding", &pgvector.Vector{}).
			SchemaType(map[string]string{
				dialect.Postgres: "vector(1536)",
			}).
			Optional().
			Nillable().
			Comment("fixed-width embedding; excluded from ANN when nil"),
	}
}
