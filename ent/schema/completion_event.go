package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CompletionEvent records a completion toggle on an assigned module.
type CompletionEvent struct {
	ent.Schema
}

func (CompletionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (CompletionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("module_id").
			NotEmpty(),
		field.Bool("completed").
			Comment("State after the toggle"),
		field.Int("completed_count").
			Default(0).
			Comment("Lifetime count after the toggle"),
	}
}

func (CompletionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("module_id"),
	}
}
