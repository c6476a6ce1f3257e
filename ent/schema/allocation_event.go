package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AllocationEvent records one run of the daily allocation pipeline.
type AllocationEvent struct {
	ent.Schema
}

func (AllocationEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (AllocationEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("run_id").
			NotEmpty().
			Comment("UUID of the allocation run"),
		field.String("kind").
			NotEmpty().
			Comment("generate or transition"),
		field.Bool("success"),
		field.Int("total_minutes").
			Default(0),
		field.String("budget").
			Default("").
			Comment("in-band, under or over"),
		field.JSON("module_ids", []string{}).
			Optional(),
		field.JSON("carry_over", []string{}).
			Optional(),
		field.String("message").
			Default(""),
	}
}

func (AllocationEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("date"),
	}
}
