package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// UserState stores one learner's persisted allocation document.
type UserState struct {
	ent.Schema
}

func (UserState) Fields() []ent.Field {
	return []ent.Field{
		field.String("user_id").
			NotEmpty().
			Unique().
			Immutable().
			Comment("Explicit learner identity"),
		field.Int64("version").
			Default(0).
			Comment("Optimistic concurrency token, bumped on every write"),
		field.Bool("deleted").
			Default(false).
			Comment("Tombstone left by a reset; keeps the version counting across recreation"),
		field.String("allocated_on").
			Default("").
			Comment("Civil date of the last allocation, denormalized for queries"),
		field.JSON("data", map[string]any{}).
			Comment("Full UserState document as JSON"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("When the document was last replaced"),
	}
}

func (UserState) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("allocated_on"),
	}
}
