package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	sqlschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/prepday/ent/schema"
)

// Table names.
const (
	userStatesTable       = "user_states"
	allocationEventsTable = "allocation_events"
	completionEventsTable = "completion_events"
)

// tables builds the migration tables from the ent schema definitions.
func tables() ([]*sqlschema.Table, error) {
	defs := []struct {
		name   string
		schema ent.Interface
	}{
		{userStatesTable, entschema.UserState{}},
		{allocationEventsTable, entschema.AllocationEvent{}},
		{completionEventsTable, entschema.CompletionEvent{}},
	}

	out := make([]*sqlschema.Table, 0, len(defs))
	for _, d := range defs {
		t, err := tableFromSchema(d.name, d.schema)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", d.name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// tableFromSchema converts an ent schema (including its mixins) into a
// migration table with an auto-increment integer id.
func tableFromSchema(name string, s ent.Interface) (*sqlschema.Table, error) {
	t := sqlschema.NewTable(name).
		AddPrimary(&sqlschema.Column{Name: "id", Type: field.TypeInt, Increment: true})

	var fields []ent.Field
	var indexes []ent.Index
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("field %s: %w", d.Name, d.Err)
		}
		col := &sqlschema.Column{
			Name:     columnName(d),
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional || d.Nillable,
			Size:     int64(d.Size),
			Comment:  d.Comment,
		}
		switch v := d.Default.(type) {
		case string, bool, int, int64, float64:
			col.Default = v
		}
		t.AddColumn(col)
	}

	for _, ix := range indexes {
		d := ix.Descriptor()
		idxName := d.StorageKey
		if idxName == "" {
			idxName = strings.ReplaceAll(name, "_", "") + "_" + strings.Join(d.Fields, "_")
		}
		t.AddIndex(idxName, d.Unique, d.Fields)
	}
	return t, nil
}

func columnName(d *field.Descriptor) string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// migrate creates or extends the tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	ts, err := tables()
	if err != nil {
		return err
	}
	m, err := sqlschema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Create(ctx, ts...)
}
