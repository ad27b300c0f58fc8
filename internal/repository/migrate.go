package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const textSize = 2147483647

var (
	// ScansColumns holds the columns for the "scans" table.
	ScansColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "scanned_at", Type: field.TypeInt64},
		{Name: "name", Type: field.TypeString, Default: ""},
		{Name: "email", Type: field.TypeString, Default: ""},
		{Name: "role", Type: field.TypeString, Default: ""},
		{Name: "company", Type: field.TypeString, Default: ""},
		{Name: "phone", Type: field.TypeString, Default: ""},
		{Name: "raw_data", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "draft_subject", Type: field.TypeString, Nullable: true},
		{Name: "draft_body", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "image_uri", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "status", Type: field.TypeString, Size: 32},
	}
	// ScansTable holds the schema information for the "scans" table.
	ScansTable = &schema.Table{
		Name:       "scans",
		Columns:    ScansColumns,
		PrimaryKey: []*schema.Column{ScansColumns[0]},
		Indexes: []*schema.Index{
			{Name: "scans_scanned_at", Columns: []*schema.Column{ScansColumns[1]}},
		},
	}
	// KVColumns holds the columns for the "kv" table.
	KVColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Size: 128},
		{Name: "value", Type: field.TypeString, Size: textSize},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// KVTable holds the schema information for the "kv" table.
	KVTable = &schema.Table{
		Name:       "kv",
		Columns:    KVColumns,
		PrimaryKey: []*schema.Column{KVColumns[0]},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ScansTable,
		KVTable,
	}
)

// Migrate creates or upgrades the history tables.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
