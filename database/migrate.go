package database

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-site-backend/models"
)

// tables maps every table to the row struct that owns it.
var tables = []struct {
	name  string
	model any
}{
	{"projects", projectRow{}},
	{"site_settings", settingsRow{}},
	{"admins", adminRow{}},
}

// Migrate creates or updates the schema for every table.
func (d Database) Migrate(ctx context.Context) error {
	migrateDB := d.db.WithContext(ctx).Session(&gorm.Session{
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	for _, t := range tables {
		log.Info().Str("table", t.name).Msg("migrating")
		if err := migrateDB.AutoMigrate(reflect.New(reflect.TypeOf(t.model)).Interface()); err != nil {
			return fmt.Errorf("migrate %s: %w", t.name, err)
		}
	}
	return nil
}

// ColumnMismatch lists database columns that no row struct field maps to.
type ColumnMismatch struct {
	Table   string
	Missing bool
	Columns []string
}

// ColumnMismatchReport compares every table's live columns with its row struct.
func (d Database) ColumnMismatchReport(ctx context.Context) ([]ColumnMismatch, error) {
	var report []ColumnMismatch
	for _, t := range tables {
		dbColumns, exists, err := getTableColumns(d.db.WithContext(ctx), t.name)
		if err != nil {
			return nil, err
		}
		if !exists {
			report = append(report, ColumnMismatch{Table: t.name, Missing: true})
			continue
		}
		report = append(report, ColumnMismatch{
			Table:   t.name,
			Columns: findColumnMismatches(dbColumns, getModelFields(t.model)),
		})
	}
	return report, nil
}

// WriteColumnMismatchReport renders a report in the plain-text layout used by the migrate command.
func WriteColumnMismatchReport(w io.Writer, report []ColumnMismatch) {
	fmt.Fprintln(w, "=== COLUMN MISMATCH REPORT ===")

	total := 0
	for _, r := range report {
		fmt.Fprintf(w, "\n--- Table: %s ---\n", r.Table)
		switch {
		case r.Missing:
			fmt.Fprintln(w, "Table does not exist yet (will be created during migration)")
		case len(r.Columns) == 0:
			fmt.Fprintln(w, "All columns are accounted for in the model.")
		default:
			fmt.Fprintf(w, "Found %d columns not accounted for in model:\n", len(r.Columns))
			for _, col := range r.Columns {
				fmt.Fprintf(w, "  - %s\n", col)
			}
			total += len(r.Columns)
		}
	}

	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Total mismatched columns across all tables: %d\n", total)
}

// getTableColumns retrieves column names from a database table
func getTableColumns(db *gorm.DB, tableName string) ([]string, bool, error) {
	var columns []string
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`
	if err := db.Raw(query, tableName).Scan(&columns).Error; err != nil {
		return nil, false, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	if len(columns) > 0 {
		return columns, true, nil
	}

	var tableExists bool
	tableQuery := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = CURRENT_SCHEMA()
			AND table_name = ?
		)
	`
	if err := db.Raw(tableQuery, tableName).Scan(&tableExists).Error; err != nil {
		return nil, false, fmt.Errorf("error checking if table %s exists: %w", tableName, err)
	}
	return nil, tableExists, nil
}

// getModelFields extracts column names from a row struct's gorm tags
func getModelFields(model any) []string {
	var fields []string
	t := reflect.TypeOf(model)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}
		if columnName := extractColumnNameFromGormTag(field.Tag.Get("gorm")); columnName != "" {
			fields = append(fields, columnName)
		}
	}
	return fields
}

func extractColumnNameFromGormTag(gormTag string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	return mismatches
}

// Seed inserts the default settings row unless one already exists.
func (d Database) Seed(ctx context.Context) error {
	return d.siteSettingsRepo.CreateIfAbsent(ctx, models.DefaultSiteSettings())
}
