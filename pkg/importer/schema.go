package importer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateTableSQL builds the CREATE TABLE statement for table with cols.
func CreateTableSQL(table string, cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = QuoteIdentifier(c.Name) + " " + c.Type
	}
	return "CREATE TABLE " + QuoteIdentifier(table) + "(" + strings.Join(defs, ", ") + ")"
}

// InsertSQL builds a positional INSERT statement covering every column.
func InsertSQL(table string, cols []Column) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = QuoteIdentifier(c.Name)
		marks[i] = "?"
	}
	return "INSERT INTO " + QuoteIdentifier(table) + " (" + strings.Join(names, ", ") +
		") VALUES (" + strings.Join(marks, ", ") + ")"
}

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateTable executes CreateTableSQL against db. An existing table is not
// replaced; the driver error is returned wrapped.
func CreateTable(ctx context.Context, db Execer, table string, cols []Column) error {
	if _, err := db.ExecContext(ctx, CreateTableSQL(table, cols)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", QuoteIdentifier(table), err)
	}
	return nil
}
