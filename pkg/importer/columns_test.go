package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumns(t *testing.T) {
	fields := []string{"id", "name", "amount", "created"}

	t.Run("defaults_to_text", func(t *testing.T) {
		cols := ResolveColumns(fields, nil)
		for i, c := range cols {
			assert.Equal(t, fields[i], c.Name)
			assert.Equal(t, DefaultColumnType, c.Type)
		}
	})

	t.Run("overrides_any_position", func(t *testing.T) {
		cols := ResolveColumns(fields, map[string]string{
			"created": "TIMESTAMP",
			"id":      "INTEGER",
			"missing": "REAL",
		})
		assert.Equal(t, []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT"},
			{Name: "amount", Type: "TEXT"},
			{Name: "created", Type: "TIMESTAMP"},
		}, cols)
	})

	t.Run("no_fields", func(t *testing.T) {
		assert.Empty(t, ResolveColumns(nil, map[string]string{"a": "INTEGER"}))
	})
}

func TestUnusedOverrides(t *testing.T) {
	fields := []string{"id", "name"}

	assert.Nil(t, UnusedOverrides(fields, nil))
	assert.Nil(t, UnusedOverrides(fields, map[string]string{"id": "INTEGER"}))
	assert.Equal(t, []string{"Name", "zip"},
		UnusedOverrides(fields, map[string]string{"zip": "TEXT", "id": "INTEGER", "Name": "TEXT"}))
}

func TestColumnNames(t *testing.T) {
	cols := []Column{{Name: "b", Type: "TEXT"}, {Name: "a", Type: "INTEGER"}}
	assert.Equal(t, []string{"b", "a"}, ColumnNames(cols))
}
