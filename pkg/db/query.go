package db

import (
	"github.com/JayJamieson/tabload/pkg/importer"
)

type transformFunc func(columns []string, values []any) any

var transformFuncs = map[string]transformFunc{
	"array":   transformArray,
	"objects": transformObject,
}

// ImportRequest describes one upload to stage.
type ImportRequest struct {
	Filename    string
	Format      importer.Format
	TableName   string
	Delimiter   rune
	ColumnTypes map[string]string
	SkipBadRows bool
}

// Query selects a page of rows from an import.
type Query struct {
	ID         string
	Limit      int
	Offset     int
	SortColumn string
	SortDesc   bool
	ShowRowID  bool
	Shape      string
}

// QueryResult holds one page. Rows are []any or map[string]any depending on
// the requested shape.
type QueryResult struct {
	Columns []string
	Rows    []any
	Total   int
	QueryMS float64
}

func transformArray(columns []string, values []any) any {
	arrRow := make([]any, len(columns))

	for i := range columns {
		arrRow[i] = normalize(values[i])
	}
	return arrRow
}

func transformObject(columns []string, values []any) any {
	objRow := make(map[string]any, len(columns))

	for i, col := range columns {
		objRow[col] = normalize(values[i])
	}
	return objRow
}

func normalize(val any) any {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}
