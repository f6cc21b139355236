package models

import (
	"time"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Import struct {
	ID        string    `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	Format    string    `json:"format" db:"format"`
	TableName string    `json:"table_name" db:"table_name"`
	Columns   []Column  `json:"columns" db:"columns"`
	RowCount  int64     `json:"row_count" db:"row_count"`
	Skipped   int       `json:"skipped" db:"skipped"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Persisted bool      `json:"persisted" db:"persisted"`
}

type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

type ImportResponse struct {
	OK       bool          `json:"ok"`
	ID       string        `json:"id"`
	Endpoint string        `json:"endpoint"`
	Inserted int64         `json:"inserted"`
	Skipped  []SkippedLine `json:"skipped,omitempty"`
}

type SkippedLine struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type PersistResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Persisted bool   `json:"persisted"`
}

type ListResponse struct {
	OK      bool     `json:"ok"`
	Imports []Import `json:"imports"`
}

type DataResponseBase struct {
	OK      bool     `json:"ok"`
	QueryMS float64  `json:"query_ms"`
	Columns []string `json:"columns"`
	Total   int      `json:"total,omitempty"`
}

type DataResponseObjects struct {
	DataResponseBase
	Rows []map[string]any `json:"rows"`
}

type DataResponseArray struct {
	DataResponseBase
	Rows [][]any `json:"rows"`
}
