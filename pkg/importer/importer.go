// Package importer loads delimited text files into a new database table.
//
// Two input formats are understood. CSV files carry the field names on their
// first line. ATT files are semicolon separated and may start with metadata
// ("$VISION...") and comment ("*...") lines; the field names follow the first
// colon of the first other line that starts with "$".
//
// Every import creates its table and inserts all records inside a single
// transaction. Values are bound as text; any conversion is left to the
// column types chosen by the caller.
package importer

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Format identifies the layout of the input.
type Format string

const (
	FormatATT Format = "att"
	FormatCSV Format = "csv"
)

// ParseFormat maps a case-insensitive format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatATT, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Beginner is satisfied by *sql.DB and *sql.Conn.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Result summarises a finished import.
type Result struct {
	Table    string
	Columns  []Column
	Inserted int64
	Skipped  []*RowError
}

// FromATT imports the ATT file at path into a new table.
func FromATT(ctx context.Context, db Beginner, path, table string, overrides map[string]string, opts ...Option) (*Result, error) {
	return loadFile(ctx, db, path, FormatATT, table, overrides, opts)
}

// FromCSV imports the CSV file at path into a new table. The delimiter
// defaults to a comma and can be changed with WithDelimiter.
func FromCSV(ctx context.Context, db Beginner, path, table string, overrides map[string]string, opts ...Option) (*Result, error) {
	return loadFile(ctx, db, path, FormatCSV, table, overrides, opts)
}

func loadFile(ctx context.Context, db Beginner, path string, format Format, table string, overrides map[string]string, opts []Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(ctx, db, f, format, table, overrides, opts...)
}

// Load reads format-encoded data from r and imports it into a new table.
// The header is parsed before any statement is executed, so a missing header
// leaves the database untouched.
func Load(ctx context.Context, db Beginner, r io.Reader, format Format, table string, overrides map[string]string, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	br := bufio.NewReader(r)

	var (
		fields      []string
		headerLines int
		delim       rune
		err         error
	)
	switch format {
	case FormatATT:
		delim = attDelimiter
		fields, headerLines, err = readATTHeader(br)
	case FormatCSV:
		delim = o.delimiter
		if !validDelimiter(delim) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, delim)
		}
		fields, headerLines, err = readCSVHeader(br, delim)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	for _, name := range UnusedOverrides(fields, overrides) {
		o.logger.Warnf("type override for %q matches no field, ignoring", name)
	}
	cols := ResolveColumns(fields, overrides)

	return load(ctx, db, br, headerLines, delim, table, cols, o)
}

func load(ctx context.Context, db Beginner, r io.Reader, headerLines int, delim rune, table string, cols []Column, o *options) (res *Result, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				o.logger.Errorf("Error rolling back import into %s: %v", table, rbErr)
			}
		}
	}()

	o.logger.Debugf("%s", CreateTableSQL(table, cols))
	if err = CreateTable(ctx, tx, table, cols); err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, InsertSQL(table, cols))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	res = &Result{Table: table, Columns: cols}
	for {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		record, readErr := cr.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		var rowErr *RowError
		var parseErr *csv.ParseError
		switch {
		case errors.As(readErr, &parseErr):
			rowErr = &RowError{Line: parseErr.Line + headerLines, Fields: len(record), Want: len(cols), Err: parseErr.Err}
		case readErr != nil:
			err = fmt.Errorf("failed to read record: %w", readErr)
			return nil, err
		default:
			line, _ := cr.FieldPos(0)
			line += headerLines
			if rowErr = checkFieldCount(record, len(cols), o.strictCount); rowErr != nil {
				rowErr.Line = line
				break
			}
			// A statement the database rejects can leave the transaction
			// unusable (DuckDB aborts it), so it always ends the import.
			if execErr := insertRecord(ctx, stmt, record, len(cols)); execErr != nil {
				err = &RowError{Line: line, Fields: len(record), Want: len(cols), Err: execErr}
				return nil, err
			}
		}

		if rowErr != nil {
			if o.policy == AbortOnError {
				err = rowErr
				return nil, err
			}
			o.logger.Warnf("skipping record: %v", rowErr)
			res.Skipped = append(res.Skipped, rowErr)
			continue
		}
		res.Inserted++
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}

// checkFieldCount rejects records with surplus values, and with missing
// values when strict is set.
func checkFieldCount(record []string, want int, strict bool) *RowError {
	if len(record) > want || (strict && len(record) < want) {
		return &RowError{Fields: len(record), Want: want, Err: ErrFieldCount}
	}
	return nil
}

// insertRecord binds record positionally. Missing trailing values are bound
// as NULL.
func insertRecord(ctx context.Context, stmt *sql.Stmt, record []string, want int) error {
	args := make([]any, want)
	for i, v := range record {
		args[i] = v
	}

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}
	return nil
}

func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}
