package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JayJamieson/tabload/pkg/importer"
	"github.com/JayJamieson/tabload/pkg/models"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned for unknown import ids.
	ErrNotFound = errors.New("import not found")
	// ErrUnknownColumn is returned when a query sorts by a column the import does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

const defaultTableName = "data"

// DB keeps the import catalog in a SQLite compatible database (local file or
// libsql server) and stages every import in its own DuckDB file until it is
// persisted into the catalog database.
type DB struct {
	catalog *sql.DB
	dataDir string
	logger  *log.Logger

	mu      sync.Mutex
	staging map[string]*sql.DB
}

// catalogDriver picks the database/sql driver for dbURL. Local files and
// in-memory databases go through the embedded SQLite driver, everything else
// is treated as a libsql server URL.
func catalogDriver(dbURL string) string {
	if dbURL == ":memory:" || strings.HasPrefix(dbURL, "file:") {
		return "sqlite"
	}
	return "libsql"
}

func New(dbURL, dataDir string) (*DB, error) {
	driver := catalogDriver(dbURL)
	conn, err := sql.Open(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// single writer; also keeps :memory: on one connection
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetConnMaxIdleTime(9 * time.Second)
	}

	_, err = conn.Exec(`
		CREATE TABLE IF NOT EXISTS imports (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			format TEXT NOT NULL,
			table_name TEXT NOT NULL,
			columns TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			skipped INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			persisted BOOLEAN DEFAULT 0
		)
	`)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create imports table: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &DB{
		catalog: conn,
		dataDir: dataDir,
		logger:  log.New("db"),
		staging: make(map[string]*sql.DB),
	}, nil
}

func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, duckConn := range db.staging {
		if err := duckConn.Close(); err != nil {
			db.logger.Errorf("Error closing DuckDB connection %s: %v", id, err)
		}
	}
	db.staging = map[string]*sql.DB{}

	return db.catalog.Close()
}

func (db *DB) stagingPath(id string) string {
	return filepath.Join(db.dataDir, fmt.Sprintf("%s.duckdb", id))
}

func (db *DB) stagingConnection(id string) (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if conn, ok := db.staging[id]; ok {
		return conn, nil
	}

	conn, err := sql.Open("duckdb", db.stagingPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	db.staging[id] = conn
	return conn, nil
}

func (db *DB) dropStaging(id string) {
	db.mu.Lock()
	conn, ok := db.staging[id]
	delete(db.staging, id)
	db.mu.Unlock()

	if ok {
		if err := conn.Close(); err != nil {
			db.logger.Errorf("Error closing DuckDB connection %s: %v", id, err)
		}
	}
	for _, p := range []string{db.stagingPath(id), db.stagingPath(id) + ".wal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			db.logger.Errorf("Error removing %s: %v", p, err)
		}
	}
}

// Import stages the data read from reader in a fresh DuckDB database and
// records it in the catalog.
func (db *DB) Import(ctx context.Context, req ImportRequest, reader io.Reader) (imp *models.Import, res *importer.Result, err error) {
	id := uuid.New().String()
	tableName := req.TableName
	if tableName == "" {
		tableName = defaultTableName
	}

	tempDir, err := os.MkdirTemp("", "tabload-import")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempFile := filepath.Join(tempDir, "data."+string(req.Format))
	f, err := os.Create(tempFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to write upload: %w", err)
	}

	duckConn, err := db.stagingConnection(id)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			db.dropStaging(id)
		}
	}()

	opts := []importer.Option{importer.WithLogger(db.logger)}
	if req.Delimiter != 0 {
		opts = append(opts, importer.WithDelimiter(req.Delimiter))
	}
	if req.SkipBadRows {
		opts = append(opts, importer.WithRowPolicy(importer.SkipBadRows))
	}

	switch req.Format {
	case importer.FormatATT:
		res, err = importer.FromATT(ctx, duckConn, tempFile, tableName, req.ColumnTypes, opts...)
	case importer.FormatCSV:
		res, err = importer.FromCSV(ctx, duckConn, tempFile, tableName, req.ColumnTypes, opts...)
	default:
		err = fmt.Errorf("%w: %q", importer.ErrUnknownFormat, req.Format)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to import %s into DuckDB: %w", req.Filename, err)
	}

	cols := make([]models.Column, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = models.Column{Name: c.Name, Type: c.Type}
	}
	colsJSON, err := json.Marshal(cols)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode columns: %w", err)
	}

	now := time.Now().UTC()
	_, err = db.catalog.ExecContext(ctx, `
		INSERT INTO imports (id, filename, format, table_name, columns, row_count, skipped, created_at, persisted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`, id, req.Filename, string(req.Format), tableName, string(colsJSON), res.Inserted, len(res.Skipped), now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store import reference: %w", err)
	}

	db.logger.Infof("imported %s as %s: %d rows, %d skipped", req.Filename, id, res.Inserted, len(res.Skipped))

	return &models.Import{
		ID:        id,
		Filename:  req.Filename,
		Format:    string(req.Format),
		TableName: tableName,
		Columns:   cols,
		RowCount:  res.Inserted,
		Skipped:   len(res.Skipped),
		CreatedAt: now,
		Persisted: false,
	}, res, nil
}

const importColumns = `id, filename, format, table_name, columns, row_count, skipped, created_at, persisted`

type scanner interface {
	Scan(dest ...any) error
}

func scanImport(s scanner) (*models.Import, error) {
	var imp models.Import
	var cols string
	if err := s.Scan(&imp.ID, &imp.Filename, &imp.Format, &imp.TableName, &cols,
		&imp.RowCount, &imp.Skipped, &imp.CreatedAt, &imp.Persisted); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cols), &imp.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns of %s: %w", imp.ID, err)
	}
	return &imp, nil
}

func (db *DB) GetImport(ctx context.Context, id string) (*models.Import, error) {
	row := db.catalog.QueryRowContext(ctx, `SELECT `+importColumns+` FROM imports WHERE id = ?`, id)

	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	return imp, nil
}

func (db *DB) ListImports(ctx context.Context) ([]models.Import, error) {
	rows, err := db.catalog.QueryContext(ctx, `SELECT `+importColumns+` FROM imports ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	imports := []models.Import{}
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		imports = append(imports, *imp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}
	return imports, nil
}

// QueryImport reads a page of rows from the staged table, or from the catalog
// database once the import has been persisted.
func (db *DB) QueryImport(ctx context.Context, q Query) (*QueryResult, error) {
	startTime := time.Now()

	imp, err := db.GetImport(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	if q.SortColumn != "" && !hasColumn(imp, q.SortColumn) && !(q.ShowRowID && q.SortColumn == "rowid") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, q.SortColumn)
	}

	transform, ok := transformFuncs[q.Shape]
	if !ok {
		transform = transformObject
	}

	conn := db.catalog
	rowIDExpr := "rowid"
	if !imp.Persisted {
		if conn, err = db.stagingConnection(imp.ID); err != nil {
			return nil, err
		}
		rowIDExpr = "row_number() OVER () AS rowid"
	}

	table := importer.QuoteIdentifier(imp.TableName)

	query := "SELECT "
	if q.ShowRowID {
		query += rowIDExpr + ", "
	}
	query += "* FROM " + table

	if q.SortColumn != "" {
		direction := ""
		if q.SortDesc {
			direction = " DESC"
		}
		query += " ORDER BY " + importer.QuoteIdentifier(q.SortColumn) + direction
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	if q.Offset > 0 {
		if q.Limit <= 0 && imp.Persisted {
			// SQLite only accepts OFFSET after a LIMIT
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	var total int
	if err := conn.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query data: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: []any{}, Total: total}
	for rows.Next() {
		values := make([]any, len(columns))

		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		result.Rows = append(result.Rows, transform(columns, values))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.QueryMS = float64(time.Since(startTime).Microseconds()) / 1000.0
	return result, nil
}

func hasColumn(imp *models.Import, name string) bool {
	for _, c := range imp.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// PersistedTableName is the catalog table an import is copied to.
func PersistedTableName(id string) string {
	return "imp_" + strings.ReplaceAll(id, "-", "_")
}

// Persist copies a staged import into the catalog database in one transaction
// and drops the staging database afterwards.
func (db *DB) Persist(ctx context.Context, id string) (err error) {
	imp, err := db.GetImport(ctx, id)
	if err != nil {
		return err
	}

	if imp.Persisted {
		return fmt.Errorf("import %s already persisted", id)
	}

	duckConn, err := db.stagingConnection(id)
	if err != nil {
		return err
	}

	cols := make([]importer.Column, len(imp.Columns))
	quoted := make([]string, len(imp.Columns))
	for i, c := range imp.Columns {
		cols[i] = importer.Column{Name: c.Name, Type: c.Type}
		quoted[i] = importer.QuoteIdentifier(c.Name)
	}

	tx, err := db.catalog.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Errorf("Error rolling back transaction: %v", rbErr)
			}
		}
	}()

	permanent := PersistedTableName(id)
	if err = importer.CreateTable(ctx, tx, permanent, cols); err != nil {
		return err
	}

	dataRows, err := duckConn.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(quoted, ", "), importer.QuoteIdentifier(imp.TableName)))
	if err != nil {
		return fmt.Errorf("failed to query DuckDB data: %w", err)
	}
	defer dataRows.Close()

	insertStmt, err := tx.PrepareContext(ctx, importer.InsertSQL(permanent, cols))
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer insertStmt.Close()

	for dataRows.Next() {
		values := make([]any, len(cols))

		scanArgs := make([]any, len(cols))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err = dataRows.Scan(scanArgs...); err != nil {
			return fmt.Errorf("failed to scan data row: %w", err)
		}

		stringValues := make([]any, len(values))
		for i, v := range values {
			if v == nil {
				stringValues[i] = nil
				continue
			}

			switch val := v.(type) {
			case []byte:
				stringValues[i] = string(val)
			case string:
				stringValues[i] = val
			default:
				stringValues[i] = fmt.Sprintf("%v", val)
			}
		}

		if _, err = insertStmt.ExecContext(ctx, stringValues...); err != nil {
			return fmt.Errorf("failed to insert data: %w", err)
		}
	}

	if err = dataRows.Err(); err != nil {
		return fmt.Errorf("error iterating data rows: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE imports
		SET persisted = 1, table_name = ?
		WHERE id = ?
	`, permanent, id)
	if err != nil {
		return fmt.Errorf("failed to update import persistence status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.dropStaging(id)
	return nil
}
