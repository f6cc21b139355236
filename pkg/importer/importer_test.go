package importer

import (
	"bytes"
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "modernc.org/sqlite"
)

const (
	sampleCSV = "id,name\n1,Alice\n2,Bob\n"
	sampleATT = "$VISION\n* comment\n$FIELDS: id;name\n1;Alice\n2;Bob\n"
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openTestDuckDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func tableColumns(t *testing.T, db *sql.DB, table string) []Column {
	t.Helper()
	rows, err := db.Query(`SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var c Column
		require.NoError(t, rows.Scan(&c.Name, &c.Type))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	return cols
}

func tableRows(t *testing.T, db *sql.DB, table string) [][]sql.NullString {
	t.Helper()
	rows, err := db.Query("SELECT * FROM " + QuoteIdentifier(table) + " ORDER BY rowid")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	require.NoError(t, err)

	var out [][]sql.NullString
	for rows.Next() {
		vals := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range vals {
			dest[i] = &vals[i]
		}
		require.NoError(t, rows.Scan(dest...))
		out = append(out, vals)
	}
	require.NoError(t, rows.Err())
	return out
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
	return n > 0
}

func str(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestFromCSV(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	res, err := FromCSV(ctx, db, writeFile(t, "people.csv", sampleCSV), "people", nil)
	require.NoError(t, err)

	assert.Equal(t, "people", res.Table)
	assert.EqualValues(t, 2, res.Inserted)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []Column{{Name: "id", Type: "TEXT"}, {Name: "name", Type: "TEXT"}}, tableColumns(t, db, "people"))
	assert.Equal(t, [][]sql.NullString{
		{str("1"), str("Alice")},
		{str("2"), str("Bob")},
	}, tableRows(t, db, "people"))
}

func TestFromATT(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	res, err := FromATT(ctx, db, writeFile(t, "people.att", sampleATT), "people", nil)
	require.NoError(t, err)

	assert.EqualValues(t, 2, res.Inserted)
	assert.Equal(t, []Column{{Name: "id", Type: "TEXT"}, {Name: "name", Type: "TEXT"}}, tableColumns(t, db, "people"))
	assert.Equal(t, [][]sql.NullString{
		{str("1"), str("Alice")},
		{str("2"), str("Bob")},
	}, tableRows(t, db, "people"))
}

func TestFromATT_MatchesCSV(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := FromCSV(ctx, db, writeFile(t, "a.csv", sampleCSV), "from_csv", nil)
	require.NoError(t, err)
	_, err = FromATT(ctx, db, writeFile(t, "a.att", sampleATT), "from_att", nil)
	require.NoError(t, err)

	assert.Equal(t, tableColumns(t, db, "from_csv"), tableColumns(t, db, "from_att"))
	assert.Equal(t, tableRows(t, db, "from_csv"), tableRows(t, db, "from_att"))
}

func TestLoad_RowAndColumnCounts(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	var b strings.Builder
	b.WriteString("$VISION 1\n* generated\n$FIELDS: c1;c2;c3;c4;c5\n")
	const n = 250
	for i := 0; i < n; i++ {
		b.WriteString("a;b;c;d;e\n")
	}

	res, err := Load(ctx, db, strings.NewReader(b.String()), FormatATT, "wide", nil)
	require.NoError(t, err)
	assert.EqualValues(t, n, res.Inserted)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ColumnNames(tableColumns(t, db, "wide")))

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM "wide"`).Scan(&count))
	assert.Equal(t, n, count)
}

func TestLoad_Overrides(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	var logBuf bytes.Buffer
	logger := log.New("test")
	logger.SetOutput(&logBuf)

	overrides := map[string]string{"score": "INTEGER", "zip": "TEXT"}
	res, err := Load(ctx, db, strings.NewReader("name;score\nAlice;10\nBob;7\n"), FormatCSV, "scores", overrides,
		WithDelimiter(';'), WithLogger(logger))
	require.NoError(t, err)

	want := []Column{{Name: "name", Type: "TEXT"}, {Name: "score", Type: "INTEGER"}}
	assert.Equal(t, want, res.Columns)
	assert.Equal(t, want, tableColumns(t, db, "scores"))
	assert.Contains(t, logBuf.String(), "zip")

	var total int
	require.NoError(t, db.QueryRow(`SELECT sum("score") FROM "scores"`).Scan(&total))
	assert.Equal(t, 17, total)
}

func TestLoad_QuotedIdentifiers(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := Load(ctx, db, strings.NewReader("a\"b,first name\nx,y\n"), FormatCSV, `odd "table"`, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{`a"b`, "first name"}, ColumnNames(tableColumns(t, db, `odd "table"`)))
	assert.Equal(t, [][]sql.NullString{{str("x"), str("y")}}, tableRows(t, db, `odd "table"`))
}

func TestLoad_ExistingTable(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := Load(ctx, db, strings.NewReader(sampleCSV), FormatCSV, "people", nil)
	require.NoError(t, err)

	_, err = Load(ctx, db, strings.NewReader(sampleCSV), FormatCSV, "people", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.Len(t, tableRows(t, db, "people"), 2)
}

func TestLoad_MissingHeader(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := Load(ctx, db, strings.NewReader("$VISION\n* nothing else\n"), FormatATT, "empty", nil)
	require.ErrorIs(t, err, ErrMissingHeader)
	assert.False(t, tableExists(t, db, "empty"))
}

func TestLoad_FieldCount(t *testing.T) {
	ctx := context.Background()

	t.Run("short_rows_bind_null", func(t *testing.T) {
		db := openTestSQLite(t)
		res, err := Load(ctx, db, strings.NewReader("a,b,c\n1,2,3\n4\n5,6\n"), FormatCSV, "t", nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, res.Inserted)
		assert.Equal(t, [][]sql.NullString{
			{str("1"), str("2"), str("3")},
			{str("4"), {}, {}},
			{str("5"), str("6"), {}},
		}, tableRows(t, db, "t"))
	})

	t.Run("empty_values_stay_empty", func(t *testing.T) {
		db := openTestSQLite(t)
		_, err := Load(ctx, db, strings.NewReader("a,b\n,x\n"), FormatCSV, "t", nil)
		require.NoError(t, err)
		assert.Equal(t, [][]sql.NullString{{str(""), str("x")}}, tableRows(t, db, "t"))
	})

	t.Run("long_row_aborts_and_rolls_back", func(t *testing.T) {
		db := openTestSQLite(t)
		_, err := Load(ctx, db, strings.NewReader("$VISION\n$F: a;b\n1;2\n3;4;5\n6;7\n"), FormatATT, "t", nil)
		require.ErrorIs(t, err, ErrFieldCount)

		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 4, rowErr.Line)
		assert.Equal(t, 3, rowErr.Fields)
		assert.Equal(t, 2, rowErr.Want)
		assert.False(t, tableExists(t, db, "t"))
	})

	t.Run("strict_short_row", func(t *testing.T) {
		db := openTestSQLite(t)
		_, err := Load(ctx, db, strings.NewReader("a,b\n1,2\n3\n"), FormatCSV, "t", nil, WithStrictFieldCount(true))
		require.ErrorIs(t, err, ErrFieldCount)
		assert.False(t, tableExists(t, db, "t"))
	})

	t.Run("skip_bad_rows", func(t *testing.T) {
		db := openTestSQLite(t)
		logger := log.New("test")
		logger.SetOutput(&bytes.Buffer{})

		res, err := Load(ctx, db, strings.NewReader("a,b\n1,2\n3,4,5\n\n6\n7,8\n"), FormatCSV, "t", nil,
			WithRowPolicy(SkipBadRows), WithStrictFieldCount(true), WithLogger(logger))
		require.NoError(t, err)

		assert.EqualValues(t, 2, res.Inserted)
		require.Len(t, res.Skipped, 2)
		assert.Equal(t, 3, res.Skipped[0].Line)
		assert.Equal(t, 5, res.Skipped[1].Line)
		assert.Equal(t, [][]sql.NullString{
			{str("1"), str("2")},
			{str("7"), str("8")},
		}, tableRows(t, db, "t"))
	})
}

func TestLoad_QuotedFields(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := Load(ctx, db, strings.NewReader("id,note\n1,\"hello, world\"\n2,\"say \"\"hi\"\"\"\n"), FormatCSV, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, [][]sql.NullString{
		{str("1"), str("hello, world")},
		{str("2"), str(`say "hi"`)},
	}, tableRows(t, db, "notes"))
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	_, err := Load(ctx, db, strings.NewReader(sampleCSV), Format("xlsx"), "t", nil)
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(ctx, db, strings.NewReader(sampleCSV), FormatCSV, "t", nil, WithDelimiter('"'))
	require.ErrorIs(t, err, ErrInvalidDelimiter)

	_, err = FromCSV(ctx, db, filepath.Join(t.TempDir(), "missing.csv"), "t", nil)
	require.ErrorIs(t, err, fs.ErrNotExist)
	var pathErr *fs.PathError
	assert.ErrorAs(t, err, &pathErr)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Load(cancelled, db, strings.NewReader(sampleCSV), FormatCSV, "t", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, tableExists(t, db, "t"))
}

func TestLoad_ClosedHandle(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Load(context.Background(), db, strings.NewReader(sampleCSV), FormatCSV, "t", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestLoad_DuckDB(t *testing.T) {
	ctx := context.Background()
	db := openTestDuckDB(t)

	res, err := Load(ctx, db, strings.NewReader(sampleATT), FormatATT, "people", map[string]string{"id": "INTEGER"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Inserted)

	rows, err := db.Query(`SELECT "id", "name" FROM "people" ORDER BY "id"`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var got []string
	for rows.Next() {
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		got = append(got, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Alice", "Bob"}, got)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" ATT ")
	require.NoError(t, err)
	assert.Equal(t, FormatATT, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("json")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad_RejectedInsertAborts(t *testing.T) {
	ctx := context.Background()

	t.Run("duckdb_cast_failure", func(t *testing.T) {
		db := openTestDuckDB(t)

		_, err := Load(ctx, db, strings.NewReader("id,name\n1,a\nxx,b\n3,c\n"), FormatCSV, "t",
			map[string]string{"id": "INTEGER"}, WithRowPolicy(SkipBadRows))
		require.Error(t, err)

		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 3, rowErr.Line)

		var n int
		require.NoError(t, db.QueryRow(`SELECT count(*) FROM information_schema.tables WHERE table_name = 't'`).Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("sqlite_constraint_failure", func(t *testing.T) {
		db := openTestSQLite(t)

		_, err := Load(ctx, db, strings.NewReader("id,name\n1,a\n2\n3,c\n"), FormatCSV, "t",
			map[string]string{"name": "TEXT NOT NULL"}, WithRowPolicy(SkipBadRows))
		require.Error(t, err)

		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 3, rowErr.Line)
		assert.False(t, tableExists(t, db, "t"))
	})

	t.Run("duckdb_skips_malformed_records", func(t *testing.T) {
		db := openTestDuckDB(t)

		res, err := Load(ctx, db, strings.NewReader("id,name\n1,a\n2,b,extra\n3,c\n"), FormatCSV, "t",
			map[string]string{"id": "INTEGER"}, WithRowPolicy(SkipBadRows))
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.Inserted)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, 3, res.Skipped[0].Line)

		var n int
		require.NoError(t, db.QueryRow(`SELECT count(*) FROM "t"`).Scan(&n))
		assert.Equal(t, 2, n)
	})
}
