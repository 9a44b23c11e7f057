// Package datarecording stores run artifacts in SQLite: per-trial
// outcomes, batch summaries, and estimation results. Rows are plain
// structs; tables are created from a sample entry and inserts are batched
// until Flush.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// SQLite driver for the recording database.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// insertBatchSize is the number of buffered rows that triggers an
// automatic flush.
const insertBatchSize = 65536

// A DataRecorder is a backend that stores run artifacts.
type DataRecorder interface {
	// CreateTable creates a table shaped after the sample entry. Panics
	// if the sample has non-scalar fields; that is a programming error.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one row for a table created earlier.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered rows to the database.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// NewRecorder creates a SQLite-backed DataRecorder. The path is taken
// without the .sqlite3 suffix; an empty path derives a unique name. The
// recorder flushes on process exit.
func NewRecorder(path string) DataRecorder {
	w := &sqliteRecorder{
		dbName: path,
		tables: make(map[string]*tableBuffer),
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

// NewRecorderWithDB wraps an existing database handle, for tests and
// in-memory recording.
func NewRecorderWithDB(db *sql.DB) DataRecorder {
	return &sqliteRecorder{
		db:     db,
		tables: make(map[string]*tableBuffer),
	}
}

type tableBuffer struct {
	structType reflect.Type
	fields     []string
	entries    []any
}

type sqliteRecorder struct {
	db *sql.DB

	dbName       string
	tables       map[string]*tableBuffer
	bufferedRows int
}

func (r *sqliteRecorder) init() {
	if r.dbName == "" {
		r.dbName = "groverlab_run_" + xid.New().String()
	}

	filename := r.dbName + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("recording file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Recording run data to %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r.db = db
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	if err := checkRowType(sampleEntry); err != nil {
		panic(err)
	}

	fields := structs.Names(sampleEntry)
	createSQL := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(fields, ",\n\t") + "\n);"
	r.mustExecute(createSQL)

	r.tables[tableName] = &tableBuffer{
		structType: reflect.TypeOf(sampleEntry),
		fields:     fields,
	}
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	table, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Sprintf("entry type %T does not match table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)

	r.bufferedRows++
	if r.bufferedRows >= insertBatchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	return tables
}

func (r *sqliteRecorder) Flush() {
	if r.bufferedRows == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for tableName, table := range r.tables {
		if len(table.entries) == 0 {
			continue
		}

		stmt := r.prepareInsert(tableName, table)

		for _, entry := range table.entries {
			value := reflect.ValueOf(entry)

			row := make([]any, 0, value.NumField())
			for i := 0; i < value.NumField(); i++ {
				row = append(row, value.Field(i).Interface())
			}

			if _, err := stmt.Exec(row...); err != nil {
				panic(err)
			}
		}

		table.entries = nil
		stmt.Close()
	}

	r.bufferedRows = 0
}

func (r *sqliteRecorder) Close() error {
	r.Flush()
	return r.db.Close()
}

func (r *sqliteRecorder) prepareInsert(
	tableName string,
	table *tableBuffer,
) *sql.Stmt {
	placeholders := make([]string, len(table.fields))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	insertSQL := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := r.db.Prepare(insertSQL)
	if err != nil {
		panic(err)
	}

	return stmt
}

func (r *sqliteRecorder) mustExecute(query string) sql.Result {
	res, err := r.db.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}

	return res
}

// checkRowType verifies that every field of a row struct has a scalar
// type SQLite can store directly.
func checkRowType(entry any) error {
	entryType := reflect.TypeOf(entry)
	if entryType == nil || entryType.Kind() != reflect.Struct {
		return fmt.Errorf("row must be a struct, got %T", entry)
	}

	for i := 0; i < entryType.NumField(); i++ {
		field := entryType.Field(i)
		if !isScalarKind(field.Type.Kind()) {
			return fmt.Errorf("row field %s has unsupported type %s",
				field.Name, field.Type)
		}
	}

	return nil
}

func isScalarKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}
