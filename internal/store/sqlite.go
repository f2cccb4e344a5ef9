package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/model"
)

// SQLiteTable is the table ExportSQLite replaces on every export.
const SQLiteTable = "space_objects"

// sqliteTypes maps typed columns; everything else is TEXT.
var sqliteTypes = map[string]string{
	core.ColLaunchYear:       "INTEGER",
	core.ColLongitude:        "REAL",
	core.ColAvgLongitude:     "REAL",
	core.ColDaysOld:          "INTEGER",
	core.ColConjunctionCount: "INTEGER",
	core.ColIsUnkObject:      "INTEGER",
	core.ColStillInOrbit:     "INTEGER",
}

// ExportSQLite writes records to the space_objects table of the SQLite file
// at dbPath, creating the file if needed. Existing rows are dropped first so
// the table mirrors the exported collection. It returns the number of rows
// inserted.
func ExportSQLite(ctx context.Context, records []*model.SpaceObject, dbPath string) (int, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, &IOError{Op: "export", Path: dbPath, Err: err}
		}
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return 0, &IOError{Op: "export", Path: dbPath, Err: fmt.Errorf("open sqlite: %w", err)}
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	n, err := exportTx(ctx, conn, records)
	if err != nil {
		return 0, &IOError{Op: "export", Path: dbPath, Err: err}
	}
	return n, nil
}

func exportTx(ctx context.Context, conn *sql.DB, records []*model.SpaceObject) (int, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS ` + SQLiteTable,
		createTableSQL(),
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("migrate: %w", err)
		}
	}

	insert, err := tx.PrepareContext(ctx, insertSQL())
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, r := range records {
		if _, err := insert.ExecContext(ctx, rowArgs(r)...); err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func createTableSQL() string {
	cols := make([]string, 0, len(core.Header))
	for _, c := range core.Header {
		typ, ok := sqliteTypes[c]
		if !ok {
			typ = "TEXT"
		}
		cols = append(cols, fmt.Sprintf("%q %s NOT NULL", c, typ))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", SQLiteTable, strings.Join(cols, ",\n\t"))
}

func insertSQL() string {
	quoted := make([]string, len(core.Header))
	for i, c := range core.Header {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(core.Header)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", SQLiteTable, strings.Join(quoted, ", "), marks)
}

// rowArgs returns insert arguments in Header order, keeping numeric columns
// typed instead of their formatted text.
func rowArgs(r *model.SpaceObject) []any {
	fields := core.Fields(r)
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	set := func(col string, v any) {
		for i, c := range core.Header {
			if c == col {
				args[i] = v
				return
			}
		}
	}
	set(core.ColLaunchYear, r.LaunchYear)
	set(core.ColLongitude, r.Longitude)
	set(core.ColAvgLongitude, r.AverageLongitude)
	set(core.ColDaysOld, r.DaysOld)
	set(core.ColConjunctionCount, r.ConjunctionCount)
	set(core.ColIsUnkObject, r.UnknownObject)
	set(core.ColStillInOrbit, r.StillInOrbit)
	return args
}
