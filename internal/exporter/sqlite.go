package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"salesprep/internal/table"
)

// SQLiteTable is the table the cleaned rows are stored in
const SQLiteTable = "sales_clean"

func sqliteType(k table.Kind) string {
	switch k {
	case table.KindNumber:
		return "REAL"
	case table.KindBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func sqliteValue(v interface{}) interface{} {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// checkColumnNames rejects names SQLite would treat as the same column.
// SQLite folds ASCII case in identifiers, so "Year" and "year" collide.
func checkColumnNames(names []string) error {
	seen := make(map[string]string, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("columns %q and %q differ only in case and cannot both be stored in SQLite", prev, name)
		}
		seen[key] = name
	}
	return nil
}

// WriteSQLite stores t as one table in a new SQLite database file. An
// existing file is never replaced and a failed write leaves no file behind.
func WriteSQLite(ctx context.Context, filePath string, t *table.Table) error {
	if err := checkColumnNames(t.Names()); err != nil {
		return err
	}
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("file %s already exists", filePath)
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	err = fillSQLite(ctx, db, t)
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	if err != nil {
		removePartial(filePath)
		return err
	}
	return nil
}

func fillSQLite(ctx context.Context, db *sql.DB, t *table.Table) error {
	cols := t.Columns()
	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for j, c := range cols {
		quoted[j] = fmt.Sprintf("%q", c.Name)
		defs[j] = quoted[j] + " " + sqliteType(c.Kind)
	}
	create := fmt.Sprintf(`CREATE TABLE %q (%s)`, SQLiteTable, strings.Join(defs, ","))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		SQLiteTable, strings.Join(quoted, ","), ph))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			args[j] = sqliteValue(cellValue(c, i))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// removePartial deletes a file this package created before a write failed,
// along with the journal SQLite may leave next to it.
func removePartial(path string) {
	for _, p := range []string{path, path + "-journal"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Default().Warn("Failed to remove partial output",
				slog.String("path", p),
				slog.String("error", err.Error()))
		}
	}
}
