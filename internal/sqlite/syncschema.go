package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/random"
)

// schemaQuerier is satisfied by both *sql.Tx and *sql.Conn.
type schemaQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// migrate ensures that the db schema matches the target schema definition.
//
// The migration is declarative. The target schema is created in a scratch in-memory database which is attached to
// the connection, and the difference is applied:
//
// 1. Tables missing from the target are dropped,
// 2. New tables are created,
// 3. Changed tables are rebuilt with the 12-step procedure https://www.sqlite.org/lang_altertable.html#otheralter,
// 4. Indexes, triggers and views are recreated when their SQL differs.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrate(ctx context.Context, schemaDefinition string) (err error) {
	// PRAGMA foreign_keys is per connection so the whole migration runs on one.
	var conn *sql.Conn
	if conn, err = db.ReadWrite.Conn(ctx); err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "release connection"))
		}
	}()

	var targetName string
	if targetName, err = random.Letters(20); err != nil { //nolint:mnd // long enough to not collide
		return errors.Wrap(err, "generate random ID")
	}
	targetDSN := fmt.Sprintf("file:%s?mode=memory&cache=shared", targetName)
	var target *sql.DB
	if target, err = sql.Open("sqlite3", targetDSN); err != nil {
		return errors.Wrap(err, "open schema target database")
	}
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close schema target database"))
		}
	}()
	// The shared cache database lives as long as one connection to it stays open.
	target.SetMaxIdleConns(1)
	target.SetConnMaxIdleTime(0)
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return errors.Wrap(err, "create schema target database")
	}

	if _, err = conn.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", targetDSN); err != nil {
		return errors.Wrap(err, "attach schema target database")
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			err = errors.Join(err, errors.Wrap(detachErr, "detach schema target database"))
		}
	}()

	// Step 1: Disable foreign key validation temporarily.
	if _, err = conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign key validation")
	}
	// Step 12: Re-enable foreign key validation.
	defer func() {
		if _, fkErr := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, errors.Wrap(fkErr, "re-enable foreign key validation"))
		}
	}()

	// Step 2: Start transaction.
	var tx *sql.Tx
	if tx, err = conn.BeginTx(ctx, nil); err != nil {
		return errors.Wrap(err, "start transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", errors.SlogError(rollbackErr))
		}
	}()

	// Steps 3-7 migrate tables.
	if err = db.migrateTables(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate tables")
	}

	// Steps 8-9: Recreate indexes, triggers and views.
	if err = db.migrateObjects(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate indexes, triggers and views")
	}

	// Step 10: Check foreign key constraints.
	var violations []string
	if violations, err = queryStringSlice(ctx, tx, "SELECT \"table\" FROM pragma_foreign_key_check"); err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if len(violations) > 0 {
		return errors.New("foreign key violations after migration", slog.Any("tables", violations))
	}

	// Step 11: Commit transaction from step 2.
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	return nil
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	deletedTables, err := queryStringSlice(ctx, tx, `SELECT current.name
FROM main.sqlite_schema AS current
         LEFT JOIN schemaTarget.sqlite_schema AS target ON current.name = target.name AND current.type = target.type
WHERE current.type = 'table' AND target.type IS NULL AND current.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return errors.Wrap(err, "query deleted tables")
	}
	for _, table := range deletedTables {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", table)); err != nil {
			return errors.Wrap(err, "drop table", slog.String("table", table))
		}
	}

	newTableSQLs, err := queryStringSlice(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN main.sqlite_schema AS current ON current.name = target.name AND current.type = target.type
WHERE target.type = 'table' AND current.type IS NULL AND target.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return errors.Wrap(err, "query new tables")
	}
	for _, query := range newTableSQLs {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", query))
		if _, err = tx.ExecContext(ctx, query); err != nil {
			return errors.Wrap(err, "create table", slog.String("query", query))
		}
	}

	changed, err := queryChangedTables(ctx, tx)
	if err != nil {
		return errors.Wrap(err, "query changed tables")
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return errors.Wrap(err, "rebuild table", slog.String("table", table.name))
		}
	}
	return nil
}

// rebuildTable copies the common columns of a changed table into a table with the new definition.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table changedTable) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
		slog.String("table", table.name),
		slog.String("current_sql", table.currentSQL),
		slog.String("new_sql", table.newSQL))

	// Step 4: Create the new table under a temporary name.
	tempName := table.name + "_migration_temp"
	tempSQL := strings.Replace(table.newSQL, table.name, tempName, 1)
	if _, err := tx.ExecContext(ctx, tempSQL); err != nil {
		return errors.Wrap(err, "create temporary table", slog.String("query", tempSQL))
	}

	// Step 5: Copy common columns. Quoting handles column names that are SQLite keywords.
	columns, err := queryStringSlice(ctx, tx, `SELECT '"' || target.name || '"'
FROM pragma_table_info(:table_name) AS current
         JOIN pragma_table_info(:table_name, 'schemaTarget') AS target ON target.name = current.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return errors.Wrap(err, "query common columns")
	}
	if len(columns) > 0 {
		common := strings.Join(columns, ", ")
		copySQL := fmt.Sprintf("INSERT INTO %q (%s) SELECT %s FROM %q", tempName, common, common, table.name)
		if _, err = tx.ExecContext(ctx, copySQL); err != nil {
			return errors.Wrap(err, "copy data", slog.String("query", copySQL))
		}
	}

	// Step 6: Drop the old table.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", table.name)); err != nil {
		return errors.Wrap(err, "drop old table")
	}

	// Step 7: Rename the new table.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %q RENAME TO %q", tempName, table.name)); err != nil {
		return errors.Wrap(err, "rename new table")
	}
	return nil
}

// migrateObjects drops indexes, triggers and views that are gone or changed and creates the missing ones.
// It runs after migrateTables because dropping a table drops its indexes and triggers too.
func (db *Database) migrateObjects(ctx context.Context, tx *sql.Tx) error {
	stale, err := queryStringSlice(ctx, tx, `SELECT current.type || ' "' || current.name || '"'
FROM main.sqlite_schema AS current
         LEFT JOIN schemaTarget.sqlite_schema AS target ON current.name = target.name AND current.type = target.type
WHERE current.type IN ('index', 'trigger', 'view') AND current.sql IS NOT NULL
  AND (target.sql IS NULL OR current.sql <> target.sql)`)
	if err != nil {
		return errors.Wrap(err, "query stale objects")
	}
	for _, object := range stale {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping schema object", slog.String("object", object))
		if _, err = tx.ExecContext(ctx, "DROP "+object); err != nil {
			return errors.Wrap(err, "drop schema object", slog.String("object", object))
		}
	}

	missing, err := queryStringSlice(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN main.sqlite_schema AS current ON current.name = target.name AND current.type = target.type
WHERE target.type IN ('index', 'trigger', 'view') AND target.sql IS NOT NULL AND current.type IS NULL
ORDER BY CASE target.type WHEN 'view' THEN 0 WHEN 'index' THEN 1 ELSE 2 END`)
	if err != nil {
		return errors.Wrap(err, "query missing objects")
	}
	for _, query := range missing {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating schema object", slog.String("query", query))
		if _, err = tx.ExecContext(ctx, query); err != nil {
			return errors.Wrap(err, "create schema object", slog.String("query", query))
		}
	}
	return nil
}

type changedTable struct {
	name       string
	currentSQL string
	newSQL     string
}

func queryChangedTables(ctx context.Context, q schemaQuerier) ([]changedTable, error) {
	rows, err := q.QueryContext(ctx, `SELECT current.name, current.sql, target.sql
FROM main.sqlite_schema AS current
         JOIN schemaTarget.sqlite_schema AS target ON current.name = target.name AND current.type = target.type
WHERE current.type = 'table' AND current.name NOT LIKE 'sqlite_%' AND current.sql <> target.sql`)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	var tables []changedTable
	for rows.Next() {
		var table changedTable
		if err = rows.Scan(&table.name, &table.currentSQL, &table.newSQL); err != nil {
			return nil, errors.Wrap(err, "scan table")
		}
		tables = append(tables, table)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return tables, nil
}

// queryStringSlice returns the single string column of a query's result.
func queryStringSlice(ctx context.Context, q schemaQuerier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return results, nil
}
