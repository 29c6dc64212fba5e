package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/random"
	"github.com/myrjola/teamcheck/internal/rosterfile"

	_ "embed"

	_ "github.com/mattn/go-sqlite3" // Enable sqlite3 driver
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.yaml
var fixtures []byte

// ErrDatabaseNotFound is returned when the roster database file doesn't exist.
var ErrDatabaseNotFound = errors.NewSentinel("database not found")

type Database struct {
	// ReadWrite is nil for databases opened with NewDatabase from a file.
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase opens the roster database for reading.
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database. File databases
// are opened read-only and must exist, otherwise ErrDatabaseNotFound is returned. In-memory databases get the schema
// and the demo roster, which is useful for development and tests.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	if strings.Contains(url, ":memory:") {
		return newInMemoryDatabase(ctx, logger)
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "looking for database", slog.String("path", url))
	if _, err := os.Stat(url); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(ErrDatabaseNotFound, "stat database", slog.String("path", url))
		}
		return nil, errors.Wrap(err, "stat database", slog.String("path", url))
	}

	// The options prefixed with underscore '_' are SQLite pragmas documented at https://www.sqlite.org/pragma.html.
	// The options without leading underscore are SQLite URI parameters documented at https://www.sqlite.org/uri.html.
	readConfig := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&_busy_timeout=5000", url)

	readDB, err := openReadOnly(ctx, readConfig)
	if err != nil {
		return nil, err
	}

	return &Database{
		ReadWrite: nil,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}

// NewWritableDatabase opens or creates the database file at url for writing and synchronizes the schema.
//
// It's used to build roster databases, the application itself only reads them.
func NewWritableDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	commonConfig := strings.Join([]string{
		// Rollback journal keeps the roster in a single file that can be shipped and opened read-only.
		"_journal_mode=delete",
		// Avoids SQLITE_BUSY errors when database is under load.
		"_busy_timeout=5000",
		// Enables foreign key constraints.
		"_foreign_keys=on",
	}, "&")
	readWriteConfig := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s", url, commonConfig)
	readConfig := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&_busy_timeout=5000", url)

	return open(ctx, readWriteConfig, readConfig, schemaDefinition, logger)
}

func newInMemoryDatabase(ctx context.Context, logger *slog.Logger) (*Database, error) {
	db, err := openInMemory(ctx, schemaDefinition, logger)
	if err != nil {
		return nil, err
	}

	var roster models.Roster
	if roster, err = rosterfile.Parse(bytes.NewReader(fixtures)); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "parse fixtures")
	}
	if err = db.Seed(ctx, roster); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply fixtures")
	}

	return db, nil
}

func openInMemory(ctx context.Context, schema string, logger *slog.Logger) (*Database, error) {
	// For in-memory databases, we need shared cache mode so that both connection pools access the same data.
	//
	// For parallel tests, we need to use a different database name for each test to avoid sharing data.
	// See https://www.sqlite.org/inmemorydb.html.
	var (
		randomID     string
		dbNameLength uint = 20
		err          error
	)
	if randomID, err = random.Letters(dbNameLength); err != nil {
		return nil, errors.Wrap(err, "generate random ID")
	}
	readWriteConfig := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_foreign_keys=on", randomID)
	readConfig := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=deferred&_query_only=true", randomID)

	return open(ctx, readWriteConfig, readConfig, schema, logger)
}

// open establishes two database connection pools, one for read/write operations and one for read-only operations.
// This is a best practice mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
func open(ctx context.Context, readWriteConfig, readConfig, schema string, logger *slog.Logger) (*Database, error) {
	var (
		err         error
		readWriteDB *sql.DB
		readDB      *sql.DB
	)

	if readWriteDB, err = sql.Open("sqlite3", readWriteConfig); err != nil {
		return nil, errors.Wrap(err, "open read-write database")
	}

	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(time.Hour)
	readWriteDB.SetConnMaxIdleTime(time.Hour)

	db := Database{
		ReadWrite: readWriteDB,
		ReadOnly:  nil,
		logger:    logger,
	}

	// Initialize the database schema before the read-only pool opens so that the file exists.
	if err = db.migrate(ctx, schema); err != nil {
		_ = readWriteDB.Close()
		return nil, errors.Wrap(err, "synchronize schema")
	}

	if readDB, err = openReadOnly(ctx, readConfig); err != nil {
		_ = readWriteDB.Close()
		return nil, err
	}
	db.ReadOnly = readDB

	return &db, nil
}

func openReadOnly(ctx context.Context, readConfig string) (*sql.DB, error) {
	readDB, err := sql.Open("sqlite3", readConfig)
	if err != nil {
		return nil, errors.Wrap(err, "open read database")
	}

	maxReadConns := 10
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	// sql.Open is lazy, ping so that a corrupt or unreadable file fails here.
	if err = readDB.PingContext(ctx); err != nil {
		_ = readDB.Close()
		return nil, errors.Wrap(err, "ping read database")
	}
	return readDB, nil
}

// Close closes both connection pools.
func (db *Database) Close() error {
	var errs []error
	if db.ReadOnly != nil {
		if err := db.ReadOnly.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close read database"))
		}
	}
	if db.ReadWrite != nil {
		if err := db.ReadWrite.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close read-write database"))
		}
	}
	return errors.Join(errs...)
}
