package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/repositories"
	"github.com/myrjola/teamcheck/internal/sqlite"
	"github.com/myrjola/teamcheck/internal/testhelpers"
)

// migratetest synchronises the schema of a copy of the production roster database and verifies that the roster
// still loads afterwards.
func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds
	defer cancel()

	if sqliteURL, ok = os.LookupEnv("TEAMCHECK_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "TEAMCHECK_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewWritableDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error migrating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	roster, err := repositories.NewRosterRepository(db, logger).Load(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error loading roster", errors.SlogError(err))
		os.Exit(1) //nolint:gocritic // the database is a throwaway copy
	}
	if len(roster.Characters) == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no characters found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "roster size",
		slog.Int("characters", len(roster.Characters)), slog.Int("conditions", len(roster.Conditions)))

	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
}
