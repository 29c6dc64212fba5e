package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
)

// ErrReadOnly is returned when writing to a database opened with NewDatabase from a file.
var ErrReadOnly = errors.NewSentinel("database is read-only")

const (
	insertCharacter = `INSERT INTO characters (id, name, portrait, rating, rating_icon, faction, faction_icon,
                        attribute, attribute_icon, role, role_icon, assists)
VALUES (:id, :name, :portrait, :rating, :rating_icon, :faction, :faction_icon,
        :attribute, :attribute_icon, :role, :role_icon, :assists)`
	insertCondition = `INSERT INTO character_conditions (character_id, idx, kind, value, key, icon)
VALUES (:character_id, :idx, :kind, :value, :key, :icon)`
)

// Seed replaces the stored roster with roster in a single transaction.
func (db *Database) Seed(ctx context.Context, roster models.Roster) (err error) {
	if db.ReadWrite == nil {
		return ErrReadOnly
	}
	start := time.Now()

	x := sqlx.NewDb(db.ReadWrite, "sqlite3")
	var tx *sqlx.Tx
	if tx, err = x.BeginTxx(ctx, nil); err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, errors.Wrap(rollbackErr, "rollback"))
			}
		}
	}()

	// Conditions go with their characters through ON DELETE CASCADE.
	if _, err = tx.ExecContext(ctx, "DELETE FROM characters"); err != nil {
		return errors.Wrap(err, "clear characters")
	}
	for _, c := range roster.Characters {
		if _, err = tx.NamedExecContext(ctx, insertCharacter, c); err != nil {
			return errors.Wrap(err, "insert character", slog.String("id", c.ID))
		}
	}
	for _, c := range roster.Conditions {
		if _, err = tx.NamedExecContext(ctx, insertCondition, c); err != nil {
			return errors.Wrap(err, "insert condition",
				slog.String("character_id", c.CharacterID), slog.Int("idx", c.Idx))
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "seeded roster",
		slog.Int("characters", len(roster.Characters)),
		slog.Int("conditions", len(roster.Conditions)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Optimize gathers query planner statistics and compacts the file. Run it after seeding a roster database that is
// going to be shipped. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) Optimize(ctx context.Context) error {
	if db.ReadWrite == nil {
		return ErrReadOnly
	}
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize=0x10002"); err != nil {
		return errors.Wrap(err, "optimize database")
	}
	if _, err := db.ReadWrite.ExecContext(ctx, "VACUUM"); err != nil {
		return errors.Wrap(err, "vacuum database")
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "optimized database", slog.Duration("duration", time.Since(start)))
	return nil
}
