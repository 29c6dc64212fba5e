package repositories

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/sqlite"
)

// ErrRosterUnavailable is returned when the roster can't be read. No partial roster is returned with it.
var ErrRosterUnavailable = errors.NewSentinel("roster unavailable")

type RosterRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRosterRepository(db *sqlite.Database, logger *slog.Logger) *RosterRepository {
	return &RosterRepository{
		db:     sqlx.NewDb(db.ReadOnly, "sqlite3"),
		logger: logger.With("source", "RosterRepository"),
	}
}

const (
	selectCharacters = `SELECT id, name, portrait, rating, rating_icon, faction, faction_icon,
       attribute, attribute_icon, role, role_icon, assists
FROM characters
ORDER BY CASE rating WHEN 'S' THEN 2 WHEN 'A' THEN 1 ELSE 0 END DESC, name`
	selectConditions = `SELECT character_id, idx, kind, value, key, icon
FROM character_conditions
ORDER BY character_id, idx`
)

// Load reads the whole roster in one read transaction so that characters and conditions are consistent.
func (r *RosterRepository) Load(ctx context.Context) (models.Roster, error) {
	start := time.Now()
	roster, err := r.load(ctx)
	if err != nil {
		return models.Roster{}, errors.Wrap(errors.Join(ErrRosterUnavailable, err), "load roster")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "loaded roster",
		slog.Int("characters", len(roster.Characters)),
		slog.Int("conditions", len(roster.Conditions)),
		slog.Duration("duration", time.Since(start)))
	return roster, nil
}

func (r *RosterRepository) load(ctx context.Context) (models.Roster, error) {
	var roster models.Roster
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault, ReadOnly: true})
	if err != nil {
		return roster, errors.Wrap(err, "begin transaction")
	}
	defer func() {
		// The transaction only reads so rolling back is how it ends.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "rollback read transaction", errors.SlogError(rollbackErr))
		}
	}()

	if err = tx.SelectContext(ctx, &roster.Characters, selectCharacters); err != nil {
		return models.Roster{}, errors.Wrap(err, "select characters")
	}
	if err = tx.SelectContext(ctx, &roster.Conditions, selectConditions); err != nil {
		return models.Roster{}, errors.Wrap(err, "select conditions")
	}
	return roster, nil
}
