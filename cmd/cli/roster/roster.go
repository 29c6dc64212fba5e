package roster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/logging"
	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/repositories"
	"github.com/myrjola/teamcheck/internal/rosterfile"
	"github.com/myrjola/teamcheck/internal/rules"
	"github.com/myrjola/teamcheck/internal/sqlite"
	"github.com/spf13/cobra"
)

// ErrNotAllTriggered is returned by check when some passive of the team isn't triggered.
var ErrNotAllTriggered = errors.NewSentinel("not every passive is triggered")

var Group = &cobra.Group{
	ID:    "roster",
	Title: "Roster operations",
}

// Commands returns fresh instances of the roster commands.
func Commands() []*cobra.Command {
	return []*cobra.Command{newSeedCmd(), newOptionsCmd(), newCheckCmd()}
}

func defaultDB() string {
	if url, ok := os.LookupEnv("TEAMCHECK_SQLITE_URL"); ok {
		return url
	}
	return "./teamcheck.sqlite"
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	return logging.NewLogger(cmd.ErrOrStderr(),
		logging.ParseLevel(os.Getenv("TEAMCHECK_LOG_LEVEL")), os.Getenv("TEAMCHECK_LOG_FORMAT"))
}

func newSeedCmd() *cobra.Command {
	var from, dbURL string
	cmd := &cobra.Command{
		Use:     "seed",
		GroupID: Group.ID,
		Short:   "Build a roster database",
		Long:    "Replaces the roster in the database file with the characters of a YAML roster file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context(), cmd.OutOrStdout(), newLogger(cmd), from, dbURL)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "path to the YAML roster file")
	cmd.Flags().StringVar(&dbURL, "db", defaultDB(), "path to the SQLite database file")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func seed(ctx context.Context, out io.Writer, logger *slog.Logger, from, dbURL string) (err error) {
	var f *os.File
	if f, err = os.Open(from); err != nil {
		return errors.Wrap(err, "open roster file", slog.String("path", from))
	}
	defer f.Close()

	var roster models.Roster
	if roster, err = rosterfile.Parse(f); err != nil {
		return errors.Wrap(err, "parse roster file", slog.String("path", from))
	}

	var db *sqlite.Database
	if db, err = sqlite.NewWritableDatabase(ctx, dbURL, logger); err != nil {
		return errors.Wrap(err, "open database", slog.String("path", dbURL))
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()
	if err = db.Seed(ctx, roster); err != nil {
		return errors.Wrap(err, "seed database")
	}
	if err = db.Optimize(ctx); err != nil {
		return errors.Wrap(err, "optimize database")
	}

	_, _ = fmt.Fprintf(out, "seeded %d characters and %d conditions into %s\n",
		len(roster.Characters), len(roster.Conditions), dbURL)
	return nil
}

// loadEngine reads the roster from dbURL and builds the rule engine over it.
func loadEngine(ctx context.Context, logger *slog.Logger, dbURL string) (_ models.Roster, _ *rules.Engine, err error) {
	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, dbURL, logger); err != nil {
		return models.Roster{}, nil, errors.Wrap(err, "open database", slog.String("path", dbURL))
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()
	var roster models.Roster
	if roster, err = repositories.NewRosterRepository(db, logger).Load(ctx); err != nil {
		return models.Roster{}, nil, errors.Wrap(err, "load roster")
	}
	return roster, rules.NewEngine(rules.BuildIndex(roster.Conditions)), nil
}

func newOptionsCmd() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:     "options [first-id [second-id]]",
		GroupID: Group.ID,
		Short:   "List the candidates for the next slot",
		Long:    "Lists the characters that can fill the slot after the given picks, sorted by name",
		Args:    cobra.MaximumNArgs(rules.TeamSize - 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			roster, engine, err := loadEngine(ctx, newLogger(cmd), dbURL)
			if err != nil {
				return err
			}
			var picked []models.Character
			if picked, err = roster.Lookup(args...); err != nil {
				return errors.Wrap(err, "resolve picks")
			}
			out := cmd.OutOrStdout()
			for _, c := range engine.Candidates(roster.Characters, picked...) {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "db", defaultDB(), "path to the SQLite database file or :memory: for the demo roster")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:     "check first-id second-id third-id",
		GroupID: Group.ID,
		Short:   "Check the passives of a full team",
		Long:    "Prints whether the passive of every member is triggered and fails unless all of them are",
		Args:    cobra.ExactArgs(rules.TeamSize),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			roster, engine, err := loadEngine(ctx, newLogger(cmd), dbURL)
			if err != nil {
				return err
			}
			var members []models.Character
			if members, err = roster.Lookup(args...); err != nil {
				return errors.Wrap(err, "resolve team")
			}
			var team rules.Team
			if team, err = rules.NewTeam(members[0], members[1], members[2]); err != nil {
				return errors.Wrap(err, "build team")
			}

			validation := engine.ValidateTeam(team)
			out := cmd.OutOrStdout()
			for i, member := range team {
				status := "OK"
				if !validation.Slot(i) {
					status = "NOT triggered"
				}
				_, _ = fmt.Fprintf(out, "Slot %d passive (%s): %s\n", i+1, member.Name, status)
			}
			if !validation.AllOK {
				return ErrNotAllTriggered
			}
			_, _ = fmt.Fprintln(out, "Every passive is triggered.")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "db", defaultDB(), "path to the SQLite database file or :memory: for the demo roster")
	return cmd
}
