package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/donseba/go-htmx"
	"github.com/joho/godotenv"
	"github.com/myrjola/teamcheck/internal/envstruct"
	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/logging"
	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/pprofserver"
	"github.com/myrjola/teamcheck/internal/repositories"
	"github.com/myrjola/teamcheck/internal/rules"
	"github.com/myrjola/teamcheck/internal/sqlite"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	htmx           *htmx.HTMX
	pages          map[string]*pageTemplate
	assetsDir      string
	secureCookies  bool

	// roster, index and engine are set once at startup and only read afterwards.
	roster    models.Roster
	index     rules.Index
	engine    *rules.Engine
	rosterErr error
}

type config struct {
	// Addr is the address the HTTP server listens on. Use port 0 for a random port.
	Addr string `env:"TEAMCHECK_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the roster database path or ":memory:" for the demo roster.
	SqliteURL string `env:"TEAMCHECK_SQLITE_URL" envDefault:"./teamcheck.sqlite"`
	// AssetsDir holds the portraits and icons served under /assets/.
	AssetsDir string `env:"TEAMCHECK_ASSETS_DIR" envDefault:"./assets"`
	// PprofPort enables the pprof server on the loopback interface when set.
	PprofPort     string `env:"TEAMCHECK_PPROF_PORT" envDefault:""`
	SecureCookies bool   `env:"TEAMCHECK_SECURE_COOKIES" envDefault:"true"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	pprofserver.Launch(ctx, cfg.PprofPort, logger)

	pages, err := parsePageTemplates()
	if err != nil {
		return errors.Wrap(err, "parse templates")
	}

	sessionManager := scs.New()
	sessionManager.Store = memstore.New()
	sessionManager.Lifetime = 12 * time.Hour //nolint:mnd // half a day
	sessionManager.Cookie.Secure = cfg.SecureCookies

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		htmx:           htmx.New(),
		pages:          pages,
		assetsDir:      cfg.AssetsDir,
		secureCookies:  cfg.SecureCookies,
	}
	app.loadRoster(ctx, cfg.SqliteURL)

	return app.configureAndStartServer(ctx, cfg.Addr)
}

// loadRoster reads the roster once. A failure is kept in rosterErr and every page reports it, there is no retry.
func (app *application) loadRoster(ctx context.Context, sqliteURL string) {
	roster, err := readRoster(ctx, sqliteURL, app.logger)
	if err != nil {
		app.rosterErr = err
		app.logger.LogAttrs(ctx, slog.LevelError, "roster unavailable", errors.SlogError(err))
		return
	}
	app.roster = roster
	app.index = rules.BuildIndex(roster.Conditions)
	app.engine = rules.NewEngine(app.index)
}

func readRoster(ctx context.Context, sqliteURL string, logger *slog.Logger) (_ models.Roster, err error) {
	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		return models.Roster{}, errors.Wrap(errors.Join(repositories.ErrRosterUnavailable, err), "open database")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "close database", errors.SlogError(closeErr))
		}
	}()
	return repositories.NewRosterRepository(db, logger).Load(ctx) //nolint:wrapcheck // already annotated
}

func (app *application) available() bool {
	return app.rosterErr == nil
}

func main() {
	ctx := context.Background()

	// A missing .env file is fine, the environment is used as is.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Default().LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stdout,
		logging.ParseLevel(os.Getenv("TEAMCHECK_LOG_LEVEL")), os.Getenv("TEAMCHECK_LOG_FORMAT"))

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
