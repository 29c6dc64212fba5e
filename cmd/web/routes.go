package main

import (
	"io/fs"
	"net/http"

	"github.com/donseba/go-htmx/middleware"
	"github.com/justinas/alice"
	"github.com/myrjola/teamcheck/ui"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(ui.Files, "static")
	if err != nil {
		panic(err) // the directory is embedded at compile time
	}
	mux.Handle("GET /static/", cacheForeverHeaders(http.StripPrefix("/static", http.FileServerFS(static))))
	mux.Handle("GET /assets/", http.StripPrefix("/assets", http.FileServer(http.Dir(app.assetsDir))))

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.HandleFunc("GET /api/roster", app.apiRoster)
	mux.HandleFunc("GET /api/team/validate", app.apiValidateTeam)

	session := alice.New(app.sessionManager.LoadAndSave, app.noSurf, middleware.MiddleWare, commonContext)

	mux.Handle("GET /{$}", session.ThenFunc(app.home))
	mux.Handle("POST /team/pick", session.ThenFunc(app.pick))
	mux.Handle("POST /team/reset", session.ThenFunc(app.reset))
	mux.HandleFunc("/", app.notFound)

	return alice.New(app.recoverPanic, app.logRequest, secureHeaders).Then(timeoutHandler(mux, defaultTimeout))
}
