package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/repositories"
	"github.com/myrjola/teamcheck/internal/rules"
)

var errWrongTeamSize = errors.NewSentinel("a team has exactly three members")

// apiRoster returns all characters and conditions.
func (app *application) apiRoster(w http.ResponseWriter, r *http.Request) {
	if !app.available() {
		app.jsonClientError(w, r, http.StatusServiceUnavailable, repositories.ErrRosterUnavailable)
		return
	}
	app.writeJSON(w, r, http.StatusOK, app.roster)
}

type validateTeamResponse struct {
	Team       []string             `json:"team"`
	Validation rules.TeamValidation `json:"validation"`
}

// apiValidateTeam checks the team given as ?ids=a,b,c.
func (app *application) apiValidateTeam(w http.ResponseWriter, r *http.Request) {
	if !app.available() {
		app.jsonClientError(w, r, http.StatusServiceUnavailable, repositories.ErrRosterUnavailable)
		return
	}

	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	if len(ids) != rules.TeamSize {
		app.jsonClientError(w, r, http.StatusBadRequest,
			errors.Wrap(errWrongTeamSize, "parse ids", slog.Int("count", len(ids))))
		return
	}

	members, err := app.roster.Lookup(ids...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrUnknownCharacter) {
			status = http.StatusNotFound
		}
		app.jsonClientError(w, r, status, err)
		return
	}
	team, err := rules.NewTeam(members[0], members[1], members[2])
	if err != nil {
		app.jsonClientError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, validateTeamResponse{
		Team:       ids,
		Validation: app.engine.ValidateTeam(team),
	})
}
