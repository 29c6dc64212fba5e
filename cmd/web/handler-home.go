package main

import (
	"net/http"
)

type homeTemplateData struct {
	BaseTemplateData
	Team       teamView
	Characters int
	Conditions int
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	data := homeTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Team:             app.newTeamView(app.loadPicks(r.Context())),
		Characters:       len(app.roster.Characters),
		Conditions:       len(app.roster.Conditions),
	}

	status := http.StatusOK
	if !app.available() {
		status = http.StatusServiceUnavailable
	}
	app.render(w, r, status, "home", data)
}
