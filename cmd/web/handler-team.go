package main

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/rules"
)

// formSlot parses the one-based slot number in field and returns it zero-based.
func formSlot(r *http.Request, field string) (int, bool) {
	n, err := strconv.Atoi(r.PostForm.Get(field))
	if err != nil || n < 1 || n > rules.TeamSize {
		return 0, false
	}
	return n - 1, true
}

// pick puts a character into a slot. The character must be one of the slot's current options. Later slots are
// cleared because their options depend on this pick.
func (app *application) pick(w http.ResponseWriter, r *http.Request) {
	if !app.available() {
		app.home(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	slot, ok := formSlot(r, "slot")
	if !ok {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	characterID := r.PostForm.Get("character_id")

	ctx := r.Context()
	p := app.loadPicks(ctx)
	options := app.slotOptions(app.resolve(p), slot)
	if !slices.ContainsFunc(options, func(c models.Character) bool { return c.ID == characterID }) {
		app.clientError(w, r, http.StatusUnprocessableEntity)
		return
	}

	p[slot] = characterID
	p.clearFrom(slot + 1)
	app.savePicks(ctx, p)
	app.respondTeam(w, r, p)
}

// reset clears the slot in the from field and every later slot.
func (app *application) reset(w http.ResponseWriter, r *http.Request) {
	if !app.available() {
		app.home(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	from, ok := formSlot(r, "from")
	if !ok {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	p := app.loadPicks(ctx)
	p.clearFrom(from)
	app.savePicks(ctx, p)
	app.respondTeam(w, r, p)
}

// respondTeam swaps the team section for htmx requests and redirects plain form posts back to the builder.
func (app *application) respondTeam(w http.ResponseWriter, r *http.Request, p picks) {
	h := app.htmx.NewHandler(w, r)
	if !h.Request().HxRequest {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	app.renderPartial(w, r, http.StatusOK, "home", "team", app.newTeamView(p))
}
