package main

import (
	"context"

	"github.com/myrjola/teamcheck/internal/models"
	"github.com/myrjola/teamcheck/internal/rules"
)

const picksSessionKey = "picks"

// picks holds the picked character id per slot, "" for an empty slot.
type picks [rules.TeamSize]string

func (app *application) loadPicks(ctx context.Context) picks {
	var p picks
	stored, ok := app.sessionManager.Get(ctx, picksSessionKey).([]string)
	if !ok {
		return p
	}
	copy(p[:], stored)
	return p
}

func (app *application) savePicks(ctx context.Context, p picks) {
	app.sessionManager.Put(ctx, picksSessionKey, p[:])
}

// clearFrom empties the zero-based slot i and every later slot.
func (p *picks) clearFrom(i int) {
	for ; i < len(p); i++ {
		p[i] = ""
	}
}

// resolve returns the leading run of picked characters. A gap or an id missing from the roster ends the run.
func (app *application) resolve(p picks) []models.Character {
	resolved := make([]models.Character, 0, len(p))
	for _, id := range p {
		if id == "" {
			break
		}
		c, ok := app.roster.Find(id)
		if !ok {
			break
		}
		resolved = append(resolved, c)
	}
	return resolved
}

// slotOptions lists the characters that can go into the zero-based slot i given the earlier picks.
func (app *application) slotOptions(picked []models.Character, i int) []models.Character {
	if len(picked) < i {
		return nil
	}
	return app.engine.Candidates(app.roster.Characters, picked[:i]...)
}

type slotView struct {
	Number     int
	Picked     *models.Character
	Conditions []models.Condition
	Pickable   bool
	Options    []models.Character
}

type checkView struct {
	Slot int
	OK   bool
}

type teamView struct {
	Unavailable bool
	Slots       [rules.TeamSize]slotView
	Complete    bool
	Checks      []checkView
	AllOK       bool
}

func (app *application) newTeamView(p picks) teamView {
	var view teamView
	if !app.available() {
		view.Unavailable = true
		return view
	}

	picked := app.resolve(p)
	for i := range view.Slots {
		slot := slotView{
			Number:     i + 1,
			Picked:     nil,
			Conditions: nil,
			Pickable:   len(picked) >= i,
			Options:    app.slotOptions(picked, i),
		}
		if i < len(picked) {
			c := picked[i]
			slot.Picked = &c
			slot.Conditions = app.index.Conditions(c.ID)
		}
		view.Slots[i] = slot
	}

	if len(picked) < rules.TeamSize {
		return view
	}
	team, err := rules.NewTeam(picked[0], picked[1], picked[2])
	if err != nil {
		// Only a tampered session can hold duplicates.
		return view
	}
	validation := app.engine.ValidateTeam(team)
	view.Complete = true
	view.AllOK = validation.AllOK
	for i := range team {
		view.Checks = append(view.Checks, checkView{Slot: i + 1, OK: validation.Slot(i)})
	}
	return view
}
