package rules

import (
	"slices"

	"github.com/myrjola/teamcheck/internal/models"
)

// Engine answers compatibility queries over one index snapshot.
type Engine struct {
	index   Index
	matcher Matcher
}

type Option func(*Engine)

// WithTagPolicy replaces the policy used for tag conditions.
func WithTagPolicy(policy TagPolicy) Option {
	return func(e *Engine) {
		e.matcher.Tag = policy
	}
}

// NewEngine creates an Engine over index.
func NewEngine(index Index, opts ...Option) *Engine {
	e := &Engine{
		index:   index,
		matcher: DefaultMatcher,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Matches reports whether candidate matches cond with the engine's tag policy.
func (e *Engine) Matches(candidate models.Character, cond models.Condition) bool {
	return e.matcher.Matches(candidate, cond)
}

// Satisfies reports whether candidate triggers picked's passive.
//
// A character never satisfies itself. A character without conditions is satisfied by everyone else.
func (e *Engine) Satisfies(picked, candidate models.Character) bool {
	if picked.ID == candidate.ID {
		return false
	}
	conds := e.index.Conditions(picked.ID)
	if len(conds) == 0 {
		return true
	}
	for _, cond := range conds {
		if e.matcher.Matches(candidate, cond) {
			return true
		}
	}
	return false
}

// OptionsForSlot2 returns the characters in all that satisfy picked1, in roster order.
//
// The result is not stripped of already picked characters, see Candidates.
func (e *Engine) OptionsForSlot2(all []models.Character, picked1 models.Character) []models.Character {
	return filter(all, func(c models.Character) bool {
		return e.Satisfies(picked1, c)
	})
}

// OptionsForSlot3 returns the characters in all that satisfy both picked1 and picked2, in roster order.
func (e *Engine) OptionsForSlot3(all []models.Character, picked1, picked2 models.Character) []models.Character {
	return filter(all, func(c models.Character) bool {
		return e.Satisfies(picked1, c) && e.Satisfies(picked2, c)
	})
}

// Candidates returns the selectable characters for the slot after the picked ones, sorted by name.
//
// With no picks it's the whole roster. Characters that are already picked are never returned. At most two picks are
// considered, a full team has no next slot and yields nil.
func (e *Engine) Candidates(all []models.Character, picked ...models.Character) []models.Character {
	var options []models.Character
	switch len(picked) {
	case 0:
		options = slices.Clone(all)
	case 1:
		options = e.OptionsForSlot2(all, picked[0])
	case 2: //nolint:mnd // two picks leave the last slot
		options = e.OptionsForSlot3(all, picked[0], picked[1])
	default:
		return nil
	}
	options = slices.DeleteFunc(options, func(c models.Character) bool {
		return slices.ContainsFunc(picked, func(p models.Character) bool { return p.ID == c.ID })
	})
	SortByName(options)
	return options
}

// ValidateTeam checks the passive of every member against the other two.
func (e *Engine) ValidateTeam(team Team) TeamValidation {
	a, b, c := team[0], team[1], team[2]
	v := TeamValidation{
		AOK: e.Satisfies(a, b) || e.Satisfies(a, c),
		BOK: e.Satisfies(b, a) || e.Satisfies(b, c),
		COK: e.Satisfies(c, a) || e.Satisfies(c, b),
	}
	v.AllOK = v.AOK && v.BOK && v.COK
	return v
}

func filter(all []models.Character, keep func(models.Character) bool) []models.Character {
	out := make([]models.Character, 0, len(all))
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
