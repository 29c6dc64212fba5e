package rules

import (
	"log/slog"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
)

// ErrDuplicateMember is returned by NewTeam when a character is picked twice.
var ErrDuplicateMember = errors.NewSentinel("character picked twice")

// TeamSize is the number of slots in a team.
const TeamSize = 3

// Team is a full pick of three distinct characters in slot order.
type Team [TeamSize]models.Character

// NewTeam creates a Team after checking that the members are distinct.
func NewTeam(a, b, c models.Character) (Team, error) {
	team := Team{a, b, c}
	for i := range team {
		for j := i + 1; j < len(team); j++ {
			if team[i].ID == team[j].ID {
				return Team{}, errors.Wrap(ErrDuplicateMember, "new team",
					slog.String("character_id", team[i].ID), slog.Int("slot", j+1))
			}
		}
	}
	return team, nil
}

// TeamValidation tells which members' passives are triggered by the rest of the team.
type TeamValidation struct {
	AOK   bool `json:"a_ok"`
	BOK   bool `json:"b_ok"`
	COK   bool `json:"c_ok"`
	AllOK bool `json:"all_ok"`
}

// Slot returns the result for the zero-based slot i.
func (v TeamValidation) Slot(i int) bool {
	switch i {
	case 0:
		return v.AOK
	case 1:
		return v.BOK
	case 2: //nolint:mnd // last slot
		return v.COK
	default:
		return false
	}
}
