// Package rosterfile reads rosters written in YAML.
//
// The format lists every character with its passive conditions inline:
//
//	characters:
//	  - id: anby
//	    name: Anby
//	    faction: Cunning Hares
//	    conditions:
//	      - kind: faction
//	        value: Cunning Hares
//	        key: Cunning Hares
//
// A condition's position in the list becomes its Idx.
package rosterfile

import (
	"io"
	"log/slog"

	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/myrjola/teamcheck/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRoster is returned when the roster document breaks an invariant of the data model.
var ErrInvalidRoster = errors.NewSentinel("invalid roster")

type document struct {
	Characters []entry `yaml:"characters"`
}

type entry struct {
	models.Character `yaml:",inline"`

	Conditions []condition `yaml:"conditions"`
}

type condition struct {
	Kind  models.ConditionKind `yaml:"kind"`
	Value string               `yaml:"value"`
	Key   string               `yaml:"key"`
	Icon  *string              `yaml:"icon"`
}

// Parse decodes a YAML roster.
//
// Characters keep document order. Conditions are returned grouped by character in document order, which is the
// ordering the rule engine expects. Unknown condition kinds are kept, the engine treats them as never matching.
func Parse(r io.Reader) (models.Roster, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return models.Roster{}, errors.Wrap(err, "decode yaml")
	}

	roster := models.Roster{
		Characters: make([]models.Character, 0, len(doc.Characters)),
		Conditions: nil,
	}
	seen := make(map[string]bool, len(doc.Characters))
	for i, e := range doc.Characters {
		if e.ID == "" {
			return models.Roster{}, errors.Wrap(ErrInvalidRoster, "character without id", slog.Int("position", i))
		}
		if seen[e.ID] {
			return models.Roster{}, errors.Wrap(ErrInvalidRoster, "duplicate character id", slog.String("id", e.ID))
		}
		seen[e.ID] = true
		if e.Name == "" {
			return models.Roster{}, errors.Wrap(ErrInvalidRoster, "character without name", slog.String("id", e.ID))
		}
		roster.Characters = append(roster.Characters, e.Character)

		for idx, c := range e.Conditions {
			if c.Value == "" {
				return models.Roster{}, errors.Wrap(ErrInvalidRoster, "condition without value",
					slog.String("id", e.ID), slog.Int("idx", idx))
			}
			key := c.Key
			if key == "" {
				key = c.Value
			}
			roster.Conditions = append(roster.Conditions, models.Condition{
				CharacterID: e.ID,
				Idx:         idx,
				Kind:        c.Kind,
				Value:       c.Value,
				Key:         key,
				Icon:        c.Icon,
			})
		}
	}
	return roster, nil
}
