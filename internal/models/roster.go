package models

import (
	"log/slog"

	"github.com/myrjola/teamcheck/internal/errors"
)

// ErrUnknownCharacter is returned when an id doesn't exist in the roster.
var ErrUnknownCharacter = errors.NewSentinel("unknown character")

// Roster is the immutable snapshot of all characters and conditions loaded for a session.
type Roster struct {
	Characters []Character `json:"characters"`
	// Conditions are ordered by character ID and Idx.
	Conditions []Condition `json:"conditions"`
}

// Find returns the character with the given ID.
func (r Roster) Find(id string) (Character, bool) {
	for _, c := range r.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// Lookup resolves ids to characters in the same order.
func (r Roster) Lookup(ids ...string) ([]Character, error) {
	characters := make([]Character, 0, len(ids))
	for _, id := range ids {
		c, ok := r.Find(id)
		if !ok {
			return nil, errors.Wrap(ErrUnknownCharacter, "lookup character", slog.String("id", id))
		}
		characters = append(characters, c)
	}
	return characters, nil
}
