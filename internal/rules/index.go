// Package rules implements the passive compatibility rule for three-character teams.
//
// A character's passive is triggered when at least one teammate matches at least one of the character's conditions.
// Characters without conditions are triggered by any teammate. Everything in this package is a pure function of an
// immutable roster snapshot and safe for concurrent use.
package rules

import "github.com/myrjola/teamcheck/internal/models"

// Index maps a character ID to the character's conditions.
//
// It's a derived view of the condition list. Rebuild it with BuildIndex whenever the conditions change instead of
// modifying it.
type Index map[string][]models.Condition

// BuildIndex groups conditions by character ID.
//
// The conditions of each character keep the order of the input, which is expected to be sorted by character ID and
// Idx. Duplicates are not detected.
func BuildIndex(conditions []models.Condition) Index {
	index := make(Index)
	for _, c := range conditions {
		index[c.CharacterID] = append(index[c.CharacterID], c)
	}
	return index
}

// Conditions returns the conditions of the character with the given ID or nil if it has none.
func (idx Index) Conditions(characterID string) []models.Condition {
	return idx[characterID]
}
