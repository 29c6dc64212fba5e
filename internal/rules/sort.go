package rules

import (
	"slices"

	"github.com/myrjola/teamcheck/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByName sorts characters in place by display name using English collation so that names with accents and
// mixed case land where a reader expects them.
func SortByName(characters []models.Character) {
	// Collators keep internal buffers and aren't safe for concurrent use.
	col := collate.New(language.English)
	slices.SortStableFunc(characters, func(a, b models.Character) int {
		return col.CompareString(a.Name, b.Name)
	})
}
