package rules

import "github.com/myrjola/teamcheck/internal/models"

// TagPolicy decides whether candidate matches a tag condition with the given value.
type TagPolicy func(candidate models.Character, value string) bool

// TagMatchesRole treats a tag condition as a role condition.
//
// Tags beyond role aren't present in the roster data yet so this is the default until they are.
func TagMatchesRole(candidate models.Character, value string) bool {
	return valueOf(candidate.Role) == value
}

// Matcher evaluates single conditions against candidates.
type Matcher struct {
	Tag TagPolicy
}

// DefaultMatcher matches tag conditions with TagMatchesRole.
var DefaultMatcher = Matcher{Tag: TagMatchesRole} //nolint:gochecknoglobals // stateless

// Matches reports whether candidate matches cond.
//
// Absent candidate attributes compare as the empty string. Conditions with unknown kinds never match.
func (m Matcher) Matches(candidate models.Character, cond models.Condition) bool {
	switch cond.Kind {
	case models.ConditionKindFaction:
		return valueOf(candidate.Faction) == cond.Value
	case models.ConditionKindAttribute:
		return valueOf(candidate.Attribute) == cond.Value
	case models.ConditionKindRole:
		return valueOf(candidate.Role) == cond.Value
	case models.ConditionKindTag:
		tag := m.Tag
		if tag == nil {
			tag = TagMatchesRole
		}
		return tag(candidate, cond.Value)
	default:
		return false
	}
}

// Matches reports whether candidate matches cond using DefaultMatcher.
func Matches(candidate models.Character, cond models.Condition) bool {
	return DefaultMatcher.Matches(candidate, cond)
}

func valueOf(attr *string) string {
	if attr == nil {
		return ""
	}
	return *attr
}
