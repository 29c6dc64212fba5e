package models

// Character is one roster entry.
//
// Faction, Attribute and Role are the descriptive attributes that conditions are matched against. They are nil when
// the character doesn't have the attribute. The remaining fields are display metadata.
type Character struct {
	ID       string `db:"id"        json:"id"        yaml:"id"`
	Name     string `db:"name"      json:"name"      yaml:"name"`
	Portrait string `db:"portrait"  json:"portrait"  yaml:"portrait"`

	Rating     *string `db:"rating"      json:"rating"      yaml:"rating"`
	RatingIcon *string `db:"rating_icon" json:"rating_icon" yaml:"rating_icon"`

	Faction     *string `db:"faction"      json:"faction"      yaml:"faction"`
	FactionIcon *string `db:"faction_icon" json:"faction_icon" yaml:"faction_icon"`

	Attribute     *string `db:"attribute"      json:"attribute"      yaml:"attribute"`
	AttributeIcon *string `db:"attribute_icon" json:"attribute_icon" yaml:"attribute_icon"`

	Role     *string `db:"role"      json:"role"      yaml:"role"`
	RoleIcon *string `db:"role_icon" json:"role_icon" yaml:"role_icon"`

	Assists *string `db:"assists" json:"assists" yaml:"assists"`
}

type ConditionKind string

const (
	ConditionKindFaction   ConditionKind = "faction"
	ConditionKindAttribute ConditionKind = "attribute"
	ConditionKindRole      ConditionKind = "role"
	ConditionKindTag       ConditionKind = "tag"
)

// Known reports whether k is one of the condition kinds the rule engine understands.
func (k ConditionKind) Known() bool {
	switch k {
	case ConditionKindFaction, ConditionKindAttribute, ConditionKindRole, ConditionKindTag:
		return true
	default:
		return false
	}
}

// Condition is one clause of a character's passive: a teammate satisfies the character if it matches the clause.
//
// Idx orders the clauses of a character for display. Key and Icon are display metadata.
type Condition struct {
	CharacterID string        `db:"character_id" json:"character_id"`
	Idx         int           `db:"idx"          json:"idx"`
	Kind        ConditionKind `db:"kind"         json:"kind"`
	Value       string        `db:"value"        json:"value"`
	Key         string        `db:"key"          json:"key"`
	Icon        *string       `db:"icon"         json:"icon"`
}
