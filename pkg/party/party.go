package party

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
)

// Characteristics are the nine core characteristics of an acolyte.
type Characteristics struct {
	WeaponSkill    int `json:"weapon_skill"`
	BallisticSkill int `json:"ballistic_skill"`
	Strength       int `json:"strength"`
	Toughness      int `json:"toughness"`
	Agility        int `json:"agility"`
	Intelligence   int `json:"intelligence"`
	Perception     int `json:"perception"`
	Willpower      int `json:"willpower"`
	Fellowship     int `json:"fellowship"`
}

// ToAttributes converts Characteristics to a map for d20.Actor compatibility
func (c *Characteristics) ToAttributes() map[string]int {
	return map[string]int{
		"weapon_skill":    c.WeaponSkill,
		"ballistic_skill": c.BallisticSkill,
		"strength":        c.Strength,
		"toughness":       c.Toughness,
		"agility":         c.Agility,
		"intelligence":    c.Intelligence,
		"perception":      c.Perception,
		"willpower":       c.Willpower,
		"fellowship":      c.Fellowship,
	}
}

// Sheet is the serializable record of one player character. It belongs
// to exactly one campaign and is the form the store persists.
type Sheet struct {
	ID         uuid.UUID       `json:"id"`
	CampaignID uuid.UUID       `json:"campaign_id"`
	Name       string          `json:"name"`
	Career     string          `json:"career,omitempty"`
	Homeworld  string          `json:"homeworld,omitempty"`
	Chars      Characteristics `json:"characteristics"`
	Wounds     int             `json:"wounds"`     // current
	MaxWounds  int             `json:"max_wounds"` // maximum
	Armour     int             `json:"armour,omitempty"`
	Skills     map[string]int  `json:"skills,omitempty"` // trained skills and bonuses
	Gear       []string        `json:"gear,omitempty"`
}

// ApplyDamage reduces current wounds by n (floored at zero) and reports
// the remaining wounds. Negative n is ignored.
func (s *Sheet) ApplyDamage(n int) int {
	if n > 0 {
		s.Wounds -= n
		if s.Wounds < 0 {
			s.Wounds = 0
		}
	}
	return s.Wounds
}

// Heal restores up to n wounds, capped at MaxWounds. Negative n is ignored.
func (s *Sheet) Heal(n int) int {
	if n > 0 {
		s.Wounds += n
		if s.Wounds > s.MaxWounds {
			s.Wounds = s.MaxWounds
		}
	}
	return s.Wounds
}

// Acolyte is the runtime representation of a player character: the
// stored sheet plus a d20.Actor built from it for attribute lookups.
type Acolyte struct {
	Sheet *Sheet
	Actor *d20.Actor
}

// NewAcolyte builds an Acolyte from a stored sheet. Building the actor
// also validates the sheet's numbers; a sheet that cannot produce a
// valid actor is rejected before it is saved.
func NewAcolyte(sheet *Sheet) (*Acolyte, error) {
	if sheet == nil {
		return nil, fmt.Errorf("sheet cannot be nil")
	}

	allAttrs := sheet.Chars.ToAttributes()
	maps.Copy(allAttrs, sheet.Skills)

	actor, err := d20.NewActor(sheet.ID.String()).
		WithHP(sheet.MaxWounds).
		WithAC(sheet.Armour).
		WithAttributes(allAttrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if sheet.Wounds != sheet.MaxWounds && sheet.Wounds > 0 {
		if err := actor.SetHP(sheet.Wounds); err != nil {
			return nil, fmt.Errorf("failed to set wounds: %w", err)
		}
	}

	return &Acolyte{Sheet: sheet, Actor: actor}, nil
}

// Characteristic returns the named characteristic or trained skill
// value from the actor, with ok=false for unknown names.
func (a *Acolyte) Characteristic(name string) (int, bool) {
	return a.Actor.Attribute(name)
}
