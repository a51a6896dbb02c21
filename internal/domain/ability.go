package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AbilityAttack  = "attack"
	AbilityDefense = "defense"
	AbilityHeal    = "heal"
	AbilityBuff    = "buff"
	AbilityDebuff  = "debuff"
	AbilityUtility = "utility"
)

// MaxEquippedAbilities caps equipped abilities per character.
const MaxEquippedAbilities = 4

type Ability struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Type             string    `gorm:"not null;column:type" json:"type"`
	Power            int       `gorm:"not null;default:0;column:power" json:"power"`
	CooldownSeconds  int       `gorm:"not null;default:0;column:cooldown_seconds" json:"cooldown_seconds"`
	DurationSeconds  int       `gorm:"not null;default:0;column:duration_seconds" json:"duration_seconds"`
	Cost             int       `gorm:"not null;default:0;column:cost" json:"cost"`
	LevelRequirement int       `gorm:"not null;default:1;column:level_requirement" json:"level_requirement"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Ability) TableName() string { return "ability" }

func (a *Ability) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ValidAbilityType rejects unknown variants at validation time instead of
// letting effect dispatch silently no-op.
func ValidAbilityType(t string) bool {
	switch t {
	case AbilityAttack, AbilityDefense, AbilityHeal, AbilityBuff, AbilityDebuff, AbilityUtility:
		return true
	}
	return false
}

type CharacterAbility struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_character_ability;column:character_id" json:"character_id"`
	AbilityID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_character_ability;column:ability_id" json:"ability_id"`
	Level       int        `gorm:"not null;default:1;column:level" json:"level"`
	IsEquipped  bool       `gorm:"not null;default:false;column:is_equipped" json:"is_equipped"`
	LastUsedAt  *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Ability *Ability `gorm:"foreignKey:AbilityID" json:"ability,omitempty"`
}

func (CharacterAbility) TableName() string { return "character_ability" }

func (ca *CharacterAbility) BeforeCreate(*gorm.DB) error {
	if ca.ID == uuid.Nil {
		ca.ID = uuid.New()
	}
	return nil
}
