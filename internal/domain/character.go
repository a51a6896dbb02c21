package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ClassWarrior  = "Warrior"
	ClassSorcerer = "Sorcerer"
	ClassDruid    = "Druid"
)

// XPPerLevel drives the leveling rule: level = experience/XPPerLevel + 1.
const XPPerLevel = 1000

const (
	StatHealth   = "health"
	StatStrength = "strength"
	StatDefense  = "defense"
)

const (
	EffectBuff    = "buff"
	EffectDebuff  = "debuff"
	EffectProtect = "protect"
)

type Character struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID      uuid.UUID  `gorm:"type:uuid;not null;index;column:student_id" json:"student_id"`
	Name           string     `gorm:"not null;column:name" json:"name"`
	Level          int        `gorm:"not null;default:1;column:level" json:"level"`
	Experience     int        `gorm:"not null;default:0;column:experience" json:"experience"`
	Health         int        `gorm:"not null;default:100;column:health" json:"health"`
	MaxHealth      int        `gorm:"not null;default:100;column:max_health" json:"max_health"`
	Strength       int        `gorm:"not null;default:10;column:strength" json:"strength"`
	Defense        int        `gorm:"not null;default:10;column:defense" json:"defense"`
	Gold           int        `gorm:"not null;default:0;column:gold" json:"gold"`
	CharacterClass string     `gorm:"not null;column:character_class" json:"character_class"`
	ClanID         *uuid.UUID `gorm:"type:uuid;index;column:clan_id" json:"clan_id,omitempty"`
	IsActive       bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Character) TableName() string { return "character" }

func (c *Character) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LevelForExperience computes the level implied by an experience total.
func LevelForExperience(experience int) int {
	if experience < 0 {
		return 1
	}
	return experience/XPPerLevel + 1
}

// StatusEffect is a transient stat modifier. It is active while
// expires_at is in the future; expired rows are ignored and purgeable.
type StatusEffect struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID  uuid.UUID `gorm:"type:uuid;not null;index;column:character_id" json:"character_id"`
	EffectType   string    `gorm:"not null;column:effect_type" json:"effect_type"`
	StatAffected string    `gorm:"not null;column:stat_affected" json:"stat_affected"`
	Amount       int       `gorm:"not null;column:amount" json:"amount"`
	ExpiresAt    time.Time `gorm:"not null;index;column:expires_at" json:"expires_at"`
	Source       string    `gorm:"column:source" json:"source"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (StatusEffect) TableName() string { return "status_effect" }

func (se *StatusEffect) BeforeCreate(*gorm.DB) error {
	if se.ID == uuid.Nil {
		se.ID = uuid.New()
	}
	return nil
}

func (se *StatusEffect) ActiveAt(now time.Time) bool {
	return se.ExpiresAt.After(now)
}
