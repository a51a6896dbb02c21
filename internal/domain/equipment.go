package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EquipmentTypeWeapon    = "weapon"
	EquipmentTypeArmor     = "armor"
	EquipmentTypeAccessory = "accessory"
)

const (
	SlotMainHand = "main_hand"
	SlotOffHand  = "off_hand"
	SlotHead     = "head"
	SlotChest    = "chest"
	SlotLegs     = "legs"
	SlotFeet     = "feet"
	SlotNeck     = "neck"
	SlotRing     = "ring"
)

// MaxInventorySize caps how many items a character can own.
const MaxInventorySize = 20

type Equipment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Type             string    `gorm:"not null;column:type" json:"type"`
	Slot             string    `gorm:"not null;column:slot" json:"slot"`
	LevelRequirement int       `gorm:"not null;default:1;column:level_requirement" json:"level_requirement"`
	HealthBonus      int       `gorm:"not null;default:0;column:health_bonus" json:"health_bonus"`
	StrengthBonus    int       `gorm:"not null;default:0;column:strength_bonus" json:"strength_bonus"`
	DefenseBonus     int       `gorm:"not null;default:0;column:defense_bonus" json:"defense_bonus"`
	Rarity           int       `gorm:"not null;default:1;column:rarity" json:"rarity"`
	Cost             int       `gorm:"not null;default:0;column:cost" json:"cost"`
	ClassRestriction string    `gorm:"column:class_restriction" json:"class_restriction,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Equipment) TableName() string { return "equipment" }

func (e *Equipment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Inventory is the ownership edge between a character and an equipment
// catalog row. At most one row per (character, slot) is equipped.
type Inventory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_owner_item;column:character_id" json:"character_id"`
	EquipmentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_owner_item;column:equipment_id" json:"equipment_id"`
	IsEquipped  bool      `gorm:"not null;default:false;column:is_equipped" json:"is_equipped"`
	AcquiredAt  time.Time `gorm:"not null;column:acquired_at" json:"acquired_at"`

	Equipment *Equipment `gorm:"foreignKey:EquipmentID" json:"equipment,omitempty"`
}

func (Inventory) TableName() string { return "inventory" }

func (i *Inventory) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.AcquiredAt.IsZero() {
		i.AcquiredAt = time.Now().UTC()
	}
	return nil
}
