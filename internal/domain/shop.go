package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurchaseEquipment = "equipment"
	PurchaseAbility   = "ability"
)

// ShopPurchase is an append-only receipt for a successful purchase.
type ShopPurchase struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID  uuid.UUID `gorm:"type:uuid;not null;index;column:character_id" json:"character_id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;index;column:student_id" json:"student_id"`
	PurchaseType string    `gorm:"not null;column:purchase_type" json:"purchase_type"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;column:item_id" json:"item_id"`
	GoldSpent    int       `gorm:"not null;column:gold_spent" json:"gold_spent"`
	PurchaseDate time.Time `gorm:"not null;column:purchase_date" json:"purchase_date"`
}

func (ShopPurchase) TableName() string { return "shop_purchase" }

func (p *ShopPurchase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now().UTC()
	}
	return nil
}

// ShopItemOverride adjusts a catalog item's cost, level requirement and
// visibility for one classroom.
type ShopItemOverride struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_shop_override;column:classroom_id" json:"classroom_id"`
	ItemType         string    `gorm:"not null;uniqueIndex:idx_shop_override;column:item_type" json:"item_type"`
	ItemID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shop_override;column:item_id" json:"item_id"`
	Cost             *int      `gorm:"column:cost" json:"cost,omitempty"`
	LevelRequirement *int      `gorm:"column:level_requirement" json:"level_requirement,omitempty"`
	IsVisible        bool      `gorm:"not null;default:true;column:is_visible" json:"is_visible"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ShopItemOverride) TableName() string { return "shop_item_override" }

func (o *ShopItemOverride) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
