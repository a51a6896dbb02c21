package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventXPGain          = "XP_GAIN"
	EventLevelUp         = "LEVEL_UP"
	EventGoldTransaction = "GOLD_TRANSACTION"
	EventPurchase        = "PURCHASE"
	EventDamage          = "DAMAGE"
	EventHeal            = "HEAL"
	EventEffectApplied   = "EFFECT_APPLIED"
	EventAbilityUsed     = "ABILITY_USED"
	EventQuestAssigned   = "QUEST_ASSIGNED"
	EventQuestStarted    = "QUEST_STARTED"
	EventQuestCompleted  = "QUEST_COMPLETED"
	EventQuestFailed     = "QUEST_FAILED"
	EventBattleStarted   = "BATTLE_STARTED"
	EventBattleTurn      = "BATTLE_TURN"
	EventBattleEnded     = "BATTLE_ENDED"
	EventClanJoined      = "CLAN_JOINED"
	EventClanLeft        = "CLAN_LEFT"
	EventLogin           = "LOGIN"
	EventEnrollment      = "ENROLLMENT"
)

// AuditLog is the append-only event record consumed by analytics.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventType   string         `gorm:"not null;index;column:event_type" json:"event_type"`
	UserID      *uuid.UUID     `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	CharacterID *uuid.UUID     `gorm:"type:uuid;index;column:character_id" json:"character_id,omitempty"`
	EventData   datatypes.JSON `gorm:"column:event_data" json:"event_data,omitempty"`
	IPAddress   string         `gorm:"column:ip_address" json:"ip_address,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SchemaRevision records the migration revision the database is at.
type SchemaRevision struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Revision  string    `gorm:"not null;column:revision" json:"revision"`
	AppliedAt time.Time `gorm:"not null;column:applied_at" json:"applied_at"`
}

func (SchemaRevision) TableName() string { return "schema_revision" }
