package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XPPerClanLevel drives clan leveling: level = experience/XPPerClanLevel + 1.
const XPPerClanLevel = 5000

type Clan struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_clan_class_name;column:classroom_id" json:"classroom_id"`
	Name        string     `gorm:"not null;uniqueIndex:idx_clan_class_name;column:name" json:"name"`
	Description string     `gorm:"column:description" json:"description"`
	Emblem      string     `gorm:"uniqueIndex:idx_clan_class_emblem;column:emblem" json:"emblem"`
	Level       int        `gorm:"not null;default:1;column:level" json:"level"`
	Experience  int        `gorm:"not null;default:0;column:experience" json:"experience"`
	LeaderID    *uuid.UUID `gorm:"type:uuid;column:leader_id" json:"leader_id,omitempty"`
	IsActive    bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Clan) TableName() string { return "clan" }

func (c *Clan) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func ClanLevelForExperience(experience int) int {
	if experience < 0 {
		return 1
	}
	return experience/XPPerClanLevel + 1
}

// ClanProgressHistory is a daily snapshot of computed clan metrics.
// Re-running a day overwrites that day's row.
type ClanProgressHistory struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClanID            uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_clan_snapshot_day;column:clan_id" json:"clan_id"`
	SnapshotDate      string    `gorm:"not null;uniqueIndex:idx_clan_snapshot_day;column:snapshot_date" json:"snapshot_date"`
	AvgCompletionRate float64   `gorm:"not null;default:0;column:avg_completion_rate" json:"avg_completion_rate"`
	TotalPoints       int       `gorm:"not null;default:0;column:total_points" json:"total_points"`
	ActiveMembers     int       `gorm:"not null;default:0;column:active_members" json:"active_members"`
	AvgDailyPoints    float64   `gorm:"not null;default:0;column:avg_daily_points" json:"avg_daily_points"`
	QuestCompletion   float64   `gorm:"not null;default:0;column:quest_completion_rate" json:"quest_completion_rate"`
	AvgMemberLevel    float64   `gorm:"not null;default:0;column:avg_member_level" json:"avg_member_level"`
	PercentileRank    int       `gorm:"not null;default:0;column:percentile_rank" json:"percentile_rank"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ClanProgressHistory) TableName() string { return "clan_progress_history" }

func (h *ClanProgressHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
