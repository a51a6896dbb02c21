package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestTypeStory       = "story"
	QuestTypeDaily       = "daily"
	QuestTypeWeekly      = "weekly"
	QuestTypeAchievement = "achievement"
	QuestTypeEvent       = "event"
)

const (
	QuestStatusNotStarted = "not_started"
	QuestStatusInProgress = "in_progress"
	QuestStatusCompleted  = "completed"
	QuestStatusFailed     = "failed"
)

const (
	RewardExperience     = "experience"
	RewardGold           = "gold"
	RewardEquipment      = "equipment"
	RewardAbility        = "ability"
	RewardClanExperience = "clan_experience"
)

// Quest map grid bounds. Coordinates are assigned first-fit, row-major.
const (
	QuestGridWidth  = 10
	QuestGridHeight = 10
)

type Quest struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID          uuid.UUID      `gorm:"type:uuid;not null;index;column:teacher_id" json:"teacher_id"`
	Title              string         `gorm:"not null;column:title" json:"title"`
	Description        string         `gorm:"column:description" json:"description"`
	Type               string         `gorm:"not null;default:story;column:type" json:"type"`
	LevelRequirement   int            `gorm:"not null;default:1;column:level_requirement" json:"level_requirement"`
	StartDate          *time.Time     `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate            *time.Time     `gorm:"column:end_date" json:"end_date,omitempty"`
	TimeLimitHours     *int           `gorm:"column:time_limit_hours" json:"time_limit_hours,omitempty"`
	ParentQuestID      *uuid.UUID     `gorm:"type:uuid;index;column:parent_quest_id" json:"parent_quest_id,omitempty"`
	Requirements       datatypes.JSON `gorm:"column:requirements" json:"requirements,omitempty"`
	CompletionCriteria datatypes.JSON `gorm:"column:completion_criteria" json:"completion_criteria,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Rewards      []QuestReward      `gorm:"foreignKey:QuestID" json:"rewards,omitempty"`
	Consequences []QuestConsequence `gorm:"foreignKey:QuestID" json:"consequences,omitempty"`
}

func (Quest) TableName() string { return "quest" }

func (q *Quest) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type QuestReward struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	QuestID uuid.UUID  `gorm:"type:uuid;not null;index;column:quest_id" json:"quest_id"`
	Type    string     `gorm:"not null;column:type" json:"type"`
	Amount  int        `gorm:"not null;default:0;column:amount" json:"amount"`
	ItemID  *uuid.UUID `gorm:"type:uuid;column:item_id" json:"item_id,omitempty"`
}

func (QuestReward) TableName() string { return "quest_reward" }

func (r *QuestReward) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type QuestConsequence struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestID           uuid.UUID `gorm:"type:uuid;not null;index;column:quest_id" json:"quest_id"`
	ExperiencePenalty int       `gorm:"not null;default:0;column:experience_penalty" json:"experience_penalty"`
	GoldPenalty       int       `gorm:"not null;default:0;column:gold_penalty" json:"gold_penalty"`
	HealthPenalty     int       `gorm:"not null;default:0;column:health_penalty" json:"health_penalty"`
}

func (QuestConsequence) TableName() string { return "quest_consequence" }

func (c *QuestConsequence) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// QuestLog records one character's progress on one quest, pinned to a
// unique cell of that character's quest map.
type QuestLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID  uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_quest_log_owner;column:character_id" json:"character_id"`
	QuestID      uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_quest_log_owner;column:quest_id" json:"quest_id"`
	Status       string         `gorm:"not null;default:not_started;column:status" json:"status"`
	ProgressData datatypes.JSON `gorm:"column:progress_data" json:"progress_data,omitempty"`
	StartedAt    *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	X            *int           `gorm:"column:x" json:"x,omitempty"`
	Y            *int           `gorm:"column:y" json:"y,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (QuestLog) TableName() string { return "quest_log" }

func (l *QuestLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
