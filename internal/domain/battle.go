package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BattleStatusActive = "active"
	BattleStatusWon    = "won"
	BattleStatusLost   = "lost"
	BattleStatusFled   = "fled"
)

type Monster struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null;column:name" json:"name"`
	Level      int       `gorm:"not null;default:1;column:level" json:"level"`
	Health     int       `gorm:"not null;column:health" json:"health"`
	Attack     int       `gorm:"not null;column:attack" json:"attack"`
	Defense    int       `gorm:"not null;default:0;column:defense" json:"defense"`
	XPReward   int       `gorm:"not null;default:0;column:xp_reward" json:"xp_reward"`
	GoldReward int       `gorm:"not null;default:0;column:gold_reward" json:"gold_reward"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Monster) TableName() string { return "monster" }

func (m *Monster) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type QuestionSet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID uuid.UUID `gorm:"type:uuid;not null;index;column:teacher_id" json:"teacher_id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Subject   string    `gorm:"column:subject" json:"subject"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Questions []Question `gorm:"foreignKey:QuestionSetID" json:"questions,omitempty"`
}

func (QuestionSet) TableName() string { return "question_set" }

func (qs *QuestionSet) BeforeCreate(*gorm.DB) error {
	if qs.ID == uuid.Nil {
		qs.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionSetID uuid.UUID      `gorm:"type:uuid;not null;index;column:question_set_id" json:"question_set_id"`
	Text          string         `gorm:"not null;column:text" json:"text"`
	Options       datatypes.JSON `gorm:"column:options" json:"options,omitempty"`
	CorrectAnswer string         `gorm:"not null;column:correct_answer" json:"-"`
	Difficulty    int            `gorm:"not null;default:1;column:difficulty" json:"difficulty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// BattleTurn is one entry of a battle's ordered turn log, persisted as
// JSON on the battle row.
type BattleTurn struct {
	Turn            int    `json:"turn"`
	QuestionID      string `json:"question_id"`
	QuestionText    string `json:"question_text"`
	SubmittedAnswer string `json:"submitted_answer"`
	CorrectAnswer   string `json:"correct_answer,omitempty"`
	Correct         bool   `json:"correct"`
	DamageToMonster int    `json:"damage_to_monster"`
	DamageToPlayer  int    `json:"damage_to_player"`
}

type Battle struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID        uuid.UUID `gorm:"type:uuid;not null;index;column:student_id" json:"student_id"`
	CharacterID      uuid.UUID `gorm:"type:uuid;not null;index;column:character_id" json:"character_id"`
	MonsterID        uuid.UUID `gorm:"type:uuid;not null;column:monster_id" json:"monster_id"`
	QuestionSetID    uuid.UUID `gorm:"type:uuid;not null;column:question_set_id" json:"question_set_id"`
	PlayerHealth     int       `gorm:"not null;column:player_health" json:"player_health"`
	PlayerMaxHealth  int       `gorm:"not null;column:player_max_health" json:"player_max_health"`
	MonsterHealth    int       `gorm:"not null;column:monster_health" json:"monster_health"`
	MonsterMaxHealth int       `gorm:"not null;column:monster_max_health" json:"monster_max_health"`
	Status           string    `gorm:"not null;default:active;column:status" json:"status"`
	// CurrentQuestionID pins the question drawn for the pending turn;
	// nil until a draw and cleared once the turn resolves.
	CurrentQuestionID *uuid.UUID     `gorm:"type:uuid;column:current_question_id" json:"current_question_id,omitempty"`
	TurnLog           datatypes.JSON `gorm:"column:turn_log" json:"turn_log,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Battle) TableName() string { return "battle" }

func (b *Battle) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
