package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StudentStatusActive     = "active"
	StudentStatusUnassigned = "unassigned"
)

// JoinCodeLength is the length of a classroom join code.
const JoinCodeLength = 8

type Classroom struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID   uuid.UUID `gorm:"type:uuid;not null;index;column:teacher_id" json:"teacher_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	JoinCode    string    `gorm:"uniqueIndex;not null;column:join_code" json:"join_code"`
	MaxStudents int       `gorm:"not null;default:30;column:max_students" json:"max_students"`
	MaxClans    int       `gorm:"not null;default:6;column:max_clans" json:"max_clans"`
	MinClanSize *int      `gorm:"column:min_clan_size" json:"min_clan_size,omitempty"`
	MaxClanSize *int      `gorm:"column:max_clan_size" json:"max_clan_size,omitempty"`
	IsActive    bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Classroom) TableName() string { return "classroom" }

func (c *Classroom) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Student is the student profile attached one-to-one to a student User.
// ClassID nil means the profile sits in the unassigned pool.
type Student struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	ClassID *uuid.UUID `gorm:"type:uuid;index;column:class_id" json:"class_id,omitempty"`
	ClanID  *uuid.UUID `gorm:"type:uuid;index;column:clan_id" json:"clan_id,omitempty"`
	Status  string     `gorm:"not null;default:unassigned;column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Student) TableName() string { return "student" }

func (s *Student) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
