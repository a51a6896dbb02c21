package db

import (
	"time"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

// LatestSchemaRevision is bumped whenever the model set changes. The
// startup check compares the recorded revision against it and warns when
// the database is behind.
const LatestSchemaRevision = "2026.08.1"

func (s *DatabaseService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Identity & roster
		&types.User{},
		&types.Classroom{},
		&types.Student{},

		// Character engine
		&types.Character{},
		&types.StatusEffect{},

		// Inventory & equipment
		&types.Equipment{},
		&types.Inventory{},

		// Abilities
		&types.Ability{},
		&types.CharacterAbility{},

		// Quests
		&types.Quest{},
		&types.QuestReward{},
		&types.QuestConsequence{},
		&types.QuestLog{},

		// Battles
		&types.Monster{},
		&types.QuestionSet{},
		&types.Question{},
		&types.Battle{},

		// Shop
		&types.ShopPurchase{},
		&types.ShopItemOverride{},

		// Clans & metrics
		&types.Clan{},
		&types.ClanProgressHistory{},

		// Audit & schema bookkeeping
		&types.AuditLog{},
		&types.SchemaRevision{},
	)
}

// CheckSchemaRevision records the current revision on first boot and warns
// when the stored revision is older than the latest known one.
func CheckSchemaRevision(db *gorm.DB, log *logger.Logger) error {
	var rev types.SchemaRevision
	err := db.Order("id DESC").First(&rev).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&types.SchemaRevision{
			Revision:  LatestSchemaRevision,
			AppliedAt: time.Now().UTC(),
		}).Error
	}
	if err != nil {
		return err
	}
	if rev.Revision != LatestSchemaRevision {
		log.Warn("Database schema revision is behind the latest known revision",
			"recorded", rev.Revision, "latest", LatestSchemaRevision)
		return db.Create(&types.SchemaRevision{
			Revision:  LatestSchemaRevision,
			AppliedAt: time.Now().UTC(),
		}).Error
	}
	return nil
}
