package quest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type QuestLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.QuestLog) ([]*types.QuestLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuestLog, error)
	GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.QuestLog, error)
	GetByCharacterAndQuest(ctx context.Context, tx *gorm.DB, characterID, questID uuid.UUID) (*types.QuestLog, error)
	HasCompleted(ctx context.Context, tx *gorm.DB, characterID, questID uuid.UUID) (bool, error)
	CountByCharacterIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID, status string) (int64, error)
	CountPerCharacter(ctx context.Context, tx *gorm.DB, characterID uuid.UUID, status string) (int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, startedAt, completedAt *time.Time) error
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress datatypes.JSON) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type questLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestLogRepo(db *gorm.DB, baseLog *logger.Logger) QuestLogRepo {
	return &questLogRepo{db: db, log: baseLog.With("repo", "QuestLogRepo")}
}

func (r *questLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.QuestLog) ([]*types.QuestLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.QuestLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *questLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuestLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.QuestLog
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *questLogRepo) GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.QuestLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.QuestLog
	if err := transaction.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questLogRepo) GetByCharacterAndQuest(ctx context.Context, tx *gorm.DB, characterID, questID uuid.UUID) (*types.QuestLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.QuestLog
	if err := transaction.WithContext(ctx).
		Where("character_id = ? AND quest_id = ?", characterID, questID).
		First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *questLogRepo) HasCompleted(ctx context.Context, tx *gorm.DB, characterID, questID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.QuestLog{}).
		Where("character_id = ? AND quest_id = ? AND status = ?", characterID, questID, types.QuestStatusCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *questLogRepo) CountByCharacterIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID, status string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(characterIDs) == 0 {
		return 0, nil
	}
	query := transaction.WithContext(ctx).
		Model(&types.QuestLog{}).
		Where("character_id IN ?", characterIDs)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *questLogRepo) CountPerCharacter(ctx context.Context, tx *gorm.DB, characterID uuid.UUID, status string) (int64, error) {
	return r.CountByCharacterIDs(ctx, tx, []uuid.UUID{characterID}, status)
}

func (r *questLogRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, startedAt, completedAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]any{"status": status}
	if startedAt != nil {
		updates["started_at"] = startedAt
	}
	if completedAt != nil {
		updates["completed_at"] = completedAt
	}
	return transaction.WithContext(ctx).
		Model(&types.QuestLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *questLogRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.QuestLog{}).
		Where("id = ?", id).
		Update("progress_data", progress).Error
}

func (r *questLogRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.QuestLog{}).Error
}
