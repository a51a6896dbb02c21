package quest

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type QuestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quests []*types.Quest) ([]*types.Quest, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quest, error)
	GetByTeacherID(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.Quest, error)
	UpdateParent(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error
}

type questRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
	return &questRepo{db: db, log: baseLog.With("repo", "QuestRepo")}
}

func (r *questRepo) Create(ctx context.Context, tx *gorm.DB, quests []*types.Quest) ([]*types.Quest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quests) == 0 {
		return []*types.Quest{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

func (r *questRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var q types.Quest
	if err := transaction.WithContext(ctx).
		Preload("Rewards").
		Preload("Consequences").
		Where("id = ?", id).
		First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questRepo) GetByTeacherID(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.Quest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Quest
	if err := transaction.WithContext(ctx).
		Preload("Rewards").
		Preload("Consequences").
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questRepo) UpdateParent(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Quest{}).
		Where("id = ?", id).
		Update("parent_quest_id", parentID).Error
}

type QuestRewardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rewards []*types.QuestReward) ([]*types.QuestReward, error)
	GetByQuestID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) ([]*types.QuestReward, error)
}

type questRewardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestRewardRepo(db *gorm.DB, baseLog *logger.Logger) QuestRewardRepo {
	return &questRewardRepo{db: db, log: baseLog.With("repo", "QuestRewardRepo")}
}

func (r *questRewardRepo) Create(ctx context.Context, tx *gorm.DB, rewards []*types.QuestReward) ([]*types.QuestReward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rewards) == 0 {
		return []*types.QuestReward{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *questRewardRepo) GetByQuestID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) ([]*types.QuestReward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.QuestReward
	if err := transaction.WithContext(ctx).
		Where("quest_id = ?", questID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type QuestConsequenceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, consequences []*types.QuestConsequence) ([]*types.QuestConsequence, error)
	GetByQuestID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) ([]*types.QuestConsequence, error)
}

type questConsequenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestConsequenceRepo(db *gorm.DB, baseLog *logger.Logger) QuestConsequenceRepo {
	return &questConsequenceRepo{db: db, log: baseLog.With("repo", "QuestConsequenceRepo")}
}

func (r *questConsequenceRepo) Create(ctx context.Context, tx *gorm.DB, consequences []*types.QuestConsequence) ([]*types.QuestConsequence, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(consequences) == 0 {
		return []*types.QuestConsequence{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&consequences).Error; err != nil {
		return nil, err
	}
	return consequences, nil
}

func (r *questConsequenceRepo) GetByQuestID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) ([]*types.QuestConsequence, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.QuestConsequence
	if err := transaction.WithContext(ctx).
		Where("quest_id = ?", questID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
