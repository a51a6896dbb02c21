package game

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type CharacterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Character, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Character, error)
	GetActiveByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Character, error)
	GetActiveByStudentIDs(ctx context.Context, tx *gorm.DB, studentIDs []uuid.UUID) ([]*types.Character, error)
	GetByClanID(ctx context.Context, tx *gorm.DB, clanID uuid.UUID) ([]*types.Character, error)
	CountByClanID(ctx context.Context, tx *gorm.DB, clanID uuid.UUID) (int64, error)
	Save(ctx context.Context, tx *gorm.DB, character *types.Character) error
	UpdateClan(ctx context.Context, tx *gorm.DB, id uuid.UUID, clanID *uuid.UUID) error
	DeleteByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error
}

type characterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterRepo(db *gorm.DB, baseLog *logger.Logger) CharacterRepo {
	return &characterRepo{db: db, log: baseLog.With("repo", "CharacterRepo")}
}

func (r *characterRepo) Create(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(characters) == 0 {
		return []*types.Character{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&characters).Error; err != nil {
		return nil, err
	}
	return characters, nil
}

func (r *characterRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Character
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *characterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Character
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characterRepo) GetActiveByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Character
	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND is_active = ?", studentID, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *characterRepo) GetActiveByStudentIDs(ctx context.Context, tx *gorm.DB, studentIDs []uuid.UUID) ([]*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Character
	if len(studentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("student_id IN ? AND is_active = ?", studentIDs, true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characterRepo) GetByClanID(ctx context.Context, tx *gorm.DB, clanID uuid.UUID) ([]*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Character
	if err := transaction.WithContext(ctx).
		Where("clan_id = ?", clanID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characterRepo) CountByClanID(ctx context.Context, tx *gorm.DB, clanID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Character{}).
		Where("clan_id = ?", clanID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *characterRepo) Save(ctx context.Context, tx *gorm.DB, character *types.Character) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(character).Error
}

func (r *characterRepo) UpdateClan(ctx context.Context, tx *gorm.DB, id uuid.UUID, clanID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Character{}).
		Where("id = ?", id).
		Update("clan_id", clanID).Error
}

func (r *characterRepo) DeleteByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&types.Character{}).Error
}
