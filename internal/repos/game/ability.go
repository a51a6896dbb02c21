package game

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type AbilityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, abilities []*types.Ability) ([]*types.Ability, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Ability, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Ability, error)
}

type abilityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAbilityRepo(db *gorm.DB, baseLog *logger.Logger) AbilityRepo {
	return &abilityRepo{db: db, log: baseLog.With("repo", "AbilityRepo")}
}

func (r *abilityRepo) Create(ctx context.Context, tx *gorm.DB, abilities []*types.Ability) ([]*types.Ability, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(abilities) == 0 {
		return []*types.Ability{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&abilities).Error; err != nil {
		return nil, err
	}
	return abilities, nil
}

func (r *abilityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Ability, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.Ability
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *abilityRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Ability, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Ability
	if err := transaction.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
