package battle

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type MonsterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, monsters []*types.Monster) ([]*types.Monster, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Monster, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Monster, error)
}

type monsterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMonsterRepo(db *gorm.DB, baseLog *logger.Logger) MonsterRepo {
	return &monsterRepo{db: db, log: baseLog.With("repo", "MonsterRepo")}
}

func (r *monsterRepo) Create(ctx context.Context, tx *gorm.DB, monsters []*types.Monster) ([]*types.Monster, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(monsters) == 0 {
		return []*types.Monster{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&monsters).Error; err != nil {
		return nil, err
	}
	return monsters, nil
}

func (r *monsterRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Monster, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.Monster
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *monsterRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Monster, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Monster
	if err := transaction.WithContext(ctx).Order("level ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
