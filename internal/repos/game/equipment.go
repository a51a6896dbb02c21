package game

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type EquipmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.Equipment) ([]*types.Equipment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Equipment, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Equipment, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Equipment, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type equipmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEquipmentRepo(db *gorm.DB, baseLog *logger.Logger) EquipmentRepo {
	return &equipmentRepo{db: db, log: baseLog.With("repo", "EquipmentRepo")}
}

func (r *equipmentRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.Equipment) ([]*types.Equipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.Equipment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *equipmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Equipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var e types.Equipment
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *equipmentRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Equipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var e types.Equipment
	if err := transaction.WithContext(ctx).Where("name = ?", name).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *equipmentRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Equipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Equipment
	if err := transaction.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *equipmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Equipment{}).Error
}
