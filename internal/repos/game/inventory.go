package game

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type InventoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Inventory) ([]*types.Inventory, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Inventory, error)
	GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.Inventory, error)
	GetEquippedByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.Inventory, error)
	GetByCharacterAndEquipment(ctx context.Context, tx *gorm.DB, characterID, equipmentID uuid.UUID) (*types.Inventory, error)
	CountByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) (int64, error)
	SetEquipped(ctx context.Context, tx *gorm.DB, id uuid.UUID, equipped bool) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByEquipmentID(ctx context.Context, tx *gorm.DB, equipmentID uuid.UUID) error
}

type inventoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInventoryRepo(db *gorm.DB, baseLog *logger.Logger) InventoryRepo {
	return &inventoryRepo{db: db, log: baseLog.With("repo", "InventoryRepo")}
}

func (r *inventoryRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Inventory) ([]*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Inventory{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inventoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Inventory
	if err := transaction.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *inventoryRepo) GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Inventory
	if err := transaction.WithContext(ctx).
		Preload("Equipment").
		Where("character_id = ?", characterID).
		Order("acquired_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *inventoryRepo) GetEquippedByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Inventory
	if err := transaction.WithContext(ctx).
		Preload("Equipment").
		Where("character_id = ? AND is_equipped = ?", characterID, true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *inventoryRepo) GetByCharacterAndEquipment(ctx context.Context, tx *gorm.DB, characterID, equipmentID uuid.UUID) (*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Inventory
	if err := transaction.WithContext(ctx).
		Where("character_id = ? AND equipment_id = ?", characterID, equipmentID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *inventoryRepo) CountByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Inventory{}).
		Where("character_id = ?", characterID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *inventoryRepo) SetEquipped(ctx context.Context, tx *gorm.DB, id uuid.UUID, equipped bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Inventory{}).
		Where("id = ?", id).
		Update("is_equipped", equipped).Error
}

func (r *inventoryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Inventory{}).Error
}

func (r *inventoryRepo) DeleteByEquipmentID(ctx context.Context, tx *gorm.DB, equipmentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Delete(&types.Inventory{}).Error
}
