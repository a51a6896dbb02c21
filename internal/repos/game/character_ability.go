package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type CharacterAbilityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CharacterAbility) ([]*types.CharacterAbility, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CharacterAbility, error)
	GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.CharacterAbility, error)
	GetByCharacterAndAbility(ctx context.Context, tx *gorm.DB, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error)
	CountEquipped(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) (int64, error)
	SetEquipped(ctx context.Context, tx *gorm.DB, id uuid.UUID, equipped bool) error
	UpdateLevel(ctx context.Context, tx *gorm.DB, id uuid.UUID, level int) error
	SetLastUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, usedAt time.Time) error
}

type characterAbilityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterAbilityRepo(db *gorm.DB, baseLog *logger.Logger) CharacterAbilityRepo {
	return &characterAbilityRepo{db: db, log: baseLog.With("repo", "CharacterAbilityRepo")}
}

func (r *characterAbilityRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CharacterAbility) ([]*types.CharacterAbility, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.CharacterAbility{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *characterAbilityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CharacterAbility, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.CharacterAbility
	if err := transaction.WithContext(ctx).
		Preload("Ability").
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *characterAbilityRepo) GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.CharacterAbility, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CharacterAbility
	if err := transaction.WithContext(ctx).
		Preload("Ability").
		Where("character_id = ?", characterID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characterAbilityRepo) GetByCharacterAndAbility(ctx context.Context, tx *gorm.DB, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.CharacterAbility
	if err := transaction.WithContext(ctx).
		Preload("Ability").
		Where("character_id = ? AND ability_id = ?", characterID, abilityID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *characterAbilityRepo) CountEquipped(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CharacterAbility{}).
		Where("character_id = ? AND is_equipped = ?", characterID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *characterAbilityRepo) SetEquipped(ctx context.Context, tx *gorm.DB, id uuid.UUID, equipped bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CharacterAbility{}).
		Where("id = ?", id).
		Update("is_equipped", equipped).Error
}

func (r *characterAbilityRepo) UpdateLevel(ctx context.Context, tx *gorm.DB, id uuid.UUID, level int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CharacterAbility{}).
		Where("id = ?", id).
		Update("level", level).Error
}

func (r *characterAbilityRepo) SetLastUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, usedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CharacterAbility{}).
		Where("id = ?", id).
		Update("last_used_at", usedAt).Error
}
