package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type StatusEffectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, effects []*types.StatusEffect) ([]*types.StatusEffect, error)
	GetActiveByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID, now time.Time) ([]*types.StatusEffect, error)
	PurgeExpired(ctx context.Context, tx *gorm.DB, characterID uuid.UUID, now time.Time) error
}

type statusEffectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusEffectRepo(db *gorm.DB, baseLog *logger.Logger) StatusEffectRepo {
	return &statusEffectRepo{db: db, log: baseLog.With("repo", "StatusEffectRepo")}
}

func (r *statusEffectRepo) Create(ctx context.Context, tx *gorm.DB, effects []*types.StatusEffect) ([]*types.StatusEffect, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(effects) == 0 {
		return []*types.StatusEffect{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&effects).Error; err != nil {
		return nil, err
	}
	return effects, nil
}

func (r *statusEffectRepo) GetActiveByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID, now time.Time) ([]*types.StatusEffect, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StatusEffect
	if err := transaction.WithContext(ctx).
		Where("character_id = ? AND expires_at > ?", characterID, now).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *statusEffectRepo) PurgeExpired(ctx context.Context, tx *gorm.DB, characterID uuid.UUID, now time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("character_id = ? AND expires_at <= ?", characterID, now).
		Delete(&types.StatusEffect{}).Error
}
