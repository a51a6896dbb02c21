package shop

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type ShopPurchaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, purchases []*types.ShopPurchase) ([]*types.ShopPurchase, error)
	GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.ShopPurchase, error)
}

type shopPurchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShopPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) ShopPurchaseRepo {
	return &shopPurchaseRepo{db: db, log: baseLog.With("repo", "ShopPurchaseRepo")}
}

func (r *shopPurchaseRepo) Create(ctx context.Context, tx *gorm.DB, purchases []*types.ShopPurchase) ([]*types.ShopPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(purchases) == 0 {
		return []*types.ShopPurchase{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *shopPurchaseRepo) GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.ShopPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ShopPurchase
	if err := transaction.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("purchase_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type ShopItemOverrideRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, override *types.ShopItemOverride) error
	Get(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, itemType string, itemID uuid.UUID) (*types.ShopItemOverride, error)
	GetByClassroomID(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID) ([]*types.ShopItemOverride, error)
	Delete(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, itemType string, itemID uuid.UUID) error
}

type shopItemOverrideRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShopItemOverrideRepo(db *gorm.DB, baseLog *logger.Logger) ShopItemOverrideRepo {
	return &shopItemOverrideRepo{db: db, log: baseLog.With("repo", "ShopItemOverrideRepo")}
}

func (r *shopItemOverrideRepo) Upsert(ctx context.Context, tx *gorm.DB, override *types.ShopItemOverride) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.Get(ctx, transaction, override.ClassroomID, override.ItemType, override.ItemID)
	if err != nil {
		return err
	}
	if existing == nil {
		return transaction.WithContext(ctx).Create(override).Error
	}
	return transaction.WithContext(ctx).
		Model(&types.ShopItemOverride{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"cost":              override.Cost,
			"level_requirement": override.LevelRequirement,
			"is_visible":        override.IsVisible,
		}).Error
}

// Get returns nil without error when no override exists, including the
// case where the override table has not been migrated yet.
func (r *shopItemOverrideRepo) Get(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, itemType string, itemID uuid.UUID) (*types.ShopItemOverride, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var o types.ShopItemOverride
	err := transaction.WithContext(ctx).
		Where("classroom_id = ? AND item_type = ? AND item_id = ?", classroomID, itemType, itemID).
		First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound || isMissingTableErr(err) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *shopItemOverrideRepo) GetByClassroomID(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID) ([]*types.ShopItemOverride, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ShopItemOverride
	err := transaction.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Find(&results).Error
	if err != nil {
		if isMissingTableErr(err) {
			return nil, nil
		}
		return nil, err
	}
	return results, nil
}

func (r *shopItemOverrideRepo) Delete(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, itemType string, itemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(ctx).
		Where("classroom_id = ? AND item_type = ? AND item_id = ?", classroomID, itemType, itemID).
		Delete(&types.ShopItemOverride{}).Error
	if err != nil && isMissingTableErr(err) {
		return nil
	}
	return err
}

func isMissingTableErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") || // sqlite
		strings.Contains(msg, "sqlstate 42p01") || // postgres undefined_table
		strings.Contains(msg, "does not exist")
}
