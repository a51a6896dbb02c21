package battle

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type BattleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, battles []*types.Battle) ([]*types.Battle, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Battle, error)
	GetActiveByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Battle, error)
	Save(ctx context.Context, tx *gorm.DB, battle *types.Battle) error
}

type battleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBattleRepo(db *gorm.DB, baseLog *logger.Logger) BattleRepo {
	return &battleRepo{db: db, log: baseLog.With("repo", "BattleRepo")}
}

func (r *battleRepo) Create(ctx context.Context, tx *gorm.DB, battles []*types.Battle) ([]*types.Battle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(battles) == 0 {
		return []*types.Battle{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&battles).Error; err != nil {
		return nil, err
	}
	return battles, nil
}

func (r *battleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Battle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var b types.Battle
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *battleRepo) GetActiveByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Battle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var b types.Battle
	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, types.BattleStatusActive).
		First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *battleRepo) Save(ctx context.Context, tx *gorm.DB, battle *types.Battle) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(battle).Error
}
