package clan

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type ClanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, clans []*types.Clan) ([]*types.Clan, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clan, error)
	GetByClassroomID(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID) ([]*types.Clan, error)
	GetAllActive(ctx context.Context, tx *gorm.DB) ([]*types.Clan, error)
	NameExists(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, name string) (bool, error)
	Save(ctx context.Context, tx *gorm.DB, clan *types.Clan) error
	UpdateLeader(ctx context.Context, tx *gorm.DB, id uuid.UUID, leaderID *uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type clanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClanRepo(db *gorm.DB, baseLog *logger.Logger) ClanRepo {
	return &clanRepo{db: db, log: baseLog.With("repo", "ClanRepo")}
}

func (r *clanRepo) Create(ctx context.Context, tx *gorm.DB, clans []*types.Clan) ([]*types.Clan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(clans) == 0 {
		return []*types.Clan{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&clans).Error; err != nil {
		return nil, err
	}
	return clans, nil
}

func (r *clanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Clan
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clanRepo) GetByClassroomID(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID) ([]*types.Clan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Clan
	if err := transaction.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clanRepo) GetAllActive(ctx context.Context, tx *gorm.DB) ([]*types.Clan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Clan
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clanRepo) NameExists(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, name string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Clan{}).
		Where("classroom_id = ? AND name = ?", classroomID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *clanRepo) Save(ctx context.Context, tx *gorm.DB, clan *types.Clan) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(clan).Error
}

func (r *clanRepo) UpdateLeader(ctx context.Context, tx *gorm.DB, id uuid.UUID, leaderID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Clan{}).
		Where("id = ?", id).
		Update("leader_id", leaderID).Error
}

func (r *clanRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Clan{}).Error
}
