package roster

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type StudentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Student, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Student, error)
	GetByClassID(ctx context.Context, tx *gorm.DB, classID uuid.UUID) ([]*types.Student, error)
	GetUnassigned(ctx context.Context, tx *gorm.DB) ([]*types.Student, error)
	CountByClassID(ctx context.Context, tx *gorm.DB, classID uuid.UUID) (int64, error)
	UpdateClass(ctx context.Context, tx *gorm.DB, id uuid.UUID, classID *uuid.UUID, status string) error
	UpdateClan(ctx context.Context, tx *gorm.DB, id uuid.UUID, clanID *uuid.UUID) error
	HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(students) == 0 {
		return []*types.Student{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Student
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Student
	if err := transaction.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByClassID(ctx context.Context, tx *gorm.DB, classID uuid.UUID) ([]*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Student
	if err := transaction.WithContext(ctx).
		Where("class_id = ?", classID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *studentRepo) GetUnassigned(ctx context.Context, tx *gorm.DB) ([]*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Student
	if err := transaction.WithContext(ctx).
		Where("class_id IS NULL AND status = ?", types.StudentStatusUnassigned).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *studentRepo) CountByClassID(ctx context.Context, tx *gorm.DB, classID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("class_id = ?", classID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *studentRepo) UpdateClass(ctx context.Context, tx *gorm.DB, id uuid.UUID, classID *uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"class_id": classID,
			"status":   status,
		}).Error
}

func (r *studentRepo) UpdateClan(ctx context.Context, tx *gorm.DB, id uuid.UUID, clanID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("id = ?", id).
		Update("clan_id", clanID).Error
}

func (r *studentRepo) HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&types.Student{}).Error
}
