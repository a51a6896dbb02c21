package roster

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type ClassroomRepo interface {
	Create(ctx context.Context, tx *gorm.DB, classrooms []*types.Classroom) ([]*types.Classroom, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classroom, error)
	GetByTeacherID(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.Classroom, error)
	GetByJoinCode(ctx context.Context, tx *gorm.DB, joinCode string) (*types.Classroom, error)
	JoinCodeExists(ctx context.Context, tx *gorm.DB, joinCode string) (bool, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type classroomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassroomRepo(db *gorm.DB, baseLog *logger.Logger) ClassroomRepo {
	return &classroomRepo{db: db, log: baseLog.With("repo", "ClassroomRepo")}
}

func (r *classroomRepo) Create(ctx context.Context, tx *gorm.DB, classrooms []*types.Classroom) ([]*types.Classroom, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(classrooms) == 0 {
		return []*types.Classroom{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&classrooms).Error; err != nil {
		return nil, err
	}
	return classrooms, nil
}

func (r *classroomRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Classroom, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Classroom
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *classroomRepo) GetByTeacherID(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.Classroom, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Classroom
	if err := transaction.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *classroomRepo) GetByJoinCode(ctx context.Context, tx *gorm.DB, joinCode string) (*types.Classroom, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Classroom
	if err := transaction.WithContext(ctx).Where("join_code = ?", joinCode).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *classroomRepo) JoinCodeExists(ctx context.Context, tx *gorm.DB, joinCode string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Classroom{}).
		Where("join_code = ?", joinCode).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *classroomRepo) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Classroom{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *classroomRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Classroom{}).Error
}
