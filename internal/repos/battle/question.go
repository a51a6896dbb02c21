package battle

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type QuestionSetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sets []*types.QuestionSet) ([]*types.QuestionSet, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuestionSet, error)
	GetByTeacherID(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.QuestionSet, error)
}

type questionSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionSetRepo(db *gorm.DB, baseLog *logger.Logger) QuestionSetRepo {
	return &questionSetRepo{db: db, log: baseLog.With("repo", "QuestionSetRepo")}
}

func (r *questionSetRepo) Create(ctx context.Context, tx *gorm.DB, sets []*types.QuestionSet) ([]*types.QuestionSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sets) == 0 {
		return []*types.QuestionSet{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *questionSetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuestionSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var qs types.QuestionSet
	if err := transaction.WithContext(ctx).
		Preload("Questions").
		Where("id = ?", id).
		First(&qs).Error; err != nil {
		return nil, err
	}
	return &qs, nil
}

func (r *questionSetRepo) GetByTeacherID(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*types.QuestionSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.QuestionSet
	if err := transaction.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error)
	GetBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var q types.Question
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) GetBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("question_set_id = ?", setID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
