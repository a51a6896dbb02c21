package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

// Filter narrows audit queries. Zero values mean "no constraint".
type Filter struct {
	UserIDs      []uuid.UUID
	CharacterIDs []uuid.UUID
	EventTypes   []string
	Since        time.Time
	Until        time.Time
	Limit        int
}

type AuditLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.AuditLog) ([]*types.AuditLog, error)
	List(ctx context.Context, tx *gorm.DB, filter Filter) ([]*types.AuditLog, error)
	ActiveIDsSince(ctx context.Context, tx *gorm.DB, userIDs, characterIDs []uuid.UUID, since time.Time) (map[uuid.UUID]bool, map[uuid.UUID]bool, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.AuditLog) ([]*types.AuditLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return []*types.AuditLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *auditLogRepo) List(ctx context.Context, tx *gorm.DB, filter Filter) ([]*types.AuditLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Model(&types.AuditLog{})
	if len(filter.UserIDs) > 0 {
		query = query.Where("user_id IN ?", filter.UserIDs)
	}
	if len(filter.CharacterIDs) > 0 {
		query = query.Where("character_id IN ?", filter.CharacterIDs)
	}
	if len(filter.EventTypes) > 0 {
		query = query.Where("event_type IN ?", filter.EventTypes)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at < ?", filter.Until)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var results []*types.AuditLog
	if err := query.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ActiveIDsSince returns which of the given user ids and character ids
// appear on any audit row in the window. Gameplay events carry only a
// character id and session events only a user id, so callers match on
// either.
func (r *auditLogRepo) ActiveIDsSince(ctx context.Context, tx *gorm.DB, userIDs, characterIDs []uuid.UUID, since time.Time) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	activeUsers := map[uuid.UUID]bool{}
	if len(userIDs) > 0 {
		var ids []uuid.UUID
		if err := transaction.WithContext(ctx).
			Model(&types.AuditLog{}).
			Where("user_id IN ? AND created_at >= ?", userIDs, since).
			Distinct().
			Pluck("user_id", &ids).Error; err != nil {
			return nil, nil, err
		}
		for _, id := range ids {
			activeUsers[id] = true
		}
	}
	activeCharacters := map[uuid.UUID]bool{}
	if len(characterIDs) > 0 {
		var ids []uuid.UUID
		if err := transaction.WithContext(ctx).
			Model(&types.AuditLog{}).
			Where("character_id IN ? AND created_at >= ?", characterIDs, since).
			Distinct().
			Pluck("character_id", &ids).Error; err != nil {
			return nil, nil, err
		}
		for _, id := range ids {
			activeCharacters[id] = true
		}
	}
	return activeUsers, activeCharacters, nil
}
