package clan

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

type ClanProgressHistoryRepo interface {
	UpsertSnapshot(ctx context.Context, tx *gorm.DB, snapshot *types.ClanProgressHistory) error
	GetWindow(ctx context.Context, tx *gorm.DB, clanID uuid.UUID, fromDate, toDate string) ([]*types.ClanProgressHistory, error)
}

type clanProgressHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClanProgressHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ClanProgressHistoryRepo {
	return &clanProgressHistoryRepo{db: db, log: baseLog.With("repo", "ClanProgressHistoryRepo")}
}

// UpsertSnapshot overwrites any existing snapshot for the same clan and
// day, which keeps the daily job idempotent.
func (r *clanProgressHistoryRepo) UpsertSnapshot(ctx context.Context, tx *gorm.DB, snapshot *types.ClanProgressHistory) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("clan_id = ? AND snapshot_date = ?", snapshot.ClanID, snapshot.SnapshotDate).
		Delete(&types.ClanProgressHistory{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).Create(snapshot).Error
}

func (r *clanProgressHistoryRepo) GetWindow(ctx context.Context, tx *gorm.DB, clanID uuid.UUID, fromDate, toDate string) ([]*types.ClanProgressHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ClanProgressHistory
	if err := transaction.WithContext(ctx).
		Where("clan_id = ? AND snapshot_date >= ? AND snapshot_date <= ?", clanID, fromDate, toDate).
		Order("snapshot_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
