package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron"

	"github.com/classquest/classquest-backend/internal/db"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/services"
)

// Scheduler owns the recurring background jobs: the nightly clan
// progress snapshot and a weekly database integrity check.
type Scheduler struct {
	cron        *cron.Cron
	log         *logger.Logger
	clanService services.ClanService
	database    *db.DatabaseService
}

func NewScheduler(log *logger.Logger, clanService services.ClanService, database *db.DatabaseService) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		log:         log.With("component", "Scheduler"),
		clanService: clanService,
		database:    database,
	}
}

func (s *Scheduler) Start() error {
	if err := s.cron.AddFunc("@daily", s.snapshotClans); err != nil {
		return err
	}
	if err := s.cron.AddFunc("@weekly", s.integrityCheck); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", 2)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) snapshotClans() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	// Snapshot the day that just ended. The snapshot writes one row per
	// clan and can collide with request traffic on sqlite, so retry on
	// transient lock errors.
	day := time.Now().UTC().AddDate(0, 0, -1)
	err := db.WithRetry(ctx, s.log, func() error {
		return s.clanService.Snapshot(ctx, day)
	})
	if err != nil {
		s.log.Error("clan snapshot failed", "error", err)
		return
	}
	s.log.Info("clan snapshot complete", "day", day.Format("2006-01-02"))
}

func (s *Scheduler) integrityCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := db.WithRetry(ctx, s.log, s.database.IntegrityCheck); err != nil {
		s.log.Error("database integrity check failed", "error", err)
		return
	}
	s.log.Info("database integrity check passed")
}
