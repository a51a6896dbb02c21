package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/utils"
)

type DatabaseService struct {
	db     *gorm.DB
	sqlite bool
	log    *logger.Logger
}

// NewDatabaseService opens the datastore. The default is an embedded sqlite
// file under INSTANCE_DIR with write-ahead logging and foreign keys on;
// DATABASE_URL overrides it (a postgres:// URL selects the postgres driver).
func NewDatabaseService(logg *logger.Logger) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	databaseURL := utils.GetEnv("DATABASE_URL", "", logg)

	var (
		gdb      *gorm.DB
		err      error
		isSQLite bool
	)
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		gdb, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLog,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		dsn := databaseURL
		if dsn == "" {
			instanceDir := utils.GetEnv("INSTANCE_DIR", "instance", logg)
			if mkErr := os.MkdirAll(instanceDir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("failed to create instance dir: %w", mkErr)
			}
			dsn = filepath.Join(instanceDir, "classquest.db")
		}
		// journal_mode and foreign_keys are connect-time pragmas.
		dsn += "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
		gdb, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLog})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		isSQLite = true
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(15)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return &DatabaseService{db: gdb, sqlite: isSQLite, log: serviceLog}, nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) IsSQLite() bool { return s.sqlite }

// IntegrityCheck runs the sqlite integrity check; it is a no-op on other
// drivers.
func (s *DatabaseService) IntegrityCheck() error {
	if !s.sqlite {
		return nil
	}
	var result string
	if err := s.db.Raw("PRAGMA integrity_check").Scan(&result).Error; err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	s.log.Debug("Integrity check passed")
	return nil
}
