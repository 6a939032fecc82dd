package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/agencyledger-backend/internal/pkg/envutil"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

// SQLiteService backs local development and tests. SQLite has a single writer, so the pool
// is pinned to one connection; transactions then serialize instead of taking row locks.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(logg *logger.Logger) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")
	path := envutil.GetEnv("SQLITE_PATH", "agencyledger.db", logg)
	db, err := OpenSQLite(fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path), newGormLogger())
	if err != nil {
		return nil, err
	}
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

// OpenSQLite opens dsn with a single pooled connection.
func OpenSQLite(dsn string, gl gormLogger.Interface) (*gorm.DB, error) {
	if gl == nil {
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gl,
		NowFunc:                                  nowUTC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return db, nil
}
