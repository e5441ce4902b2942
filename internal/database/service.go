package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrInvalidDSN is returned for history DSNs that cannot be used
var ErrInvalidDSN = errors.New("invalid history DSN")

type Service struct {
	db *gorm.DB
}

// Dialector picks the gorm driver for a history DSN.
// Supported forms are sqlite://<path> and mysql://<go-sql-driver DSN>.
func Dialector(dsn string) (gorm.Dialector, error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok || rest == "" {
		return nil, fmt.Errorf("%w: expected sqlite://<path> or mysql://<dsn>, got %q", ErrInvalidDSN, dsn)
	}

	switch scheme {
	case "sqlite":
		return sqlite.Open(rest), nil
	case "mysql":
		cfg, err := mysqldriver.ParseDSN(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDSN, err)
		}
		if cfg.DBName == "" {
			return nil, fmt.Errorf("%w: database name is required", ErrInvalidDSN)
		}
		cfg.ParseTime = true
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		if _, ok := cfg.Params["charset"]; !ok {
			cfg.Params["charset"] = "utf8mb4"
		}
		return mysql.Open(cfg.FormatDSN()), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDSN, scheme)
	}
}

// NewService opens the history database and migrates it
func NewService(dsn string) (*Service, error) {
	dialector, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Service{db: db}, nil
}

// GetDB returns the database instance
func (s *Service) GetDB() *gorm.DB {
	return s.db
}

// StartPruneRun stores a new run in the running state and assigns its RunID
func (s *Service) StartPruneRun(run *PruneRun) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = StatusRunning
	return s.db.Create(run).Error
}

// FinishPruneRun records the outcome of a run
func (s *Service) FinishPruneRun(run *PruneRun, runErr error) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = StatusSuccess
	run.ErrorMsg = ""
	if runErr != nil {
		run.Status = StatusFailed
		run.ErrorMsg = runErr.Error()
	}
	return s.db.Save(run).Error
}

// SaveDeletedBackups stores the files handled by a run
func (s *Service) SaveDeletedBackups(records []DeletedBackup) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.Create(&records).Error
}

// GetPruneHistory retrieves prune runs with pagination, newest first
func (s *Service) GetPruneHistory(limit, offset int) ([]PruneRun, error) {
	var runs []PruneRun
	err := s.db.Order("started_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, err
}

// GetPruneRun retrieves a run by its RunID
func (s *Service) GetPruneRun(runID string) (*PruneRun, error) {
	var run PruneRun
	if err := s.db.Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// GetDeletedBackups retrieves the files handled by a run
func (s *Service) GetDeletedBackups(runID string) ([]DeletedBackup, error) {
	var records []DeletedBackup
	err := s.db.Where("run_id = ?", runID).Order("id ASC").Find(&records).Error
	return records, err
}

// Close closes the database connection
func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
