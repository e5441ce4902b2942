package database

import (
	"time"

	"gorm.io/gorm"
)

// Prune run statuses
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PruneRun keeps track of prune operations
type PruneRun struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	RunID       string     `json:"run_id" gorm:"size:36;not null;uniqueIndex"`
	ConfigName  string     `json:"config_name"`
	Location    string     `json:"location" gorm:"not null"` // drive:<folder> or gs://bucket/prefix
	Keep        int        `json:"keep"`
	DryRun      bool       `json:"dry_run"`
	Listed      int        `json:"listed"`
	Retained    int        `json:"retained"`
	Deleted     int        `json:"deleted"`
	Failed      int        `json:"failed"`
	Status      string     `json:"status"`    // running, success, failed
	ErrorMsg    string     `json:"error_msg"` // Error message if failed
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeletedBackup records one file removed (or selected, in a dry run) by a prune run
type DeletedBackup struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	RunID         string    `json:"run_id" gorm:"size:36;not null;index"`
	FileID        string    `json:"file_id" gorm:"not null"`
	FileName      string    `json:"file_name"`
	FileCreatedAt time.Time `json:"file_created_at"`
	DryRun        bool      `json:"dry_run"`
	ErrorMsg      string    `json:"error_msg"` // set when the delete call failed
	CreatedAt     time.Time `json:"created_at"`
}

func (PruneRun) TableName() string {
	return "lzp_prune_runs"
}

func (DeletedBackup) TableName() string {
	return "lzp_deleted_backups"
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PruneRun{},
		&DeletedBackup{},
	)
}
