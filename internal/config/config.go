package config

import (
	"github.com/vfa-khuongdv/lazy-prune/pkg/notification"
	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// Environment variables recognised by the pruner
const (
	EnvName            = "PRUNE_NAME"
	EnvCredentialsJSON = "GDRIVE_CREDENTIALS_JSON"
	EnvCredentialsFile = "GDRIVE_CREDENTIALS_FILE"
	EnvFolderID        = "GDRIVE_FOLDER_ID"
	EnvBackend         = "PRUNE_BACKEND"
	EnvKeep            = "PRUNE_KEEP"
	EnvDryRun          = "PRUNE_DRY_RUN"
	EnvContinueOnError = "PRUNE_CONTINUE_ON_ERROR"
	EnvSchedule        = "PRUNE_SCHEDULE"
	EnvHistoryDSN      = "PRUNE_HISTORY_DSN"
	EnvMetricsAddr     = "PRUNE_METRICS_ADDR"
)

// Storage backends
const (
	BackendDrive = "drive"
	BackendGCS   = "gcs"
)

// Config holds everything a prune run needs
type Config struct {
	// Name identifies this prune target in history, logs and notifications
	Name string `yaml:"name"`

	// Service account key (JSON). CredentialsFile is read when this is empty.
	CredentialsJSON string `yaml:"credentialsJSON"`
	CredentialsFile string `yaml:"credentialsFile"`

	// Drive folder ID, or "bucket/prefix" for the gcs backend
	FolderID string `yaml:"folderID"`
	Backend  string `yaml:"backend"`

	// Retention settings
	Keep            int  `yaml:"keep"`
	DryRun          bool `yaml:"dryRun"`
	ContinueOnError bool `yaml:"continueOnError"`

	// Cron expression (with seconds) for the schedule command
	Schedule string `yaml:"schedule"`

	// Optional run history database: sqlite://<path> or mysql://<dsn>
	HistoryDSN string `yaml:"historyDSN"`

	// Listen address for Prometheus metrics in schedule mode
	MetricsAddr string `yaml:"metricsAddr"`

	Notifications []notification.NotificationConfig `yaml:"notifications"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Name:    "default",
		Backend: BackendDrive,
		Keep:    retention.DefaultKeep,
	}
}

// Policy returns the deletion failure policy
func (c *Config) Policy() retention.FailurePolicy {
	if c.ContinueOnError {
		return retention.ContinueOnError
	}
	return retention.HaltOnError
}
