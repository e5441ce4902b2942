package prune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/vfa-khuongdv/lazy-prune/internal/auth"
	"github.com/vfa-khuongdv/lazy-prune/internal/config"
	"github.com/vfa-khuongdv/lazy-prune/internal/database"
	"github.com/vfa-khuongdv/lazy-prune/internal/metrics"
	"github.com/vfa-khuongdv/lazy-prune/internal/scheduler"
	"github.com/vfa-khuongdv/lazy-prune/pkg/gcs"
	"github.com/vfa-khuongdv/lazy-prune/pkg/gdrive"
	"github.com/vfa-khuongdv/lazy-prune/pkg/notification"
	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// Authenticator turns a service account key into a token source
type Authenticator func(ctx context.Context, credentialsJSON []byte, scopes ...string) (oauth2.TokenSource, error)

// StoreFactory builds the store a run prunes
type StoreFactory func(ctx context.Context, cfg *config.Config, ts oauth2.TokenSource) (retention.Store, error)

// Option customizes a PruneManager
type Option func(*PruneManager)

// WithAuthenticator replaces the service account authenticator
func WithAuthenticator(a Authenticator) Option {
	return func(pm *PruneManager) { pm.authenticate = a }
}

// WithStoreFactory replaces the Drive/GCS store construction
func WithStoreFactory(f StoreFactory) Option {
	return func(pm *PruneManager) { pm.newStore = f }
}

// WithMetrics records run metrics on an existing collector
func WithMetrics(c *metrics.Collector) Option {
	return func(pm *PruneManager) { pm.metrics = c }
}

type PruneManager struct {
	config           *config.Config
	out              io.Writer
	dbService        *database.Service
	notifyManager    *notification.Manager
	schedulerService *scheduler.Service
	metrics          *metrics.Collector
	authenticate     Authenticator
	newStore         StoreFactory
	runMutex         sync.Mutex
	started          bool
}

// NewPruneManager validates cfg and wires the services. No storage API is called.
func NewPruneManager(cfg *config.Config, out io.Writer, opts ...Option) (*PruneManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is required", retention.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}

	pm := &PruneManager{
		config:           cfg,
		out:              out,
		notifyManager:    notification.NewManager(cfg.Notifications),
		schedulerService: scheduler.NewService(),
		authenticate:     authenticateServiceAccount,
		newStore:         newStore,
	}
	for _, opt := range opts {
		opt(pm)
	}
	if pm.metrics == nil {
		pm.metrics = metrics.NewCollector(nil)
	}

	if cfg.HistoryDSN != "" {
		dbService, err := database.NewService(cfg.HistoryDSN)
		if err != nil {
			if errors.Is(err, database.ErrInvalidDSN) {
				return nil, fmt.Errorf("%w: %w", retention.ErrConfiguration, err)
			}
			return nil, fmt.Errorf("failed to initialize history database: %w", err)
		}
		pm.dbService = dbService
	}

	return pm, nil
}

// Initialize schedules RunOnce on the configured cron expression and starts the scheduler
func (pm *PruneManager) Initialize() error {
	log.Println("Initializing prune manager...")

	if pm.config.Schedule == "" {
		return fmt.Errorf("%w: a schedule is required to run in scheduled mode", retention.ErrConfiguration)
	}

	err := pm.schedulerService.AddPruneJob(pm.config.Name, pm.config.Schedule, func(ctx context.Context) error {
		_, err := pm.RunOnce(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", retention.ErrConfiguration, err)
	}

	pm.schedulerService.Start()
	pm.started = true

	log.Printf("Prune manager initialized, %d notification channel(s) enabled", pm.notifyManager.GetNotifierCount())
	return nil
}

// Close gracefully shuts down the prune manager
func (pm *PruneManager) Close() error {
	log.Println("Shutting down prune manager...")

	if pm.started {
		pm.schedulerService.Stop()
		pm.started = false
	}

	if pm.dbService != nil {
		if err := pm.dbService.Close(); err != nil {
			return fmt.Errorf("failed to close database service: %w", err)
		}
	}

	log.Println("Prune manager shut down successfully")
	return nil
}

// Metrics returns the run metrics collector
func (pm *PruneManager) Metrics() *metrics.Collector {
	return pm.metrics
}

// RunOnce performs one prune run and records it in history, metrics and notifications.
// Runs are serialized.
func (pm *PruneManager) RunOnce(ctx context.Context) (*retention.Result, error) {
	pm.runMutex.Lock()
	defer pm.runMutex.Unlock()

	started := time.Now()
	run := pm.startHistory(started)

	result, err := pm.prune(ctx)
	elapsed := time.Since(started)

	pm.metrics.Observe(result, err, elapsed)
	pm.finishHistory(run, result, err)
	pm.notify(result, err, started, elapsed)

	if err != nil {
		log.Printf("Prune run '%s' failed: %v", pm.config.Name, err)
	}
	return result, err
}

// prune authenticates, opens the store and applies the retention policy
func (pm *PruneManager) prune(ctx context.Context) (*retention.Result, error) {
	credentials, err := pm.config.ResolveCredentials()
	if err != nil {
		return nil, err
	}

	ts, err := pm.authenticate(ctx, credentials, scopesFor(pm.config.Backend)...)
	if err != nil {
		return nil, err
	}

	store, err := pm.newStore(ctx, pm.config, ts)
	if err != nil {
		return nil, err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	runner, err := retention.NewRunner(store, retention.Options{
		Keep:   pm.config.Keep,
		DryRun: pm.config.DryRun,
		Policy: pm.config.Policy(),
		Out:    pm.out,
	})
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx)
}

func (pm *PruneManager) location() string {
	if pm.config.Backend == config.BackendGCS {
		return "gs://" + strings.TrimPrefix(pm.config.FolderID, "gs://")
	}
	return "drive:" + pm.config.FolderID
}

func (pm *PruneManager) startHistory(started time.Time) *database.PruneRun {
	if pm.dbService == nil {
		return nil
	}

	run := &database.PruneRun{
		ConfigName: pm.config.Name,
		Location:   pm.location(),
		Keep:       pm.config.Keep,
		DryRun:     pm.config.DryRun,
		StartedAt:  started,
	}
	if err := pm.dbService.StartPruneRun(run); err != nil {
		log.Printf("Failed to save prune history: %v", err)
		return nil
	}
	return run
}

func (pm *PruneManager) finishHistory(run *database.PruneRun, result *retention.Result, runErr error) {
	if run == nil {
		return
	}

	var records []database.DeletedBackup
	if result != nil {
		run.Location = result.Location
		run.Listed = result.Listed
		run.Retained = len(result.Retained)
		run.Deleted = len(result.Deleted)
		run.Failed = len(result.Failed)

		for _, file := range result.Deleted {
			records = append(records, database.DeletedBackup{
				RunID:         run.RunID,
				FileID:        file.ID,
				FileName:      file.Name,
				FileCreatedAt: file.CreatedTime,
				DryRun:        result.DryRun,
			})
		}
		for _, failure := range result.Failed {
			records = append(records, database.DeletedBackup{
				RunID:         run.RunID,
				FileID:        failure.File.ID,
				FileName:      failure.File.Name,
				FileCreatedAt: failure.File.CreatedTime,
				ErrorMsg:      failure.Err.Error(),
			})
		}
	}

	if err := pm.dbService.SaveDeletedBackups(records); err != nil {
		log.Printf("Failed to save deleted backups: %v", err)
	}
	if err := pm.dbService.FinishPruneRun(run, runErr); err != nil {
		log.Printf("Failed to update prune history: %v", err)
	}
}

func (pm *PruneManager) notify(result *retention.Result, runErr error, started time.Time, elapsed time.Duration) {
	if pm.notifyManager.GetNotifierCount() == 0 {
		return
	}

	data := &notification.PruneNotificationData{
		ConfigName:  pm.config.Name,
		Location:    pm.location(),
		Duration:    elapsed,
		StartedAt:   started,
		CompletedAt: started.Add(elapsed),
	}
	if result != nil {
		data.Location = result.Location
		data.Listed = result.Listed
		data.Retained = len(result.Retained)
		data.Failed = len(result.Failed)
		data.DryRun = result.DryRun
		for _, file := range result.Deleted {
			data.Deleted = append(data.Deleted, file.Name)
		}
	}

	if runErr != nil {
		data.ErrorMessage = runErr.Error()
		pm.notifyManager.SendPruneErrorNotification(data)
		return
	}
	pm.notifyManager.SendPruneSuccessNotification(data)
}

// History Methods

// GetPruneHistory returns recorded runs, newest first
func (pm *PruneManager) GetPruneHistory(limit, offset int) ([]database.PruneRun, error) {
	if pm.dbService == nil {
		return nil, fmt.Errorf("%w: history database is not configured", retention.ErrConfiguration)
	}
	return pm.dbService.GetPruneHistory(limit, offset)
}

// GetDeletedBackups returns the files a run deleted or failed to delete
func (pm *PruneManager) GetDeletedBackups(runID string) ([]database.DeletedBackup, error) {
	if pm.dbService == nil {
		return nil, fmt.Errorf("%w: history database is not configured", retention.ErrConfiguration)
	}
	return pm.dbService.GetDeletedBackups(runID)
}

// Scheduler Methods

// GetScheduledJobs returns the scheduled prune jobs
func (pm *PruneManager) GetScheduledJobs() []scheduler.JobInfo {
	return pm.schedulerService.GetScheduledJobs()
}

// GetNextRunTimes returns the next count run times of the configured schedule
func (pm *PruneManager) GetNextRunTimes(count int) ([]time.Time, error) {
	if pm.config.Schedule == "" {
		return nil, fmt.Errorf("%w: no schedule configured", retention.ErrConfiguration)
	}
	return scheduler.GetNextRunTimes(pm.config.Schedule, time.Now(), count)
}

// Notification Methods

// TestNotification sends a test notification to a specific channel
func (pm *PruneManager) TestNotification(name string) error {
	return pm.notifyManager.TestNotification(name)
}

// scopesFor returns the OAuth scopes a backend needs
func scopesFor(backend string) []string {
	if backend == config.BackendGCS {
		return []string{storage.ScopeReadWrite}
	}
	return []string{drive.DriveScope}
}

func authenticateServiceAccount(ctx context.Context, credentialsJSON []byte, scopes ...string) (oauth2.TokenSource, error) {
	authService, err := auth.NewService(credentialsJSON, scopes...)
	if err != nil {
		return nil, err
	}
	return authService.Authenticate(ctx)
}

func newStore(ctx context.Context, cfg *config.Config, ts oauth2.TokenSource) (retention.Store, error) {
	switch cfg.Backend {
	case config.BackendGCS:
		store, err := gcs.NewStore(ctx, cfg.FolderID, option.WithTokenSource(ts))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		driveService, err := gdrive.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, err
		}
		return gdrive.NewFolderStore(driveService, cfg.FolderID), nil
	}
}
