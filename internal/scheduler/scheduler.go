package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc runs one scheduled prune
type JobFunc func(ctx context.Context) error

// Service handles scheduled prune operations
type Service struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	mutex  sync.RWMutex
	jobs   map[string]scheduledJob
}

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewService creates a new scheduler service.
// A job still running when its next tick arrives is skipped.
func NewService() *Service {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(log.Default())

	return &Service{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]scheduledJob),
	}
}

// Start starts the scheduler
func (s *Service) Start() {
	s.cron.Start()
	log.Println("Scheduler started")
}

// Stop stops the scheduler, cancels running jobs and waits for them to return
func (s *Service) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// AddPruneJob adds a new scheduled prune job, replacing one with the same name
func (s *Service) AddPruneJob(name, schedule string, job JobFunc) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if existing, exists := s.jobs[name]; exists {
		s.cron.Remove(existing.entryID)
		delete(s.jobs, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.executePrune(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[name] = scheduledJob{entryID: entryID, schedule: schedule}
	log.Printf("Added scheduled prune job '%s' with schedule '%s'", name, schedule)

	return nil
}

// RemovePruneJob removes a scheduled prune job
func (s *Service) RemovePruneJob(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if existing, exists := s.jobs[name]; exists {
		s.cron.Remove(existing.entryID)
		delete(s.jobs, name)
		log.Printf("Removed scheduled prune job '%s'", name)
	}
}

// GetScheduledJobs returns information about currently scheduled jobs
func (s *Service) GetScheduledJobs() []JobInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		entry := s.cron.Entry(job.entryID)
		jobs = append(jobs, JobInfo{
			Name:     name,
			Schedule: job.schedule,
			EntryID:  job.entryID,
			Next:     entry.Next,
			Previous: entry.Prev,
		})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// executePrune runs the job and logs its outcome
func (s *Service) executePrune(name string, job JobFunc) {
	log.Printf("Starting prune job '%s'", name)
	started := time.Now()

	if err := job(s.ctx); err != nil {
		log.Printf("Prune job '%s' failed after %s: %v", name, time.Since(started).Round(time.Millisecond), err)
		return
	}

	log.Printf("Prune job '%s' completed in %s", name, time.Since(started).Round(time.Millisecond))
}

// ValidateCronExpression validates a cron expression
func ValidateCronExpression(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// GetNextRunTimes returns the next N run times for a cron expression after from
func GetNextRunTimes(cronExpr string, from time.Time, count int) ([]time.Time, error) {
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, count)
	next := from
	for i := 0; i < count; i++ {
		next = schedule.Next(next)
		times = append(times, next)
	}

	return times, nil
}
