package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// JobInfo describes a scheduled prune job
type JobInfo struct {
	Name     string       `json:"name"`
	Schedule string       `json:"schedule"`
	EntryID  cron.EntryID `json:"entry_id"`
	Next     time.Time    `json:"next"`
	Previous time.Time    `json:"previous"`
}

// scheduledJob is the bookkeeping kept per registered job
type scheduledJob struct {
	entryID  cron.EntryID
	schedule string
}
