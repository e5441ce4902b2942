package retention

import (
	"context"
	"time"
)

// DefaultKeep is the number of newest backups kept when nothing else is configured
const DefaultKeep = 7

// File represents a backup file in remote storage
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedTime time.Time `json:"created_time"`
}

// Store is the remote storage the runner prunes
type Store interface {
	// List returns the folder contents ordered newest first
	List(ctx context.Context) ([]File, error)

	// Delete removes a single file
	Delete(ctx context.Context, file File) error

	// Describe returns a human readable location, e.g. "drive:<folder-id>"
	Describe() string
}

// Plan splits a file collection into the files to keep and the files to delete
type Plan struct {
	Retained []File `json:"retained"`
	Deleted  []File `json:"deleted"`
}

// Failure records a deletion that did not succeed
type Failure struct {
	File File  `json:"file"`
	Err  error `json:"-"`
}

// Result contains information about a completed prune run.
// In a dry run Deleted holds the files that would have been deleted.
type Result struct {
	Location string    `json:"location"`
	Listed   int       `json:"listed"`
	Retained []File    `json:"retained"`
	Deleted  []File    `json:"deleted"`
	Failed   []Failure `json:"failed,omitempty"`
	DryRun   bool      `json:"dry_run"`
}

// FailurePolicy controls what the runner does when a deletion fails
type FailurePolicy string

const (
	HaltOnError     FailurePolicy = "halt"     // stop at the first failed deletion
	ContinueOnError FailurePolicy = "continue" // attempt every deletion, report all failures
)
