package retention

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

// Partition keeps the first keep files of a newest-first collection and marks the
// remainder for deletion. Input order is preserved in both halves.
func Partition(files []File, keep int) Plan {
	if keep < 0 {
		keep = 0
	}
	if len(files) <= keep {
		return Plan{Retained: files, Deleted: []File{}}
	}
	return Plan{
		Retained: files[:keep],
		Deleted:  files[keep:],
	}
}

// Options configures a Runner
type Options struct {
	// Keep is the number of newest files left in place
	Keep int
	// DryRun reports the planned deletions without issuing them
	DryRun bool
	// Policy decides whether a failed deletion stops the run
	Policy FailurePolicy
	// Out receives one confirmation line per deleted file (stdout by default)
	Out io.Writer
}

// Runner applies a keep-newest retention policy to a Store
type Runner struct {
	store Store
	opts  Options
}

// NewRunner creates a new retention runner
func NewRunner(store Store, opts Options) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrConfiguration)
	}
	if opts.Keep < 0 {
		return nil, fmt.Errorf("%w: keep must not be negative, got %d", ErrConfiguration, opts.Keep)
	}
	if opts.Policy == "" {
		opts.Policy = HaltOnError
	}
	if opts.Policy != HaltOnError && opts.Policy != ContinueOnError {
		return nil, fmt.Errorf("%w: unknown failure policy %q", ErrConfiguration, opts.Policy)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	return &Runner{store: store, opts: opts}, nil
}

// Run lists the store, partitions the result and deletes everything past the keep prefix
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	files, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups in %s: %w", r.store.Describe(), asRequestError(err))
	}

	plan := Partition(files, r.opts.Keep)
	log.Printf("Found %d backup(s) in %s, keeping %d, deleting %d",
		len(files), r.store.Describe(), len(plan.Retained), len(plan.Deleted))

	result, err := r.Apply(ctx, plan)
	if result != nil {
		result.Listed = len(files)
	}
	return result, err
}

// Apply issues the deletions of a plan in order
func (r *Runner) Apply(ctx context.Context, plan Plan) (*Result, error) {
	result := &Result{
		Location: r.store.Describe(),
		Listed:   len(plan.Retained) + len(plan.Deleted),
		Retained: plan.Retained,
		Deleted:  []File{},
		DryRun:   r.opts.DryRun,
	}

	if len(plan.Deleted) == 0 {
		log.Printf("Backup count within retention limit (%d), nothing to delete", r.opts.Keep)
		return result, nil
	}

	var errs []error
	for _, file := range plan.Deleted {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if r.opts.DryRun {
			log.Printf("dry-run: would delete %s (%s)", file.Name, file.ID)
			fmt.Fprintf(r.opts.Out, "🔍 Would delete old backup: %s\n", file.Name)
			result.Deleted = append(result.Deleted, file)
			continue
		}

		if err := r.store.Delete(ctx, file); err != nil {
			err = fmt.Errorf("failed to delete old backup %q: %w", file.Name, asRequestError(err))
			result.Failed = append(result.Failed, Failure{File: file, Err: err})

			if r.opts.Policy == HaltOnError {
				return result, err
			}
			log.Printf("Warning: %v", err)
			errs = append(errs, err)
			continue
		}

		result.Deleted = append(result.Deleted, file)
		fmt.Fprintf(r.opts.Out, "🗑️ Deleted old backup: %s\n", file.Name)
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	log.Printf("Retention policy applied, deleted %d old backup(s)", len(result.Deleted))
	return result, nil
}

// asRequestError tags untyped remote failures as request errors
func asRequestError(err error) error {
	if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrRequest) || errors.Is(err, ErrConfiguration) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRequest, err)
}
