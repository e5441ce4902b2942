package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// Store exposes a Cloud Storage bucket prefix as a retention.Store
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// ParseLocation splits "bucket/some/prefix" into bucket and prefix
func ParseLocation(location string) (bucket, prefix string, err error) {
	location = strings.TrimPrefix(location, "gs://")
	bucket, prefix, _ = strings.Cut(location, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: bucket is required in %q", retention.ErrConfiguration, location)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, nil
}

// NewStore creates a new store for location ("bucket" or "bucket/prefix")
func NewStore(ctx context.Context, location string, opts ...option.ClientOption) (*Store, error) {
	bucket, prefix, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// List returns the objects directly under the prefix, newest first
func (s *Store) List(ctx context.Context) ([]retention.File, error) {
	query := &storage.Query{Prefix: s.prefix, Delimiter: "/"}
	if err := query.SetAttrSelection([]string{"Name", "Created"}); err != nil {
		return nil, fmt.Errorf("failed to build object query: %w", err)
	}

	var objects []*storage.ObjectAttrs
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", classifyError(err))
		}
		objects = append(objects, attrs)
	}

	return objectsToFiles(objects), nil
}

// Delete removes an object
func (s *Store) Delete(ctx context.Context, file retention.File) error {
	if err := s.client.Bucket(s.bucket).Object(file.ID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object: %w", classifyError(err))
	}
	return nil
}

// Describe returns the store location
func (s *Store) Describe() string {
	return "gs://" + s.bucket + "/" + s.prefix
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// objectsToFiles drops "directory" entries and sorts newest first.
// Cloud Storage lists by name, so ordering happens here.
func objectsToFiles(objects []*storage.ObjectAttrs) []retention.File {
	files := make([]retention.File, 0, len(objects))
	for _, attrs := range objects {
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		name := attrs.Name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		files = append(files, retention.File{
			ID:          attrs.Name,
			Name:        name,
			CreatedTime: attrs.Created,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedTime.After(files[j].CreatedTime)
	})

	return files
}

func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", retention.ErrAuthentication, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", retention.ErrRequest, err)
}
