package gdrive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// Service handles Google Drive operations
type Service struct {
	drive *drive.Service
}

// NewService creates a new Google Drive service.
// Callers pass option.WithTokenSource for authenticated access.
func NewService(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Service{drive: driveService}, nil
}

// ListFolder lists every non-trashed file whose parent is folderID, newest first
func (s *Service) ListFolder(ctx context.Context, folderID string) ([]*drive.File, error) {
	var files []*drive.File

	err := s.drive.Files.List().
		Q(FolderQuery(folderID)).
		Fields(listFields).
		OrderBy(listOrder).
		PageSize(listPageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", classifyError(err))
	}

	return files, nil
}

// DeleteFile permanently deletes a file from Google Drive
func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	err := s.drive.Files.Delete(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", classifyError(err))
	}

	return nil
}

// authReasons are 403 reasons that mean the token itself is not good enough
var authReasons = map[string]bool{
	"authError":               true,
	"insufficientPermissions": true,
	"insufficientScopes":      true,
}

// classifyError tags Drive API failures with the retention error kind
func classifyError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", retention.ErrAuthentication, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", retention.ErrAuthentication, err)
		}
		if apiErr.Code == http.StatusForbidden {
			for _, item := range apiErr.Errors {
				if authReasons[item.Reason] {
					return fmt.Errorf("%w: %w", retention.ErrAuthentication, err)
				}
			}
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", retention.ErrRequest, err)
}

// FolderStore exposes a Drive folder as a retention.Store
type FolderStore struct {
	service  *Service
	folderID string
}

// NewFolderStore creates a store for the given folder
func NewFolderStore(service *Service, folderID string) *FolderStore {
	return &FolderStore{
		service:  service,
		folderID: folderID,
	}
}

// List returns the folder's files in the order Drive delivered them
func (fs *FolderStore) List(ctx context.Context) ([]retention.File, error) {
	driveFiles, err := fs.service.ListFolder(ctx, fs.folderID)
	if err != nil {
		return nil, err
	}

	files := make([]retention.File, 0, len(driveFiles))
	for _, f := range driveFiles {
		files = append(files, toRetentionFile(f))
	}

	return files, nil
}

// Delete deletes a single file by ID
func (fs *FolderStore) Delete(ctx context.Context, file retention.File) error {
	return fs.service.DeleteFile(ctx, file.ID)
}

// Describe returns the store location
func (fs *FolderStore) Describe() string {
	return "drive:" + fs.folderID
}

func toRetentionFile(f *drive.File) retention.File {
	file := retention.File{ID: f.Id, Name: f.Name}

	if f.CreatedTime != "" {
		createdTime, err := time.Parse(time.RFC3339, f.CreatedTime)
		if err != nil {
			log.Printf("Warning: unparseable createdTime %q for file %s: %v", f.CreatedTime, f.Id, err)
		} else {
			file.CreatedTime = createdTime
		}
	}

	return file
}
