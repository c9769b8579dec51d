package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	pageSize       = 1000

	listFields googleapi.Field = "nextPageToken, files(id, name, mimeType, createdTime, modifiedTime, parents, properties)"
	fileFields googleapi.Field = "id, name, mimeType, createdTime, modifiedTime, parents, properties, size"
	quotaField googleapi.Field = "storageQuota"
)

// Remote is the subset of the Drive v3 API the gateway uses.
type Remote interface {
	List(ctx context.Context, query, pageToken string) (*drive.FileList, error)
	Create(ctx context.Context, meta *drive.File, media io.Reader, contentType string) (*drive.File, error)
	Get(ctx context.Context, id string) (*drive.File, error)
	Download(ctx context.Context, id string) (*http.Response, error)
	Delete(ctx context.Context, id string) error
	Quota(ctx context.Context) (*drive.AboutStorageQuota, error)
}

// DriveRemote implements Remote on a drive.Service.
type DriveRemote struct {
	svc *drive.Service
}

// NewDriveRemote creates a Remote from client options, typically the
// service account key passed through option.WithCredentialsJSON.
func NewDriveRemote(ctx context.Context, opts ...option.ClientOption) (*DriveRemote, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &DriveRemote{svc: svc}, nil
}

// List returns one page of files matching query.
func (d *DriveRemote) List(ctx context.Context, query, pageToken string) (*drive.FileList, error) {
	call := d.svc.Files.List().
		Q(query).
		Fields(listFields).
		PageSize(pageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	list, err := call.Do()
	if err != nil {
		return nil, mapRemoteError(err)
	}
	return list, nil
}

// Create uploads media as a new file described by meta.
func (d *DriveRemote) Create(ctx context.Context, meta *drive.File, media io.Reader, contentType string) (*drive.File, error) {
	f, err := d.svc.Files.Create(meta).
		Media(media, googleapi.ContentType(contentType)).
		Fields(fileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapRemoteError(err)
	}
	return f, nil
}

// Get returns file metadata.
func (d *DriveRemote) Get(ctx context.Context, id string) (*drive.File, error) {
	f, err := d.svc.Files.Get(id).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, mapRemoteError(err)
	}
	return f, nil
}

// Download opens the file content. The caller closes the body.
func (d *DriveRemote) Download(ctx context.Context, id string) (*http.Response, error) {
	resp, err := d.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, mapRemoteError(err)
	}
	return resp, nil
}

// Delete permanently removes a file.
func (d *DriveRemote) Delete(ctx context.Context, id string) error {
	if err := d.svc.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return mapRemoteError(err)
	}
	return nil
}

// Quota returns the storage quota of the service account.
func (d *DriveRemote) Quota(ctx context.Context) (*drive.AboutStorageQuota, error) {
	about, err := d.svc.About.Get().Fields(quotaField).Context(ctx).Do()
	if err != nil {
		return nil, mapRemoteError(err)
	}
	if about.StorageQuota == nil {
		return &drive.AboutStorageQuota{}, nil
	}
	return about.StorageQuota, nil
}

// mapRemoteError turns a Drive 404 into ErrNotFound and wraps the rest.
func mapRemoteError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("drive request failed: %w", err)
}
