// Package archive is the gateway to the Drive folder tree that stores the
// school documents. The root folder holds one subfolder per school year;
// documents carry their descriptive metadata as Drive file properties.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"google.golang.org/api/drive/v3"

	"github.com/schoolarchive/archive/internal/authz"
)

var (
	// ErrValidation is returned when upload metadata is incomplete.
	ErrValidation = errors.New("invalid document metadata")
	// ErrMissingFile is returned when an upload carries no file.
	ErrMissingFile = errors.New("no file uploaded")
	// ErrYearNotFound is returned when no year folder matches.
	ErrYearNotFound = errors.New("year folder not found")
	// ErrNotFound is returned when a file id does not exist.
	ErrNotFound = errors.New("file not found")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// metadataValidator returns the shared validator. Field names in errors use
// the form tag so they match the multipart field names.
func metadataValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("form")
		})
	})
	return validate
}

// Metadata describes an uploaded document. It is stored verbatim as Drive
// file properties.
type Metadata struct {
	Year         string `form:"year" json:"year" validate:"required"`
	Author       string `form:"author" json:"author" validate:"required"`
	Subject      string `form:"subject" json:"subject" validate:"required"`
	Form         string `form:"form" json:"form" validate:"required"`
	Room         string `form:"room" json:"room,omitempty"`
	DocumentType string `form:"documentType" json:"documentType" validate:"required"`
	Name         string `form:"name" json:"name,omitempty"`
}

// Validate checks that every required field is present.
func (m Metadata) Validate() error {
	if err := metadataValidator().Struct(m); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func (m Metadata) properties() map[string]string {
	props := map[string]string{
		"year":         m.Year,
		"author":       m.Author,
		"subject":      m.Subject,
		"form":         m.Form,
		"documentType": m.DocumentType,
	}
	if m.Room != "" {
		props["room"] = m.Room
	}
	if m.Name != "" {
		props["name"] = m.Name
	}
	return props
}

// Document is an archived file with its metadata.
type Document struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	MimeType       string   `json:"mimeType"`
	CreatedAt      string   `json:"createdTime"`
	ModifiedAt     string   `json:"modifiedTime"`
	ParentFolderID string   `json:"parentFolderId"`
	Properties     Metadata `json:"properties"`
}

// Requester identifies who is listing documents.
type Requester struct {
	Profile string
	Name    string
}

// Upload is a file to store together with its metadata.
type Upload struct {
	Metadata    Metadata
	File        io.Reader
	FileName    string
	ContentType string
}

// Content is an open download. The caller must close Body.
type Content struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.ReadCloser
}

// ScopePolicy decides the listing scope of a profile. *authz.Policy
// satisfies it.
type ScopePolicy interface {
	DocumentScope(profile string) (authz.Scope, error)
}

// Gateway implements the archive operations on a Remote.
type Gateway struct {
	remote Remote
	rootID string
	policy ScopePolicy
}

// NewGateway creates a Gateway rooted at the folder rootID.
func NewGateway(remote Remote, rootID string, policy ScopePolicy) *Gateway {
	return &Gateway{remote: remote, rootID: rootID, policy: policy}
}

// ListYears returns the names of the immediate subfolders of the root.
func (g *Gateway) ListYears(ctx context.Context) ([]string, error) {
	folders, err := g.listAll(ctx, folderQuery(g.rootID, ""))
	if err != nil {
		return nil, fmt.Errorf("listing year folders: %w", err)
	}
	years := make([]string, 0, len(folders))
	for _, f := range folders {
		years = append(years, f.Name)
	}
	return years, nil
}

// ListAll walks the whole tree under the root and returns the documents the
// requester may see, optionally narrowed to one author.
func (g *Gateway) ListAll(ctx context.Context, req Requester, author string) ([]Document, error) {
	scope, err := g.policy.DocumentScope(req.Profile)
	if err != nil {
		return nil, fmt.Errorf("resolving document scope: %w", err)
	}
	if scope == authz.ScopeNone {
		slog.Info("profile has no document scope", "profile", req.Profile)
		return []Document{}, nil
	}
	// Own scope matches on the requester's name; without one nothing is theirs.
	if scope == authz.ScopeOwn && strings.TrimSpace(req.Name) == "" {
		slog.Warn("own-scope listing without requester name", "profile", req.Profile)
		return []Document{}, nil
	}
	slog.Debug("listing documents", "profile", req.Profile, "scope", scope.String(), "author", author)

	files, err := g.walk(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(files))
	for _, f := range files {
		d := toDocument(f)
		if scope == authz.ScopeOwn && !strings.EqualFold(d.Properties.Author, req.Name) {
			continue
		}
		if author != "" && !strings.EqualFold(d.Properties.Author, author) {
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// walk collects every non-folder file below the root, breadth first. The
// visited set stops a folder reachable through two parents, or a cycle of
// shortcuts, from being listed twice.
func (g *Gateway) walk(ctx context.Context) ([]*drive.File, error) {
	visited := map[string]bool{g.rootID: true}
	queue := []string{g.rootID}
	var files []*drive.File

	for len(queue) > 0 {
		folderID := queue[0]
		queue = queue[1:]

		children, err := g.listAll(ctx, childrenQuery(folderID))
		if err != nil {
			return nil, fmt.Errorf("listing folder %s: %w", folderID, err)
		}
		for _, c := range children {
			if c.MimeType == folderMimeType {
				if !visited[c.Id] {
					visited[c.Id] = true
					queue = append(queue, c.Id)
				}
				continue
			}
			files = append(files, c)
		}
	}
	return files, nil
}

// listAll follows nextPageToken until the listing is exhausted.
func (g *Gateway) listAll(ctx context.Context, query string) ([]*drive.File, error) {
	var (
		out   []*drive.File
		token string
	)
	for {
		page, err := g.remote.List(ctx, query, token)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Files...)
		if page.NextPageToken == "" {
			return out, nil
		}
		token = page.NextPageToken
	}
}

// Upload validates u, resolves its year folder and stores the file there.
// Nothing is sent to Drive until validation has passed.
func (g *Gateway) Upload(ctx context.Context, u Upload) (*Document, error) {
	if err := u.Metadata.Validate(); err != nil {
		return nil, err
	}
	if u.File == nil {
		return nil, ErrMissingFile
	}

	folderID, err := g.yearFolder(ctx, u.Metadata.Year)
	if err != nil {
		return nil, err
	}

	name := u.Metadata.Name
	if name == "" {
		name = u.FileName
	}
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	created, err := g.remote.Create(ctx, &drive.File{
		Name:       name,
		Parents:    []string{folderID},
		Properties: u.Metadata.properties(),
		MimeType:   contentType,
	}, u.File, contentType)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}

	slog.Info("document uploaded", "fileId", created.Id, "year", u.Metadata.Year, "author", u.Metadata.Author)
	d := toDocument(created)
	return &d, nil
}

func (g *Gateway) yearFolder(ctx context.Context, year string) (string, error) {
	folders, err := g.listAll(ctx, folderQuery(g.rootID, year))
	if err != nil {
		return "", fmt.Errorf("resolving year folder: %w", err)
	}
	for _, f := range folders {
		if f.Name == year {
			return f.Id, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrYearNotFound, year)
}

// Download opens the content of file id.
func (g *Gateway) Download(ctx context.Context, id string) (*Content, error) {
	meta, err := g.remote.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := g.remote.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Content{
		Name:     meta.Name,
		MimeType: meta.MimeType,
		Size:     meta.Size,
		Body:     resp.Body,
	}, nil
}

// Delete removes file id.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	if err := g.remote.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("document deleted", "fileId", id)
	return nil
}

func toDocument(f *drive.File) Document {
	d := Document{
		ID:         f.Id,
		Name:       f.Name,
		MimeType:   f.MimeType,
		CreatedAt:  f.CreatedTime,
		ModifiedAt: f.ModifiedTime,
	}
	if len(f.Parents) > 0 {
		d.ParentFolderID = f.Parents[0]
	}
	p := f.Properties
	d.Properties = Metadata{
		Year:         p["year"],
		Author:       p["author"],
		Subject:      p["subject"],
		Form:         p["form"],
		Room:         p["room"],
		DocumentType: p["documentType"],
		Name:         p["name"],
	}
	return d
}

func childrenQuery(parentID string) string {
	return fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))
}

func folderQuery(parentID, name string) string {
	q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escapeQuery(parentID), folderMimeType)
	if name != "" {
		q += fmt.Sprintf(" and name = '%s'", escapeQuery(name))
	}
	return q
}

// escapeQuery escapes a string literal for the Drive query language.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
