package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/schoolarchive/archive/internal/api/middleware"
	"github.com/schoolarchive/archive/internal/api/response"
	"github.com/schoolarchive/archive/internal/api/validation"
	"github.com/schoolarchive/archive/internal/archive"
	"github.com/schoolarchive/archive/internal/session"
)

// DocumentGateway is the document archive. *archive.Gateway satisfies it.
type DocumentGateway interface {
	ListYears(ctx context.Context) ([]string, error)
	ListAll(ctx context.Context, req archive.Requester, author string) ([]archive.Document, error)
	Upload(ctx context.Context, u archive.Upload) (*archive.Document, error)
	Download(ctx context.Context, id string) (*archive.Content, error)
	Delete(ctx context.Context, id string) error
	StorageInfo(ctx context.Context) (*archive.StorageInfo, error)
}

type yearsResponse struct {
	response.Status
	Years []string `json:"years"`
}

type listRequest struct {
	Author string `json:"author"`
}

type listResponse struct {
	response.Status
	Files []archive.Document `json:"files"`
}

type uploadResponse struct {
	response.Status
	File *archive.Document `json:"file"`
}

type storageResponse struct {
	response.Status
	Storage *archive.StorageInfo `json:"storage"`
}

// DriveHandler handles the document archive endpoints.
type DriveHandler struct {
	gateway        DocumentGateway
	maxUploadBytes int64
}

// NewDriveHandler creates a new DriveHandler. Uploads larger than
// maxUploadBytes are rejected.
func NewDriveHandler(gateway DocumentGateway, maxUploadBytes int64) *DriveHandler {
	return &DriveHandler{gateway: gateway, maxUploadBytes: maxUploadBytes}
}

// Years handles GET /api/drive/years.
func (h *DriveHandler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.gateway.ListYears(r.Context())
	if err != nil {
		h.remoteError(w, r, "Failed to list academic years", err)
		return
	}
	response.JSON(w, http.StatusOK, yearsResponse{Status: response.OK(""), Years: years})
}

// List handles POST /api/drive/list. The requester's profile and name come
// from the session; the body may only narrow the result to one author.
func (h *DriveHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := session.FromContext(r.Context())
	if !ok {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session token is required", middleware.GetRequestID(r.Context()))
		return
	}
	req := decodeOptional[listRequest](w, r)

	name := claims.GoogleName
	if name == "" {
		name = claims.Name
	}
	docs, err := h.gateway.ListAll(r.Context(), archive.Requester{Profile: claims.Profile, Name: name}, strings.TrimSpace(req.Author))
	if err != nil {
		h.remoteError(w, r, "Failed to list documents", err)
		return
	}
	response.JSON(w, http.StatusOK, listResponse{Status: response.OK(""), Files: docs})
}

// Upload handles POST /api/drive/upload (multipart/form-data).
func (h *DriveHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Err(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				"File exceeds the maximum upload size of "+archive.FormatBytes(h.maxUploadBytes), requestID)
			return
		}
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Request must be multipart/form-data", requestID)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	upload := archive.Upload{Metadata: archive.Metadata{
		Year:         formValue(r, "year"),
		Author:       formValue(r, "author"),
		Subject:      formValue(r, "subject"),
		Form:         formValue(r, "form"),
		Room:         formValue(r, "room"),
		DocumentType: formValue(r, "documentType"),
		Name:         formValue(r, "name"),
	}}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		upload.File = file
		upload.FileName = header.Filename
		upload.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded file", requestID)
		return
	}

	doc, err := h.gateway.Upload(r.Context(), upload)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrValidation):
			fieldErrors := validation.FromError(err)
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", validation.Summary(fieldErrors), fieldErrors, requestID)
		case errors.Is(err, archive.ErrMissingFile):
			response.Err(w, http.StatusBadRequest, "MISSING_FILE", "No file uploaded", requestID)
		case errors.Is(err, archive.ErrYearNotFound):
			response.Err(w, http.StatusNotFound, "YEAR_NOT_FOUND", "Academic year folder "+upload.Metadata.Year+" not found", requestID)
		default:
			h.remoteError(w, r, "Failed to upload document", err)
		}
		return
	}

	response.JSON(w, http.StatusCreated, uploadResponse{Status: response.OK("File uploaded successfully"), File: doc})
}

// Download handles GET /api/drive/download/{id}.
func (h *DriveHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}

	content, err := h.gateway.Download(r.Context(), id)
	if err != nil {
		h.fileError(w, r, "Failed to download document", err)
		return
	}
	defer content.Body.Close()

	contentType := content.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.Name}))
	if content.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(content.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content.Body); err != nil {
		slog.Error("download interrupted", "fileId", id, "requestId", middleware.GetRequestID(r.Context()), "error", err)
	}
}

// Delete handles DELETE /api/drive/delete/{id}.
func (h *DriveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileID(w, r)
	if !ok {
		return
	}

	if err := h.gateway.Delete(r.Context(), id); err != nil {
		h.fileError(w, r, "Failed to delete document", err)
		return
	}
	response.Success(w, http.StatusOK, "File deleted successfully")
}

// StorageInfo handles GET /api/drive/storage-info.
func (h *DriveHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.gateway.StorageInfo(r.Context())
	if err != nil {
		h.remoteError(w, r, "Failed to read storage information", err)
		return
	}
	response.JSON(w, http.StatusOK, storageResponse{Status: response.OK(""), Storage: info})
}

func (h *DriveHandler) fileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if fieldErrors := validation.ValidateFileID(id); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid file id", fieldErrors, middleware.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

func (h *DriveHandler) fileError(w http.ResponseWriter, r *http.Request, message string, err error) {
	if errors.Is(err, archive.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "File not found", middleware.GetRequestID(r.Context()))
		return
	}
	h.remoteError(w, r, message, err)
}

func (h *DriveHandler) remoteError(w http.ResponseWriter, r *http.Request, message string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	slog.Error(message, "requestId", requestID, "path", r.URL.Path, "error", err)
	response.Err(w, http.StatusInternalServerError, "REMOTE_ERROR", message, requestID)
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
