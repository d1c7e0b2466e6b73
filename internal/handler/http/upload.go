package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
	"github.com/cmlabs-hris/attendix-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendix-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

type UploadHandler interface {
	Upload(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
}

// UploadLimits bound a single multipart upload request.
type UploadLimits struct {
	MaxBytes int64
	MaxFiles int
}

type uploadHandlerImpl struct {
	ingestionService upload.IngestionService
	ledgerService    upload.LedgerService
	limits           UploadLimits
}

func NewUploadHandler(ingestionService upload.IngestionService, ledgerService upload.LedgerService, limits UploadLimits) UploadHandler {
	return &uploadHandlerImpl{
		ingestionService: ingestionService,
		ledgerService:    ledgerService,
		limits:           limits,
	}
}

// Upload implements UploadHandler.
func (h *uploadHandlerImpl) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}
	if identity.Email == "" {
		response.HandleError(w, auth.ErrEmailClaimMissing)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.HandleError(w, err)
			return
		}
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		response.HandleError(w, upload.ErrNoFiles)
		return
	}
	if len(headers) > h.limits.MaxFiles {
		response.BadRequest(w, upload.ErrTooManyFiles.Error(), map[string]string{
			"files": fmt.Sprintf("at most %d files per request", h.limits.MaxFiles),
		})
		return
	}

	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			slog.Error("Failed to open uploaded file", "filename", fh.Filename, "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to read uploaded file", "filename", fh.Filename, "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}

		files = append(files, upload.File{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result := h.ingestionService.IngestBatch(r.Context(), files, identity.Email)
	response.Success(w, result)
}

// List implements UploadHandler.
func (h *uploadHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := upload.ListFilter{
		UploadedBy: queryString(query, "uploaded_by"),
		Page:       queryInt(query, "page"),
		Limit:      queryInt(query, "limit"),
	}

	results, err := h.ledgerService.ListUploads(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Download implements UploadHandler.
func (h *uploadHandlerImpl) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, body, err := h.ledgerService.OpenArtifact(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer body.Close()

	contentType := "application/octet-stream"
	if entry.ContentType != nil && *entry.ContentType != "" {
		contentType = *entry.ContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": entry.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Error("Failed to stream upload artifact", "upload_id", id, "error", err)
	}
}
