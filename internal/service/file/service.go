package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/storage"
)

// ErrReportNotFound is returned when a stored report is gone from storage.
var ErrReportNotFound = errors.New("attendance report not found in storage")

const reportPrefix = "records"

type FileService interface {
	// UploadAttendanceReport stores the raw report bytes and returns the storage key
	UploadAttendanceReport(ctx context.Context, filename string, data []byte, contentType string, at time.Time) (string, error)

	// OpenAttendanceReport opens a stored report; the caller closes it
	OpenAttendanceReport(ctx context.Context, key string) (io.ReadCloser, error)

	ReportExists(ctx context.Context, key string) (bool, error)

	// Generic operations
	DeleteFile(ctx context.Context, key string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// UploadAttendanceReport stores the report under records/<timestamp>_<filename>
func (s *fileServiceImpl) UploadAttendanceReport(ctx context.Context, filename string, data []byte, contentType string, at time.Time) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ReportKey(filename, at)
	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(data), key, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance report: %w", err)
	}

	return uploadedPath, nil
}

// OpenAttendanceReport opens a previously stored report
func (s *fileServiceImpl) OpenAttendanceReport(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to open attendance report: %w", err)
	}
	return rc, nil
}

// ReportExists checks whether a stored report is still present
func (s *fileServiceImpl) ReportExists(ctx context.Context, key string) (bool, error) {
	return s.storage.Exists(ctx, key)
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

// ==================== HELPER FUNCTIONS ====================

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name of an uploaded file and replaces anything
// outside [A-Za-z0-9._-] with an underscore.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "report"
	}
	return base
}

// ReportKey is the storage key of a report uploaded at the given time.
func ReportKey(filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s_%s", reportPrefix, at.Format("20060102_150405"), SanitizeFilename(filename))
}
