package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
	"github.com/cmlabs-hris/attendix-backend-go/internal/service/file"
)

type LedgerServiceImpl struct {
	upload.LedgerRepository
	fileService file.FileService
}

func NewLedgerService(ledgerRepo upload.LedgerRepository, fileService file.FileService) upload.LedgerService {
	return &LedgerServiceImpl{
		LedgerRepository: ledgerRepo,
		fileService:      fileService,
	}
}

// ListUploads implements upload.LedgerService.
func (s *LedgerServiceImpl) ListUploads(ctx context.Context, filter upload.ListFilter) (upload.ListLedgerResponse, error) {
	if err := filter.Validate(); err != nil {
		return upload.ListLedgerResponse{}, err
	}

	entries, total, err := s.LedgerRepository.List(ctx, filter)
	if err != nil {
		return upload.ListLedgerResponse{}, fmt.Errorf("failed to list uploads: %w", err)
	}

	uploads := make([]upload.LedgerResponse, 0, len(entries))
	for _, e := range entries {
		uploads = append(uploads, toLedgerResponse(e))
	}

	return upload.ListLedgerResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Uploads:    uploads,
	}, nil
}

// OpenArtifact implements upload.LedgerService.
func (s *LedgerServiceImpl) OpenArtifact(ctx context.Context, id string) (upload.LedgerEntry, io.ReadCloser, error) {
	entry, err := s.LedgerRepository.GetByID(ctx, id)
	if err != nil {
		return upload.LedgerEntry{}, nil, err
	}

	rc, err := s.fileService.OpenAttendanceReport(ctx, entry.StoragePath)
	if err != nil {
		if errors.Is(err, file.ErrReportNotFound) {
			return upload.LedgerEntry{}, nil, upload.ErrArtifactMissing
		}
		return upload.LedgerEntry{}, nil, err
	}

	return entry, rc, nil
}

// orphanScanPageSize is how many ledger rows are checked per page.
const orphanScanPageSize = 100

// FindMissingArtifacts implements upload.LedgerService.
func (s *LedgerServiceImpl) FindMissingArtifacts(ctx context.Context) ([]upload.LedgerEntry, error) {
	var missing []upload.LedgerEntry

	for page := 1; ; page++ {
		entries, total, err := s.LedgerRepository.List(ctx, upload.ListFilter{Page: page, Limit: orphanScanPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to list uploads: %w", err)
		}

		for _, e := range entries {
			exists, err := s.fileService.ReportExists(ctx, e.StoragePath)
			if err != nil {
				return nil, fmt.Errorf("failed to check report %s: %w", e.StoragePath, err)
			}
			if !exists {
				missing = append(missing, e)
			}
		}

		if len(entries) == 0 || int64(page*orphanScanPageSize) >= total {
			return missing, nil
		}
	}
}

func toLedgerResponse(e upload.LedgerEntry) upload.LedgerResponse {
	return upload.LedgerResponse{
		ID:             e.ID,
		ContentHash:    e.ContentHash,
		Filename:       e.Filename,
		UploadedBy:     e.UploadedBy,
		DetectedFormat: e.DetectedFormat,
		StoragePath:    e.StoragePath,
		ContentType:    e.ContentType,
		SizeBytes:      e.SizeBytes,
		UploadedAt:     e.UploadedAt.Format(time.RFC3339),
	}
}
