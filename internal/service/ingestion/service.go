package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
	"github.com/cmlabs-hris/attendix-backend-go/internal/parser"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/empid"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendix-backend-go/internal/service/file"
	"github.com/google/uuid"
)

// Detector extracts attendance rows from raw report bytes.
type Detector interface {
	Detect(data []byte) ([]parser.Record, string)
}

// Config holds the ingestion policy switches.
type Config struct {
	// ProtectManualCorrections leaves manually corrected records untouched on re-ingest.
	ProtectManualCorrections bool
}

// IngestionServiceImpl runs uploaded reports through detection, dedup and upsert.
type IngestionServiceImpl struct {
	detector    Detector
	ledger      upload.LedgerRepository
	records     attendance.RecordRepository
	fileService file.FileService
	transactor  database.Transactor
	cfg         Config
	now         func() time.Time
}

func NewIngestionService(
	detector Detector,
	ledgerRepo upload.LedgerRepository,
	recordRepo attendance.RecordRepository,
	fileService file.FileService,
	transactor database.Transactor,
	cfg Config,
) upload.IngestionService {
	return &IngestionServiceImpl{
		detector:    detector,
		ledger:      ledgerRepo,
		records:     recordRepo,
		fileService: fileService,
		transactor:  transactor,
		cfg:         cfg,
		now:         time.Now,
	}
}

// IngestBatch implements upload.IngestionService.
func (s *IngestionServiceImpl) IngestBatch(ctx context.Context, files []upload.File, uploader string) upload.BatchResult {
	log := slog.With("batch_id", uuid.NewString(), "uploaded_by", uploader)
	log.Info("Ingestion batch started", "files", len(files))

	results := make([]upload.FileResult, 0, len(files))
	for _, f := range files {
		results = append(results, s.ingest(ctx, log, f, uploader))
	}

	return upload.BatchResult{Message: upload.BatchMessage, Results: results}
}

// Ingest implements upload.IngestionService.
func (s *IngestionServiceImpl) Ingest(ctx context.Context, f upload.File, uploader string) upload.FileResult {
	log := slog.With("batch_id", uuid.NewString(), "uploaded_by", uploader)
	return s.ingest(ctx, log, f, uploader)
}

func (s *IngestionServiceImpl) ingest(ctx context.Context, log *slog.Logger, f upload.File, uploader string) upload.FileResult {
	log = log.With("filename", f.Filename)
	result := upload.FileResult{Filename: f.Filename, Status: upload.StatusError}

	if validator.IsEmpty(uploader) {
		result.Reason = upload.ErrUploaderRequired.Error()
		return result
	}

	// Dedup gate
	sum := sha256.Sum256(f.Data)
	contentHash := hex.EncodeToString(sum[:])
	log = log.With("content_hash", contentHash)

	existing, err := s.ledger.GetByHash(ctx, contentHash)
	known := err == nil
	if err != nil && !errors.Is(err, upload.ErrLedgerEntryNotFound) {
		log.Error("Failed to look up upload ledger", "error", err)
		result.Reason = fmt.Sprintf("failed to look up upload ledger: %v", err)
		return result
	}
	if known {
		log.Info("File already uploaded, reusing ledger entry", "upload_id", existing.ID)
	}

	records, format := s.detector.Detect(f.Data)
	result.DetectedFormat = format
	log = log.With("detected_format", format)
	if len(records) == 0 {
		result.Reason = emptyReason(format).Error()
		log.Error("No attendance data extracted", "reason", result.Reason)
		return result
	}

	var storagePath string
	if !known {
		storagePath, err = s.fileService.UploadAttendanceReport(ctx, f.Filename, f.Data, f.ContentType, s.now())
		if err != nil {
			log.Error("Failed to store attendance report", "error", err)
			result.Reason = err.Error()
			return result
		}
	}

	var counts upload.Counts
	entry, created := existing, false
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if !known {
			stored, isNew, err := s.ledger.CreateIfAbsent(txCtx, upload.LedgerEntry{
				ContentHash:    contentHash,
				Filename:       f.Filename,
				UploadedBy:     uploader,
				DetectedFormat: format,
				StoragePath:    storagePath,
				ContentType:    nullable(f.ContentType),
				SizeBytes:      int64(len(f.Data)),
			})
			if err != nil {
				return fmt.Errorf("failed to record upload: %w", err)
			}
			entry, created = stored, isNew
			if !created {
				log.Info("Concurrent upload of the same content won, reusing its ledger entry", "upload_id", entry.ID)
			}
		}

		for _, rec := range records {
			canonical, reason := canonicalize(rec, f.Filename, entry.ID)
			if reason != "" {
				counts.Skipped++
				log.Warn("Skipping row", "employee_ref", rec.EmployeeRef, "date", rec.Date, "reason", reason)
				continue
			}

			outcome, err := s.records.Upsert(txCtx, canonical, s.cfg.ProtectManualCorrections)
			if err != nil {
				return fmt.Errorf("failed to save %s on %s: %w", canonical.EmployeeID, rec.Date, err)
			}

			switch outcome {
			case attendance.OutcomeInserted:
				counts.Inserted++
			case attendance.OutcomeUpdated:
				counts.Updated++
			default:
				counts.Skipped++
			}
			log.Debug("["+outcome.String()+"]", "employee_id", canonical.EmployeeID, "date", rec.Date)
		}

		return nil
	})

	// Keep the stored report only when the committed ledger row points at it.
	if storagePath != "" && (err != nil || !created) {
		s.discardArtifact(ctx, log, storagePath)
	}

	if err != nil {
		log.Error("Failed to ingest file, rolled back", "error", err)
		result.Reason = err.Error()
		return result
	}

	result.Status = upload.StatusSuccess
	result.UploadID = entry.ID
	result.Duplicate = !created
	result.Counts = counts
	log.Info("Ingestion completed",
		"upload_id", entry.ID,
		"records", len(records),
		"inserted", counts.Inserted,
		"updated", counts.Updated,
		"skipped", counts.Skipped,
	)

	return result
}

func (s *IngestionServiceImpl) discardArtifact(ctx context.Context, log *slog.Logger, path string) {
	if err := s.fileService.DeleteFile(context.WithoutCancel(ctx), path); err != nil {
		log.Error("Failed to remove unreferenced report", "storage_path", path, "error", err)
	}
}

func emptyReason(format string) error {
	switch format {
	case parser.FormatInvalid:
		return upload.ErrInvalidFormat
	case parser.FormatUnknown:
		return upload.ErrUnknownFormat
	default:
		return upload.ErrEmptyExtraction
	}
}

// canonicalize maps an extracted row onto the stored record shape. A non-empty
// reason means the row must be skipped.
func canonicalize(rec parser.Record, sourceFile, uploadID string) (attendance.Record, string) {
	employeeID := empid.Normalize(rec.EmployeeRef)
	if employeeID == "" {
		return attendance.Record{}, "missing employee id"
	}

	date, ok := validator.IsValidDate(rec.Date)
	if !ok || date.IsZero() {
		return attendance.Record{}, "unparseable date"
	}

	return attendance.Record{
		EmployeeID:    employeeID,
		EmployeeName:  nullable(rec.EmployeeName),
		Date:          date,
		FirstIn:       nullable(rec.FirstIn),
		LastOut:       nullable(rec.LastOut),
		InDuration:    nullable(rec.InDuration),
		OutDuration:   nullable(rec.OutDuration),
		TotalDuration: nullable(rec.TotalDuration),
		PunchRecords:  nullable(rec.PunchRecords),
		Status:        string(rec.Status),
		SourceFile:    nullable(sourceFile),
		UploadID:      nullable(uploadID),
	}, ""
}

// nullable maps empty and spreadsheet-null text to NULL.
func nullable(v string) *string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "nan", "none":
		return nil
	}
	return &v
}
