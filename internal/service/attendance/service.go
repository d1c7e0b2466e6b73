package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/parser"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/empid"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendance.RecordRepository
	transactor database.Transactor
}

func NewAttendanceService(recordRepo attendance.RecordRepository, transactor database.Transactor) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		RecordRepository: recordRepo,
		transactor:       transactor,
	}
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.ListFilter) (attendance.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := a.RecordRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	return buildListResponse(records, total, filter.Page, filter.Limit), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyFilter) (attendance.ListResponse, error) {
	if validator.IsEmpty(employeeID) {
		return attendance.ListResponse{}, attendance.ErrEmployeeIDRequired
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListResponse{}, err
	}

	records, total, err := a.RecordRepository.ListByEmployee(ctx, empid.Normalize(employeeID), filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list own attendance records: %w", err)
	}

	return buildListResponse(records, total, filter.Page, filter.Limit), nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.RecordResponse, error) {
	rec, err := a.RecordRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return mapRecordToResponse(rec), nil
}

// CorrectAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CorrectAttendance(ctx context.Context, req attendance.CorrectionRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	correction := attendance.Correction{
		FirstIn:       req.FirstIn,
		LastOut:       req.LastOut,
		InDuration:    req.InDuration,
		OutDuration:   req.OutDuration,
		TotalDuration: req.TotalDuration,
		CorrectedBy:   req.CorrectedBy,
	}
	if req.Status != nil {
		status := canonicalStatus(*req.Status)
		correction.Status = &status
	}

	var updated attendance.Record
	err := a.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := a.RecordRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}

		// Recompute the total when punches move and no explicit total was given.
		if correction.TotalDuration == nil && (correction.FirstIn != nil || correction.LastOut != nil) {
			total := parser.TotalDuration(
				valueOr(correction.FirstIn, current.FirstIn),
				valueOr(correction.LastOut, current.LastOut),
				valueOr(correction.InDuration, current.InDuration),
				valueOr(correction.OutDuration, current.OutDuration),
			)
			correction.TotalDuration = &total
		}

		updated, err = a.RecordRepository.ApplyCorrection(txCtx, req.ID, correction)
		return err
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.Info("Attendance record corrected", "id", updated.ID, "employee_id", updated.EmployeeID, "corrected_by", req.CorrectedBy)
	return mapRecordToResponse(updated), nil
}

// RecalculateDurations implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecalculateDurations(ctx context.Context) (attendance.RecalculateResult, error) {
	var result attendance.RecalculateResult

	err := a.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		result = attendance.RecalculateResult{}

		rows, err := a.RecordRepository.ListDurations(txCtx)
		if err != nil {
			return err
		}
		result.Scanned = len(rows)

		for _, row := range rows {
			total, ok := spanDuration(row.FirstIn, row.LastOut)
			if !ok || (row.TotalDuration != nil && *row.TotalDuration == total) {
				continue
			}
			if err := a.RecordRepository.UpdateTotalDuration(txCtx, row.ID, total); err != nil {
				return fmt.Errorf("failed to update record %s: %w", row.ID, err)
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return attendance.RecalculateResult{}, fmt.Errorf("failed to recalculate durations: %w", err)
	}

	return result, nil
}

// spanDuration is last_out minus first_in when both punches exist and the span
// is not negative.
func spanDuration(firstIn, lastOut *string) (string, bool) {
	if firstIn == nil || lastOut == nil || *firstIn == "" || *lastOut == "" ||
		*firstIn == parser.NoValue || *lastOut == parser.NoValue {
		return "", false
	}
	span := parser.ToMinutes(*lastOut) - parser.ToMinutes(*firstIn)
	if span < 0 {
		return "", false
	}
	return parser.FormatMinutes(span), true
}

func canonicalStatus(s string) string {
	if strings.EqualFold(s, string(parser.StatusAbsent)) {
		return string(parser.StatusAbsent)
	}
	return string(parser.StatusPresent)
}

func valueOr(v *string, fallback *string) string {
	if v != nil {
		return *v
	}
	if fallback != nil {
		return *fallback
	}
	return parser.NoValue
}

func buildListResponse(records []attendance.Record, total int64, page, limit int) attendance.ListResponse {
	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapRecordToResponse(rec))
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	showing := fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    responses,
	}
}

// mapRecordToResponse converts a Record entity to RecordResponse
func mapRecordToResponse(rec attendance.Record) attendance.RecordResponse {
	return attendance.RecordResponse{
		ID:                  rec.ID,
		EmployeeID:          rec.EmployeeID,
		EmployeeName:        rec.EmployeeName,
		Date:                rec.Date.Format("2006-01-02"),
		FirstIn:             rec.FirstIn,
		LastOut:             rec.LastOut,
		InDuration:          rec.InDuration,
		OutDuration:         rec.OutDuration,
		TotalDuration:       rec.TotalDuration,
		PunchRecords:        rec.PunchRecords,
		Status:              rec.Status,
		SourceFile:          rec.SourceFile,
		UploadID:            rec.UploadID,
		IsManuallyCorrected: rec.IsManuallyCorrected,
		CorrectedBy:         rec.CorrectedBy,
		CreatedAt:           rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           rec.UpdatedAt.Format(time.RFC3339),
	}
}
