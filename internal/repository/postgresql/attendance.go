package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	a.id, a.employee_id, a.employee_name, a.date,
	a.first_in, a.last_out, a.in_duration, a.out_duration, a.total_duration,
	a.punch_records, a.status, a.source_file, a.upload_id,
	a.is_manually_corrected, a.corrected_by, a.created_at, a.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Date,
		&rec.FirstIn, &rec.LastOut, &rec.InDuration, &rec.OutDuration, &rec.TotalDuration,
		&rec.PunchRecords, &rec.Status, &rec.SourceFile, &rec.UploadID,
		&rec.IsManuallyCorrected, &rec.CorrectedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.RecordRepository {
	return &attendanceRepository{db: db}
}

// Upsert implements attendance.RecordRepository.
func (a *attendanceRepository) Upsert(ctx context.Context, rec attendance.Record, protectCorrected bool) (attendance.UpsertOutcome, error) {
	q := GetQuerier(ctx, a.db)

	id, err := uuid.NewV7()
	if err != nil {
		return 0, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	// xmax is zero only for a freshly inserted tuple.
	query := `
		INSERT INTO attendance_records AS a (
			id, employee_id, employee_name, date,
			first_in, last_out, in_duration, out_duration, total_duration,
			punch_records, status, source_file, upload_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			employee_name  = COALESCE(EXCLUDED.employee_name, a.employee_name),
			first_in       = COALESCE(EXCLUDED.first_in, a.first_in),
			last_out       = COALESCE(EXCLUDED.last_out, a.last_out),
			in_duration    = COALESCE(EXCLUDED.in_duration, a.in_duration),
			out_duration   = COALESCE(EXCLUDED.out_duration, a.out_duration),
			total_duration = COALESCE(EXCLUDED.total_duration, a.total_duration),
			punch_records  = COALESCE(EXCLUDED.punch_records, a.punch_records),
			status         = EXCLUDED.status,
			source_file    = COALESCE(EXCLUDED.source_file, a.source_file),
			upload_id      = COALESCE(EXCLUDED.upload_id, a.upload_id),
			updated_at     = NOW()
		WHERE NOT ($14::boolean AND a.is_manually_corrected)
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err = q.QueryRow(ctx, query,
		id.String(),
		rec.EmployeeID,
		rec.EmployeeName,
		rec.Date,
		rec.FirstIn,
		rec.LastOut,
		rec.InDuration,
		rec.OutDuration,
		rec.TotalDuration,
		rec.PunchRecords,
		rec.Status,
		rec.SourceFile,
		rec.UploadID,
		protectCorrected,
	).Scan(&inserted)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.OutcomeSkipped, nil
		}
		return 0, fmt.Errorf("failed to upsert attendance record: %w", err)
	}

	if inserted {
		return attendance.OutcomeInserted, nil
	}
	return attendance.OutcomeUpdated, nil
}

// GetByID implements attendance.RecordRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	if !validator.IsValidUUID(id) {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records a WHERE a.id = $1`

	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record by ID: %w", err)
	}

	return rec, nil
}

// List implements attendance.RecordRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	// Build WHERE clause
	baseWhere := "1 = 1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.EmployeeName != nil && *filter.EmployeeName != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_name ILIKE $%d", argIdx)
		args = append(args, "%"+*filter.EmployeeName+"%")
		argIdx++
	}

	baseWhere, args, argIdx = appendRecordFilters(baseWhere, args, argIdx, filter.Date, filter.StartDate, filter.EndDate, filter.Status)

	orderByField := "a.date"
	switch filter.SortBy {
	case "employee_id":
		orderByField = "a.employee_id"
	case "employee_name":
		orderByField = "a.employee_name"
	case "first_in":
		orderByField = "a.first_in"
	case "status":
		orderByField = "a.status"
	}

	return a.listPage(ctx, baseWhere, args, argIdx, orderByField, filter.SortOrder, filter.Page, filter.Limit)
}

// ListByEmployee implements attendance.RecordRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	baseWhere := "a.employee_id = $1"
	args := []interface{}{employeeID}
	argIdx := 2

	baseWhere, args, argIdx = appendRecordFilters(baseWhere, args, argIdx, filter.Date, filter.StartDate, filter.EndDate, filter.Status)

	orderByField := "a.date"
	switch filter.SortBy {
	case "first_in":
		orderByField = "a.first_in"
	case "status":
		orderByField = "a.status"
	}

	return a.listPage(ctx, baseWhere, args, argIdx, orderByField, filter.SortOrder, filter.Page, filter.Limit)
}

func appendRecordFilters(where string, args []interface{}, argIdx int, date, startDate, endDate, status *string) (string, []interface{}, int) {
	if date != nil && *date != "" {
		where += fmt.Sprintf(" AND a.date = $%d", argIdx)
		args = append(args, *date)
		argIdx++
	}

	// Date range filters
	if startDate != nil && *startDate != "" {
		where += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *startDate)
		argIdx++
	}
	if endDate != nil && *endDate != "" {
		where += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *endDate)
		argIdx++
	}

	if status != nil && *status != "" {
		where += fmt.Sprintf(" AND LOWER(a.status) = LOWER($%d)", argIdx)
		args = append(args, *status)
		argIdx++
	}

	return where, args, argIdx
}

func (a *attendanceRepository) listPage(ctx context.Context, baseWhere string, args []interface{}, argIdx int, orderByField, sortOrder string, page, limit int) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendance_records a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	order := "DESC"
	if strings.ToLower(sortOrder) == "asc" {
		order = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records a
		WHERE %s
		ORDER BY %s %s, a.employee_id ASC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, order, argIdx, argIdx+1)

	if limit == 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, total, nil
}

// ApplyCorrection implements attendance.RecordRepository.
func (a *attendanceRepository) ApplyCorrection(ctx context.Context, id string, c attendance.Correction) (attendance.Record, error) {
	if !validator.IsValidUUID(id) {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records AS a SET
			first_in              = COALESCE($2, a.first_in),
			last_out              = COALESCE($3, a.last_out),
			in_duration           = COALESCE($4, a.in_duration),
			out_duration          = COALESCE($5, a.out_duration),
			total_duration        = COALESCE($6, a.total_duration),
			status                = COALESCE($7, a.status),
			is_manually_corrected = TRUE,
			corrected_by          = $8,
			updated_at            = NOW()
		WHERE a.id = $1
		RETURNING ` + attendanceColumns

	rec, err := scanRecord(q.QueryRow(ctx, query,
		id,
		c.FirstIn,
		c.LastOut,
		c.InDuration,
		c.OutDuration,
		c.TotalDuration,
		c.Status,
		c.CorrectedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to correct attendance record: %w", err)
	}

	return rec, nil
}

// ListDurations implements attendance.RecordRepository.
func (a *attendanceRepository) ListDurations(ctx context.Context) ([]attendance.DurationRow, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `
		SELECT id, first_in, last_out, total_duration
		FROM attendance_records
		ORDER BY date, employee_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance durations: %w", err)
	}
	defer rows.Close()

	var result []attendance.DurationRow
	for rows.Next() {
		var r attendance.DurationRow
		if err := rows.Scan(&r.ID, &r.FirstIn, &r.LastOut, &r.TotalDuration); err != nil {
			return nil, fmt.Errorf("failed to scan attendance duration: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance durations: %w", err)
	}

	return result, nil
}

// UpdateTotalDuration implements attendance.RecordRepository.
func (a *attendanceRepository) UpdateTotalDuration(ctx context.Context, id string, total string) error {
	if !validator.IsValidUUID(id) {
		return attendance.ErrRecordNotFound
	}
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `
		UPDATE attendance_records
		SET total_duration = $2, updated_at = NOW()
		WHERE id = $1
	`, id, total)
	if err != nil {
		return fmt.Errorf("failed to update total duration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}

	return nil
}
