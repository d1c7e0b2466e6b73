package attendance

import (
	"context"
)

// AttendanceService defines the read and correction operations over canonical records
type AttendanceService interface {
	// ListAttendance retrieves all records with filters (admin view)
	ListAttendance(ctx context.Context, filter ListFilter) (ListResponse, error)

	// GetMyAttendance retrieves records of the authenticated employee
	GetMyAttendance(ctx context.Context, employeeID string, filter MyFilter) (ListResponse, error)

	GetAttendance(ctx context.Context, id string) (RecordResponse, error)

	// CorrectAttendance applies a manual correction (admin)
	CorrectAttendance(ctx context.Context, req CorrectionRequest) (RecordResponse, error)

	// RecalculateDurations recomputes total_duration from first_in/last_out for every record
	RecalculateDurations(ctx context.Context) (RecalculateResult, error)
}
