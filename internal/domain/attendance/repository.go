package attendance

import (
	"context"
)

// RecordRepository defines data access for canonical attendance records.
type RecordRepository interface {
	// Upsert inserts the record or merges it into the existing (employee_id, date) row.
	// Empty nullable fields never clobber stored values. When protectCorrected is
	// set, rows flagged as manually corrected are left alone and OutcomeSkipped is returned.
	Upsert(ctx context.Context, record Record, protectCorrected bool) (UpsertOutcome, error)

	GetByID(ctx context.Context, id string) (Record, error)

	// List retrieves records with filters and pagination
	List(ctx context.Context, filter ListFilter) ([]Record, int64, error)

	// ListByEmployee retrieves records of one canonical employee ID
	ListByEmployee(ctx context.Context, employeeID string, filter MyFilter) ([]Record, int64, error)

	// ApplyCorrection overwrites the given fields and flags the row as manually corrected
	ApplyCorrection(ctx context.Context, id string, correction Correction) (Record, error)

	ListDurations(ctx context.Context) ([]DurationRow, error)
	UpdateTotalDuration(ctx context.Context, id string, total string) error
}
