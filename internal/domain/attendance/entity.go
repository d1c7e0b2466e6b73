package attendance

import (
	"time"
)

// Record is the canonical attendance row for one employee on one date.
type Record struct {
	ID                  string
	EmployeeID          string
	EmployeeName        *string
	Date                time.Time
	FirstIn             *string
	LastOut             *string
	InDuration          *string
	OutDuration         *string
	TotalDuration       *string
	PunchRecords        *string
	Status              string
	SourceFile          *string
	UploadID            *string
	IsManuallyCorrected bool
	CorrectedBy         *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// UpsertOutcome tells what an upsert did to the (employee_id, date) key.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "INSERT"
	case OutcomeUpdated:
		return "UPDATE"
	default:
		return "SKIP"
	}
}

// Correction holds the fields an admin may overwrite by hand.
type Correction struct {
	FirstIn       *string
	LastOut       *string
	InDuration    *string
	OutDuration   *string
	TotalDuration *string
	Status        *string
	CorrectedBy   string
}

// DurationRow is the slice of a record needed to recompute its total duration.
type DurationRow struct {
	ID            string
	FirstIn       *string
	LastOut       *string
	TotalDuration *string
}
