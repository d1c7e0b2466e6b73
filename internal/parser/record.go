// Package parser turns decoded time-clock exports into per-employee, per-day
// attendance records. Each known report layout is an Extractor; the Detector
// tries them in priority order.
package parser

import "github.com/cmlabs-hris/attendix-backend-go/internal/pkg/spreadsheet"

// Status is the presence classification of one employee-day.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Detected format names.
const (
	FormatInvalid        = "Invalid Format"
	FormatUnknown        = "Unknown format"
	FormatRoster         = "Roster/Master Export"
	FormatMonthlyGrid    = "Monthly Attendance Grid"
	FormatDurationReport = "In/Out Duration Report"
)

// DateLayout is the canonical layout of Record.Date.
const DateLayout = "2006-01-02"

// Record is one employee-day extracted from a report. EmployeeRef is the raw,
// un-normalized identifier as it appeared in the file.
type Record struct {
	EmployeeRef   string
	EmployeeName  string
	Date          string
	FirstIn       string
	LastOut       string
	InDuration    string
	OutDuration   string
	TotalDuration string
	PunchRecords  string
	Status        Status
	SourceFormat  string
}

// Extractor recognizes one report layout. TryExtract reports false when the grid
// does not carry the layout's anchors or yields no usable rows.
type Extractor interface {
	Name() string
	TryExtract(grid spreadsheet.Grid) ([]Record, bool)
}
