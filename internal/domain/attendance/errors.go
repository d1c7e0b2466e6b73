package attendance

import "errors"

// Attendance domain errors
var (
	ErrRecordNotFound     = errors.New("attendance record not found")
	ErrEmployeeIDRequired = errors.New("employee_id is required to view own attendance")
	ErrNothingToCorrect   = errors.New("at least one field must be provided")
)
