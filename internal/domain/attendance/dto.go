package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

var (
	validStatuses   = []string{"present", "absent"}
	validSortOrders = []string{"asc", "desc"}
)

// validatePaging applies page and limit defaults and reports out-of-range values.
func validatePaging(page, limit *int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = defaultPage
	}

	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = defaultLimit
	}
	if *limit > maxLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs
}

func validateDates(date, startDate, endDate *string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	fields := []struct {
		name  string
		value *string
	}{
		{"date", date},
		{"start_date", startDate},
		{"end_date", endDate},
	}
	for _, f := range fields {
		if f.value == nil || *f.value == "" {
			continue
		}
		if _, valid := validator.IsValidDate(*f.value); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   f.name,
				Message: f.name + " must be in YYYY-MM-DD format",
			})
		}
	}

	return errs
}

func validateStatus(status *string) validator.ValidationErrors {
	if status == nil || *status == "" {
		return nil
	}
	if !validator.IsInSlice(strings.ToLower(*status), validStatuses) {
		return validator.ValidationErrors{{
			Field:   "status",
			Message: "status must be one of: present, absent",
		}}
	}
	return nil
}

func validateSort(sortBy, sortOrder *string, validSortFields []string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if *sortBy != "" {
		if !validator.IsInSlice(*sortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: " + strings.Join(validSortFields, ", "),
			})
		}
	} else {
		*sortBy = "date"
	}

	if *sortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(*sortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		*sortOrder = "desc" // Newest first
	}

	return errs
}

type ListFilter struct {
	// Search & Filter
	EmployeeID   *string `json:"employee_id,omitempty"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Date         *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status       *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_id, employee_name, first_in, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePaging(&f.Page, &f.Limit)...)
	errs = append(errs, validateStatus(f.Status)...)
	errs = append(errs, validateDates(f.Date, f.StartDate, f.EndDate)...)
	errs = append(errs, validateSort(&f.SortBy, &f.SortOrder,
		[]string{"date", "employee_id", "employee_name", "first_in", "status"})...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MyFilter struct {
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortBy    string `json:"sort_by"`    // date, first_in, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *MyFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePaging(&f.Page, &f.Limit)...)
	errs = append(errs, validateStatus(f.Status)...)
	errs = append(errs, validateDates(f.Date, f.StartDate, f.EndDate)...)
	errs = append(errs, validateSort(&f.SortBy, &f.SortOrder,
		[]string{"date", "first_in", "status"})...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RecordResponse struct {
	ID                  string  `json:"id"`
	EmployeeID          string  `json:"employee_id"`
	EmployeeName        *string `json:"employee_name,omitempty"`
	Date                string  `json:"date"`
	FirstIn             *string `json:"first_in"`
	LastOut             *string `json:"last_out"`
	InDuration          *string `json:"in_duration"`
	OutDuration         *string `json:"out_duration"`
	TotalDuration       *string `json:"total_duration"`
	PunchRecords        *string `json:"punch_records"`
	Status              string  `json:"status"`
	SourceFile          *string `json:"source_file,omitempty"`
	UploadID            *string `json:"upload_id,omitempty"`
	IsManuallyCorrected bool    `json:"is_manually_corrected"`
	CorrectedBy         *string `json:"corrected_by,omitempty"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

type ListResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Showing    string           `json:"showing"`
	Records    []RecordResponse `json:"records"`
}

// CorrectionRequest is an admin's manual fix of a single record.
type CorrectionRequest struct {
	ID            string  `json:"-"`
	CorrectedBy   string  `json:"-"`
	FirstIn       *string `json:"first_in,omitempty"`
	LastOut       *string `json:"last_out,omitempty"`
	InDuration    *string `json:"in_duration,omitempty"`
	OutDuration   *string `json:"out_duration,omitempty"`
	TotalDuration *string `json:"total_duration,omitempty"`
	Status        *string `json:"status,omitempty"`
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	clocks := []struct {
		name  string
		value *string
	}{
		{"first_in", r.FirstIn},
		{"last_out", r.LastOut},
	}
	for _, c := range clocks {
		if c.value != nil && !validator.IsValidClock(*c.value) {
			errs = append(errs, validator.ValidationError{
				Field:   c.name,
				Message: c.name + " must be in HH:MM format",
			})
		}
	}

	durations := []struct {
		name  string
		value *string
	}{
		{"in_duration", r.InDuration},
		{"out_duration", r.OutDuration},
		{"total_duration", r.TotalDuration},
	}
	for _, d := range durations {
		if d.value != nil && !validator.IsValidDuration(*d.value) {
			errs = append(errs, validator.ValidationError{
				Field:   d.name,
				Message: d.name + " must be in HH:MM format",
			})
		}
	}

	errs = append(errs, validateStatus(r.Status)...)

	if r.FirstIn == nil && r.LastOut == nil && r.InDuration == nil &&
		r.OutDuration == nil && r.TotalDuration == nil && r.Status == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "body",
			Message: ErrNothingToCorrect.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RecalculateResult summarizes a duration recompute pass.
type RecalculateResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}
