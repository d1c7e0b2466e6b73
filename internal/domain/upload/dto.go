package upload

import (
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
)

// File result statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BatchMessage is the fixed summary message of a processed batch.
const BatchMessage = "Upload processing complete"

type Counts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

type FileResult struct {
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	DetectedFormat string `json:"detected_format,omitempty"`
	UploadID       string `json:"upload_id,omitempty"`
	Duplicate      bool   `json:"duplicate"`
	Counts         Counts `json:"counts"`
	Reason         string `json:"reason,omitempty"`
}

type BatchResult struct {
	Message string       `json:"message"`
	Results []FileResult `json:"results"`
}

type ListFilter struct {
	UploadedBy *string `json:"uploaded_by,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.UploadedBy != nil && *f.UploadedBy != "" && !validator.IsValidEmail(*f.UploadedBy) {
		errs = append(errs, validator.ValidationError{
			Field:   "uploaded_by",
			Message: "uploaded_by must be a valid email",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LedgerResponse struct {
	ID             string  `json:"id"`
	ContentHash    string  `json:"content_hash"`
	Filename       string  `json:"filename"`
	UploadedBy     string  `json:"uploaded_by"`
	DetectedFormat string  `json:"detected_format"`
	StoragePath    string  `json:"storage_path"`
	ContentType    *string `json:"content_type,omitempty"`
	SizeBytes      int64   `json:"size_bytes"`
	UploadedAt     string  `json:"uploaded_at"`
}

type ListLedgerResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Uploads    []LedgerResponse `json:"uploads"`
}
