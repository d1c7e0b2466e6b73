package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		RequestEntityTooLarge(w, "Upload exceeds the size limit")
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, auth.ErrEmployeeClaimMissing):
		Forbidden(w, "Token is not linked to an employee")
	case errors.Is(err, auth.ErrEmailClaimMissing):
		Forbidden(w, "Token carries no uploader email")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrEmployeeIDRequired):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrNothingToCorrect):
		BadRequest(w, err.Error(), nil)

	// Upload domain errors
	case errors.Is(err, upload.ErrLedgerEntryNotFound):
		NotFound(w, "Upload not found")
	case errors.Is(err, upload.ErrArtifactMissing):
		NotFound(w, "Uploaded file is no longer stored")
	case errors.Is(err, upload.ErrNoFiles):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, upload.ErrTooManyFiles):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, upload.ErrUploaderRequired):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
