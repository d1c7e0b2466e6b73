package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendix-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendix-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := attendance.ListFilter{
		EmployeeID:   queryString(query, "employee_id"),
		EmployeeName: queryString(query, "employee_name"),
		Date:         queryString(query, "date"),
		StartDate:    queryString(query, "start_date"),
		EndDate:      queryString(query, "end_date"),
		Status:       queryString(query, "status"),
		Page:         queryInt(query, "page"),
		Limit:        queryInt(query, "limit"),
		SortBy:       query.Get("sort_by"),
		SortOrder:    query.Get("sort_order"),
	}

	results, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	query := r.URL.Query()
	filter := attendance.MyFilter{
		Date:      queryString(query, "date"),
		StartDate: queryString(query, "start_date"),
		EndDate:   queryString(query, "end_date"),
		Status:    queryString(query, "status"),
		Page:      queryInt(query, "page"),
		Limit:     queryInt(query, "limit"),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
	}

	results, err := h.attendanceService.GetMyAttendance(r.Context(), identity.EmployeeID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.GetAttendance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Correct implements AttendanceHandler.
func (h *attendanceHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	var req attendance.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.CorrectedBy = identity.Email
	if req.CorrectedBy == "" {
		req.CorrectedBy = identity.UserID
	}

	result, err := h.attendanceService.CorrectAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance corrected successfully", result)
}

func queryString(query url.Values, key string) *string {
	if v := query.Get(key); v != "" {
		return &v
	}
	return nil
}

// queryInt returns 0 for missing or malformed values so DTO defaults apply.
func queryInt(query url.Values, key string) int {
	n, err := strconv.Atoi(query.Get(key))
	if err != nil {
		return 0
	}
	return n
}
