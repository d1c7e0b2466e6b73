package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type MockAttendanceService struct {
	mock.Mock
}

func (m *MockAttendanceService) ListAttendance(ctx context.Context, filter attendance.ListFilter) (attendance.ListResponse, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(attendance.ListResponse), args.Error(1)
}

func (m *MockAttendanceService) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyFilter) (attendance.ListResponse, error) {
	args := m.Called(ctx, employeeID, filter)
	return args.Get(0).(attendance.ListResponse), args.Error(1)
}

func (m *MockAttendanceService) GetAttendance(ctx context.Context, id string) (attendance.RecordResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(attendance.RecordResponse), args.Error(1)
}

func (m *MockAttendanceService) CorrectAttendance(ctx context.Context, req attendance.CorrectionRequest) (attendance.RecordResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(attendance.RecordResponse), args.Error(1)
}

func (m *MockAttendanceService) RecalculateDurations(ctx context.Context) (attendance.RecalculateResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(attendance.RecalculateResult), args.Error(1)
}

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, f upload.File, uploader string) upload.FileResult {
	return m.Called(ctx, f, uploader).Get(0).(upload.FileResult)
}

func (m *MockIngestionService) IngestBatch(ctx context.Context, files []upload.File, uploader string) upload.BatchResult {
	return m.Called(ctx, files, uploader).Get(0).(upload.BatchResult)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) ListUploads(ctx context.Context, filter upload.ListFilter) (upload.ListLedgerResponse, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(upload.ListLedgerResponse), args.Error(1)
}

func (m *MockLedgerService) OpenArtifact(ctx context.Context, id string) (upload.LedgerEntry, io.ReadCloser, error) {
	args := m.Called(ctx, id)
	rc, _ := args.Get(1).(io.ReadCloser)
	return args.Get(0).(upload.LedgerEntry), rc, args.Error(2)
}

func (m *MockLedgerService) FindMissingArtifacts(ctx context.Context) ([]upload.LedgerEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]upload.LedgerEntry)
	return entries, args.Error(1)
}

type testServer struct {
	router     *chi.Mux
	jwt        jwt.Service
	attendance *MockAttendanceService
	ingestion  *MockIngestionService
	ledger     *MockLedgerService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		jwt:        jwt.NewJWTService(handlerTestSecret, "1h"),
		attendance: new(MockAttendanceService),
		ingestion:  new(MockIngestionService),
		ledger:     new(MockLedgerService),
	}
	s.router = NewRouter(
		RouterConfig{Env: "test", AllowedOrigins: []string{"*"}, RequestTimeout: time.Minute},
		s.jwt,
		NewAttendanceHandler(s.attendance),
		NewUploadHandler(s.ingestion, s.ledger, UploadLimits{MaxBytes: 1 << 20, MaxFiles: 2}),
	)
	return s
}

func (s *testServer) token(t *testing.T, identity auth.Identity) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(identity)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, req *http.Request, identity *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	if identity != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *identity))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

var (
	adminIdentity    = auth.Identity{UserID: "u-admin", Email: "hr@example.com", Role: auth.RoleHR}
	employeeIdentity = auth.Identity{UserID: "u-emp", Email: "budi@example.com", EmployeeID: "RBIS0007", Role: auth.RoleEmployee}
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwt.NewJWTService("another-secret", "1h")
		token, _, err := other.GenerateAccessToken(adminIdentity)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := s.do(t, req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("employee cannot use admin view", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil), &employeeIdentity)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		s.attendance.AssertNotCalled(t, "ListAttendance", mock.Anything, mock.Anything)
	})
}

func TestAttendanceHandler_List(t *testing.T) {
	s := newTestServer(t)

	s.attendance.On("ListAttendance", mock.Anything, mock.MatchedBy(func(f attendance.ListFilter) bool {
		return f.Page == 2 && f.Limit == 10 && f.Status != nil && *f.Status == "absent" && f.EmployeeID == nil
	})).Return(attendance.ListResponse{TotalCount: 11, Page: 2, Limit: 10, TotalPages: 2, Showing: "11-11 of 11"}, nil)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance?page=2&limit=10&status=absent", nil), &adminIdentity)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "11-11 of 11", data["showing"])
	s.attendance.AssertExpectations(t)
}

func TestAttendanceHandler_ValidationError(t *testing.T) {
	s := newTestServer(t)

	s.attendance.On("ListAttendance", mock.Anything, mock.Anything).Return(attendance.ListResponse{},
		validator.ValidationErrors{{Field: "status", Message: "status must be one of: present, absent"}})

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance?status=late", nil), &adminIdentity)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAttendanceHandler_GetMyAttendance(t *testing.T) {
	s := newTestServer(t)

	t.Run("uses employee_id claim", func(t *testing.T) {
		s.attendance.On("GetMyAttendance", mock.Anything, "RBIS0007", mock.Anything).
			Return(attendance.ListResponse{Showing: "0 of 0"}, nil).Once()

		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/me", nil), &employeeIdentity)
		assert.Equal(t, http.StatusOK, rec.Code)
		s.attendance.AssertExpectations(t)
	})

	t.Run("token without employee", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/me", nil), &adminIdentity)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAttendanceHandler_Correct(t *testing.T) {
	s := newTestServer(t)

	t.Run("records the corrector", func(t *testing.T) {
		total := "09:30"
		s.attendance.On("CorrectAttendance", mock.Anything, mock.MatchedBy(func(req attendance.CorrectionRequest) bool {
			return req.ID == "rec-1" && req.CorrectedBy == "hr@example.com" &&
				req.LastOut != nil && *req.LastOut == "18:30"
		})).Return(attendance.RecordResponse{ID: "rec-1", TotalDuration: &total, IsManuallyCorrected: true}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/attendance/rec-1", strings.NewReader(`{"last_out":"18:30"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := s.do(t, req, &adminIdentity)
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, true, data["is_manually_corrected"])
	})

	t.Run("unknown record", func(t *testing.T) {
		s.attendance.On("CorrectAttendance", mock.Anything, mock.MatchedBy(func(req attendance.CorrectionRequest) bool {
			return req.ID == "missing"
		})).Return(attendance.RecordResponse{}, attendance.ErrRecordNotFound).Once()

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/attendance/missing", strings.NewReader(`{"status":"absent"}`))
		rec := s.do(t, req, &adminIdentity)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/attendance/rec-1", strings.NewReader(`{`))
		rec := s.do(t, req, &adminIdentity)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadHandler_Upload(t *testing.T) {
	t.Run("passes every file with the uploader email", func(t *testing.T) {
		s := newTestServer(t)

		s.ingestion.On("IngestBatch", mock.Anything, mock.MatchedBy(func(files []upload.File) bool {
			return len(files) == 1 && files[0].Filename == "jan.csv" && string(files[0].Data) == "a,b\n1,2\n"
		}), "hr@example.com").Return(upload.BatchResult{
			Message: upload.BatchMessage,
			Results: []upload.FileResult{{Filename: "jan.csv", Status: upload.StatusSuccess, Counts: upload.Counts{Inserted: 1}}},
		})

		body, contentType := multipartBody(t, map[string]string{"jan.csv": "a,b\n1,2\n"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := s.do(t, req, &adminIdentity)
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, upload.BatchMessage, data["message"])
		s.ingestion.AssertExpectations(t)
	})

	t.Run("no files", func(t *testing.T) {
		s := newTestServer(t)
		body, contentType := multipartBody(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := s.do(t, req, &adminIdentity)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too many files", func(t *testing.T) {
		s := newTestServer(t)
		body, contentType := multipartBody(t, map[string]string{"a.csv": "1", "b.csv": "2", "c.csv": "3"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := s.do(t, req, &adminIdentity)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.ingestion.AssertNotCalled(t, "IngestBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("employee cannot upload", func(t *testing.T) {
		s := newTestServer(t)
		body, contentType := multipartBody(t, map[string]string{"jan.csv": "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := s.do(t, req, &employeeIdentity)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUploadHandler_ListAndDownload(t *testing.T) {
	s := newTestServer(t)

	s.ledger.On("ListUploads", mock.Anything, upload.ListFilter{Page: 1}).
		Return(upload.ListLedgerResponse{TotalCount: 1, Page: 1, Limit: 20, TotalPages: 1,
			Uploads: []upload.LedgerResponse{{ID: "u1", Filename: "jan.csv"}}}, nil)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/uploads?page=1", nil), &adminIdentity)
	require.Equal(t, http.StatusOK, rec.Code)

	contentType := "text/csv"
	s.ledger.On("OpenArtifact", mock.Anything, "u1").Return(
		upload.LedgerEntry{ID: "u1", Filename: "jan.csv", ContentType: &contentType},
		io.NopCloser(strings.NewReader("a,b\n")), nil)
	s.ledger.On("OpenArtifact", mock.Anything, "gone").Return(upload.LedgerEntry{}, nil, upload.ErrArtifactMissing)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/u1/download", nil), &adminIdentity)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=jan.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/gone/download", nil), &adminIdentity)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
