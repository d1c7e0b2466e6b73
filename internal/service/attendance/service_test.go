package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/validator"
)

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Upsert(ctx context.Context, record attendance.Record, protectCorrected bool) (attendance.UpsertOutcome, error) {
	args := m.Called(ctx, record, protectCorrected)
	return args.Get(0).(attendance.UpsertOutcome), args.Error(1)
}

func (m *MockRecordRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(attendance.Record), args.Error(1)
}

func (m *MockRecordRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]attendance.Record)
	return records, args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	args := m.Called(ctx, employeeID, filter)
	records, _ := args.Get(0).([]attendance.Record)
	return records, args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordRepository) ApplyCorrection(ctx context.Context, id string, correction attendance.Correction) (attendance.Record, error) {
	args := m.Called(ctx, id, correction)
	return args.Get(0).(attendance.Record), args.Error(1)
}

func (m *MockRecordRepository) ListDurations(ctx context.Context) ([]attendance.DurationRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]attendance.DurationRow)
	return rows, args.Error(1)
}

func (m *MockRecordRepository) UpdateTotalDuration(ctx context.Context, id string, total string) error {
	return m.Called(ctx, id, total).Error(0)
}

// inlineTransactor runs fn on the caller's context.
type inlineTransactor struct {
	calls int
}

func (t *inlineTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func strPtr(s string) *string { return &s }

func sampleRecord(id, employeeID string) attendance.Record {
	at := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	return attendance.Record{
		ID:            id,
		EmployeeID:    employeeID,
		EmployeeName:  strPtr("Budi"),
		Date:          time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		FirstIn:       strPtr("09:00"),
		LastOut:       strPtr("17:00"),
		InDuration:    strPtr("08:00"),
		OutDuration:   strPtr("00:00"),
		TotalDuration: strPtr("08:00"),
		Status:        "Present",
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestListAttendance(t *testing.T) {
	t.Run("applies defaults and builds page summary", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		expected := attendance.ListFilter{Page: 1, Limit: 20, SortBy: "date", SortOrder: "desc"}
		repo.On("List", mock.Anything, expected).Return([]attendance.Record{
			sampleRecord("r1", "RBIS0001"),
			sampleRecord("r2", "RBIS0002"),
		}, int64(22), nil)

		resp, err := svc.ListAttendance(context.Background(), attendance.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(22), resp.TotalCount)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Equal(t, "1-20 of 22", resp.Showing)
		require.Len(t, resp.Records, 2)
		assert.Equal(t, "2026-01-05", resp.Records[0].Date)
		assert.Equal(t, "2026-01-05T10:00:00Z", resp.Records[0].CreatedAt)
		repo.AssertExpectations(t)
	})

	t.Run("empty result", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		repo.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), nil)

		resp, err := svc.ListAttendance(context.Background(), attendance.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, "0 of 0", resp.Showing)
		assert.Empty(t, resp.Records)
		assert.NotNil(t, resp.Records)
	})

	t.Run("invalid filter never reaches repository", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		_, err := svc.ListAttendance(context.Background(), attendance.ListFilter{Status: strPtr("late")})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "status", verrs[0].Field)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestGetMyAttendance(t *testing.T) {
	t.Run("normalizes the employee id", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		repo.On("ListByEmployee", mock.Anything, "RBIS0007", mock.Anything).
			Return([]attendance.Record{sampleRecord("r1", "RBIS0007")}, int64(1), nil)

		resp, err := svc.GetMyAttendance(context.Background(), "rbis7", attendance.MyFilter{})
		require.NoError(t, err)
		assert.Equal(t, "1-1 of 1", resp.Showing)
		repo.AssertExpectations(t)
	})

	t.Run("missing employee id", func(t *testing.T) {
		svc := NewAttendanceService(new(MockRecordRepository), &inlineTransactor{})

		_, err := svc.GetMyAttendance(context.Background(), " ", attendance.MyFilter{})
		assert.ErrorIs(t, err, attendance.ErrEmployeeIDRequired)
	})
}

func TestGetAttendance(t *testing.T) {
	repo := new(MockRecordRepository)
	svc := NewAttendanceService(repo, &inlineTransactor{})

	repo.On("GetByID", mock.Anything, "missing").Return(attendance.Record{}, attendance.ErrRecordNotFound)

	_, err := svc.GetAttendance(context.Background(), "missing")
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestCorrectAttendance(t *testing.T) {
	t.Run("recomputes total when last out moves", func(t *testing.T) {
		repo := new(MockRecordRepository)
		tx := &inlineTransactor{}
		svc := NewAttendanceService(repo, tx)

		current := sampleRecord("r1", "RBIS0001")
		repo.On("GetByID", mock.Anything, "r1").Return(current, nil)

		corrected := current
		corrected.LastOut = strPtr("18:30")
		corrected.TotalDuration = strPtr("09:30")
		corrected.IsManuallyCorrected = true
		corrected.CorrectedBy = strPtr("hr@example.com")

		repo.On("ApplyCorrection", mock.Anything, "r1", mock.MatchedBy(func(c attendance.Correction) bool {
			return c.TotalDuration != nil && *c.TotalDuration == "09:30" &&
				c.LastOut != nil && *c.LastOut == "18:30" &&
				c.CorrectedBy == "hr@example.com"
		})).Return(corrected, nil)

		resp, err := svc.CorrectAttendance(context.Background(), attendance.CorrectionRequest{
			ID:          "r1",
			CorrectedBy: "hr@example.com",
			LastOut:     strPtr("18:30"),
		})
		require.NoError(t, err)
		assert.True(t, resp.IsManuallyCorrected)
		assert.Equal(t, "09:30", *resp.TotalDuration)
		assert.Equal(t, 1, tx.calls)
		repo.AssertExpectations(t)
	})

	t.Run("explicit total and status are kept", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		current := sampleRecord("r1", "RBIS0001")
		repo.On("GetByID", mock.Anything, "r1").Return(current, nil)
		repo.On("ApplyCorrection", mock.Anything, "r1", mock.MatchedBy(func(c attendance.Correction) bool {
			return *c.TotalDuration == "07:00" && *c.Status == "Absent"
		})).Return(current, nil)

		_, err := svc.CorrectAttendance(context.Background(), attendance.CorrectionRequest{
			ID:            "r1",
			CorrectedBy:   "hr@example.com",
			FirstIn:       strPtr("10:00"),
			TotalDuration: strPtr("07:00"),
			Status:        strPtr("ABSENT"),
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("empty correction is rejected", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		_, err := svc.CorrectAttendance(context.Background(), attendance.CorrectionRequest{ID: "r1"})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown record", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		repo.On("GetByID", mock.Anything, "nope").Return(attendance.Record{}, attendance.ErrRecordNotFound)

		_, err := svc.CorrectAttendance(context.Background(), attendance.CorrectionRequest{
			ID:      "nope",
			FirstIn: strPtr("08:00"),
		})
		assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
	})
}

func TestRecalculateDurations(t *testing.T) {
	t.Run("updates only stale spans", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		repo.On("ListDurations", mock.Anything).Return([]attendance.DurationRow{
			{ID: "stale", FirstIn: strPtr("09:00"), LastOut: strPtr("17:30"), TotalDuration: strPtr("08:00")},
			{ID: "fresh", FirstIn: strPtr("09:00"), LastOut: strPtr("17:00"), TotalDuration: strPtr("08:00")},
			{ID: "missing", FirstIn: strPtr("--:--"), LastOut: strPtr("17:00"), TotalDuration: strPtr("04:00")},
			{ID: "overnight", FirstIn: strPtr("18:00"), LastOut: strPtr("09:00"), TotalDuration: strPtr("00:00")},
			{ID: "null-total", FirstIn: strPtr("08:00"), LastOut: strPtr("12:00")},
			{ID: "null-punch", LastOut: strPtr("12:00")},
		}, nil)
		repo.On("UpdateTotalDuration", mock.Anything, "stale", "08:30").Return(nil)
		repo.On("UpdateTotalDuration", mock.Anything, "null-total", "04:00").Return(nil)

		result, err := svc.RecalculateDurations(context.Background())
		require.NoError(t, err)
		assert.Equal(t, attendance.RecalculateResult{Scanned: 6, Updated: 2}, result)
		repo.AssertExpectations(t)
		repo.AssertNumberOfCalls(t, "UpdateTotalDuration", 2)
	})

	t.Run("update failure aborts the pass", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewAttendanceService(repo, &inlineTransactor{})

		repo.On("ListDurations", mock.Anything).Return([]attendance.DurationRow{
			{ID: "stale", FirstIn: strPtr("09:00"), LastOut: strPtr("17:30"), TotalDuration: strPtr("08:00")},
		}, nil)
		repo.On("UpdateTotalDuration", mock.Anything, "stale", "08:30").Return(errors.New("connection reset"))

		result, err := svc.RecalculateDurations(context.Background())
		require.Error(t, err)
		assert.Zero(t, result)
	})
}
