package ingestion

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/upload"
)

// memStore is an in-memory stand-in for the ledger and attendance tables.
type memStore struct {
	mu      sync.Mutex
	ledger  map[string]upload.LedgerEntry
	records map[string]attendance.Record
	seq     int

	failUpsertAfter int // fail the n-th upsert when > 0
	upserts         int
}

func newMemStore() *memStore {
	return &memStore{
		ledger:  map[string]upload.LedgerEntry{},
		records: map[string]attendance.Record{},
	}
}

func recordKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%d", s.seq)
}

// memTransactor emulates rollback by restoring a snapshot when fn fails.
type memTransactor struct {
	store *memStore
}

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.store.mu.Lock()
	ledger := maps.Clone(t.store.ledger)
	records := maps.Clone(t.store.records)
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.ledger, t.store.records = ledger, records
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type memLedgerRepo struct {
	store *memStore
}

func (r memLedgerRepo) GetByHash(ctx context.Context, contentHash string) (upload.LedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.ledger[contentHash]
	if !ok {
		return upload.LedgerEntry{}, upload.ErrLedgerEntryNotFound
	}
	return e, nil
}

func (r memLedgerRepo) CreateIfAbsent(ctx context.Context, entry upload.LedgerEntry) (upload.LedgerEntry, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if e, ok := r.store.ledger[entry.ContentHash]; ok {
		return e, false, nil
	}
	entry.ID = r.store.nextID()
	entry.UploadedAt = time.Now()
	r.store.ledger[entry.ContentHash] = entry
	return entry, true, nil
}

func (r memLedgerRepo) GetByID(ctx context.Context, id string) (upload.LedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.ledger {
		if e.ID == id {
			return e, nil
		}
	}
	return upload.LedgerEntry{}, upload.ErrLedgerEntryNotFound
}

func (r memLedgerRepo) List(ctx context.Context, filter upload.ListFilter) ([]upload.LedgerEntry, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []upload.LedgerEntry
	for _, e := range r.store.ledger {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

type memRecordRepo struct {
	store *memStore
}

func coalesce(newer, older *string) *string {
	if newer != nil {
		return newer
	}
	return older
}

func (r memRecordRepo) Upsert(ctx context.Context, rec attendance.Record, protectCorrected bool) (attendance.UpsertOutcome, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.upserts++
	if r.store.failUpsertAfter > 0 && r.store.upserts >= r.store.failUpsertAfter {
		return 0, fmt.Errorf("connection reset")
	}

	key := recordKey(rec.EmployeeID, rec.Date)
	old, ok := r.store.records[key]
	if !ok {
		rec.ID = r.store.nextID()
		r.store.records[key] = rec
		return attendance.OutcomeInserted, nil
	}
	if protectCorrected && old.IsManuallyCorrected {
		return attendance.OutcomeSkipped, nil
	}

	old.EmployeeName = coalesce(rec.EmployeeName, old.EmployeeName)
	old.FirstIn = coalesce(rec.FirstIn, old.FirstIn)
	old.LastOut = coalesce(rec.LastOut, old.LastOut)
	old.InDuration = coalesce(rec.InDuration, old.InDuration)
	old.OutDuration = coalesce(rec.OutDuration, old.OutDuration)
	old.TotalDuration = coalesce(rec.TotalDuration, old.TotalDuration)
	old.PunchRecords = coalesce(rec.PunchRecords, old.PunchRecords)
	old.Status = rec.Status
	old.SourceFile = coalesce(rec.SourceFile, old.SourceFile)
	old.UploadID = coalesce(rec.UploadID, old.UploadID)
	r.store.records[key] = old
	return attendance.OutcomeUpdated, nil
}

func (r memRecordRepo) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (r memRecordRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (r memRecordRepo) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (r memRecordRepo) ApplyCorrection(ctx context.Context, id string, c attendance.Correction) (attendance.Record, error) {
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (r memRecordRepo) ListDurations(ctx context.Context) ([]attendance.DurationRow, error) {
	return nil, nil
}

func (r memRecordRepo) UpdateTotalDuration(ctx context.Context, id string, total string) error {
	return nil
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) UploadAttendanceReport(ctx context.Context, filename string, data []byte, contentType string, at time.Time) (string, error) {
	args := m.Called(ctx, filename, data, contentType, at)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) OpenAttendanceReport(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockFileService) ReportExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileService) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
