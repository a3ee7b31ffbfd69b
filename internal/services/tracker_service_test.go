package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/cyclemark/internal/models"
)

type stubCycleRecordReader struct {
	record models.CycleRecord
	found  bool
	err    error
	calls  int
}

func (stub *stubCycleRecordReader) FindByUserID(uint) (models.CycleRecord, bool, error) {
	stub.calls++
	return stub.record, stub.found, stub.err
}

type stubRecordQueue struct {
	mu       sync.Mutex
	enqueued []models.CycleRecord
	pending  map[uint]bool
	failure  error
}

func (stub *stubRecordQueue) Pending(userID uint) bool {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.pending[userID]
}

func (stub *stubRecordQueue) Enqueue(record models.CycleRecord) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.enqueued = append(stub.enqueued, record)
}

func (stub *stubRecordQueue) LastFailure(uint) error {
	return stub.failure
}

func newTestTracker(reader CycleRecordReader, queue RecordQueue) *TrackerService {
	service := NewTrackerService(reader, queue, time.UTC)
	service.now = func() time.Time {
		return time.Date(2024, time.January, 14, 10, 0, 0, 0, time.UTC)
	}
	return service
}

func TestTrackerServiceKeepsSessionWhileRecordUnchanged(t *testing.T) {
	reader := &stubCycleRecordReader{
		record: models.CycleRecord{
			UserID:       7,
			CycleLength:  30,
			PeriodLength: 4,
			LockedDates:  []string{"2024-01-01", "not-a-date"},
			HasSetup:     true,
		},
		found: true,
	}
	service := newTestTracker(reader, &stubRecordQueue{})

	first := service.Session(7)
	snapshot := service.Snapshot(7)

	if service.Session(7) != first {
		t.Fatal("expected the cached session to be reused")
	}
	if snapshot.Config.CycleLength != 30 || snapshot.Config.PeriodLength != 4 || !snapshot.HasSetup {
		t.Fatalf("unexpected loaded snapshot: %+v", snapshot)
	}
	if len(snapshot.Locked) != 1 {
		t.Fatalf("expected invalid locked date skipped, got %d dates", len(snapshot.Locked))
	}
}

func TestTrackerServiceTreatsLoadFailureAsFirstTimeSetup(t *testing.T) {
	reader := &stubCycleRecordReader{err: errors.New("database is locked")}
	service := newTestTracker(reader, &stubRecordQueue{})

	snapshot := service.Snapshot(3)
	if snapshot.HasSetup {
		t.Fatal("expected first-time setup after load failure")
	}
	if snapshot.Config != DefaultCycleConfig() {
		t.Fatalf("expected default config, got %+v", snapshot.Config)
	}
	if snapshot.State != SessionEditing {
		t.Fatalf("expected editing state, got %s", snapshot.State)
	}
}

func TestTrackerServiceLockQueuesFullRecord(t *testing.T) {
	queue := &stubRecordQueue{}
	service := newTestTracker(&stubCycleRecordReader{}, queue)

	service.ToggleDate(5, mustParseDay(t, "2024-01-02"))
	service.ToggleDate(5, mustParseDay(t, "2024-01-01"))
	if len(queue.enqueued) != 0 {
		t.Fatalf("expected toggles to stay local, got %d saves", len(queue.enqueued))
	}

	if _, locked := service.LockPeriod(5); !locked {
		t.Fatal("expected lock to apply")
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected one queued save, got %d", len(queue.enqueued))
	}

	record := queue.enqueued[0]
	if record.UserID != 5 || record.CycleLength != 28 || record.PeriodLength != 5 {
		t.Fatalf("unexpected queued record: %+v", record)
	}
	assertDays(t, "locked dates", record.LockedDates, "2024-01-01", "2024-01-02")
}

func TestTrackerServiceSkipsPersistenceWithoutUser(t *testing.T) {
	queue := &stubRecordQueue{}
	service := newTestTracker(&stubCycleRecordReader{}, queue)

	service.ToggleDate(0, mustParseDay(t, "2024-01-01"))
	if _, locked := service.LockPeriod(0); !locked {
		t.Fatal("expected anonymous lock to apply locally")
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("expected no saves for anonymous session, got %d", len(queue.enqueued))
	}
}

func TestTrackerServiceSaveSettingsRejectsOutOfRange(t *testing.T) {
	queue := &stubRecordQueue{}
	service := newTestTracker(&stubCycleRecordReader{}, queue)

	if _, err := service.SaveSettings(1, CycleConfig{PeriodLength: 5, CycleLength: 40}); !errors.Is(err, ErrCycleLengthOutOfRange) {
		t.Fatalf("expected ErrCycleLengthOutOfRange, got %v", err)
	}
	if _, err := service.SaveSettings(1, CycleConfig{PeriodLength: 0, CycleLength: 28}); !errors.Is(err, ErrPeriodLengthOutOfRange) {
		t.Fatalf("expected ErrPeriodLengthOutOfRange, got %v", err)
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("expected rejected settings not to be saved, got %d", len(queue.enqueued))
	}

	snapshot, err := service.SaveSettings(1, CycleConfig{PeriodLength: 6, CycleLength: 30})
	if err != nil {
		t.Fatalf("SaveSettings returned error: %v", err)
	}
	if !snapshot.HasSetup || snapshot.Config.CycleLength != 30 {
		t.Fatalf("unexpected snapshot after settings: %+v", snapshot)
	}
	if len(queue.enqueued) != 1 || !queue.enqueued[0].HasSetup {
		t.Fatalf("expected one saved record with setup flag, got %+v", queue.enqueued)
	}
}

func TestTrackerServiceReportsSaveFailure(t *testing.T) {
	queue := &stubRecordQueue{failure: errors.New("disk full")}
	service := newTestTracker(&stubCycleRecordReader{}, queue)

	if err := service.SaveFailure(2); err == nil {
		t.Fatal("expected save failure to surface")
	}
	if err := service.SaveFailure(0); err != nil {
		t.Fatalf("expected no failure for anonymous session, got %v", err)
	}
}

func TestTrackerServiceMonthViewUsesClock(t *testing.T) {
	service := newTestTracker(&stubCycleRecordReader{}, &stubRecordQueue{})

	view := service.MonthView(9, NewMonthCursor(2024, time.January))
	today := findMonthCell(t, view, "2024-01-14")
	if !today.IsToday {
		t.Fatal("expected 2024-01-14 to be flagged as today")
	}
}

func TestTrackerServiceReloadsRecordChangedInStorage(t *testing.T) {
	reader := &stubCycleRecordReader{
		record: models.CycleRecord{
			UserID:       4,
			CycleLength:  28,
			PeriodLength: 5,
			LockedDates:  []string{"2024-01-01"},
			HasSetup:     true,
			UpdatedAt:    time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
		},
		found: true,
	}
	queue := &stubRecordQueue{}
	service := newTestTracker(reader, queue)

	if got := len(service.Snapshot(4).Locked); got != 1 {
		t.Fatalf("expected one locked day from storage, got %d", got)
	}

	reader.record = models.CycleRecord{
		UserID:       4,
		CycleLength:  28,
		PeriodLength: 5,
		LockedDates:  []string{},
		UpdatedAt:    time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
	}

	service.ToggleDate(4, mustParseDay(t, "2024-02-01"))
	snapshot, locked := service.LockPeriod(4)
	if !locked {
		t.Fatal("expected lock to apply on the reloaded session")
	}
	assertDays(t, "locked after reset", dayKeys(snapshot.Locked, time.UTC), "2024-02-01")
	assertDays(t, "saved after reset", queue.enqueued[0].LockedDates, "2024-02-01")
}

func TestTrackerServiceKeepsUnflushedChangesOverOlderRecord(t *testing.T) {
	reader := &stubCycleRecordReader{}
	service := newTestTracker(reader, &stubRecordQueue{})

	service.ToggleDate(6, mustParseDay(t, "2024-01-03"))
	service.LockPeriod(6)

	reader.record = models.CycleRecord{
		UserID:       6,
		CycleLength:  28,
		PeriodLength: 5,
		UpdatedAt:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	reader.found = true

	if got := len(service.Snapshot(6).Locked); got != 1 {
		t.Fatalf("expected the locally locked day to survive, got %d", got)
	}
}

func TestTrackerServiceEvictsIdleSessionsWithoutPendingSaves(t *testing.T) {
	queue := &stubRecordQueue{pending: map[uint]bool{2: true}}
	service := newTestTracker(&stubCycleRecordReader{}, queue)

	service.ToggleDate(1, mustParseDay(t, "2024-01-01"))
	service.Session(2)

	if evicted := service.EvictIdle(time.Hour); evicted != 0 {
		t.Fatalf("expected fresh sessions to stay, evicted %d", evicted)
	}

	service.now = func() time.Time {
		return time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	}
	if evicted := service.EvictIdle(time.Hour); evicted != 1 {
		t.Fatalf("expected one idle session evicted, got %d", evicted)
	}
	if got := len(service.Snapshot(1).Marked); got != 0 {
		t.Fatalf("expected a fresh session after eviction, got %d marked", got)
	}
}
