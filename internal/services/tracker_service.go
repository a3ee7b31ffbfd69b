package services

import (
	"log"
	"sync"
	"time"

	"github.com/terraincognita07/cyclemark/internal/models"
)

type CycleRecordReader interface {
	FindByUserID(userID uint) (models.CycleRecord, bool, error)
}

type RecordQueue interface {
	Enqueue(record models.CycleRecord)
	Pending(userID uint) bool
	LastFailure(userID uint) error
}

// TrackerService keeps one CycleSession per user in memory, loading it from
// storage on first use. State changes are applied locally first and then
// queued for persistence; a failed save never rolls the session back.
//
// Every access re-reads the stored record. A record whose UpdatedAt is newer
// than the last version this service loaded or wrote was changed out of band
// (reset-history) and replaces the cached session.
type TrackerService struct {
	records  CycleRecordReader
	queue    RecordQueue
	location *time.Location
	now      func() time.Time

	mu       sync.Mutex
	sessions map[uint]*trackedSession
}

type trackedSession struct {
	session  *CycleSession
	version  time.Time
	lastUsed time.Time
}

func NewTrackerService(records CycleRecordReader, queue RecordQueue, location *time.Location) *TrackerService {
	if location == nil {
		location = time.UTC
	}
	return &TrackerService{
		records:  records,
		queue:    queue,
		location: location,
		now:      time.Now,
		sessions: make(map[uint]*trackedSession),
	}
}

func (service *TrackerService) Location() *time.Location {
	return service.location
}

// Session returns the user's live session. A failed or empty load starts a
// first-time session with default settings.
func (service *TrackerService) Session(userID uint) *CycleSession {
	record, found, err := service.readRecord(userID)

	service.mu.Lock()
	defer service.mu.Unlock()

	now := service.now()
	tracked, cached := service.sessions[userID]
	if cached {
		tracked.lastUsed = now
		if err != nil || !found || !record.UpdatedAt.After(tracked.version) {
			return tracked.session
		}
		log.Printf("tracker: record for user %d changed in storage, reloading", userID)
	}

	if err != nil {
		log.Printf("tracker: load record failed for user %d: %v", userID, err)
	}
	tracked = &trackedSession{lastUsed: now}
	if err == nil && found {
		tracked.session = NewCycleSessionFromRecord(record, service.location)
		tracked.version = record.UpdatedAt
	} else {
		tracked.session = NewCycleSession(DefaultCycleConfig(), nil, false, service.location)
	}
	service.sessions[userID] = tracked
	return tracked.session
}

func (service *TrackerService) readRecord(userID uint) (models.CycleRecord, bool, error) {
	if userID == 0 || service.records == nil {
		return models.CycleRecord{}, false, nil
	}
	return service.records.FindByUserID(userID)
}

// EvictIdle drops sessions unused for longer than idle and returns how many
// were removed. Sessions with a save still queued stay cached, so a reload
// never reads a record older than the session. Marked but unlocked days of
// an evicted session are lost.
func (service *TrackerService) EvictIdle(idle time.Duration) int {
	service.mu.Lock()
	defer service.mu.Unlock()

	threshold := service.now().Add(-idle)
	evicted := 0
	for userID, tracked := range service.sessions {
		if tracked.lastUsed.After(threshold) {
			continue
		}
		if service.queue != nil && service.queue.Pending(userID) {
			continue
		}
		delete(service.sessions, userID)
		evicted++
	}
	return evicted
}

func (service *TrackerService) Snapshot(userID uint) CycleSnapshot {
	return service.Session(userID).Snapshot()
}

func (service *TrackerService) ToggleDate(userID uint, day time.Time) (CycleSnapshot, bool) {
	session := service.Session(userID)
	changed := session.ToggleDate(day)
	return session.Snapshot(), changed
}

func (service *TrackerService) MarkDates(userID uint, days []time.Time) (CycleSnapshot, int) {
	session := service.Session(userID)
	added := session.MarkDates(days)
	return session.Snapshot(), added
}

func (service *TrackerService) LockPeriod(userID uint) (CycleSnapshot, bool) {
	snapshot, locked := service.Session(userID).LockPeriod()
	if locked {
		service.persist(userID, snapshot)
	}
	return snapshot, locked
}

func (service *TrackerService) StartNewPeriod(userID uint) (CycleSnapshot, bool) {
	return service.Session(userID).StartNewPeriod()
}

// SaveSettings rejects out-of-range values; the session itself would clamp
// them silently.
func (service *TrackerService) SaveSettings(userID uint, config CycleConfig) (CycleSnapshot, error) {
	if err := ValidateCycleConfig(config); err != nil {
		return CycleSnapshot{}, err
	}
	snapshot := service.Session(userID).UpdateConfig(config)
	service.persist(userID, snapshot)
	return snapshot, nil
}

func (service *TrackerService) MonthView(userID uint, month MonthCursor) MonthView {
	return BuildMonthView(month, service.Snapshot(userID), service.now(), service.location)
}

// SaveFailure reports the last failed save for the user, if it has not been
// superseded by a successful one.
func (service *TrackerService) SaveFailure(userID uint) error {
	if service.queue == nil || userID == 0 {
		return nil
	}
	return service.queue.LastFailure(userID)
}

func (service *TrackerService) persist(userID uint, snapshot CycleSnapshot) {
	if service.queue == nil || userID == 0 {
		return
	}
	record := CycleRecordFromSnapshot(userID, snapshot, service.location, service.now())

	service.mu.Lock()
	if tracked, ok := service.sessions[userID]; ok && record.UpdatedAt.After(tracked.version) {
		tracked.version = record.UpdatedAt
	}
	service.mu.Unlock()

	service.queue.Enqueue(record)
}
