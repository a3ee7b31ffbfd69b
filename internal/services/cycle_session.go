package services

import (
	"sync"
	"time"
)

type SessionState string

const (
	SessionEditing SessionState = "editing"
	SessionLocked  SessionState = "locked"
)

// CycleSnapshot is a consistent copy of a session taken under its lock.
type CycleSnapshot struct {
	Config   CycleConfig
	State    SessionState
	HasSetup bool
	Marked   []time.Time
	Locked   []time.Time
}

func (snapshot CycleSnapshot) Predictor(location *time.Location) CyclePredictor {
	return NewCyclePredictor(snapshot.Config, snapshot.Locked, location)
}

func (snapshot CycleSnapshot) IsMarked(day time.Time, location *time.Location) bool {
	if day.IsZero() {
		return false
	}
	key := DayKey(day, location)
	for _, marked := range snapshot.Marked {
		if DayKey(marked, location) == key {
			return true
		}
	}
	return false
}

// CycleSession holds one user's tracker state between requests. Every
// method runs under the session mutex, so a transition is never observed
// half-applied.
//
// marked is only non-nil while editing; the locked state carries no
// selection.
type CycleSession struct {
	mu       sync.Mutex
	location *time.Location
	config   CycleConfig
	hasSetup bool
	state    SessionState
	marked   map[string]time.Time
	locked   map[string]time.Time
}

func NewCycleSession(config CycleConfig, lockedDays []time.Time, hasSetup bool, location *time.Location) *CycleSession {
	if location == nil {
		location = time.UTC
	}

	session := &CycleSession{
		location: location,
		config:   ClampCycleConfig(config),
		hasSetup: hasSetup,
		state:    SessionEditing,
		marked:   make(map[string]time.Time),
		locked:   make(map[string]time.Time, len(lockedDays)),
	}
	for _, day := range lockedDays {
		if day.IsZero() {
			continue
		}
		normalized := DateAtLocation(day, location)
		session.locked[normalized.Format(DayLayout)] = normalized
	}
	return session
}

func (session *CycleSession) Snapshot() CycleSnapshot {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked()
}

func (session *CycleSession) State() SessionState {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state
}

func (session *CycleSession) IsMarked(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	_, ok := session.marked[DayKey(day, session.location)]
	return ok
}

// ToggleDate flips the day's membership in the current selection. It does
// nothing outside the editing state or for a zero (blank cell) date.
func (session *CycleSession) ToggleDate(day time.Time) bool {
	if day.IsZero() {
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != SessionEditing {
		return false
	}

	normalized := DateAtLocation(day, session.location)
	key := normalized.Format(DayLayout)
	if _, ok := session.marked[key]; ok {
		delete(session.marked, key)
	} else {
		session.marked[key] = normalized
	}
	return true
}

// MarkDates adds days to the selection without removing any, returning how
// many were new. Used for calendar imports.
func (session *CycleSession) MarkDates(days []time.Time) int {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != SessionEditing {
		return 0
	}

	added := 0
	for _, day := range days {
		if day.IsZero() {
			continue
		}
		normalized := DateAtLocation(day, session.location)
		key := normalized.Format(DayLayout)
		if _, ok := session.marked[key]; ok {
			continue
		}
		session.marked[key] = normalized
		added++
	}
	return added
}

// LockPeriod moves the selection into the locked history. ok is false when
// the session is not editing or nothing is selected.
func (session *CycleSession) LockPeriod() (CycleSnapshot, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != SessionEditing || len(session.marked) == 0 {
		return session.snapshotLocked(), false
	}

	for key, day := range session.marked {
		session.locked[key] = day
	}
	session.marked = nil
	session.state = SessionLocked
	return session.snapshotLocked(), true
}

func (session *CycleSession) StartNewPeriod() (CycleSnapshot, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != SessionLocked {
		return session.snapshotLocked(), false
	}

	session.state = SessionEditing
	session.marked = make(map[string]time.Time)
	return session.snapshotLocked(), true
}

// UpdateConfig stores the clamped config and marks the setup as done.
func (session *CycleSession) UpdateConfig(config CycleConfig) CycleSnapshot {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.config = ClampCycleConfig(config)
	session.hasSetup = true
	return session.snapshotLocked()
}

func (session *CycleSession) snapshotLocked() CycleSnapshot {
	return CycleSnapshot{
		Config:   session.config,
		State:    session.state,
		HasSetup: session.hasSetup,
		Marked:   sortedDays(session.marked),
		Locked:   sortedDays(session.locked),
	}
}
