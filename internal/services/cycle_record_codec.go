package services

import (
	"log"
	"time"

	"github.com/terraincognita07/cyclemark/internal/models"
)

func CycleRecordFromSnapshot(userID uint, snapshot CycleSnapshot, location *time.Location, now time.Time) models.CycleRecord {
	return models.CycleRecord{
		UserID:       userID,
		CycleLength:  snapshot.Config.CycleLength,
		PeriodLength: snapshot.Config.PeriodLength,
		LockedDates:  dayKeys(snapshot.Locked, location),
		HasSetup:     snapshot.HasSetup,
		UpdatedAt:    now.UTC(),
	}
}

// LockedDaysFromRecord parses the stored day strings, skipping any entry
// that is not a valid YYYY-MM-DD date.
func LockedDaysFromRecord(record models.CycleRecord, location *time.Location) []time.Time {
	days := make([]time.Time, 0, len(record.LockedDates))
	for _, raw := range record.LockedDates {
		day, err := ParseDay(raw, location)
		if err != nil {
			log.Printf("cycle record: skip invalid locked date %q for user %d", raw, record.UserID)
			continue
		}
		days = append(days, day)
	}
	return days
}

func CycleConfigFromRecord(record models.CycleRecord) CycleConfig {
	return ClampCycleConfig(CycleConfig{
		PeriodLength: record.PeriodLength,
		CycleLength:  record.CycleLength,
	})
}

func NewCycleSessionFromRecord(record models.CycleRecord, location *time.Location) *CycleSession {
	return NewCycleSession(CycleConfigFromRecord(record), LockedDaysFromRecord(record, location), record.HasSetup, location)
}
