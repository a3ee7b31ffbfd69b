package models

import "time"

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5

	MinCycleLength  = 21
	MaxCycleLength  = 35
	MinPeriodLength = 1
	MaxPeriodLength = 10
)

// CycleRecord is the persisted state of one user's tracker: the cycle
// settings plus every locked period day as a YYYY-MM-DD string.
type CycleRecord struct {
	UserID       uint      `gorm:"primaryKey;autoIncrement:false"`
	CycleLength  int       `gorm:"not null;default:28"`
	PeriodLength int       `gorm:"not null;default:5"`
	LockedDates  []string  `gorm:"serializer:json"`
	HasSetup     bool      `gorm:"not null;default:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}
