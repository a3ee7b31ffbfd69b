package services

import (
	"errors"

	"github.com/terraincognita07/cyclemark/internal/models"
)

var (
	ErrCycleLengthOutOfRange  = errors.New("cycle length out of range")
	ErrPeriodLengthOutOfRange = errors.New("period length out of range")
)

type CycleConfig struct {
	PeriodLength int `json:"period_length"`
	CycleLength  int `json:"cycle_length"`
}

func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		PeriodLength: models.DefaultPeriodLength,
		CycleLength:  models.DefaultCycleLength,
	}
}

func IsValidCycleLength(value int) bool {
	return value >= models.MinCycleLength && value <= models.MaxCycleLength
}

func IsValidPeriodLength(value int) bool {
	return value >= models.MinPeriodLength && value <= models.MaxPeriodLength
}

func ValidateCycleConfig(config CycleConfig) error {
	if !IsValidCycleLength(config.CycleLength) {
		return ErrCycleLengthOutOfRange
	}
	if !IsValidPeriodLength(config.PeriodLength) {
		return ErrPeriodLengthOutOfRange
	}
	return nil
}

// ClampCycleConfig forces both lengths into their allowed ranges. The period
// maximum is below the cycle minimum, so the result always keeps
// PeriodLength < CycleLength.
func ClampCycleConfig(config CycleConfig) CycleConfig {
	return CycleConfig{
		PeriodLength: clampInt(config.PeriodLength, models.MinPeriodLength, models.MaxPeriodLength),
		CycleLength:  clampInt(config.CycleLength, models.MinCycleLength, models.MaxCycleLength),
	}
}

func clampInt(value int, minValue int, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
