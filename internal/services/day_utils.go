package services

import (
	"sort"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayKey identifies a calendar day independent of time of day.
func DayKey(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(DayLayout)
}

func ParseDay(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	parsed, err := time.ParseInLocation(DayLayout, strings.TrimSpace(raw), location)
	if err != nil {
		return time.Time{}, err
	}
	return DateAtLocation(parsed, location), nil
}

func AddDays(day time.Time, days int) time.Time {
	return DateAtLocation(day.AddDate(0, 0, days), day.Location())
}

func betweenDaysInclusive(day time.Time, start time.Time, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return !day.Before(start) && !day.After(end)
}

func sortedDays(days map[string]time.Time) []time.Time {
	result := make([]time.Time, 0, len(days))
	for _, day := range days {
		result = append(result, day)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Before(result[j])
	})
	return result
}

func dayKeys(days []time.Time, location *time.Location) []string {
	keys := make([]string, 0, len(days))
	for _, day := range days {
		keys = append(keys, DayKey(day, location))
	}
	return keys
}
