package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for game dates and feature keys.
const DateLayout = "2006-01-02"

// ParseSeason returns the starting year of a season label such as "2024-25".
func ParseSeason(label string) (int, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid season label %q", label)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid season label %q: %w", label, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid season label %q: %w", label, err)
	}
	if (start+1)%100 != end {
		return 0, fmt.Errorf("invalid season label %q: years are not consecutive", label)
	}
	return start, nil
}

// SeasonLabel formats a starting year as a season label.
func SeasonLabel(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// SeasonWindow returns the nominal [start, end) window of a season: November 1
// of the starting year through April 30 of the following year.
func SeasonWindow(label string) (time.Time, time.Time, error) {
	year, err := ParseSeason(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.May, 1, 0, 0, 0, 0, time.UTC)
	return start, end, nil
}

// InSeasonWindow reports whether date falls inside the season's nominal window.
func InSeasonWindow(label string, date time.Time) bool {
	start, end, err := SeasonWindow(label)
	if err != nil {
		return false
	}
	return !date.Before(start) && date.Before(end)
}

// SeasonForDate returns the label of the season whose window contains date.
func SeasonForDate(date time.Time) (string, bool) {
	switch {
	case date.Month() >= time.November:
		return SeasonLabel(date.Year()), true
	case date.Month() <= time.April:
		return SeasonLabel(date.Year() - 1), true
	default:
		return "", false
	}
}

// PreviousSeason returns the label of the season before label.
func PreviousSeason(label string) (string, error) {
	year, err := ParseSeason(label)
	if err != nil {
		return "", err
	}
	return SeasonLabel(year - 1), nil
}

// SeasonsBetween returns how many seasons older is than current (0 when equal,
// negative when older is actually newer).
func SeasonsBetween(current, older string) (int, error) {
	c, err := ParseSeason(current)
	if err != nil {
		return 0, err
	}
	o, err := ParseSeason(older)
	if err != nil {
		return 0, err
	}
	return c - o, nil
}

// TruncateDay drops the time-of-day component of t, in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
