package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Placeholder is shown for dates that cannot be parsed.
const Placeholder = "-"

const (
	DateLayout     = "2006.01.02"
	DateTimeLayout = "2006.01.02 15:04"
)

var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006.01.02",
}

// ParseDate accepts the date shapes the API returns, interpreted in local time
// when they carry no zone.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatDate renders s as yyyy.MM.dd.
func FormatDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return Placeholder
	}
	return t.Format(DateLayout)
}

// FormatDateTime renders s as yyyy.MM.dd HH:mm.
func FormatDateTime(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return Placeholder
	}
	return t.Format(DateTimeLayout)
}

// FormatDateRange renders "start ~ end", collapsing a single-day range.
func FormatDateRange(start, end string) string {
	s, e := FormatDate(start), FormatDate(end)
	if s == Placeholder || e == Placeholder {
		return Placeholder
	}
	if s == e {
		return s
	}
	return s + " ~ " + e
}

// FormatYearMonth renders a calendar heading such as 2025.03.
func FormatYearMonth(year, month int) string {
	if month < 1 || month > 12 {
		return Placeholder
	}
	return fmt.Sprintf("%04d.%02d", year, month)
}

// NextMonth and PrevMonth step a (year, month) pair across year boundaries.
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

func PrevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DDay counts whole days from now until s: "D-7", "D-Day" or "ended".
func DDay(s string, now time.Time) string {
	t, err := ParseDate(s)
	if err != nil {
		return Placeholder
	}
	days := int(math.Round(midnight(t).Sub(midnight(now.In(t.Location()))).Hours() / 24))
	switch {
	case days < 0:
		return "ended"
	case days == 0:
		return "D-Day"
	default:
		return fmt.Sprintf("D-%d", days)
	}
}

// PerformanceStatus is where today falls relative to a run of shows.
type PerformanceStatus string

const (
	StatusUpcoming PerformanceStatus = "upcoming"
	StatusOngoing  PerformanceStatus = "ongoing"
	StatusEnded    PerformanceStatus = "ended"
	StatusUnknown  PerformanceStatus = Placeholder
)

// Status compares now with the start and end dates, by calendar day.
func Status(start, end string, now time.Time) PerformanceStatus {
	s, err1 := ParseDate(start)
	e, err2 := ParseDate(end)
	if err1 != nil || err2 != nil {
		return StatusUnknown
	}
	today := midnight(now.In(s.Location()))
	switch {
	case today.Before(midnight(s)):
		return StatusUpcoming
	case today.After(midnight(e)):
		return StatusEnded
	default:
		return StatusOngoing
	}
}
