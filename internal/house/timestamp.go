package house

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts. Stored timestamps always use TimestampLayout.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// Units the analytics queries select on.
const (
	TemperatureUnit = "°C"
	HumidityUnit    = "%"
)

// Layouts accepted on input. Fractional seconds after the seconds field
// are accepted by time.Parse without an explicit layout.
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	DateLayout,
}

// Measurement is a single sensor reading.
type Measurement struct {
	Timestamp string  `json:"ts"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

// Time parses the measurement timestamp as naive wall clock time.
func (m Measurement) Time() (time.Time, error) {
	return ParseTimestamp(m.Timestamp)
}

// ParseTimestamp parses an ISO-8601 style timestamp. The result carries
// the wall clock exactly as written; an explicit offset is dropped rather
// than converted, so "2024-01-27T08:00:00+01:00" is 08:00.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return wallClock(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalidQuery, s)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidQuery, s)
	}
	return t, nil
}

// FormatTimestamp renders t in the stored layout using its wall clock.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// DateOf returns the calendar date of t as YYYY-MM-DD.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// wallClock strips the location from t while keeping its clock reading.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
