package house

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// humidityThreshold is the number of above-average readings an hour must
// exceed to be reported.
const humidityThreshold = 3

// HumidityOption adjusts CalcHoursWithHumidityAbove.
type HumidityOption func(*humidityQuery)

type humidityQuery struct {
	prefixMatch     bool
	sameDayBaseline bool
}

// WithPrefixMatch includes every room whose name starts with the queried
// room's name, so "Bathroom 1" also covers "Bathroom 10".
func WithPrefixMatch() HumidityOption {
	return func(q *humidityQuery) { q.prefixMatch = true }
}

// WithSameDayBaseline averages each device over the queried date only
// instead of over all of its readings.
func WithSameDayBaseline() HumidityOption {
	return func(q *humidityQuery) { q.sameDayBaseline = true }
}

// CalcAvgTemperaturesInRoom groups the °C readings of devices in room by
// calendar date and returns the mean per date. Either bound may be empty;
// both are inclusive. Dates without readings are absent.
func (r *SQLiteRepository) CalcAvgTemperaturesInRoom(ctx context.Context, room *Room, fromDate, untilDate string) (map[string]float64, error) {
	if room == nil {
		return nil, fmt.Errorf("%w: nil room", ErrInvalidQuery)
	}
	if room.ID == 0 {
		return nil, fmt.Errorf("%w: %q", ErrRoomNotStored, room.Name)
	}

	var from, until time.Time
	var err error
	if fromDate != "" {
		if from, err = ParseDate(fromDate); err != nil {
			return nil, err
		}
	}
	if untilDate != "" {
		if until, err = ParseDate(untilDate); err != nil {
			return nil, err
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.ts, m.value
		FROM measurements m
		JOIN devices d ON d.id = m.device
		WHERE d.room = ? AND m.unit = ?`,
		room.ID, TemperatureUnit,
	)
	if err != nil {
		return nil, storageErr("querying temperatures", err)
	}
	defer rows.Close()

	type acc struct {
		sum   float64
		count int
	}
	byDate := make(map[string]*acc)

	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.Timestamp, &m.Value); err != nil {
			return nil, storageErr("scanning temperature", err)
		}
		ts, ok := r.measurementTime(m)
		if !ok {
			continue
		}
		day := truncateToDate(ts)
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !until.IsZero() && day.After(until) {
			continue
		}

		key := DateOf(day)
		a, ok := byDate[key]
		if !ok {
			a = &acc{}
			byDate[key] = a
		}
		a.sum += m.Value
		a.count++
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating temperatures", err)
	}

	out := make(map[string]float64, len(byDate))
	for date, a := range byDate {
		out[date] = a.sum / float64(a.count)
	}
	return out, nil
}

// CalcHoursWithHumidityAbove returns, in ascending order, the hours of
// date in which more than three humidity readings exceeded the average of
// the device that took them. Devices are selected by the name of room.
func (r *SQLiteRepository) CalcHoursWithHumidityAbove(ctx context.Context, room *Room, date string, opts ...HumidityOption) ([]int, error) {
	if room == nil {
		return nil, fmt.Errorf("%w: nil room", ErrInvalidQuery)
	}
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	var q humidityQuery
	for _, opt := range opts {
		opt(&q)
	}

	query := `
		SELECT m.device, m.ts, m.value
		FROM measurements m
		JOIN devices d ON d.id = m.device
		JOIN rooms r ON r.id = d.room
		WHERE m.unit = ? AND `
	nameArg := room.Name
	if q.prefixMatch {
		query += `r.name LIKE ? ESCAPE '\'`
		nameArg = likeEscape(room.Name) + "%"
	} else {
		query += `r.name = ?`
	}

	rows, err := r.db.QueryContext(ctx, query, HumidityUnit, nameArg)
	if err != nil {
		return nil, storageErr("querying humidity", err)
	}
	defer rows.Close()

	type reading struct {
		device string
		hour   int
		value  float64
	}
	type acc struct {
		sum   float64
		count int
	}
	baseline := make(map[string]*acc)
	var onDay []reading

	for rows.Next() {
		var device string
		var m Measurement
		if err := rows.Scan(&device, &m.Timestamp, &m.Value); err != nil {
			return nil, storageErr("scanning humidity", err)
		}
		ts, ok := r.measurementTime(m)
		if !ok {
			continue
		}

		sameDay := truncateToDate(ts).Equal(day)
		if sameDay {
			onDay = append(onDay, reading{device: device, hour: ts.Hour(), value: m.Value})
		}
		if sameDay || !q.sameDayBaseline {
			a, ok := baseline[device]
			if !ok {
				a = &acc{}
				baseline[device] = a
			}
			a.sum += m.Value
			a.count++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating humidity", err)
	}

	counts := make(map[int]int)
	for _, rd := range onDay {
		a := baseline[rd.device]
		if rd.value > a.sum/float64(a.count) {
			counts[rd.hour]++
		}
	}

	hours := []int{}
	for hour, n := range counts {
		if n > humidityThreshold {
			hours = append(hours, hour)
		}
	}
	sort.Ints(hours)
	return hours, nil
}

// measurementTime parses a stored timestamp. Rows in an unknown layout
// are logged and skipped.
func (r *SQLiteRepository) measurementTime(m Measurement) (time.Time, bool) {
	ts, err := m.Time()
	if err != nil {
		r.logger.Warn("skipping measurement with malformed timestamp", "ts", m.Timestamp, "error", err)
		return time.Time{}, false
	}
	return ts, true
}

// truncateToDate drops the clock part of a naive timestamp.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// likeEscape escapes LIKE wildcards using backslash as escape character.
func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
