package house

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/database"
)

// sortableTS orders stored timestamps written in either accepted
// date-time separator form.
const sortableTS = "replace(ts, 'T', ' ')"

// Logger defines the logging interface used by the repository.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Repository is the persistence and analytics surface of the house.
type Repository interface {
	// LoadHouse rebuilds the floor, room and device graph and overlays
	// the stored actuator states. An empty store yields an empty house.
	LoadHouse(ctx context.Context) (*House, error)

	// SaveHouse inserts or updates every room and device of h and
	// assigns IDs to new rooms.
	SaveHouse(ctx context.Context, h *House) error

	// GetLatestReading returns the newest reading of a device, or nil when
	// it has none or is not a sensor.
	GetLatestReading(ctx context.Context, deviceID string) (*Measurement, error)

	// GetLatestSensorMeasurements returns up to limit readings, newest
	// first. A limit of zero or less returns all of them.
	GetLatestSensorMeasurements(ctx context.Context, deviceID string, limit int) ([]Measurement, error)

	// AddMeasurement appends a reading. An empty timestamp means now.
	AddMeasurement(ctx context.Context, deviceID, timestamp string, value float64, unit string) error

	// DeleteOldestMeasurement removes the oldest reading of a device and
	// reports whether one existed.
	DeleteOldestMeasurement(ctx context.Context, deviceID string) (bool, error)

	// UpdateActuatorState stores the current state of an actuator.
	UpdateActuatorState(ctx context.Context, d *Device) error

	// GetActuatorState returns the stored state of an actuator, or nil.
	GetActuatorState(ctx context.Context, deviceID string) (*StoredActuatorState, error)

	// GetActuatorStateHistory returns past state writes, newest first.
	GetActuatorStateHistory(ctx context.Context, deviceID string, limit int) ([]StoredActuatorState, error)

	// CalcAvgTemperaturesInRoom returns the mean °C reading per date.
	CalcAvgTemperaturesInRoom(ctx context.Context, room *Room, fromDate, untilDate string) (map[string]float64, error)

	// CalcHoursWithHumidityAbove returns the hours of date with more than
	// three above-average humidity readings.
	CalcHoursWithHumidityAbove(ctx context.Context, room *Room, date string, opts ...HumidityOption) ([]int, error)

	// Reconnect reopens the store to observe writes by other processes.
	Reconnect(ctx context.Context) error
}

// StoredActuatorState is an actuator state row.
type StoredActuatorState struct {
	DeviceID  string        `json:"device"`
	State     ActuatorState `json:"state"`
	Timestamp string        `json:"ts"`
}

// SQLiteRepository implements Repository on the smart house database.
// Calls are serialised by the single pooled connection; Reconnect must
// not overlap other calls.
type SQLiteRepository struct {
	db     *database.DB
	logger Logger
	now    func() time.Time
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:     db,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the repository.
func (r *SQLiteRepository) SetLogger(logger Logger) {
	r.logger = logger
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// LoadHouse rebuilds the house graph from the store.
func (r *SQLiteRepository) LoadHouse(ctx context.Context) (*House, error) {
	h := NewHouse()

	rooms, err := r.loadRooms(ctx, h)
	if err != nil {
		return nil, err
	}
	if err := r.loadDevices(ctx, h, rooms); err != nil {
		return nil, err
	}
	if err := r.overlayActuatorStates(ctx, h); err != nil {
		return nil, err
	}

	r.logger.Debug("house loaded",
		"floors", len(h.floors),
		"rooms", len(rooms),
		"devices", len(h.Devices()),
	)
	return h, nil
}

func (r *SQLiteRepository) loadRooms(ctx context.Context, h *House) (map[int64]*Room, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, floor, area, name FROM rooms ORDER BY id")
	if err != nil {
		return nil, storageErr("querying rooms", err)
	}
	defer rows.Close()

	rooms := make(map[int64]*Room)
	for rows.Next() {
		var (
			id    int64
			level int
			area  float64
			name  string
		)
		if err := rows.Scan(&id, &level, &area, &name); err != nil {
			return nil, storageErr("scanning room", err)
		}
		room, err := h.RegisterRoom(h.RegisterFloor(level), area, name)
		if err != nil {
			return nil, fmt.Errorf("loading room %d: %w", id, err)
		}
		room.ID = id
		rooms[id] = room
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating rooms", err)
	}
	return rooms, nil
}

func (r *SQLiteRepository) loadDevices(ctx context.Context, h *House, rooms map[int64]*Room) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room, kind, category, supplier, product, unit
		FROM devices
		ORDER BY rowid`)
	if err != nil {
		return storageErr("querying devices", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d        Device
			roomID   int64
			category string
			unit     string
		)
		if err := rows.Scan(&d.ID, &roomID, &d.DeviceType, &category, &d.Supplier, &d.ModelName, &unit); err != nil {
			return storageErr("scanning device", err)
		}

		room, ok := rooms[roomID]
		if !ok {
			r.logger.Warn("skipping device in unknown room", "device_id", d.ID, "room_id", roomID)
			continue
		}
		isSensor, isActuator, err := parseCategory(category)
		if err != nil {
			r.logger.Warn("skipping device with unknown category", "device_id", d.ID, "error", err)
			continue
		}
		if isSensor {
			d.Sensor = &SensorRole{Unit: unit}
		}
		if isActuator {
			d.Actuator = &ActuatorRole{}
		}

		if err := h.RegisterDevice(room, &d); err != nil {
			r.logger.Warn("skipping device", "device_id", d.ID, "error", err)
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("iterating devices", err)
	}
	return nil
}

func (r *SQLiteRepository) overlayActuatorStates(ctx context.Context, h *House) error {
	rows, err := r.db.QueryContext(ctx, "SELECT device, state FROM actuator_states")
	if err != nil {
		return storageErr("querying actuator states", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return storageErr("scanning actuator state", err)
		}
		d := h.DeviceByID(id)
		if d == nil || !d.IsActuator() {
			continue
		}
		state, err := ParseActuatorState(raw)
		if err != nil {
			r.logger.Warn("ignoring stored actuator state", "device_id", id, "error", err)
			continue
		}
		d.Actuator.SetState(state)
	}
	if err := rows.Err(); err != nil {
		return storageErr("iterating actuator states", err)
	}
	return nil
}

// SaveHouse writes the rooms and devices of h in one transaction.
// Room IDs are assigned only once the transaction has committed.
func (r *SQLiteRepository) SaveHouse(ctx context.Context, h *House) error {
	if h == nil {
		return fmt.Errorf("%w: nil house", ErrInvalidQuery)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("saving house", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	rooms := h.Rooms()
	ids := make([]int64, len(rooms))
	for i, room := range rooms {
		id, err := saveRoom(ctx, tx, room.floor.Level, room)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for i, room := range rooms {
		for _, d := range room.devices {
			if err := saveDevice(ctx, tx, ids[i], d); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing house", err)
	}

	for i, room := range rooms {
		room.ID = ids[i]
	}
	r.logger.Info("house saved", "rooms", len(rooms))
	return nil
}

func saveRoom(ctx context.Context, tx *sql.Tx, level int, room *Room) (int64, error) {
	if room.ID == 0 {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO rooms (floor, area, name) VALUES (?, ?, ?)",
			level, room.Size, room.Name,
		)
		if err != nil {
			return 0, storageErr("inserting room", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, storageErr("reading room id", err)
		}
		return id, nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (id, floor, area, name) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			floor = excluded.floor,
			area = excluded.area,
			name = excluded.name`,
		room.ID, level, room.Size, room.Name,
	)
	if err != nil {
		return 0, storageErr("updating room", err)
	}
	return room.ID, nil
}

func saveDevice(ctx context.Context, tx *sql.Tx, roomID int64, d *Device) error {
	var unit string
	if d.Sensor != nil {
		unit = d.Sensor.Unit
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO devices (id, room, kind, category, supplier, product, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room = excluded.room,
			kind = excluded.kind,
			category = excluded.category,
			supplier = excluded.supplier,
			product = excluded.product,
			unit = excluded.unit`,
		d.ID, roomID, d.DeviceType, d.category(), d.Supplier, d.ModelName, unit,
	)
	if err != nil {
		return storageErr("saving device "+d.ID, err)
	}
	return nil
}

// isStoredNonSensor reports whether deviceID is stored without the sensor
// role. Unknown devices are not excluded since readings may arrive first.
func (r *SQLiteRepository) isStoredNonSensor(ctx context.Context, deviceID string) (bool, error) {
	var category string
	err := r.db.QueryRowContext(ctx, "SELECT category FROM devices WHERE id = ?", deviceID).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("querying device category", err)
	}
	isSensor, _, err := parseCategory(category)
	if err != nil {
		return false, err
	}
	return !isSensor, nil
}

// GetLatestReading returns the newest reading of deviceID.
func (r *SQLiteRepository) GetLatestReading(ctx context.Context, deviceID string) (*Measurement, error) {
	ms, err := r.GetLatestSensorMeasurements(ctx, deviceID, 1)
	if err != nil || len(ms) == 0 {
		return nil, err
	}
	return &ms[0], nil
}

// GetLatestSensorMeasurements returns readings of deviceID, newest first.
// Readings are ordered by wall clock whether their date and time are
// separated by a space or a "T".
func (r *SQLiteRepository) GetLatestSensorMeasurements(ctx context.Context, deviceID string, limit int) ([]Measurement, error) {
	nonSensor, err := r.isStoredNonSensor(ctx, deviceID)
	if err != nil || nonSensor {
		return nil, err
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, value, unit
		FROM measurements
		WHERE device = ?
		ORDER BY `+sortableTS+` DESC, rowid DESC
		LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, storageErr("querying measurements", err)
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.Timestamp, &m.Value, &m.Unit); err != nil {
			return nil, storageErr("scanning measurement", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating measurements", err)
	}
	return out, nil
}

// AddMeasurement appends a reading for deviceID.
func (r *SQLiteRepository) AddMeasurement(ctx context.Context, deviceID, timestamp string, value float64, unit string) error {
	if strings.TrimSpace(deviceID) == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidQuery)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value %v", ErrInvalidQuery, value)
	}

	ts := r.now()
	if strings.TrimSpace(timestamp) != "" {
		parsed, err := ParseTimestamp(timestamp)
		if err != nil {
			return err
		}
		ts = parsed
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO measurements (device, ts, value, unit) VALUES (?, ?, ?, ?)",
		deviceID, FormatTimestamp(ts), value, unit,
	)
	if err != nil {
		return storageErr("inserting measurement", err)
	}
	return nil
}

// DeleteOldestMeasurement evicts the oldest reading of deviceID.
func (r *SQLiteRepository) DeleteOldestMeasurement(ctx context.Context, deviceID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM measurements
		WHERE rowid = (
			SELECT rowid FROM measurements
			WHERE device = ?
			ORDER BY `+sortableTS+` ASC, rowid ASC
			LIMIT 1
		)`,
		deviceID,
	)
	if err != nil {
		return false, storageErr("deleting oldest measurement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("deleting oldest measurement", err)
	}
	return n > 0, nil
}

// UpdateActuatorState upserts the current state of d and appends it to
// the state history in the same transaction.
func (r *SQLiteRepository) UpdateActuatorState(ctx context.Context, d *Device) error {
	if d == nil || !d.IsActuator() {
		return fmt.Errorf("%w: not an actuator", ErrInvalidDevice)
	}

	state := d.Actuator.State().String()
	ts := FormatTimestamp(r.now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("updating actuator state", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO actuator_states (device, state, ts) VALUES (?, ?, ?)
		ON CONFLICT(device) DO UPDATE SET state = excluded.state, ts = excluded.ts`,
		d.ID, state, ts,
	); err != nil {
		return storageErr("upserting actuator state", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO actuator_state_history (device, state, ts) VALUES (?, ?, ?)",
		d.ID, state, ts,
	); err != nil {
		return storageErr("appending actuator history", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing actuator state", err)
	}

	r.logger.Debug("actuator state stored", "device_id", d.ID, "state", state)
	return nil
}

// GetActuatorState returns the stored current state of deviceID.
func (r *SQLiteRepository) GetActuatorState(ctx context.Context, deviceID string) (*StoredActuatorState, error) {
	var s StoredActuatorState
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT device, state, ts FROM actuator_states WHERE device = ?", deviceID,
	).Scan(&s.DeviceID, &raw, &s.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("querying actuator state", err)
	}
	if s.State, err = ParseActuatorState(raw); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActuatorStateHistory returns up to limit state writes, newest first.
func (r *SQLiteRepository) GetActuatorStateHistory(ctx context.Context, deviceID string, limit int) ([]StoredActuatorState, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT device, state, ts
		FROM actuator_state_history
		WHERE device = ?
		ORDER BY id DESC
		LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, storageErr("querying actuator history", err)
	}
	defer rows.Close()

	var out []StoredActuatorState
	for rows.Next() {
		var s StoredActuatorState
		var raw string
		if err := rows.Scan(&s.DeviceID, &raw, &s.Timestamp); err != nil {
			return nil, storageErr("scanning actuator history", err)
		}
		if s.State, err = ParseActuatorState(raw); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating actuator history", err)
	}
	return out, nil
}

// Reconnect reopens the underlying database handle.
func (r *SQLiteRepository) Reconnect(ctx context.Context) error {
	if err := r.db.Reconnect(ctx); err != nil {
		return storageErr("reconnecting", err)
	}
	r.logger.Info("repository reconnected", "path", r.db.Path())
	return nil
}

// Compile-time check that SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)
