package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/r1nov8/ing301gruppeA2/internal/house"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/mqtt"
)

// Store is the part of house.Repository the service writes through.
type Store interface {
	AddMeasurement(ctx context.Context, deviceID, timestamp string, value float64, unit string) error
	UpdateActuatorState(ctx context.Context, d *house.Device) error
	GetActuatorState(ctx context.Context, deviceID string) (*house.StoredActuatorState, error)
}

// Mirror receives a copy of every stored reading.
// It is satisfied by *influxdb.Client.
type Mirror interface {
	WriteMeasurement(deviceID, unit string, value float64, ts time.Time)
}

// MQTTClient is the broker surface used by the service.
// It is satisfied by *mqtt.Client.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishJSON(topic string, v any, retained bool) error
	Topics() mqtt.Topics
	QoS() byte
}

// Logger defines the logging interface used by the service.
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

// Options holds the dependencies of a Service.
type Options struct {
	// House is the loaded device graph. Required.
	House *house.House

	// Store persists readings and actuator states. Required.
	Store Store

	// MQTT is optional. Without it the service only serves Kafka and
	// direct calls, and actuator states are not published.
	MQTT MQTTClient

	// Mirror is optional.
	Mirror Mirror

	// Logger is optional.
	Logger Logger
}

// Metrics are running counters of the service.
type Metrics struct {
	MeasurementsStored uint64
	CommandsApplied    uint64
	Rejected           uint64
}

// Service turns inbound readings and actuator commands into repository
// writes. The in-memory house is guarded by the service mutex, so
// commands for the same device are applied one at a time.
type Service struct {
	house  *house.House
	store  Store
	mqtt   MQTTClient
	mirror Mirror
	logger Logger
	now    func() time.Time

	mu sync.Mutex

	measurements atomic.Uint64
	commands     atomic.Uint64
	rejected     atomic.Uint64

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
}

// New creates a service. Call Start to subscribe to MQTT.
func New(opts Options) (*Service, error) {
	if opts.House == nil {
		return nil, fmt.Errorf("house is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		house:     opts.House,
		store:     opts.Store,
		mqtt:      opts.MQTT,
		mirror:    opts.Mirror,
		logger:    logger,
		now:       time.Now,
		ctx:       ctx,
		ctxCancel: cancel,
	}, nil
}

// Start subscribes to the sensor measurement and actuator command topics.
// It is a no-op without an MQTT client.
func (s *Service) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrStopped
	}
	if s.mqtt == nil {
		s.logger.Info("ingest started without mqtt")
		return nil
	}

	topics := s.mqtt.Topics()
	for _, topic := range []string{topics.AllSensorMeasurements(), topics.AllActuatorCommands()} {
		if err := s.mqtt.Subscribe(topic, s.mqtt.QoS(), s.HandleMQTT); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		s.logger.Info("subscribed", "topic", topic)
	}
	return nil
}

// Stop cancels in-flight work started from MQTT callbacks.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.ctxCancel()
		s.logger.Info("ingest stopped")
	})
}

// HandleMQTT routes a message received on a device topic.
func (s *Service) HandleMQTT(topic string, payload []byte) error {
	if s.ctx.Err() != nil {
		return ErrStopped
	}
	if s.mqtt == nil {
		return fmt.Errorf("%w: no mqtt client", mqtt.ErrUnknownTopic)
	}

	dt, err := s.mqtt.Topics().ParseDeviceTopic(topic)
	if err != nil {
		s.rejected.Add(1)
		return err
	}

	switch {
	case dt.Kind == mqtt.KindSensor && dt.Leaf == mqtt.LeafMeasurement:
		msg, err := DecodeMeasurement(payload)
		if err != nil {
			s.reject("measurement rejected", dt.DeviceID, err)
			return err
		}
		return s.RecordMeasurement(s.ctx, dt.DeviceID, msg)

	case dt.Kind == mqtt.KindActuator && dt.Leaf == mqtt.LeafCommand:
		state, err := DecodeCommand(payload)
		if err != nil {
			s.reject("command rejected", dt.DeviceID, err)
			return err
		}
		_, err = s.ApplyCommand(s.ctx, dt.DeviceID, state)
		return err

	default:
		// Retained state echoes are ignored.
		return nil
	}
}

// HandleKafka stores one reading from the measurement topic. The device
// in the body takes precedence over the message key.
func (s *Service) HandleKafka(ctx context.Context, key, value []byte) error {
	msg, err := DecodeMeasurement(value)
	if err != nil {
		s.reject("kafka measurement rejected", string(key), err)
		return err
	}
	deviceID := msg.DeviceID
	if deviceID == "" {
		deviceID = strings.TrimSpace(string(key))
	}
	return s.RecordMeasurement(ctx, deviceID, msg)
}

// RecordMeasurement stores a reading for deviceID, remembers it on the
// in-memory sensor and mirrors it. A missing unit is taken from the
// device's sensor role when the device is known.
func (s *Service) RecordMeasurement(ctx context.Context, deviceID string, msg MeasurementMessage) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		err := fmt.Errorf("%w: device id is required", ErrInvalidPayload)
		s.reject("measurement rejected", deviceID, err)
		return err
	}
	if msg.Value == nil || math.IsNaN(*msg.Value) || math.IsInf(*msg.Value, 0) {
		err := fmt.Errorf("%w: value is required", ErrInvalidPayload)
		s.reject("measurement rejected", deviceID, err)
		return err
	}
	value := *msg.Value

	ts := s.now()
	if msg.Timestamp != "" {
		parsed, err := house.ParseTimestamp(msg.Timestamp)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			s.reject("measurement rejected", deviceID, err)
			return err
		}
		ts = parsed
	}
	m := house.Measurement{
		Timestamp: house.FormatTimestamp(ts),
		Value:     value,
		Unit:      msg.Unit,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.house.DeviceByID(deviceID)
	if m.Unit == "" && d != nil && d.IsSensor() {
		m.Unit = d.Sensor.Unit
	}

	if err := s.store.AddMeasurement(ctx, deviceID, m.Timestamp, m.Value, m.Unit); err != nil {
		s.logger.Error("storing measurement failed", "device_id", deviceID, "error", err)
		return err
	}
	s.measurements.Add(1)

	if d != nil && d.IsSensor() {
		d.Sensor.Record(m)
	} else {
		s.logger.Debug("measurement for device without sensor role", "device_id", deviceID)
	}
	if s.mirror != nil {
		s.mirror.WriteMeasurement(deviceID, m.Unit, m.Value, ts)
	}
	return nil
}

// ApplyCommand sets the state of an actuator, persists it and publishes
// the stored state retained on the device's state topic. The in-memory
// state is restored if persisting fails.
func (s *Service) ApplyCommand(ctx context.Context, deviceID string, state house.ActuatorState) (*house.StoredActuatorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.house.DeviceByID(deviceID)
	if d == nil {
		err := fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
		s.reject("command rejected", deviceID, err)
		return nil, err
	}
	if !d.IsActuator() {
		err := fmt.Errorf("%w: %s", ErrNotActuator, deviceID)
		s.reject("command rejected", deviceID, err)
		return nil, err
	}

	prev := d.Actuator.State()
	d.Actuator.SetState(state)
	if err := s.store.UpdateActuatorState(ctx, d); err != nil {
		d.Actuator.SetState(prev)
		s.logger.Error("storing actuator state failed", "device_id", deviceID, "error", err)
		return nil, err
	}
	s.commands.Add(1)

	stored, err := s.store.GetActuatorState(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = &house.StoredActuatorState{
			DeviceID:  deviceID,
			State:     state,
			Timestamp: house.FormatTimestamp(s.now()),
		}
	}

	s.logger.Info("actuator state changed", "device_id", deviceID, "state", state.String())

	if s.mqtt != nil {
		topic := s.mqtt.Topics().ActuatorState(deviceID)
		if err := s.mqtt.PublishJSON(topic, stored, true); err != nil {
			// The state is stored; the next command republishes it.
			s.logger.Warn("publishing actuator state failed", "device_id", deviceID, "error", err)
		}
	}
	return stored, nil
}

// PublishActuatorStates publishes the stored state of every actuator in
// the house, retained. Actuators never written fall back to their
// in-memory state. Used after (re)connecting to the broker.
func (s *Service) PublishActuatorStates(ctx context.Context) error {
	if s.mqtt == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	topics := s.mqtt.Topics()
	var firstErr error
	for _, d := range s.house.Actuators() {
		stored, err := s.store.GetActuatorState(ctx, d.ID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if stored == nil {
			stored = &house.StoredActuatorState{
				DeviceID:  d.ID,
				State:     d.Actuator.State(),
				Timestamp: house.FormatTimestamp(s.now()),
			}
		}
		if err := s.mqtt.PublishJSON(topics.ActuatorState(d.ID), stored, true); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("publishing state of %s: %w", d.ID, err)
		}
	}
	return firstErr
}

// GetMetrics returns the current counters.
func (s *Service) GetMetrics() Metrics {
	return Metrics{
		MeasurementsStored: s.measurements.Load(),
		CommandsApplied:    s.commands.Load(),
		Rejected:           s.rejected.Load(),
	}
}

func (s *Service) reject(msg, deviceID string, err error) {
	s.rejected.Add(1)
	s.logger.Warn(msg, "device_id", deviceID, "error", err)
}
