package house

import (
	"fmt"
	"strings"
)

// Capability is a role a device can play.
type Capability string

// Device capabilities.
const (
	CapabilityActuator Capability = "actuator"
	CapabilitySensor   Capability = "sensor"
)

// SensorRole is the sensor payload of a device.
type SensorRole struct {
	Unit string

	last *Measurement
}

// Record remembers m as the latest measurement seen in memory.
func (s *SensorRole) Record(m Measurement) {
	s.last = &m
}

// LastMeasurement returns the latest recorded measurement, or nil.
func (s *SensorRole) LastMeasurement() *Measurement {
	if s.last == nil {
		return nil
	}
	m := *s.last
	return &m
}

// ActuatorRole is the actuator payload of a device.
type ActuatorRole struct {
	state ActuatorState
}

// TurnOn switches the actuator on without a target value.
func (a *ActuatorRole) TurnOn() { a.state = On() }

// TurnOnAt switches the actuator on with a set-point.
func (a *ActuatorRole) TurnOnAt(target float64) { a.state = OnAt(target) }

// TurnOff switches the actuator off.
func (a *ActuatorRole) TurnOff() { a.state = Off() }

// IsActive reports whether the actuator is on.
func (a *ActuatorRole) IsActive() bool { return a.state.IsActive() }

// State returns the current state.
func (a *ActuatorRole) State() ActuatorState { return a.state }

// SetState replaces the current state.
func (a *ActuatorRole) SetState(s ActuatorState) { a.state = s }

// Device is a physical unit in the house. Sensor and Actuator are the
// capability payloads; either or both may be set.
type Device struct {
	ID         string `json:"id"`
	ModelName  string `json:"model_name"`
	Supplier   string `json:"supplier"`
	DeviceType string `json:"device_type"`

	Sensor   *SensorRole   `json:"-"`
	Actuator *ActuatorRole `json:"-"`

	room *Room
}

// NewSensor creates a sensor-only device.
func NewSensor(id, modelName, supplier, deviceType, unit string) *Device {
	return &Device{
		ID:         id,
		ModelName:  modelName,
		Supplier:   supplier,
		DeviceType: deviceType,
		Sensor:     &SensorRole{Unit: unit},
	}
}

// NewActuator creates an actuator-only device in the Off state.
func NewActuator(id, modelName, supplier, deviceType string) *Device {
	return &Device{
		ID:         id,
		ModelName:  modelName,
		Supplier:   supplier,
		DeviceType: deviceType,
		Actuator:   &ActuatorRole{},
	}
}

// NewActuatorWithSensor creates a device holding both roles, such as a
// heat pump that also reports temperature.
func NewActuatorWithSensor(id, modelName, supplier, deviceType, unit string) *Device {
	d := NewActuator(id, modelName, supplier, deviceType)
	d.Sensor = &SensorRole{Unit: unit}
	return d
}

// IsSensor reports whether the device has the sensor role.
func (d *Device) IsSensor() bool { return d.Sensor != nil }

// IsActuator reports whether the device has the actuator role.
func (d *Device) IsActuator() bool { return d.Actuator != nil }

// Room returns the room the device is registered in, or nil.
func (d *Device) Room() *Room { return d.room }

// Capabilities returns the device roles in sorted order.
func (d *Device) Capabilities() []Capability {
	var caps []Capability
	if d.IsActuator() {
		caps = append(caps, CapabilityActuator)
	}
	if d.IsSensor() {
		caps = append(caps, CapabilitySensor)
	}
	return caps
}

// validate checks the invariants every registered device must hold.
func (d *Device) validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}
	if !d.IsSensor() && !d.IsActuator() {
		return fmt.Errorf("%w: %s has no capability", ErrInvalidDevice, d.ID)
	}
	return nil
}

// category encodes the capability set as stored in devices.category.
func (d *Device) category() string {
	caps := d.Capabilities()
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// parseCategory decodes devices.category into role flags.
func parseCategory(s string) (sensor, actuator bool, err error) {
	for _, p := range strings.Split(s, ",") {
		switch Capability(strings.ToLower(strings.TrimSpace(p))) {
		case CapabilitySensor:
			sensor = true
		case CapabilityActuator:
			actuator = true
		default:
			return false, false, fmt.Errorf("%w: unknown category %q", ErrInvalidDevice, s)
		}
	}
	return sensor, actuator, nil
}
