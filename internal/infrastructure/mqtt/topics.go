package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of every smart house topic.
const DefaultTopicPrefix = "smarthouse"

// Topic leaves under a device.
const (
	LeafMeasurement = "measurement"
	LeafCommand     = "command"
	LeafState       = "state"
)

// Device kinds in the topic hierarchy.
const (
	KindSensor   = "sensor"
	KindActuator = "actuator"
)

// Topics builds smart house topic names under a prefix:
//
//	{prefix}/sensor/{device}/measurement    inbound readings
//	{prefix}/actuator/{device}/command      inbound commands
//	{prefix}/actuator/{device}/state        retained actuator state
//	{prefix}/system/status                  retained daemon status
type Topics struct {
	prefix string
}

// NewTopics returns a builder rooted at prefix, or DefaultTopicPrefix
// when prefix is empty.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// SensorMeasurement returns the reading topic of a sensor.
func (t Topics) SensorMeasurement(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix(), KindSensor, deviceID, LeafMeasurement)
}

// AllSensorMeasurements matches the reading topic of every sensor.
func (t Topics) AllSensorMeasurements() string {
	return t.SensorMeasurement("+")
}

// ActuatorCommand returns the command topic of an actuator.
func (t Topics) ActuatorCommand(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix(), KindActuator, deviceID, LeafCommand)
}

// AllActuatorCommands matches the command topic of every actuator.
func (t Topics) AllActuatorCommands() string {
	return t.ActuatorCommand("+")
}

// ActuatorState returns the retained state topic of an actuator.
func (t Topics) ActuatorState(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix(), KindActuator, deviceID, LeafState)
}

// SystemStatus returns the daemon status topic.
func (t Topics) SystemStatus() string {
	return t.Prefix() + "/system/status"
}

// DeviceTopic is a parsed device topic.
type DeviceTopic struct {
	Kind     string
	DeviceID string
	Leaf     string
}

// ParseDeviceTopic splits a device topic built by t.
func (t Topics) ParseDeviceTopic(topic string) (DeviceTopic, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix()+"/")
	if !ok {
		return DeviceTopic{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] == "" {
		return DeviceTopic{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	dt := DeviceTopic{Kind: parts[0], DeviceID: parts[1], Leaf: parts[2]}
	switch {
	case dt.Kind == KindSensor && dt.Leaf == LeafMeasurement:
	case dt.Kind == KindActuator && (dt.Leaf == LeafCommand || dt.Leaf == LeafState):
	default:
		return DeviceTopic{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	return dt, nil
}
