package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/r1nov8/ing301gruppeA2/internal/house"
)

// MeasurementMessage is the JSON body of a sensor reading.
//
// On MQTT the device comes from the topic and DeviceID is usually empty.
// On Kafka DeviceID is set, with the message key as fallback.
type MeasurementMessage struct {
	DeviceID  string   `json:"device,omitempty"`
	Timestamp string   `json:"ts,omitempty"`
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit,omitempty"`
}

// CommandMessage is the JSON body of an actuator command.
type CommandMessage struct {
	State json.RawMessage `json:"state"`
}

// DecodeMeasurement parses a reading. The value is required; the
// timestamp, if present, must be one of the accepted layouts.
func DecodeMeasurement(data []byte) (MeasurementMessage, error) {
	var msg MeasurementMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return MeasurementMessage{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if msg.Value == nil {
		return MeasurementMessage{}, fmt.Errorf("%w: value is required", ErrInvalidPayload)
	}
	msg.DeviceID = strings.TrimSpace(msg.DeviceID)
	msg.Timestamp = strings.TrimSpace(msg.Timestamp)
	if msg.Timestamp != "" {
		if _, err := house.ParseTimestamp(msg.Timestamp); err != nil {
			return MeasurementMessage{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}
	return msg, nil
}

// DecodeCommand parses an actuator command into the requested state:
// false turns the actuator off, true turns it on and a number turns it
// on at that target.
func DecodeCommand(data []byte) (house.ActuatorState, error) {
	var msg CommandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return house.Off(), fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if len(msg.State) == 0 || bytes.Equal(msg.State, []byte("null")) {
		return house.Off(), fmt.Errorf("%w: state is required", ErrInvalidPayload)
	}

	var state house.ActuatorState
	if err := json.Unmarshal(msg.State, &state); err != nil {
		return house.Off(), fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return state, nil
}
