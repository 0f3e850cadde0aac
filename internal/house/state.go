package house

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type stateKind uint8

const (
	stateOff stateKind = iota
	stateOn
	stateOnAt
)

// ActuatorState is Off, On, or OnAt(target). The zero value is Off.
type ActuatorState struct {
	kind   stateKind
	target float64
}

// Off returns the inactive state.
func Off() ActuatorState { return ActuatorState{} }

// On returns the active state without a target value.
func On() ActuatorState { return ActuatorState{kind: stateOn} }

// OnAt returns the active state holding a set-point such as a heater
// temperature.
func OnAt(target float64) ActuatorState {
	return ActuatorState{kind: stateOnAt, target: target}
}

// IsActive reports whether the state is On or OnAt.
func (s ActuatorState) IsActive() bool { return s.kind != stateOff }

// Target returns the set-point and true for OnAt states.
func (s ActuatorState) Target() (float64, bool) {
	if s.kind != stateOnAt {
		return 0, false
	}
	return s.target, true
}

// String encodes the state as stored: "false", "true" or the target number.
func (s ActuatorState) String() string {
	switch s.kind {
	case stateOn:
		return "true"
	case stateOnAt:
		return strconv.FormatFloat(s.target, 'g', -1, 64)
	default:
		return "false"
	}
}

// ParseActuatorState decodes a stored state. Booleans are matched
// case-insensitively so rows written as "True"/"False" load as well.
func ParseActuatorState(s string) (ActuatorState, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "false":
		return Off(), nil
	case "true":
		return On(), nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return ActuatorState{}, fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return OnAt(f), nil
}

// MarshalJSON encodes Off/On as a JSON boolean and OnAt as a number.
func (s ActuatorState) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case stateOn:
		return []byte("true"), nil
	case stateOnAt:
		return json.Marshal(s.target)
	default:
		return []byte("false"), nil
	}
}

// UnmarshalJSON accepts a JSON boolean or number.
func (s *ActuatorState) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	switch v := raw.(type) {
	case bool:
		if v {
			*s = On()
		} else {
			*s = Off()
		}
	case float64:
		*s = OnAt(v)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, data)
	}
	return nil
}
