package ingest

import "errors"

// Sentinel errors for the ingestion service.
var (
	// ErrInvalidPayload indicates a message body could not be decoded.
	ErrInvalidPayload = errors.New("ingest: invalid payload")

	// ErrUnknownDevice indicates a command for a device not in the house.
	ErrUnknownDevice = errors.New("ingest: unknown device")

	// ErrNotActuator indicates a command for a device without an actuator role.
	ErrNotActuator = errors.New("ingest: device is not an actuator")

	// ErrStopped indicates the service has been stopped.
	ErrStopped = errors.New("ingest: service stopped")
)
