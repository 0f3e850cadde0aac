package kafka

import "errors"

// Errors returned by the Kafka consumer. Check with errors.Is().
var (
	// ErrDisabled is returned by NewConsumer when kafka.enabled is false.
	ErrDisabled = errors.New("kafka: consumer disabled")

	// ErrInvalidConfig is returned when brokers, topic or group are missing.
	ErrInvalidConfig = errors.New("kafka: invalid config")

	// ErrNilHandler is returned by Run when no handler is supplied.
	ErrNilHandler = errors.New("kafka: handler cannot be nil")
)
