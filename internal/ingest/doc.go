// Package ingest feeds the smart house repository from the outside world.
//
// Sensor readings arrive as JSON on MQTT
// ({prefix}/sensor/{device}/measurement) or on a Kafka topic, and are
// appended to the measurement log. Actuator commands arrive on
// {prefix}/actuator/{device}/command; the service applies them to the
// loaded house, persists the new state and publishes it retained on
// {prefix}/actuator/{device}/state.
//
// Payloads:
//
//	measurement: {"ts": "2024-01-27 08:00:00", "value": 21.5, "unit": "°C"}
//	kafka:       {"device": "<id>", "ts": "...", "value": 21.5, "unit": "°C"}
//	command:     {"state": true} | {"state": false} | {"state": 21.5}
//
// Every stored reading can also be mirrored to a time-series backend.
package ingest
