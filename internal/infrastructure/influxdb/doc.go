// Package influxdb mirrors sensor readings into InfluxDB v2.
//
// SQLite remains the system of record for the smart house. This package
// is an optional, write-only copy used for dashboards: every reading
// accepted by the ingestion daemon is also written as a point in the
// sensor_readings measurement, tagged with device_id and unit.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirror switched off
//	}
//	defer client.Close()
//
//	client.WriteMeasurement("3d87e5c0-8716-4b0b-9c67-087eaaed7b45", "%", 55.2, ts)
//
// Writes are non-blocking and batched. Failures surface asynchronously
// through SetOnError.
package influxdb
