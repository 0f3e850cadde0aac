package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Point naming for mirrored sensor readings.
const (
	MeasurementSensorReadings = "sensor_readings"

	TagDeviceID = "device_id"
	TagUnit     = "unit"
	FieldValue  = "value"
)

// WriteMeasurement mirrors one sensor reading. The wall-clock timestamp
// is written as-is, so readings stored without a zone land in UTC.
// A zero ts means now. Calls on a disconnected client are dropped.
func (c *Client) WriteMeasurement(deviceID, unit string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newMeasurementPoint(deviceID, unit, value, ts))
}

func newMeasurementPoint(deviceID, unit string, value float64, ts time.Time) *write.Point {
	if ts.IsZero() {
		ts = time.Now()
	}
	tags := map[string]string{TagDeviceID: deviceID}
	if unit != "" {
		tags[TagUnit] = unit
	}
	return write.NewPoint(
		MeasurementSensorReadings,
		tags,
		map[string]interface{}{FieldValue: value},
		ts,
	)
}
